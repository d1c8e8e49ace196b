// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for public document
// pages. Every page template is paired with the base layout.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"
)

//go:embed templates/*.html
var pageFS embed.FS

// PageData holds all data passed to page templates.
type PageData struct {
	Title     string        // Page title for <title> and the heading
	Body      template.HTML // Rendered document body, trusted as stored
	UpdatedAt time.Time
}

// Renderer executes the parsed page templates.
type Renderer struct {
	templates map[string]*template.Template
}

var funcMap = template.FuncMap{
	// date formats a timestamp for the page footer.
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.UTC().Format("2 January 2006")
	},
}

// New parses all page templates from the embedded filesystem.
func New() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template)}

	pages, err := fs.Glob(pageFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("glob templates: %w", err)
	}

	for _, page := range pages {
		name := strings.TrimPrefix(page, "templates/")
		if name == "base.html" {
			continue
		}
		tmpl, err := template.New("base.html").Funcs(funcMap).ParseFS(pageFS, "templates/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[strings.TrimSuffix(name, ".html")] = tmpl
	}

	return r, nil
}

// Page renders the named page inside the base layout.
func (rn *Renderer) Page(w io.Writer, name string, data *PageData) error {
	tmpl, ok := rn.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}
	return nil
}
