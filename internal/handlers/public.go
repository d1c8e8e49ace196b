// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/models"
	"inkwell/internal/render"
)

// MarkdownRenderer turns stored Markdown bodies into page HTML.
type MarkdownRenderer interface {
	ToHTML(source string) (string, error)
}

// PageRenderer executes a named page template.
type PageRenderer interface {
	Page(w io.Writer, name string, data *render.PageData) error
}

// Public serves documents as standalone HTML pages. It checks the Valkey
// page cache before touching the database, and stores rendered results on
// miss.
type Public struct {
	docs      DocumentRepo
	markdown  MarkdownRenderer
	templates PageRenderer
	pages     PageCache
}

// NewPublic creates the public page handlers.
func NewPublic(docs DocumentRepo, markdown MarkdownRenderer, templates PageRenderer, pages PageCache) *Public {
	return &Public{docs: docs, markdown: markdown, templates: templates, pages: pages}
}

// Page renders a document by its slug.
// GET /{slug}
func (p *Public) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")

	if cached, ok := p.pages.Get(ctx, slugParam); ok {
		writeHTML(w, http.StatusOK, cached)
		return
	}

	doc, err := p.docs.FindBySlug(slugParam)
	if err != nil {
		slog.Error("find document by slug failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if doc == nil {
		p.notFound(w)
		return
	}

	body := doc.Body
	if doc.BodyFormat == models.BodyFormatMarkdown {
		body, err = p.markdown.ToHTML(doc.Body)
		if err != nil {
			slog.Error("render markdown failed", "error", err, "slug", slugParam)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
	}

	var buf bytes.Buffer
	err = p.templates.Page(&buf, "document", &render.PageData{
		Title:     doc.Title,
		Body:      template.HTML(body),
		UpdatedAt: doc.UpdatedAt,
	})
	if err != nil {
		slog.Error("render page failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.pages.Set(ctx, slugParam, buf.Bytes())
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// notFound renders the 404 page. Not cached.
func (p *Public) notFound(w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := p.templates.Page(&buf, "not_found", &render.PageData{Title: "Not found"}); err != nil {
		slog.Error("render not found page failed", "error", err)
		http.NotFound(w, nil)
		return
	}
	writeHTML(w, http.StatusNotFound, buf.Bytes())
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
