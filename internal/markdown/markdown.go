// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders stored Markdown bodies into public HTML using
// goldmark. Unlike the editor's converter it adds heading anchors,
// typography and syntax highlighting, and passes raw HTML through.
package markdown

import (
	"bytes"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "monokai"

// Renderer is a configured goldmark instance. It is safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New returns a renderer highlighting fenced code with the named chroma
// style. An empty style means DefaultStyle.
func New(style string) *Renderer {
	if style == "" {
		style = DefaultStyle
	}
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,            // tables, strikethrough, autolinks, task lists
			extension.DefinitionList, // "Term\n: Meaning"
			extension.Typographer,    // smart quotes and dashes
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.TabWidth(4)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(), // opaque blocks such as <details> are stored as raw HTML
		),
	)}
}

// ToHTML converts Markdown source into HTML.
func (r *Renderer) ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
