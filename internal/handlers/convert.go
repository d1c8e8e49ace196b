// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"inkwell/internal/richtext"
)

// Conversion directions, used as cache key segments.
const (
	directionMarkdown = "markdown" // HTML -> Markdown
	directionHTML     = "html"     // Markdown -> HTML
)

// ConversionCache memoizes pure conversions.
type ConversionCache interface {
	Convert(ctx context.Context, direction, input string, fn func(string) string) string
}

// Convert groups the stateless conversion endpoints.
type Convert struct {
	conv  *richtext.Converter
	cache ConversionCache
}

// NewConvert creates the conversion handlers. cache may be nil.
func NewConvert(conv *richtext.Converter, cache ConversionCache) *Convert {
	return &Convert{conv: conv, cache: cache}
}

// run converts input in direction, through the cache when there is one.
func (c *Convert) run(ctx context.Context, direction, input string, fn func(string) string) string {
	if c.cache == nil {
		return fn(input)
	}
	return c.cache.Convert(ctx, direction, input, fn)
}

// readContent decodes and validates a contentRequest.
func readContent(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req contentRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	if msg := validateContent(req.Content); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return "", false
	}
	return req.Content, true
}

// ToMarkdown converts an HTML fragment to Markdown.
// POST /api/convert/markdown {"content": "<p>..</p>"}
func (c *Convert) ToMarkdown(w http.ResponseWriter, r *http.Request) {
	content, ok := readContent(w, r)
	if !ok {
		return
	}
	out := c.run(r.Context(), directionMarkdown, content, c.conv.HTMLToMarkdown)
	writeJSON(w, http.StatusOK, contentResponse{Content: out})
}

// ToHTML converts Markdown to an HTML fragment.
// POST /api/convert/html {"content": "# .."}
func (c *Convert) ToHTML(w http.ResponseWriter, r *http.Request) {
	content, ok := readContent(w, r)
	if !ok {
		return
	}
	out := c.run(r.Context(), directionHTML, content, c.conv.MarkdownToHTML)
	writeJSON(w, http.StatusOK, contentResponse{Content: out})
}

// Normalize runs the normalizer for the {format} URL parameter.
// POST /api/normalize/{format}
func (c *Convert) Normalize(w http.ResponseWriter, r *http.Request) {
	var normalize func(string) string
	switch chi.URLParam(r, "format") {
	case "markdown":
		normalize = c.conv.NormalizeMarkdown
	case "html":
		normalize = c.conv.NormalizeHTML
	default:
		writeError(w, http.StatusNotFound, "unknown format (want markdown or html)")
		return
	}

	content, ok := readContent(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, contentResponse{Content: normalize(content)})
}
