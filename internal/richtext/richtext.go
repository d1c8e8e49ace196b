// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package richtext converts content between HTML (the rich-text editor's
// serialization) and Markdown. Both directions go through a shared node
// tree: the source is parsed into blocks and inlines, and the target is
// rendered from that tree. Markup with no Markdown equivalent (underline,
// kbd, details, figure, ...) is carried through as opaque nodes and emitted
// verbatim.
//
// Conversions never fail. Malformed input degrades to its text content.
// Every function in this package is pure and safe for concurrent use.
package richtext

import (
	"fmt"
	"strings"
)

// RawHTMLPolicy decides what happens to raw HTML tags found in Markdown
// input that are not on the opaque allow-list.
type RawHTMLPolicy int

const (
	// RawHTMLEscape renders unknown tags as visible text.
	RawHTMLEscape RawHTMLPolicy = iota
	// RawHTMLPassthrough keeps every raw tag as markup.
	RawHTMLPassthrough
)

// String returns the configuration name of the policy.
func (p RawHTMLPolicy) String() string {
	if p == RawHTMLPassthrough {
		return "passthrough"
	}
	return "escape"
}

// ParseRawHTMLPolicy parses "escape" or "passthrough". An empty string
// yields the default escape policy.
func ParseRawHTMLPolicy(s string) (RawHTMLPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "escape":
		return RawHTMLEscape, nil
	case "passthrough":
		return RawHTMLPassthrough, nil
	}
	return RawHTMLEscape, fmt.Errorf("unknown raw html policy %q (want escape or passthrough)", s)
}

// Options tunes a Converter. The zero value matches the editor defaults.
type Options struct {
	RawHTML RawHTMLPolicy

	// AlignTables pads Markdown table cells to a common display width.
	AlignTables bool
}

// Converter runs the conversions with a fixed set of options. It holds no
// mutable state.
type Converter struct {
	opts Options
}

// New returns a Converter configured with opts.
func New(opts Options) *Converter {
	return &Converter{opts: opts}
}

// Options returns the converter's configuration.
func (c *Converter) Options() Options {
	return c.opts
}

// HTMLToMarkdown converts an HTML fragment to Markdown.
func (c *Converter) HTMLToMarkdown(html string) string {
	doc := parseHTML(html)
	md := renderMarkdown(doc, c.opts)
	return cleanupMarkdown(md)
}

// MarkdownToHTML converts Markdown to an HTML fragment.
func (c *Converter) MarkdownToHTML(markdown string) string {
	doc := parseMarkdown(markdown, c.opts)
	return renderHTML(doc)
}

// NormalizeMarkdown returns the canonical form of a Markdown string.
func (c *Converter) NormalizeMarkdown(markdown string) string {
	return NormalizeMarkdown(markdown)
}

// NormalizeHTML returns the canonical form of an HTML string.
func (c *Converter) NormalizeHTML(html string) string {
	return NormalizeHTML(html)
}

var defaultConverter = New(Options{})

// HTMLToMarkdown converts an HTML fragment to Markdown using default options.
func HTMLToMarkdown(html string) string {
	return defaultConverter.HTMLToMarkdown(html)
}

// MarkdownToHTML converts Markdown to HTML using default options.
func MarkdownToHTML(markdown string) string {
	return defaultConverter.MarkdownToHTML(markdown)
}
