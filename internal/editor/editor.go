// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor implements the editing-mode state machine. An Editor owns
// the single content string and its mode, and converts the content through
// the richtext package when the user switches between the rich-text
// surface, Markdown source and HTML source.
package editor

import (
	"errors"

	"inkwell/internal/richtext"
)

// ErrSwitchInProgress is returned when a switch or edit is requested while
// a mode switch is still running, e.g. from a callback it triggered.
var ErrSwitchInProgress = errors.New("mode switch already in progress")

// Surface is the rich-text editing surface. It serializes to HTML and can
// be reloaded from HTML.
type Surface interface {
	HTML() string
	Load(html string)
}

// BufferSurface is a headless Surface that keeps the HTML in memory.
type BufferSurface struct {
	html string
}

// NewBufferSurface returns a surface holding html.
func NewBufferSurface(html string) *BufferSurface {
	return &BufferSurface{html: html}
}

func (s *BufferSurface) HTML() string     { return s.html }
func (s *BufferSurface) Load(html string) { s.html = html }

// Config wires an Editor to its host.
type Config struct {
	// Surface is the rich-text surface. Nil means a BufferSurface.
	Surface Surface

	// Converter runs the conversions. Nil means default options.
	Converter *richtext.Converter

	// OnChange is called with the current content after every edit,
	// surface change and completed switch.
	OnChange func(content string)
}

// Editor holds the content string and the current mode. It is not safe for
// concurrent use.
type Editor struct {
	mode      Mode
	source    string // content in MarkdownSource and HTMLSource
	surface   Surface
	conv      *richtext.Converter
	onChange  func(string)
	switching bool
}

// New returns an editor in RichText mode with the surface loaded from html.
func New(cfg Config, html string) *Editor {
	e := newEditor(cfg)
	e.surface.Load(html)
	return e
}

// Restore returns an editor resuming in mode with content in that mode's
// grammar.
func Restore(cfg Config, mode Mode, content string) (*Editor, error) {
	if !mode.Valid() {
		return nil, ErrUnknownMode
	}
	e := newEditor(cfg)
	e.mode = mode
	if mode == RichText {
		e.surface.Load(content)
	} else {
		e.source = content
	}
	return e, nil
}

func newEditor(cfg Config) *Editor {
	e := &Editor{
		mode:     RichText,
		surface:  cfg.Surface,
		conv:     cfg.Converter,
		onChange: cfg.OnChange,
	}
	if e.surface == nil {
		e.surface = NewBufferSurface("")
	}
	if e.conv == nil {
		e.conv = richtext.New(richtext.Options{})
	}
	return e
}

// Mode returns the current mode.
func (e *Editor) Mode() Mode {
	return e.mode
}

// Content returns the content string in the current mode's grammar.
func (e *Editor) Content() string {
	if e.mode == RichText {
		return e.surface.HTML()
	}
	return e.source
}

// Canonical returns the normalized HTML form of the content, whatever the
// current mode.
func (e *Editor) Canonical() string {
	switch e.mode {
	case MarkdownSource:
		return e.conv.NormalizeHTML(e.conv.MarkdownToHTML(e.source))
	case HTMLSource:
		return e.conv.NormalizeHTML(e.source)
	}
	return e.conv.NormalizeHTML(e.surface.HTML())
}

// transition identifies an edge of the mode graph.
type transition struct {
	from, to Mode
}

// transitions converts content from the grammar of one mode to another.
var transitions = map[transition]func(c *richtext.Converter, content string) string{
	{RichText, MarkdownSource}: toMarkdown,
	{RichText, HTMLSource}:     normalizeHTML,
	{MarkdownSource, HTMLSource}: func(c *richtext.Converter, md string) string {
		return c.NormalizeHTML(c.MarkdownToHTML(md))
	},
	{MarkdownSource, RichText}: func(c *richtext.Converter, md string) string {
		return c.NormalizeHTML(c.MarkdownToHTML(md))
	},
	{HTMLSource, MarkdownSource}: toMarkdown,
	{HTMLSource, RichText}:       normalizeHTML,
}

func toMarkdown(c *richtext.Converter, html string) string {
	return c.NormalizeMarkdown(c.HTMLToMarkdown(html))
}

func normalizeHTML(c *richtext.Converter, html string) string {
	return c.NormalizeHTML(html)
}

// Switch moves the editor to mode to, converting the content on the way.
// Switching to the current mode does nothing.
func (e *Editor) Switch(to Mode) error {
	if !to.Valid() {
		return ErrUnknownMode
	}
	if e.switching {
		return ErrSwitchInProgress
	}
	if to == e.mode {
		return nil
	}

	e.switching = true
	defer func() { e.switching = false }()

	convert := transitions[transition{e.mode, to}]
	content := convert(e.conv, e.Content())
	if to == RichText {
		e.surface.Load(content)
		e.source = ""
	} else {
		e.source = content
	}
	e.mode = to
	e.notify()
	return nil
}

// Edit replaces the content in the current mode. In RichText the surface
// is reloaded from content.
func (e *Editor) Edit(content string) error {
	if e.switching {
		return ErrSwitchInProgress
	}
	if e.mode == RichText {
		e.surface.Load(content)
	} else {
		e.source = content
	}
	e.notify()
	return nil
}

// SurfaceChanged tells the editor that the surface was edited by the user.
// Changes reported while a switch loads the surface are ignored.
func (e *Editor) SurfaceChanged() {
	if e.switching || e.mode != RichText {
		return
	}
	e.notify()
}

func (e *Editor) notify() {
	if e.onChange != nil {
		e.onChange(e.Content())
	}
}
