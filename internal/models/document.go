// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BodyFormat is the grammar a document body is stored in.
type BodyFormat string

const (
	BodyFormatHTML     BodyFormat = "html"
	BodyFormatMarkdown BodyFormat = "markdown"
)

// Valid reports whether f is a known body format.
func (f BodyFormat) Valid() bool {
	return f == BodyFormatHTML || f == BodyFormatMarkdown
}

// ParseBodyFormat parses a body format name. The empty string means HTML.
func ParseBodyFormat(s string) (BodyFormat, error) {
	if s == "" {
		return BodyFormatHTML, nil
	}
	f := BodyFormat(s)
	if !f.Valid() {
		return "", fmt.Errorf("unknown body format %q (want html or markdown)", s)
	}
	return f, nil
}

// Document is a stored piece of rich text. Body holds either canonical
// HTML or Markdown source, as told by BodyFormat.
type Document struct {
	ID         uuid.UUID  `json:"id"`
	Title      string     `json:"title"`
	Slug       string     `json:"slug"`
	Body       string     `json:"body"`
	BodyFormat BodyFormat `json:"body_format"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DocumentRevision is a snapshot of a document taken before its body is
// replaced.
type DocumentRevision struct {
	ID         uuid.UUID  `json:"id"`
	DocumentID uuid.UUID  `json:"document_id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	BodyFormat BodyFormat `json:"body_format"`
	CreatedAt  time.Time  `json:"created_at"`
}
