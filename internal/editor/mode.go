// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editor

import (
	"errors"
	"fmt"
	"strings"
)

// Mode is the editing mode. It decides the grammar of the content string:
// HTML held by the surface in RichText, Markdown in MarkdownSource and HTML
// text in HTMLSource.
type Mode int

const (
	RichText Mode = iota
	MarkdownSource
	HTMLSource
)

// ErrUnknownMode is returned when a mode name or value is not one of the
// three editing modes.
var ErrUnknownMode = errors.New("unknown editing mode")

var modeNames = map[Mode]string{
	RichText:       "richtext",
	MarkdownSource: "markdown",
	HTMLSource:     "html",
}

// String returns the mode's name as used in the API and in stored sessions.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is one of the editing modes.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// ParseMode parses "richtext", "markdown" or "html", ignoring case.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MarshalText encodes the mode by name.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
