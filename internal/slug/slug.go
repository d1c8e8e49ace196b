// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from document titles.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace matches runs of spaces, tabs and newlines.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Generate creates a URL-friendly slug from the given string. Accents are
// folded to their base letters before other characters are dropped.
// Example: "Crème Brûlée, 2026!" → "creme-brulee-2026"
func Generate(s string) string {
	result := foldAccents(s)
	result = strings.ToLower(strings.TrimSpace(result))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	return result
}

// foldAccents decomposes s and drops the combining marks, so "é" becomes "e".
func foldAccents(s string) string {
	// transform chains keep state and must not be shared between calls.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Unique returns base, or base with the smallest numeric suffix ("-2",
// "-3", ...) for which taken reports false. An empty base becomes "untitled".
func Unique(base string, taken func(string) bool) string {
	if base == "" {
		base = "untitled"
	}
	candidate := base
	for n := 2; taken(candidate); n++ {
		candidate = base + "-" + strconv.Itoa(n)
	}
	return candidate
}
