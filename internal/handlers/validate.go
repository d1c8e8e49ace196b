// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"strings"
	"unicode/utf8"
)

// Validation limits for document fields and converted content.
const (
	maxTitleLen   = 300
	maxSlugLen    = 300
	maxContentLen = 500_000
)

// validateDocument checks document inputs and returns the first error found.
func validateDocument(title, slug, body string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(slug) > maxSlugLen {
		return "Slug is too long (max 300 characters)."
	}
	return validateContent(body)
}

// validateContent checks a content string submitted for conversion or
// editing.
func validateContent(content string) string {
	if utf8.RuneCountInString(content) > maxContentLen {
		return "Content is too long (max 500,000 characters)."
	}
	return ""
}
