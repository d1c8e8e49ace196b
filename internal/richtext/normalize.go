// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package richtext

import (
	"regexp"
	"strings"
)

// NormalizeMarkdown returns the canonical storage form of a Markdown string:
// "\n" line endings, tabs expanded to four spaces, no trailing spaces, no
// runs of blank lines, no leading or trailing blank lines and no indentation
// before the first line. A hard line break keeps exactly two trailing spaces.
// Code fences keep their blank lines. The result is stable: normalizing it again changes nothing.
func NormalizeMarkdown(md string) string {
	md = strings.ReplaceAll(md, "\r\n", "\n")
	md = strings.ReplaceAll(md, "\r", "\n")
	md = strings.ReplaceAll(md, "\t", "    ")

	lines := strings.Split(md, "\n")
	fenced := fencedLines(lines)
	out := make([]string, len(lines))
	for i, line := range lines {
		stripped := strings.TrimRight(line, " ")
		if !fenced[i] && stripped != "" && len(line)-len(stripped) >= 2 &&
			i+1 < len(lines) && !fenced[i+1] && !isBlank(lines[i+1]) {
			stripped += "  "
		}
		out[i] = stripped
	}
	trimLeadingIndent(out, fenced)
	return strings.Trim(strings.Join(collapseBlankLines(out, fenced), "\n"), "\n")
}

// trimLeadingIndent drops the indentation of the first non-blank line. A
// line that would turn into a fence opener once unindented keeps its
// indentation, otherwise a second pass would see a different fence layout.
func trimLeadingIndent(lines []string, fenced []bool) {
	for i, line := range lines {
		if line == "" {
			continue
		}
		if fenced[i] {
			return
		}
		trimmed := strings.TrimLeft(line, " ")
		if _, ok := detectFence(trimmed); !ok {
			lines[i] = trimmed
		}
		return
	}
}

// cleanupMarkdown tidies rendered Markdown: blank-line runs collapse to one
// and the result is trimmed.
func cleanupMarkdown(md string) string {
	lines := strings.Split(md, "\n")
	return strings.TrimSpace(strings.Join(collapseBlankLines(lines, fencedLines(lines)), "\n"))
}

// fencedLines marks the lines that belong to a fenced code block,
// delimiters included.
func fencedLines(lines []string) []bool {
	fenced := make([]bool, len(lines))
	var open fenceSpec
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		if inFence {
			fenced[i] = true
			if f, ok := detectFence(trimmed); ok && f.char == open.char && f.length >= open.length && f.info == "" {
				inFence = false
			}
			continue
		}
		if f, ok := detectFence(trimmed); ok && len(line)-len(trimmed) <= 3 {
			fenced[i] = true
			open, inFence = f, true
		}
	}
	return fenced
}

func collapseBlankLines(lines []string, fenced []bool) []string {
	out := make([]string, 0, len(lines))
	prevBlank := false
	for i, line := range lines {
		if fenced[i] {
			out = append(out, line)
			prevBlank = false
			continue
		}
		blank := isBlank(line)
		if blank && prevBlank {
			continue
		}
		if blank {
			line = ""
		}
		out = append(out, line)
		prevBlank = blank
	}
	return out
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	tagSpacing    = regexp.MustCompile(`<\s*(/?)\s*([A-Za-z][A-Za-z0-9-]*)([^<>]*?)\s*(/?)\s*>`)
)

// preservedTags keep their content byte for byte.
var preservedTags = []string{"pre", "textarea", "script", "style"}

// NormalizeHTML returns the canonical storage form of an HTML string:
// whitespace runs collapse to one space, whitespace just inside tag
// brackets is removed, and the result is trimmed. The content of pre,
// textarea, script and style elements is left untouched.
func NormalizeHTML(s string) string {
	var sb strings.Builder
	for {
		start, end := preservedRegion(s)
		if start < 0 {
			sb.WriteString(normalizeMarkup(s))
			break
		}
		sb.WriteString(normalizeMarkup(s[:start]))
		sb.WriteString(s[start:end])
		s = s[end:]
	}
	return strings.TrimSpace(sb.String())
}

func normalizeMarkup(s string) string {
	s = whitespaceRun.ReplaceAllString(s, " ")
	return tagSpacing.ReplaceAllString(s, "<$1$2$3$4>")
}

// preservedRegion locates the content of the first preserved element: from
// just after its opening tag to the start of its closing tag, or to the end
// of s when it is never closed. It returns -1, -1 when there is none.
func preservedRegion(s string) (int, int) {
	lower := asciiLower(s)
	start, tag := -1, ""
	for _, t := range preservedTags {
		from := 0
		for {
			idx := strings.Index(lower[from:], "<"+t)
			if idx < 0 {
				break
			}
			idx += from
			after := idx + 1 + len(t)
			if after == len(lower) || strings.IndexByte(" \t\n\r/>", lower[after]) >= 0 {
				if start < 0 || idx < start {
					start, tag = idx, t
				}
				break
			}
			from = after
		}
	}
	if start < 0 {
		return -1, -1
	}
	gt := strings.IndexByte(s[start:], '>')
	if gt < 0 {
		return -1, -1
	}
	contentStart := start + gt + 1
	closing := strings.Index(lower[contentStart:], "</"+tag)
	if closing < 0 {
		return contentStart, len(s)
	}
	return contentStart, contentStart + closing
}

// asciiLower lowercases ASCII letters only, keeping byte offsets aligned
// with s.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
