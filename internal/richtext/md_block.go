// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package richtext

import (
	"strconv"
	"strings"
)

// markdownNestingLimit bounds blockquote recursion; deeper content is kept
// as a plain paragraph.
const markdownNestingLimit = 32

// mdParser is a line-based block scanner producing the same tree shape as
// the HTML parser.
type mdParser struct {
	opts Options
}

func parseMarkdown(src string, opts Options) *Node {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	src = strings.ReplaceAll(src, "\t", "    ")
	p := mdParser{opts: opts}
	return newNode(KindDocument, p.blocks(strings.Split(src, "\n"), 0)...)
}

func (p mdParser) blocks(lines []string, depth int) []*Node {
	if depth >= markdownNestingLimit {
		text := strings.TrimSpace(strings.Join(lines, "\n"))
		if text == "" {
			return nil
		}
		return []*Node{newNode(KindParagraph, p.inline(text)...)}
	}

	var blocks []*Node
	i := 0
	for i < len(lines) {
		line := lines[i]
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			i++
			continue
		}
		indent := len(line) - len(trimmed)

		if fence, ok := detectFence(trimmed); ok && indent <= 3 {
			block, next := parseFencedCode(lines, i, fence)
			blocks = append(blocks, block)
			i = next
			continue
		}
		if tag, ok := p.rawBlockStart(trimmed); ok {
			block, next := parseRawBlock(lines, i, tag)
			blocks = append(blocks, block)
			i = next
			continue
		}
		if level, text, ok := parseATXHeading(trimmed); ok {
			blocks = append(blocks, &Node{Kind: KindHeading, Level: level, Children: p.inline(text)})
			i++
			continue
		}
		if isRuleLine(trimmed) {
			blocks = append(blocks, &Node{Kind: KindRule})
			i++
			continue
		}
		if strings.HasPrefix(trimmed, ">") {
			block, next := p.parseBlockquote(lines, i, depth)
			blocks = append(blocks, block)
			i = next
			continue
		}
		if isTableStart(lines, i) {
			block, next := p.parseTable(lines, i)
			blocks = append(blocks, block)
			i = next
			continue
		}
		if _, ok := matchListItem(line); ok {
			block, next := p.parseList(lines, i)
			blocks = append(blocks, block)
			i = next
			continue
		}
		if isDefinitionStart(lines, i) {
			block, next := p.parseDefList(lines, i)
			blocks = append(blocks, block)
			i = next
			continue
		}

		block, next := p.parseParagraph(lines, i)
		blocks = append(blocks, block)
		i = next
	}
	return blocks
}

// startsBlock reports whether lines[i] opens a construct that interrupts a
// paragraph.
func (p mdParser) startsBlock(lines []string, i int) bool {
	trimmed := strings.TrimLeft(lines[i], " ")
	if _, ok := detectFence(trimmed); ok {
		return true
	}
	if _, ok := p.rawBlockStart(trimmed); ok {
		return true
	}
	if _, _, ok := parseATXHeading(trimmed); ok {
		return true
	}
	if _, ok := matchListItem(lines[i]); ok {
		return true
	}
	return isRuleLine(trimmed) ||
		strings.HasPrefix(trimmed, ">") ||
		isTableStart(lines, i) ||
		isDefinitionStart(lines, i)
}

func (p mdParser) parseParagraph(lines []string, start int) (*Node, int) {
	var parts []string
	i := start
	for i < len(lines) {
		if isBlank(lines[i]) || (i > start && p.startsBlock(lines, i)) {
			break
		}
		parts = append(parts, strings.TrimLeft(lines[i], " "))
		i++
	}
	text := strings.TrimRight(strings.Join(parts, "\n"), " ")
	return newNode(KindParagraph, p.inline(text)...), i
}

func (p mdParser) parseBlockquote(lines []string, start, depth int) (*Node, int) {
	var inner []string
	i := start
	for i < len(lines) {
		trimmed := strings.TrimLeft(lines[i], " ")
		if !strings.HasPrefix(trimmed, ">") {
			break
		}
		trimmed = strings.TrimPrefix(trimmed, ">")
		trimmed = strings.TrimPrefix(trimmed, " ")
		inner = append(inner, trimmed)
		i++
	}
	return newNode(KindBlockquote, p.blocks(inner, depth+1)...), i
}

type fenceSpec struct {
	char   byte
	length int
	info   string
}

func detectFence(trimmed string) (fenceSpec, bool) {
	if len(trimmed) < 3 || trimmed[0] != '`' && trimmed[0] != '~' {
		return fenceSpec{}, false
	}
	c := trimmed[0]
	n := 0
	for n < len(trimmed) && trimmed[n] == c {
		n++
	}
	if n < 3 {
		return fenceSpec{}, false
	}
	info := strings.TrimSpace(trimmed[n:])
	if c == '`' && strings.Contains(info, "`") {
		return fenceSpec{}, false
	}
	return fenceSpec{char: c, length: n, info: info}, true
}

func parseFencedCode(lines []string, start int, fence fenceSpec) (*Node, int) {
	block := &Node{Kind: KindCodeBlock}
	if fields := strings.Fields(fence.info); len(fields) > 0 {
		block.Lang = fields[0]
	}
	openIndent := len(lines[start]) - len(strings.TrimLeft(lines[start], " "))
	var content []string
	i := start + 1
	for ; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " ")
		if closing, ok := detectFence(trimmed); ok && closing.char == fence.char &&
			closing.length >= fence.length && closing.info == "" {
			i++
			break
		}
		content = append(content, trimIndent(lines[i], openIndent))
	}
	block.Text = strings.Join(content, "\n")
	return block, i
}

func trimIndent(line string, n int) string {
	for n > 0 && strings.HasPrefix(line, " ") {
		line = line[1:]
		n--
	}
	return line
}

// rawBlockStart reports whether a line opens a verbatim HTML block and
// returns the tag name.
func (p mdParser) rawBlockStart(trimmed string) (string, bool) {
	if len(trimmed) < 2 || trimmed[0] != '<' {
		return "", false
	}
	end := 1
	for end < len(trimmed) && isTagNameByte(trimmed[end]) {
		end++
	}
	if end == 1 || end < len(trimmed) && trimmed[end] != '>' && trimmed[end] != ' ' && trimmed[end] != '/' {
		return "", false
	}
	tag := strings.ToLower(trimmed[1:end])
	return tag, allowedRawBlock(tag, p.opts.RawHTML)
}

// parseRawBlock consumes lines up to the line closing the opening tag, or
// up to the next blank line when the tag is never closed.
func parseRawBlock(lines []string, start int, tag string) (*Node, int) {
	open, closeTag := "<"+tag, "</"+tag+">"
	depth := 0
	for i := start; i < len(lines); i++ {
		lower := strings.ToLower(lines[i])
		depth += countTagOpens(lower, open) - strings.Count(lower, closeTag)
		if depth <= 0 {
			return rawBlock(lines[start:i+1], tag), i + 1
		}
	}
	i := start
	for i < len(lines) && !isBlank(lines[i]) {
		i++
	}
	return rawBlock(lines[start:i], tag), i
}

func rawBlock(lines []string, tag string) *Node {
	return &Node{Kind: KindOpaqueBlock, Tag: tag, Text: strings.TrimSpace(strings.Join(lines, "\n"))}
}

// countTagOpens counts "<tag" occurrences followed by a tag delimiter, so
// <summary> is not counted as an opening <sum...> of another tag.
func countTagOpens(s, open string) int {
	n := 0
	for {
		idx := strings.Index(s, open)
		if idx < 0 {
			return n
		}
		rest := s[idx+len(open):]
		if rest == "" || rest[0] == '>' || rest[0] == ' ' || rest[0] == '/' {
			n++
		}
		s = rest
	}
}

func isTagNameByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b == '-'
}

// parseATXHeading parses "# Title" lines. A closing run of '#' preceded by
// a space is dropped.
func parseATXHeading(trimmed string) (int, string, bool) {
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' {
		return 0, "", false
	}
	text := strings.TrimSpace(rest)
	if stripped := strings.TrimRight(text, "#"); stripped != text {
		if stripped == "" {
			text = ""
		} else if strings.HasSuffix(stripped, " ") {
			text = strings.TrimSpace(stripped)
		}
	}
	return level, text, true
}

// isRuleLine reports whether a line is a thematic break: three or more of
// the same '-', '*' or '_', optionally separated by spaces.
func isRuleLine(trimmed string) bool {
	var c byte
	n := 0
	for i := 0; i < len(trimmed); i++ {
		switch ch := trimmed[i]; {
		case ch == ' ':
		case ch == '-' || ch == '*' || ch == '_':
			if c != 0 && ch != c {
				return false
			}
			c = ch
			n++
		default:
			return false
		}
	}
	return n >= 3
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// --- Lists ---

type listMarker struct {
	indent  int
	ordered bool
	number  int
	text    string
}

// matchListItem recognizes "- x", "* x", "+ x", "1. x" and "1) x" lines.
// A bare marker is an empty item.
func matchListItem(line string) (listMarker, bool) {
	trimmed := strings.TrimLeft(line, " ")
	m := listMarker{indent: len(line) - len(trimmed)}
	if trimmed == "" || isRuleLine(trimmed) {
		return m, false
	}
	var rest string
	switch c := trimmed[0]; {
	case c == '-' || c == '*' || c == '+':
		rest = trimmed[1:]
	case c >= '0' && c <= '9':
		digits := 0
		for digits < len(trimmed) && digits < 9 && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
			digits++
		}
		if digits >= len(trimmed) || trimmed[digits] != '.' && trimmed[digits] != ')' {
			return m, false
		}
		m.ordered = true
		m.number, _ = strconv.Atoi(trimmed[:digits])
		rest = trimmed[digits+1:]
	default:
		return m, false
	}
	if rest != "" && rest[0] != ' ' {
		return m, false
	}
	m.text = strings.TrimLeft(rest, " ")
	return m, true
}

// pendingItem gathers an item's text lines and nested lists while the list
// is scanned.
type pendingItem struct {
	lines  []string
	nested []*Node
}

// parseList consumes the list starting at lines[start]. Nesting depth is
// the leading-space run divided by two; deeper items open a nested list
// inside the current item.
func (p mdParser) parseList(lines []string, start int) (*Node, int) {
	first, _ := matchListItem(lines[start])
	level := first.indent / 2
	list := &Node{Kind: KindList, Ordered: first.ordered, Start: 1}
	if first.ordered {
		list.Start = first.number
	}

	var items []*pendingItem
	i := start
	for i < len(lines) {
		line := lines[i]
		if isBlank(line) {
			// A blank line continues the list only when an item of this
			// list or a deeper one follows.
			j := i
			for j < len(lines) && isBlank(lines[j]) {
				j++
			}
			if j < len(lines) {
				if m, ok := matchListItem(lines[j]); ok && (m.indent/2 > level || m.indent/2 == level && m.ordered == list.Ordered) {
					i = j
					continue
				}
			}
			break
		}

		if m, ok := matchListItem(line); ok {
			l := m.indent / 2
			if l < level || l == level && m.ordered != list.Ordered {
				break
			}
			if l == level {
				items = append(items, &pendingItem{lines: []string{m.text}})
				i++
				continue
			}
			if len(items) == 0 {
				items = append(items, &pendingItem{})
			}
			sub, next := p.parseList(lines, i)
			last := items[len(items)-1]
			last.nested = append(last.nested, sub)
			i = next
			continue
		}

		// Indented text continues the current item.
		indent := len(line) - len(strings.TrimLeft(line, " "))
		if len(items) > 0 && indent > level*2 {
			last := items[len(items)-1]
			last.lines = append(last.lines, strings.TrimLeft(line, " "))
			i++
			continue
		}
		break
	}

	for _, it := range items {
		item := newNode(KindListItem)
		text := strings.TrimRight(strings.Join(it.lines, "\n"), " ")
		if strings.TrimSpace(text) != "" {
			item.append(newNode(KindParagraph, p.inline(text)...))
		}
		item.append(it.nested...)
		list.append(item)
	}
	return list, i
}

// --- Tables ---

func isTableStart(lines []string, i int) bool {
	return i+1 < len(lines) && strings.Contains(lines[i], "|") && isSeparatorLine(lines[i+1])
}

// isSeparatorLine matches the header separator row, e.g. "| --- | :-: |".
func isSeparatorLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, "|") || !strings.Contains(trimmed, "-") {
		return false
	}
	for _, cell := range splitRow(trimmed) {
		if !isSeparatorCell(cell) {
			return false
		}
	}
	return true
}

func isSeparatorCell(cell string) bool {
	cell = strings.TrimSpace(cell)
	cell = strings.TrimPrefix(cell, ":")
	cell = strings.TrimSuffix(cell, ":")
	if cell == "" {
		return false
	}
	return strings.Trim(cell, "-") == ""
}

// splitRow splits a table row on unescaped pipes, dropping the optional
// outer pipes.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = line[:len(line)-1]
	}
	var cells []string
	var cell strings.Builder
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cell.WriteString(`\|`)
			i++
		case line[i] == '|':
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteByte(line[i])
		}
	}
	return append(cells, strings.TrimSpace(cell.String()))
}

func alignFromSeparator(cell string) Align {
	cell = strings.TrimSpace(cell)
	left, right := strings.HasPrefix(cell, ":"), strings.HasSuffix(cell, ":")
	switch {
	case left && right:
		return AlignCenter
	case left:
		return AlignLeft
	case right:
		return AlignRight
	}
	return AlignNone
}

// parseTable reads the header, separator and data rows. The header decides
// the column count; short rows get empty cells and long rows are cut.
func (p mdParser) parseTable(lines []string, start int) (*Node, int) {
	header := splitRow(lines[start])
	seps := splitRow(lines[start+1])
	aligns := make([]Align, len(header))
	for ci := range aligns {
		if ci < len(seps) {
			aligns[ci] = alignFromSeparator(seps[ci])
		}
	}

	table := newNode(KindTable)
	table.append(p.tableRow(header, aligns, true))
	i := start + 2
	for i < len(lines) && !isBlank(lines[i]) && strings.Contains(lines[i], "|") {
		table.append(p.tableRow(splitRow(lines[i]), aligns, false))
		i++
	}
	return table, i
}

func (p mdParser) tableRow(cells []string, aligns []Align, header bool) *Node {
	row := &Node{Kind: KindTableRow, Header: header}
	for ci := range aligns {
		var text string
		if ci < len(cells) {
			text = strings.ReplaceAll(cells[ci], `\|`, "|")
		}
		row.append(&Node{
			Kind:     KindTableCell,
			Header:   header,
			Align:    aligns[ci],
			Children: p.inline(text),
		})
	}
	return row
}

// --- Definition lists ---

func isDefinitionStart(lines []string, i int) bool {
	if i+1 >= len(lines) || isBlank(lines[i]) {
		return false
	}
	return isDefinitionLine(lines[i+1])
}

func isDefinitionLine(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	return strings.HasPrefix(trimmed, ": ") || trimmed == ":"
}

func (p mdParser) parseDefList(lines []string, start int) (*Node, int) {
	dl := newNode(KindDefList)
	i := start
	for i < len(lines) && !isBlank(lines[i]) {
		if isDefinitionLine(lines[i]) {
			text := strings.TrimSpace(strings.TrimPrefix(strings.TrimLeft(lines[i], " "), ":"))
			dl.append(newNode(KindDefDesc, p.inline(text)...))
			i++
			continue
		}
		if !isDefinitionStart(lines, i) {
			break
		}
		dl.append(newNode(KindDefTerm, p.inline(strings.TrimSpace(lines[i]))...))
		i++
	}
	return dl, i
}
