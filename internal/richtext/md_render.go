// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package richtext

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// mdRenderer writes the node tree as Markdown.
type mdRenderer struct {
	opts Options
}

func renderMarkdown(doc *Node, opts Options) string {
	r := mdRenderer{opts: opts}
	return r.blocks(doc.Children)
}

func (r mdRenderer) blocks(nodes []*Node) string {
	var parts []string
	var pending []*Node
	flushInline := func() {
		if len(pending) > 0 {
			if s := r.block(newNode(KindParagraph, tidyInlines(pending)...)); s != "" {
				parts = append(parts, s)
			}
			pending = nil
		}
	}
	for _, n := range nodes {
		if n.Kind.isInline() {
			pending = append(pending, n)
			continue
		}
		flushInline()
		if s := r.block(n); s != "" {
			parts = append(parts, s)
		}
	}
	flushInline()
	return strings.Join(parts, "\n\n")
}

func (r mdRenderer) block(n *Node) string {
	switch n.Kind {
	case KindParagraph:
		return escapeLineStarts(r.inline(n.Children, false))
	case KindHeading:
		text := strings.ReplaceAll(r.inline(n.Children, false), "  \n", " ")
		if text == "" {
			return ""
		}
		return strings.Repeat("#", n.Level) + " " + text
	case KindBlockquote:
		return quoteLines(r.blocks(n.Children))
	case KindCodeBlock:
		fence := codeFence(n.Text)
		return fence + n.Lang + "\n" + n.Text + "\n" + fence
	case KindList:
		return r.list(n, 0)
	case KindTable:
		return r.table(n)
	case KindRule:
		return "---"
	case KindDefList:
		return r.defList(n)
	case KindOpaqueBlock:
		return strings.TrimSpace(n.Text)
	}
	return ""
}

// quoteLines prefixes every line with "> "; blank lines become ">".
func quoteLines(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

// codeFence picks a backtick fence longer than any backtick run in code.
func codeFence(code string) string {
	longest := 0
	run := 0
	for i := 0; i < len(code); i++ {
		if code[i] == '`' {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}
	if longest < 3 {
		return "```"
	}
	return strings.Repeat("`", longest+1)
}

// list renders a list at the given depth. The ordinal is local to this
// call, so every list, nested or not, numbers its own items from 1.
func (r mdRenderer) list(n *Node, depth int) string {
	indent := strings.Repeat("  ", depth)
	var lines []string
	ordinal := 1
	for _, item := range n.Children {
		marker := "- "
		if n.Ordered {
			marker = strconv.Itoa(ordinal) + ". "
			ordinal++
		}
		text, nested := r.listItem(item)
		text = strings.ReplaceAll(text, "\n", "\n"+indent+"  ")
		lines = append(lines, strings.TrimRight(indent+marker+text, " "))
		for _, sub := range nested {
			if s := r.list(sub, depth+1); s != "" {
				lines = append(lines, s)
			}
		}
	}
	return strings.Join(lines, "\n")
}

// listItem splits an item into its text, with multiple blocks joined by
// hard breaks, and its nested lists.
func (r mdRenderer) listItem(item *Node) (string, []*Node) {
	var texts []string
	var nested []*Node
	var pending []*Node
	flushInline := func() {
		if len(pending) > 0 {
			if s := r.inline(tidyInlines(pending), false); s != "" {
				texts = append(texts, escapeLineStarts(s))
			}
			pending = nil
		}
	}
	for _, c := range item.Children {
		switch {
		case c.Kind.isInline():
			pending = append(pending, c)
			continue
		case c.Kind == KindList:
			nested = append(nested, c)
		case c.Kind == KindParagraph || c.Kind == KindHeading:
			flushInline()
			if s := r.inline(c.Children, false); s != "" {
				texts = append(texts, escapeLineStarts(s))
			}
		case c.Kind == KindCodeBlock:
			flushInline()
			texts = append(texts, r.inline([]*Node{{Kind: KindCode, Text: c.Text}}, false))
		default:
			flushInline()
			if s := strings.TrimSpace(collapseSpace(plainText(c))); s != "" {
				texts = append(texts, escapeLineStarts(escapeText(s)))
			}
		}
	}
	flushInline()
	return strings.Join(texts, "  \n"), nested
}

func (r mdRenderer) table(n *Node) string {
	// Rows without cells carry no content. The first remaining row is the
	// header and the widest row sets the column count.
	var source []*Node
	cols := 0
	for _, row := range n.Children {
		if len(row.Children) > 0 {
			source = append(source, row)
			cols = max(cols, len(row.Children))
		}
	}
	if cols == 0 {
		text := strings.TrimSpace(collapseSpace(plainText(n)))
		if text == "" {
			return ""
		}
		return escapeLineStarts(escapeText(text))
	}

	aligns := make([]Align, cols)
	rows := make([][]string, 0, len(source))
	for ri, row := range source {
		cells := make([]string, cols)
		for ci, cell := range row.Children {
			cells[ci] = r.inline(cell.Children, true)
			if aligns[ci] == AlignNone && (ri == 0 || cell.Align != AlignNone) {
				aligns[ci] = cell.Align
			}
		}
		rows = append(rows, cells)
	}

	widths := make([]int, cols)
	if r.opts.AlignTables {
		for _, cells := range rows {
			for ci, c := range cells {
				widths[ci] = max(widths[ci], runewidth.StringWidth(c))
			}
		}
		for ci := range widths {
			widths[ci] = max(widths[ci], 3)
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, tableLine(rows[0], widths, aligns))
	sep := make([]string, cols)
	for ci := range sep {
		sep[ci] = separatorCell(aligns[ci], widths[ci])
	}
	lines = append(lines, "| "+strings.Join(sep, " | ")+" |")
	for _, cells := range rows[1:] {
		lines = append(lines, tableLine(cells, widths, aligns))
	}
	return strings.Join(lines, "\n")
}

func tableLine(cells []string, widths []int, aligns []Align) string {
	padded := make([]string, len(cells))
	for i, c := range cells {
		padded[i] = padCell(c, widths[i], aligns[i])
	}
	return "| " + strings.Join(padded, " | ") + " |"
}

func padCell(s string, width int, align Align) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	}
	return s + strings.Repeat(" ", gap)
}

func separatorCell(align Align, width int) string {
	dashes := max(width, 3)
	switch align {
	case AlignLeft:
		return ":" + strings.Repeat("-", dashes-1)
	case AlignCenter:
		return ":" + strings.Repeat("-", dashes-2) + ":"
	case AlignRight:
		return strings.Repeat("-", dashes-1) + ":"
	}
	return strings.Repeat("-", dashes)
}

func (r mdRenderer) defList(n *Node) string {
	var lines []string
	for _, c := range n.Children {
		text := strings.ReplaceAll(r.inline(c.Children, false), "  \n", " ")
		if c.Kind == KindDefDesc {
			lines = append(lines, ": "+text)
		} else if text != "" {
			lines = append(lines, escapeLineStarts(text))
		}
	}
	return strings.Join(lines, "\n")
}

func (r mdRenderer) inline(nodes []*Node, inTable bool) string {
	w := mdInline{inTable: inTable}
	w.nodes(nodes)
	return strings.TrimSpace(string(w.buf))
}

// mdInline accumulates rendered inline Markdown. It keeps single spaces
// between nodes and places hard breaks without stray trailing blanks.
type mdInline struct {
	buf     []byte
	inTable bool
	nested  bool // rendering the content of a mark; leading spaces are kept
}

func (w *mdInline) raw(s string) {
	w.buf = append(w.buf, s...)
}

// space writes a single separating space unless one is already there.
func (w *mdInline) space() {
	if len(w.buf) == 0 {
		if w.nested {
			w.buf = append(w.buf, ' ')
		}
		return
	}
	if last := w.buf[len(w.buf)-1]; last != ' ' && last != '\n' {
		w.buf = append(w.buf, ' ')
	}
}

func (w *mdInline) text(s string) {
	if s == "" {
		return
	}
	s = escapeText(s)
	if w.inTable {
		s = strings.ReplaceAll(s, "|", `\|`)
	}
	if s[0] == ' ' {
		w.space()
		s = s[1:]
	}
	w.raw(s)
}

func (w *mdInline) lineBreak() {
	if w.inTable {
		w.raw("<br>")
		return
	}
	for len(w.buf) > 0 && w.buf[len(w.buf)-1] == ' ' {
		w.buf = w.buf[:len(w.buf)-1]
	}
	if len(w.buf) == 0 || w.buf[len(w.buf)-1] == '\n' {
		return
	}
	w.raw("  \n")
}

func (w *mdInline) sub(nodes []*Node) string {
	inner := mdInline{inTable: w.inTable, nested: true}
	inner.nodes(nodes)
	return string(inner.buf)
}

// delimited writes open+content+close, moving surrounding whitespace and
// breaks outside the delimiters so the result stays valid emphasis.
func (w *mdInline) delimited(open, close string, children []*Node) {
	inner := w.sub(children)
	core := strings.Trim(inner, " \n")
	if core == "" {
		if strings.TrimSpace(inner) != inner {
			w.space()
		}
		return
	}
	lead := inner[:len(inner)-len(strings.TrimLeft(inner, " \n"))]
	trail := inner[len(lead)+len(core):]
	switch {
	case strings.Contains(lead, "\n"):
		w.lineBreak()
	case lead != "":
		w.space()
	}
	w.raw(open + core + close)
	switch {
	case strings.Contains(trail, "\n"):
		w.lineBreak()
	case trail != "":
		w.raw(" ")
	}
}

func (w *mdInline) nodes(nodes []*Node) {
	for _, n := range nodes {
		w.node(n)
	}
}

func (w *mdInline) node(n *Node) {
	switch n.Kind {
	case KindText:
		w.text(n.Text)
	case KindStrong:
		w.delimited("**", "**", n.Children)
	case KindEmphasis:
		w.delimited("*", "*", n.Children)
	case KindStrike:
		w.delimited("~~", "~~", n.Children)
	case KindHighlight:
		w.delimited("==", "==", n.Children)
	case KindSuperscript:
		w.delimited("^", "^", n.Children)
	case KindSubscript:
		w.delimited("~", "~", n.Children)
	case KindCode:
		code := strings.ReplaceAll(n.Text, "\n", " ")
		if w.inTable {
			code = strings.ReplaceAll(code, "|", `\|`)
		}
		w.raw(codeSpan(code))
	case KindLink:
		w.link(n)
	case KindImage:
		w.raw("![" + escapeText(n.Alt) + "](" + linkDest(n.Dest) + linkTitle(n.Title) + ")")
	case KindBreak:
		w.lineBreak()
	case KindSoftBreak:
		if w.inTable {
			w.space()
		} else {
			w.raw("\n")
		}
	case KindOpaque:
		w.raw(openTag(n.Tag, n.Attrs))
		w.raw(w.sub(n.Children))
		w.raw("</" + n.Tag + ">")
	case KindRawInline:
		w.raw(n.Text)
	default:
		// A block inside inline content keeps its text.
		w.text(collapseSpace(plainText(n)))
	}
}

func (w *mdInline) link(n *Node) {
	label := strings.TrimSpace(strings.ReplaceAll(w.sub(n.Children), "  \n", " "))
	plain := plainText(n)
	if n.Title == "" && isAutolinkable(n.Dest) && (plain == n.Dest || "mailto:"+plain == n.Dest) {
		w.raw("<" + plain + ">")
		return
	}
	w.raw("[" + label + "](" + linkDest(n.Dest) + linkTitle(n.Title) + ")")
}

func isAutolinkable(dest string) bool {
	if strings.ContainsAny(dest, " <>") {
		return false
	}
	return strings.HasPrefix(dest, "http://") ||
		strings.HasPrefix(dest, "https://") ||
		strings.HasPrefix(dest, "mailto:")
}

func linkDest(dest string) string {
	if strings.ContainsAny(dest, " ()") {
		return "<" + dest + ">"
	}
	return dest
}

func linkTitle(title string) string {
	if title == "" {
		return ""
	}
	return ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
}

// codeSpan wraps code in a backtick run longer than any run it contains.
func codeSpan(code string) string {
	longest, run := 0, 0
	for i := 0; i < len(code); i++ {
		if code[i] == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(code, "`") || strings.HasSuffix(code, "`") ||
		(strings.HasPrefix(code, " ") && strings.HasSuffix(code, " ") && strings.TrimSpace(code) != "") {
		code = " " + code + " "
	}
	return fence + code + fence
}

// escapeText backslash-escapes characters that would otherwise be read as
// Markdown syntax when the text is parsed back.
func escapeText(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\', '*', '`', '[', ']', '<', '~', '^':
			sb.WriteByte('\\')
		case '_':
			if i == 0 || i == len(s)-1 || !isWordByte(s[i-1]) || !isWordByte(s[i+1]) {
				sb.WriteByte('\\')
			}
		case '=':
			if (i+1 < len(s) && s[i+1] == '=') || (i > 0 && s[i-1] == '=') {
				sb.WriteByte('\\')
			}
		case '&':
			if entityLength(s[i:]) > 0 {
				sb.WriteByte('\\')
			}
		case '@':
			// Plain text addresses must not turn into mailto links.
			if i > 0 && i+1 < len(s) && s[i-1] != ' ' && s[i+1] != ' ' {
				sb.WriteByte('\\')
			}
		case ':':
			if strings.HasPrefix(s[i:], "://") && (strings.HasSuffix(s[:i], "http") || strings.HasSuffix(s[:i], "https")) {
				sb.WriteByte('\\')
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// escapeLineStarts escapes characters at the start of each line that would
// begin a block construct.
func escapeLineStarts(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = escapeLineStart(line)
	}
	return strings.Join(lines, "\n")
}

func escapeLineStart(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	lead := line[:len(line)-len(trimmed)]
	if trimmed == "" {
		return line
	}
	switch trimmed[0] {
	case '#', '>', '|':
		return lead + `\` + trimmed
	case '-', '+':
		if len(trimmed) == 1 || trimmed[1] == ' ' || isRuleLine(trimmed) {
			return lead + `\` + trimmed
		}
	case ':':
		if len(trimmed) == 1 || trimmed[1] == ' ' {
			return lead + `\` + trimmed
		}
	}
	if isRuleLine(trimmed) {
		return lead + `\` + trimmed
	}
	// "1. text" would start an ordered list.
	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits < len(trimmed) && (trimmed[digits] == '.' || trimmed[digits] == ')') &&
		(digits+1 == len(trimmed) || trimmed[digits+1] == ' ') {
		return lead + trimmed[:digits] + `\` + trimmed[digits:]
	}
	return line
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 0x80
}
