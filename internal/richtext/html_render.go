// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package richtext

import (
	"strconv"
	"strings"
)

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// renderHTML writes the node tree as an HTML fragment, one block per line.
func renderHTML(doc *Node) string {
	var sb strings.Builder
	writeBlocks(&sb, doc.Children)
	return sb.String()
}

func writeBlocks(sb *strings.Builder, nodes []*Node) {
	wrote := false
	for _, n := range nodes {
		var block strings.Builder
		if !writeBlock(&block, n) {
			continue
		}
		if wrote {
			sb.WriteByte('\n')
		}
		sb.WriteString(block.String())
		wrote = true
	}
}

// writeBlock renders one block and reports whether anything was written.
func writeBlock(sb *strings.Builder, n *Node) bool {
	switch n.Kind {
	case KindParagraph:
		if len(n.Children) == 0 {
			return false
		}
		sb.WriteString("<p>")
		writeInlines(sb, n.Children)
		sb.WriteString("</p>")
	case KindHeading:
		tag := "h" + strconv.Itoa(n.Level)
		sb.WriteString("<" + tag + ">")
		writeInlines(sb, n.Children)
		sb.WriteString("</" + tag + ">")
	case KindBlockquote:
		sb.WriteString("<blockquote>\n")
		writeBlocks(sb, n.Children)
		sb.WriteString("\n</blockquote>")
	case KindCodeBlock:
		sb.WriteString("<pre><code")
		if n.Lang != "" {
			sb.WriteString(` class="language-` + escapeHTML(n.Lang) + `"`)
		}
		sb.WriteString(">")
		sb.WriteString(escapeHTML(n.Text))
		sb.WriteString("</code></pre>")
	case KindList:
		writeList(sb, n)
	case KindTable:
		writeTable(sb, n)
	case KindRule:
		sb.WriteString("<hr>")
	case KindDefList:
		sb.WriteString("<dl>")
		for _, c := range n.Children {
			tag := "dt"
			if c.Kind == KindDefDesc {
				tag = "dd"
			}
			sb.WriteString("\n<" + tag + ">")
			writeInlines(sb, c.Children)
			sb.WriteString("</" + tag + ">")
		}
		sb.WriteString("\n</dl>")
	case KindOpaqueBlock:
		sb.WriteString(n.Text)
	default:
		if !n.Kind.isInline() {
			return false
		}
		sb.WriteString("<p>")
		writeInline(sb, n)
		sb.WriteString("</p>")
	}
	return true
}

func writeList(sb *strings.Builder, n *Node) {
	tag := "ul"
	if n.Ordered {
		tag = "ol"
	}
	sb.WriteString("<" + tag)
	if n.Ordered && n.Start != 1 && n.Start != 0 {
		sb.WriteString(` start="` + strconv.Itoa(n.Start) + `"`)
	}
	sb.WriteString(">")
	for _, item := range n.Children {
		sb.WriteString("\n<li>")
		writeListItem(sb, item)
		sb.WriteString("</li>")
	}
	sb.WriteString("\n</" + tag + ">")
}

// writeListItem keeps a lone paragraph tight: "<li>text</li>". Nested
// lists follow the text on their own lines.
func writeListItem(sb *strings.Builder, item *Node) {
	var paragraphs, others int
	for _, c := range item.Children {
		if c.Kind == KindParagraph {
			paragraphs++
		} else {
			others++
		}
	}
	if paragraphs > 1 || others > 0 && !onlyLists(item.Children) {
		sb.WriteString("\n")
		writeBlocks(sb, item.Children)
		sb.WriteString("\n")
		return
	}
	for _, c := range item.Children {
		if c.Kind == KindParagraph {
			writeInlines(sb, c.Children)
			continue
		}
		sb.WriteString("\n")
		writeBlock(sb, c)
		sb.WriteString("\n")
	}
}

func onlyLists(nodes []*Node) bool {
	for _, n := range nodes {
		if n.Kind != KindParagraph && n.Kind != KindList {
			return false
		}
	}
	return true
}

func writeTable(sb *strings.Builder, n *Node) {
	var head, body []*Node
	for _, row := range n.Children {
		if row.Header {
			head = append(head, row)
		} else {
			body = append(body, row)
		}
	}
	sb.WriteString("<table>")
	if len(head) > 0 {
		sb.WriteString("\n<thead>")
		writeRows(sb, head)
		sb.WriteString("\n</thead>")
	}
	if len(body) > 0 {
		sb.WriteString("\n<tbody>")
		writeRows(sb, body)
		sb.WriteString("\n</tbody>")
	}
	sb.WriteString("\n</table>")
}

func writeRows(sb *strings.Builder, rows []*Node) {
	for _, row := range rows {
		sb.WriteString("\n<tr>")
		for _, cell := range row.Children {
			tag := "td"
			if cell.Header {
				tag = "th"
			}
			sb.WriteString("\n<" + tag)
			if style := alignStyle(cell.Align); style != "" {
				sb.WriteString(` style="text-align:` + style + `"`)
			}
			sb.WriteString(">")
			writeInlines(sb, cell.Children)
			sb.WriteString("</" + tag + ">")
		}
		sb.WriteString("\n</tr>")
	}
}

func alignStyle(a Align) string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return ""
}

func writeInlines(sb *strings.Builder, nodes []*Node) {
	for _, n := range nodes {
		writeInline(sb, n)
	}
}

var inlineTags = map[Kind]string{
	KindStrong:      "strong",
	KindEmphasis:    "em",
	KindStrike:      "del",
	KindHighlight:   "mark",
	KindSuperscript: "sup",
	KindSubscript:   "sub",
}

func writeInline(sb *strings.Builder, n *Node) {
	if tag, ok := inlineTags[n.Kind]; ok {
		sb.WriteString("<" + tag + ">")
		writeInlines(sb, n.Children)
		sb.WriteString("</" + tag + ">")
		return
	}
	switch n.Kind {
	case KindText:
		sb.WriteString(escapeHTML(n.Text))
	case KindCode:
		sb.WriteString("<code>" + escapeHTML(n.Text) + "</code>")
	case KindLink:
		sb.WriteString(`<a href="` + escapeHTML(n.Dest) + `"`)
		if n.Title != "" {
			sb.WriteString(` title="` + escapeHTML(n.Title) + `"`)
		}
		sb.WriteString(">")
		writeInlines(sb, n.Children)
		sb.WriteString("</a>")
	case KindImage:
		sb.WriteString(`<img src="` + escapeHTML(n.Dest) + `" alt="` + escapeHTML(n.Alt) + `"`)
		if n.Title != "" {
			sb.WriteString(` title="` + escapeHTML(n.Title) + `"`)
		}
		sb.WriteString(">")
	case KindBreak:
		sb.WriteString("<br>\n")
	case KindSoftBreak:
		sb.WriteString("\n")
	case KindOpaque:
		sb.WriteString(openTag(n.Tag, n.Attrs))
		writeInlines(sb, n.Children)
		sb.WriteString("</" + n.Tag + ">")
	case KindRawInline:
		sb.WriteString(n.Text)
	default:
		writeInlines(sb, n.Children)
	}
}

// openTag serializes an opening tag with its attributes, values quoted and
// escaped.
func openTag(tag string, attrs []Attr) string {
	var sb strings.Builder
	sb.WriteString("<" + tag)
	for _, a := range attrs {
		sb.WriteString(" " + a.Key)
		if a.Val != "" {
			sb.WriteString(`="` + escapeHTML(a.Val) + `"`)
		}
	}
	sb.WriteString(">")
	return sb.String()
}
