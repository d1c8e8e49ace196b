// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package richtext

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseHTML builds the node tree from an HTML fragment. The fragment is
// parsed in a <body> context, so stray text and inline elements at the top
// level are gathered into implicit paragraphs.
func parseHTML(src string) *Node {
	doc := newNode(KindDocument)
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		// Only a failing reader makes the parser error; keep the text.
		doc.append(newNode(KindParagraph, textNode(collapseSpace(src))))
		return doc
	}
	var b blockBuilder
	for _, n := range nodes {
		b.add(n)
	}
	doc.Children = b.finish()
	return doc
}

// blockBuilder collects block nodes, wrapping runs of inline content in
// implicit paragraphs.
type blockBuilder struct {
	blocks []*Node
	para   *Node
}

func (b *blockBuilder) inline(nodes ...*Node) {
	if len(nodes) == 0 {
		return
	}
	if b.para == nil {
		b.para = newNode(KindParagraph)
	}
	b.para.append(nodes...)
}

func (b *blockBuilder) block(n *Node) {
	b.flush()
	if n != nil {
		b.blocks = append(b.blocks, n)
	}
}

func (b *blockBuilder) flush() {
	if b.para == nil {
		return
	}
	b.para.Children = tidyInlines(b.para.Children)
	if len(b.para.Children) > 0 {
		b.blocks = append(b.blocks, b.para)
	}
	b.para = nil
}

func (b *blockBuilder) finish() []*Node {
	b.flush()
	return b.blocks
}

func (b *blockBuilder) addChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.add(c)
	}
}

func (b *blockBuilder) add(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.inline(textNode(collapseSpace(n.Data)))
		return
	case html.ElementNode:
	default:
		return
	}

	tag := n.Data
	switch {
	case dropped[tag]:
	case headingLevel(tag) > 0:
		b.block(paragraphLike(KindHeading, n, headingLevel(tag)))
	case tag == "p":
		b.block(paragraphLike(KindParagraph, n, 0))
	case tag == "ul" || tag == "ol":
		b.block(listFromHTML(n))
	case tag == "blockquote":
		b.block(newNode(KindBlockquote, blocksFromHTML(n)...))
	case tag == "pre":
		b.block(codeBlockFromHTML(n))
	case tag == "table":
		b.block(tableFromHTML(n))
	case tag == "hr":
		b.block(&Node{Kind: KindRule})
	case tag == "dl":
		b.block(defListFromHTML(n))
	case opaqueBlock[tag]:
		b.block(&Node{Kind: KindOpaqueBlock, Tag: tag, Text: outerHTML(n)})
	case tag == "li" || (unwrapped[tag] && tag != "span" && tag != "font"):
		b.flush()
		b.addChildren(n)
		b.flush()
	default:
		b.inline(inlineFromHTML(n)...)
	}
}

func blocksFromHTML(n *html.Node) []*Node {
	var b blockBuilder
	b.addChildren(n)
	return b.finish()
}

// paragraphLike builds a heading or paragraph from an element's inline
// content. Empty results are dropped.
func paragraphLike(kind Kind, n *html.Node, level int) *Node {
	children := tidyInlines(inlinesFromHTML(n))
	if len(children) == 0 {
		return nil
	}
	return &Node{Kind: kind, Level: level, Children: children}
}

func inlinesFromHTML(n *html.Node) []*Node {
	var out []*Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, inlineFromHTML(c)...)
	}
	return out
}

// inlineFromHTML maps one DOM node to inline tree nodes. Block elements met
// in inline context are flattened to their content.
func inlineFromHTML(n *html.Node) []*Node {
	switch n.Type {
	case html.TextNode:
		return []*Node{textNode(collapseSpace(n.Data))}
	case html.ElementNode:
	default:
		return nil
	}

	tag := n.Data
	wrap := func(kind Kind) []*Node {
		children := inlinesFromHTML(n)
		if len(children) == 0 {
			return nil
		}
		return []*Node{newNode(kind, children...)}
	}

	switch tag {
	case "strong", "b":
		return wrap(KindStrong)
	case "em", "i":
		return wrap(KindEmphasis)
	case "del", "s", "strike":
		return wrap(KindStrike)
	case "mark":
		return wrap(KindHighlight)
	case "sup":
		return wrap(KindSuperscript)
	case "sub":
		return wrap(KindSubscript)
	case "code", "tt":
		return []*Node{{Kind: KindCode, Text: textContent(n)}}
	case "a":
		return []*Node{{
			Kind:     KindLink,
			Dest:     attr(n, "href"),
			Title:    attr(n, "title"),
			Children: inlinesFromHTML(n),
		}}
	case "img":
		return []*Node{{
			Kind:  KindImage,
			Dest:  attr(n, "src"),
			Alt:   attr(n, "alt"),
			Title: attr(n, "title"),
		}}
	case "br":
		return []*Node{{Kind: KindBreak}}
	}

	if dropped[tag] {
		return nil
	}
	if opaqueInline[tag] {
		return []*Node{{
			Kind:     KindOpaque,
			Tag:      tag,
			Attrs:    attrs(n),
			Children: inlinesFromHTML(n),
		}}
	}

	children := inlinesFromHTML(n)
	if !unwrapped[tag] || tag == "span" || tag == "font" {
		return children
	}
	// Separate flattened blocks from their neighbours.
	if n.PrevSibling != nil {
		children = append([]*Node{textNode(" ")}, children...)
	}
	return children
}

func listFromHTML(n *html.Node) *Node {
	list := &Node{Kind: KindList, Ordered: n.Data == "ol", Start: 1}
	var last *Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			if c.Type == html.TextNode && strings.TrimSpace(c.Data) != "" && last != nil {
				appendItemText(last, textNode(collapseSpace(c.Data)))
			}
			continue
		}
		switch c.Data {
		case "li":
			last = newNode(KindListItem, blocksFromHTML(c)...)
			list.append(last)
		case "ul", "ol":
			// A list directly inside a list belongs to the preceding item.
			if last == nil {
				last = newNode(KindListItem)
				list.append(last)
			}
			last.append(listFromHTML(c))
		default:
			if dropped[c.Data] {
				continue
			}
			last = newNode(KindListItem, blocksFromHTML(c)...)
			list.append(last)
		}
	}
	if len(list.Children) == 0 {
		return nil
	}
	return list
}

func appendItemText(item *Node, n *Node) {
	for _, c := range item.Children {
		if c.Kind == KindParagraph {
			c.append(n)
			return
		}
	}
	item.Children = append([]*Node{newNode(KindParagraph, n)}, item.Children...)
}

func codeBlockFromHTML(pre *html.Node) *Node {
	block := &Node{Kind: KindCodeBlock}
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "code" {
			block.Lang = languageOf(c)
			break
		}
	}
	if block.Lang == "" {
		block.Lang = languageOf(pre)
	}
	block.Text = strings.TrimSuffix(textContent(pre), "\n")
	return block
}

// languageOf reads the language tag from a "language-x" or "lang-x" class.
func languageOf(n *html.Node) string {
	for _, class := range strings.Fields(attr(n, "class")) {
		for _, prefix := range []string{"language-", "lang-"} {
			if strings.HasPrefix(class, prefix) && len(class) > len(prefix) {
				return class[len(prefix):]
			}
		}
	}
	return ""
}

func tableFromHTML(n *html.Node) *Node {
	type row struct {
		node  *html.Node
		thead bool
	}
	var rows []row
	var collect func(n *html.Node, thead bool)
	collect = func(n *html.Node, thead bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "thead":
				collect(c, true)
			case "tbody", "tfoot":
				collect(c, thead)
			case "tr":
				rows = append(rows, row{node: c, thead: thead})
			}
		}
	}
	collect(n, false)
	if len(rows) == 0 {
		return nil
	}

	hasHead := false
	for _, r := range rows {
		if r.thead {
			hasHead = true
			break
		}
	}

	table := newNode(KindTable)
	headerTaken := false
	for i, r := range rows {
		tr := newNode(KindTableRow)
		// One header row only: the first thead row, or the first row when
		// the table has no thead.
		if !headerTaken && (r.thead || !hasHead && i == 0) {
			tr.Header = true
			headerTaken = true
		}
		for c := r.node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || c.Data != "th" && c.Data != "td" {
				continue
			}
			tr.append(&Node{
				Kind:     KindTableCell,
				Header:   c.Data == "th",
				Align:    alignOf(c),
				Children: tidyInlines(inlinesFromHTML(c)),
			})
		}
		if tr.Header {
			table.Children = append([]*Node{tr}, table.Children...)
		} else {
			table.append(tr)
		}
	}
	return table
}

func alignOf(n *html.Node) Align {
	value := strings.ToLower(attr(n, "align"))
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(strings.ToLower(k)) == "text-align" {
			value = strings.TrimSpace(strings.ToLower(v))
		}
	}
	switch value {
	case "left":
		return AlignLeft
	case "center":
		return AlignCenter
	case "right":
		return AlignRight
	}
	return AlignNone
}

func defListFromHTML(n *html.Node) *Node {
	dl := newNode(KindDefList)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "dt":
				dl.append(newNode(KindDefTerm, tidyInlines(inlinesFromHTML(c))...))
			case "dd":
				dl.append(newNode(KindDefDesc, tidyInlines(inlinesFromHTML(c))...))
			case "div":
				walk(c)
			}
		}
	}
	walk(n)
	if len(dl.Children) == 0 {
		return nil
	}
	return dl
}

func outerHTML(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return textContent(n)
	}
	return buf.String()
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "br" {
			sb.WriteByte('\n')
			continue
		}
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func attrs(n *html.Node) []Attr {
	if len(n.Attr) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(n.Attr))
	for _, a := range n.Attr {
		out = append(out, Attr{Key: a.Key, Val: a.Val})
	}
	return out
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// collapseSpace turns every run of HTML whitespace into a single space.
func collapseSpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				sb.WriteByte(' ')
				space = true
			}
		default:
			sb.WriteByte(s[i])
			space = false
		}
	}
	return sb.String()
}

// tidyInlines trims whitespace and breaks at both ends of an inline run and
// merges adjacent marks of the same kind, so <em>a</em><em>b</em> renders as
// a single emphasis.
func tidyInlines(nodes []*Node) []*Node {
	nodes = mergeAdjacent(nodes)
	for len(nodes) > 0 {
		first := nodes[0]
		if first.Kind == KindBreak || first.Kind == KindSoftBreak {
			nodes = nodes[1:]
			continue
		}
		if first.Kind == KindText {
			first.Text = strings.TrimLeft(first.Text, " ")
			if first.Text == "" {
				nodes = nodes[1:]
				continue
			}
		}
		break
	}
	for len(nodes) > 0 {
		last := nodes[len(nodes)-1]
		if last.Kind == KindBreak || last.Kind == KindSoftBreak {
			nodes = nodes[:len(nodes)-1]
			continue
		}
		if last.Kind == KindText {
			last.Text = strings.TrimRight(last.Text, " ")
			if last.Text == "" {
				nodes = nodes[:len(nodes)-1]
				continue
			}
		}
		break
	}
	return nodes
}

var mergeable = map[Kind]bool{
	KindStrong:      true,
	KindEmphasis:    true,
	KindStrike:      true,
	KindHighlight:   true,
	KindSuperscript: true,
	KindSubscript:   true,
}

func mergeAdjacent(nodes []*Node) []*Node {
	var out []*Node
	for _, n := range nodes {
		if len(out) > 0 {
			prev := out[len(out)-1]
			if mergeable[n.Kind] && prev.Kind == n.Kind {
				prev.append(n.Children...)
				continue
			}
			if n.Kind == KindText && prev.Kind == KindText {
				prev.Text += n.Text
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
