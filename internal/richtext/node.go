// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package richtext

import "strings"

// Kind identifies the type of a tree node.
type Kind int

const (
	KindDocument Kind = iota

	// Block nodes.
	KindParagraph
	KindHeading
	KindList
	KindListItem
	KindBlockquote
	KindCodeBlock
	KindTable
	KindTableRow
	KindTableCell
	KindRule
	KindDefList
	KindDefTerm
	KindDefDesc
	KindOpaqueBlock // verbatim markup with no Markdown form (details, figure, ...)

	// Inline nodes.
	KindText
	KindStrong
	KindEmphasis
	KindStrike
	KindHighlight
	KindSuperscript
	KindSubscript
	KindCode
	KindLink
	KindImage
	KindBreak
	KindSoftBreak
	KindOpaque    // inline element kept as literal markup (u, kbd, abbr, ...)
	KindRawInline // a lone raw tag, opening or closing, kept verbatim
)

// Align is the column alignment of a table cell.
type Align int

const (
	AlignNone Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Attr is a single HTML attribute on an opaque node.
type Attr struct {
	Key string
	Val string
}

// Node is the intermediate tree shared by both transformers. Parsers build
// it, renderers walk it. Only the fields relevant to a Kind are set.
type Node struct {
	Kind     Kind
	Children []*Node

	Level   int    // heading level 1-6
	Ordered bool   // list
	Start   int    // first ordinal of an ordered list
	Header  bool   // table row belongs to the header
	Align   Align  // table cell
	Text    string // text literal, code content, verbatim markup
	Lang    string // code block language
	Dest    string // link href, image src
	Title   string // link or image title
	Alt     string // image alt
	Tag     string // opaque tag name
	Attrs   []Attr // opaque attributes
	Closing bool   // raw inline tag is a closing tag
}

func (n *Node) append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

func newNode(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

func textNode(s string) *Node {
	return &Node{Kind: KindText, Text: s}
}

// isInline reports whether a node kind belongs inside a paragraph.
func (k Kind) isInline() bool {
	return k >= KindText
}

// plainText flattens a subtree to its text content, dropping markup.
func plainText(n *Node) string {
	switch n.Kind {
	case KindText, KindCode:
		return n.Text
	case KindImage:
		return n.Alt
	case KindBreak, KindSoftBreak:
		return " "
	case KindRawInline, KindOpaqueBlock:
		return ""
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(plainText(c))
	}
	return sb.String()
}
