// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package richtext

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// inlineNestingLimit bounds recursion into emphasis and link labels.
// Deeper delimiters stay literal text.
const inlineNestingLimit = 32

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// voidTags never take a closing tag, so they are not paired.
var voidTags = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "wbr": true,
	"meta": true, "link": true, "source": true, "track": true, "area": true,
	"col": true, "embed": true, "param": true, "base": true,
}

// inline parses the inline content of one block.
func (p mdParser) inline(src string) []*Node {
	return tidyInlines(parseInline(src, p.opts, false, 0))
}

// inlineScanner walks inline Markdown byte by byte. Plain text accumulates
// in text and is flushed as a node whenever a construct starts.
type inlineScanner struct {
	src    string
	opts   Options
	inLink bool
	depth  int
	text   []byte
	out    []*Node
}

func parseInline(src string, opts Options, inLink bool, depth int) []*Node {
	s := &inlineScanner{src: src, opts: opts, inLink: inLink, depth: depth}
	s.scan()
	return pairRawTags(s.out, opts.RawHTML)
}

func (s *inlineScanner) sub(src string, inLink bool) []*Node {
	return parseInline(src, s.opts, inLink, s.depth+1)
}

func (s *inlineScanner) emit(n *Node) {
	s.flushText()
	s.out = append(s.out, n)
}

// flushText turns pending text into nodes, linking bare e-mail addresses
// outside of link labels.
func (s *inlineScanner) flushText() {
	if len(s.text) == 0 {
		return
	}
	t := string(s.text)
	s.text = s.text[:0]
	if s.inLink {
		s.out = append(s.out, textNode(t))
		return
	}
	last := 0
	for _, m := range emailPattern.FindAllStringIndex(t, -1) {
		if m[0] > last {
			s.out = append(s.out, textNode(t[last:m[0]]))
		}
		addr := t[m[0]:m[1]]
		s.out = append(s.out, &Node{Kind: KindLink, Dest: "mailto:" + addr, Children: []*Node{textNode(addr)}})
		last = m[1]
	}
	if last < len(t) {
		s.out = append(s.out, textNode(t[last:]))
	}
}

func (s *inlineScanner) scan() {
	src := s.src
	i := 0
	for i < len(src) {
		c := src[i]
		switch c {
		case '\\':
			if i+1 < len(src) && src[i+1] == '\n' {
				s.lineBreak(true)
				i += 2
				continue
			}
			if i+1 < len(src) && isASCIIPunct(src[i+1]) {
				// Escaped characters form their own node so they never
				// take part in autolink detection.
				s.emit(textNode(src[i+1 : i+2]))
				i += 2
				continue
			}
		case '\n':
			s.lineBreak(false)
			i++
			continue
		case '`':
			run := runLength(src, i, '`')
			if end := closingBackticks(src, i+run, run); end >= 0 {
				s.emit(&Node{Kind: KindCode, Text: codeSpanText(src[i+run : end])})
				i = end + run
			} else {
				s.text = append(s.text, src[i:i+run]...)
				i += run
			}
			continue
		case '!':
			if i+1 < len(src) && src[i+1] == '[' {
				if n, end := s.link(i+1, true); n != nil {
					s.emit(n)
					i = end
					continue
				}
			}
		case '[':
			if !s.inLink {
				if n, end := s.link(i, false); n != nil {
					s.emit(n)
					i = end
					continue
				}
			}
		case '<':
			if n, end := s.angle(i); end > i {
				if n != nil {
					s.emit(n)
				}
				i = end
				continue
			}
		case '*', '_', '~', '=', '^':
			if n, end := s.emphasis(i); n != nil {
				s.emit(n)
				i = end
				continue
			}
			run := runLength(src, i, c)
			s.text = append(s.text, src[i:i+run]...)
			i += run
			continue
		case '&':
			if n := entityLength(src[i:]); n > 0 {
				s.text = append(s.text, html.UnescapeString(src[i:i+n])...)
				i += n
				continue
			}
		case 'h':
			if !s.inLink && (i == 0 || !isWordByte(src[i-1])) {
				if end := bareURLEnd(src, i); end > i {
					url := src[i:end]
					s.emit(&Node{Kind: KindLink, Dest: url, Children: []*Node{textNode(url)}})
					i = end
					continue
				}
			}
		}
		s.text = append(s.text, c)
		i++
	}
	s.flushText()
}

// lineBreak ends a line: two or more trailing spaces (or a backslash) make
// a hard break, anything else a soft break.
func (s *inlineScanner) lineBreak(hard bool) {
	trimmed := strings.TrimRight(string(s.text), " ")
	if len(s.text)-len(trimmed) >= 2 {
		hard = true
	}
	s.text = append(s.text[:0], trimmed...)
	if hard {
		s.emit(&Node{Kind: KindBreak})
	} else {
		s.emit(&Node{Kind: KindSoftBreak})
	}
}

// --- Code spans ---

func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

// closingBackticks finds a backtick run of exactly n starting at or after
// from and returns its index, or -1.
func closingBackticks(s string, from, n int) int {
	for j := from; j < len(s); {
		if s[j] != '`' {
			j++
			continue
		}
		run := runLength(s, j, '`')
		if run == n {
			return j
		}
		j += run
	}
	return -1
}

// codeSpanText folds line endings and strips one padding space from each
// side of a span that both starts and ends with one.
func codeSpanText(code string) string {
	code = strings.ReplaceAll(code, "\n", " ")
	if len(code) >= 2 && code[0] == ' ' && code[len(code)-1] == ' ' && strings.Trim(code, " ") != "" {
		code = code[1 : len(code)-1]
	}
	return code
}

// codeSpanEnd returns the index just past the code span opening at i, or
// -1 when the backticks are unmatched.
func codeSpanEnd(s string, i int) int {
	run := runLength(s, i, '`')
	end := closingBackticks(s, i+run, run)
	if end < 0 {
		return -1
	}
	return end + run
}

// --- Links and images ---

// link parses "[label](dest "title")" with the opening bracket at i. It
// returns nil when the text is not a well-formed link.
func (s *inlineScanner) link(i int, image bool) (*Node, int) {
	src := s.src
	if s.depth >= inlineNestingLimit {
		return nil, 0
	}
	closeLabel := matchingBracket(src, i)
	if closeLabel < 0 || closeLabel+1 >= len(src) || src[closeLabel+1] != '(' {
		return nil, 0
	}
	dest, title, end, ok := linkTarget(src, closeLabel+2)
	if !ok {
		return nil, 0
	}
	label := src[i+1 : closeLabel]
	if image {
		alt := plainText(newNode(KindParagraph, s.sub(label, true)...))
		return &Node{Kind: KindImage, Dest: dest, Alt: alt, Title: title}, end
	}
	return &Node{Kind: KindLink, Dest: dest, Title: title, Children: s.sub(label, true)}, end
}

// matchingBracket returns the index of the ']' closing the '[' at i,
// honoring nesting, escapes and code spans.
func matchingBracket(s string, i int) int {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '`':
			if end := codeSpanEnd(s, j); end > 0 {
				j = end - 1
			} else {
				j += runLength(s, j, '`') - 1
			}
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// linkTarget parses the destination and optional title following "(" at
// i, up to and including the closing ")".
func linkTarget(s string, i int) (dest, title string, end int, ok bool) {
	i = skipSpaces(s, i)
	if i >= len(s) {
		return "", "", 0, false
	}
	if s[i] == '<' {
		gt := strings.IndexAny(s[i+1:], ">\n")
		if gt < 0 || s[i+1+gt] != '>' {
			return "", "", 0, false
		}
		dest = s[i+1 : i+1+gt]
		i += gt + 2
	} else {
		start, parens := i, 0
	loop:
		for ; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '(':
				parens++
			case ')':
				if parens == 0 {
					break loop
				}
				parens--
			case ' ', '\n':
				break loop
			}
		}
		if i > len(s) {
			i = len(s)
		}
		dest = s[start:i]
	}

	i = skipSpaces(s, i)
	if i < len(s) && (s[i] == '"' || s[i] == '\'' || s[i] == '(') && i > 0 && (s[i-1] == ' ' || s[i-1] == '\n') {
		closer := s[i]
		if closer == '(' {
			closer = ')'
		}
		j := i + 1
		for j < len(s) && s[j] != closer {
			if s[j] == '\\' {
				j++
			}
			j++
		}
		if j >= len(s) {
			return "", "", 0, false
		}
		title = unescapePunct(s[i+1 : j])
		i = skipSpaces(s, j+1)
	}
	if i >= len(s) || s[i] != ')' {
		return "", "", 0, false
	}
	return unescapePunct(dest), title, i + 1, true
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\n') {
		i++
	}
	return i
}

func unescapePunct(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) && isASCIIPunct(s[i+1]) {
			i++
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// bareURLEnd returns the end of an http(s) URL starting at i, or i when
// there is none. Trailing punctuation and unbalanced parentheses are left
// out of the link.
func bareURLEnd(s string, i int) int {
	rest := s[i:]
	var scheme int
	switch {
	case strings.HasPrefix(rest, "https://"):
		scheme = len("https://")
	case strings.HasPrefix(rest, "http://"):
		scheme = len("http://")
	default:
		return i
	}
	end := i + scheme
	for end < len(s) && s[end] != ' ' && s[end] != '\n' && s[end] != '<' {
		end++
	}
	for end > i+scheme {
		last := s[end-1]
		if strings.IndexByte(".,:;!?\"'*_~", last) >= 0 {
			end--
			continue
		}
		if last == ')' && strings.Count(s[i:end], "(") < strings.Count(s[i:end], ")") {
			end--
			continue
		}
		break
	}
	if end == i+scheme {
		return i
	}
	return end
}

// --- Angle brackets: autolinks and raw tags ---

// angle handles '<' at i. It returns the index after the consumed input,
// or i when the bracket is plain text.
func (s *inlineScanner) angle(i int) (*Node, int) {
	src := s.src
	if gt := strings.IndexAny(src[i+1:], "> \n<"); gt > 0 && src[i+1+gt] == '>' {
		target := src[i+1 : i+1+gt]
		end := i + gt + 2
		switch {
		case strings.HasPrefix(target, "http://"), strings.HasPrefix(target, "https://"),
			strings.HasPrefix(target, "ftp://"):
			return &Node{Kind: KindLink, Dest: target, Children: []*Node{textNode(target)}}, end
		case strings.HasPrefix(target, "mailto:"):
			addr := strings.TrimPrefix(target, "mailto:")
			return &Node{Kind: KindLink, Dest: target, Children: []*Node{textNode(addr)}}, end
		case emailPattern.FindString(target) == target:
			return &Node{Kind: KindLink, Dest: "mailto:" + target, Children: []*Node{textNode(target)}}, end
		}
	}
	return s.rawTag(i)
}

// rawTag tokenizes the tag starting at i. Tags the policy rejects are left
// as text and rendered escaped.
func (s *inlineScanner) rawTag(i int) (*Node, int) {
	src := s.src
	if i+1 >= len(src) || !(isTagNameByte(src[i+1]) || src[i+1] == '/') {
		return nil, i
	}
	z := html.NewTokenizer(strings.NewReader(src[i:]))
	tt := z.Next()
	if tt != html.StartTagToken && tt != html.EndTagToken && tt != html.SelfClosingTagToken {
		return nil, i
	}
	raw := string(z.Raw())
	if !strings.HasSuffix(raw, ">") || strings.Contains(raw, "\n\n") {
		return nil, i
	}
	tok := z.Token()
	tag := tok.Data
	if !allowedRawInline(tag, s.opts.RawHTML) {
		return nil, i
	}
	end := i + len(raw)
	if tag == "br" {
		if tt == html.EndTagToken {
			return nil, end
		}
		return &Node{Kind: KindBreak}, end
	}
	n := &Node{Kind: KindRawInline, Text: raw, Tag: tag, Closing: tt == html.EndTagToken}
	for _, a := range tok.Attr {
		n.Attrs = append(n.Attrs, Attr{Key: a.Key, Val: a.Val})
	}
	return n, end
}

// pairRawTags folds matching open and close raw tags into element nodes.
// sup and sub become their marks, other tags opaque nodes. Unpaired tags
// stay verbatim under passthrough and become text otherwise.
func pairRawTags(nodes []*Node, policy RawHTMLPolicy) []*Node {
	var out []*Node
	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		if n.Kind != KindRawInline {
			out = append(out, n)
			continue
		}
		if !n.Closing && !voidTags[n.Tag] {
			if j := matchingCloseTag(nodes, i); j > 0 {
				out = append(out, elementFromRaw(n, pairRawTags(nodes[i+1:j], policy)))
				i = j
				continue
			}
		}
		if policy != RawHTMLPassthrough {
			n = textNode(n.Text)
		}
		out = append(out, n)
	}
	return out
}

func matchingCloseTag(nodes []*Node, open int) int {
	tag := nodes[open].Tag
	depth := 0
	for j := open; j < len(nodes); j++ {
		n := nodes[j]
		if n.Kind != KindRawInline || n.Tag != tag {
			continue
		}
		if n.Closing {
			depth--
		} else {
			depth++
		}
		if depth == 0 {
			return j
		}
	}
	return -1
}

func elementFromRaw(open *Node, children []*Node) *Node {
	switch open.Tag {
	case "sup":
		return newNode(KindSuperscript, children...)
	case "sub":
		return newNode(KindSubscript, children...)
	}
	return &Node{Kind: KindOpaque, Tag: open.Tag, Attrs: open.Attrs, Children: children}
}

// --- Emphasis ---

// emphasis parses a delimited mark opening at i: '*' and '_' runs of one
// to three, "~~", "==", and single '~' and '^'.
func (s *inlineScanner) emphasis(i int) (*Node, int) {
	src := s.src
	c := src[i]
	run := runLength(src, i, c)
	if s.depth >= inlineNestingLimit || i+run >= len(src) || isSpace(src[i+run]) {
		return nil, 0
	}

	switch c {
	case '*', '_':
		if run > 3 || c == '_' && i > 0 && isWordByte(src[i-1]) {
			return nil, 0
		}
		// Prefer a closer whose content has balanced delimiters, so that
		// "***a* b**" nests the emphasis inside the strong mark.
		for _, balanced := range []bool{true, false} {
			for n := run; n >= 1; n-- {
				from := i + n
				j := findCloser(src, from, c, n)
				if j < 0 || balanced && countDelims(src[from:j], c)%2 != 0 {
					continue
				}
				children := s.sub(src[from:j], s.inLink)
				var node *Node
				switch n {
				case 3:
					node = newNode(KindStrong, newNode(KindEmphasis, children...))
				case 2:
					node = newNode(KindStrong, children...)
				default:
					node = newNode(KindEmphasis, children...)
				}
				return node, j + n
			}
		}
	case '~', '=', '^':
		kind, ok := markKind(c, run)
		if !ok {
			return nil, 0
		}
		j := findCloser(src, i+run, c, run)
		if j < 0 {
			return nil, 0
		}
		inner := src[i+run : j]
		if (kind == KindSubscript || kind == KindSuperscript) && strings.Contains(inner, "\n") {
			return nil, 0
		}
		return newNode(kind, s.sub(inner, s.inLink)...), j + run
	}
	return nil, 0
}

func markKind(c byte, run int) (Kind, bool) {
	switch {
	case c == '~' && run == 2:
		return KindStrike, true
	case c == '~' && run == 1:
		return KindSubscript, true
	case c == '=' && run == 2:
		return KindHighlight, true
	case c == '^' && run == 1:
		return KindSuperscript, true
	}
	return 0, false
}

// findCloser returns the index of a run of exactly n c's after from that
// can close a mark, skipping escapes and code spans. It returns -1 when
// there is none.
func findCloser(s string, from int, c byte, n int) int {
	for j := from; j < len(s); {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '`':
			if end := codeSpanEnd(s, j); end > 0 {
				j = end
				continue
			}
		}
		if s[j] != c {
			j++
			continue
		}
		run := runLength(s, j, c)
		if run == n && j > from && !isSpace(s[j-1]) &&
			(c != '_' || j+run == len(s) || !isWordByte(s[j+run])) {
			return j
		}
		j += run
	}
	return -1
}

// countDelims counts unescaped c's outside code spans.
func countDelims(s string, c byte) int {
	n := 0
	for j := 0; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '`':
			if end := codeSpanEnd(s, j); end > 0 {
				j = end - 1
			}
		case c:
			n++
		}
	}
	return n
}

// entityLength returns the length of a character reference such as
// "&amp;" or "&#169;" at the start of s, or 0 when s does not start with
// one that decodes.
func entityLength(s string) int {
	if len(s) < 3 || s[0] != '&' {
		return 0
	}
	end := strings.IndexByte(s, ';')
	if end < 2 || end > 32 {
		return 0
	}
	name := s[1:end]
	for k := 0; k < len(name); k++ {
		if !isTagNameByte(name[k]) && !(k == 0 && name[k] == '#') {
			return 0
		}
	}
	if html.UnescapeString(s[:end+1]) == s[:end+1] {
		return 0
	}
	return end + 1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\n'
}

func isASCIIPunct(b byte) bool {
	return b >= '!' && b <= '/' || b >= ':' && b <= '@' || b >= '[' && b <= '`' || b >= '{' && b <= '~'
}
