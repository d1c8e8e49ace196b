// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package richtext

// opaqueInline lists inline tags with no Markdown syntax. They are kept as
// literal markup in Markdown and recognized again on the way back.
var opaqueInline = map[string]bool{
	"u":     true,
	"kbd":   true,
	"samp":  true,
	"var":   true,
	"abbr":  true,
	"cite":  true,
	"small": true,
	"big":   true,
}

// opaqueBlock lists block tags emitted verbatim as HTML blocks.
var opaqueBlock = map[string]bool{
	"details":    true,
	"summary":    true,
	"figure":     true,
	"figcaption": true,
	"address":    true,
}

// markedInline lists tags that have Markdown syntax of their own but may
// also appear literally in Markdown source, where they stay markup.
var markedInline = map[string]bool{
	"sup": true,
	"sub": true,
	"br":  true,
}

// unwrapped lists containers with no Markdown meaning whose content is kept.
var unwrapped = map[string]bool{
	"div":     true,
	"span":    true,
	"section": true,
	"article": true,
	"header":  true,
	"footer":  true,
	"main":    true,
	"aside":   true,
	"nav":     true,
	"body":    true,
	"html":    true,
	"font":    true,
	"center":  true,
}

// dropped lists elements removed together with their content.
var dropped = map[string]bool{
	"script":   true,
	"style":    true,
	"template": true,
	"head":     true,
	"noscript": true,
	"iframe":   true,
	"object":   true,
}

// allowedRawInline reports whether a raw tag in Markdown source may stay
// markup under the given policy.
func allowedRawInline(tag string, policy RawHTMLPolicy) bool {
	if opaqueInline[tag] || markedInline[tag] {
		return true
	}
	return policy == RawHTMLPassthrough
}

// allowedRawBlock reports whether a line opening with tag starts a verbatim
// HTML block under the given policy.
func allowedRawBlock(tag string, policy RawHTMLPolicy) bool {
	if opaqueBlock[tag] {
		return true
	}
	return policy == RawHTMLPassthrough && blockTags[tag]
}

// blockTags are the HTML elements that start an HTML block in passthrough mode.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"details": true, "dialog": true, "div": true, "dl": true, "fieldset": true,
	"figcaption": true, "figure": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "main": true, "nav": true, "ol": true, "p": true,
	"pre": true, "section": true, "summary": true, "table": true, "ul": true,
	"iframe": true, "video": true, "audio": true, "canvas": true,
}
