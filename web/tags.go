package web

import (
	"strings"

	"golang.org/x/net/html"
)

// Tag is a start or self-closing tag found in a larger text.
type Tag struct {
	Name   string // Lower case tag name.
	Offset int    // Byte offset of Raw in the scanned text.
	Raw    string // Unmodified tag text, from '<' to '>'.
}

// ScanTags tokenizes text as html and calls fn for every start or
// self-closing tag with the given (lower case) name. Non-html content is
// tokenized as text and ignored, so text need not be a well formed html
// document. Tags inside closed comments are not reported.
//
// Markdown mentions tags like <title> or <script> in prose and code spans
// without closing them, so the html raw text rules are not applied: the
// content after such a tag is scanned like any other text. The body of an
// unterminated comment is scanned too.
func ScanTags(text string, name string, fn func(t Tag)) {
	scanTags(text, 0, name, fn)
}

func scanTags(text string, base int, name string, fn func(t Tag)) {
	z := html.NewTokenizer(strings.NewReader(text))

	off := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return
		}

		// Copy before TagName(), which lowercases the token buffer in place.
		raw := string(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, _ := z.TagName()
			if string(tn) == name {
				fn(Tag{Name: name, Offset: base + off, Raw: raw})
			}
			z.NextIsNotRawText()

		case html.CommentToken:
			if strings.HasPrefix(raw, "<!--") && !strings.HasSuffix(raw, "-->") {
				scanTags(raw[len("<!--"):], base+off+len("<!--"), name, fn)
			}
		}

		off += len(raw)
	}
}

// Attr looks up an attribute in the raw tag text. It returns the raw
// (still escaped) value and the span of that value relative to t.Raw. Names
// are compared case-insensitively. Only the first attribute with the name
// counts, as in html. Attributes without a value are reported as not found.
func (t Tag) Attr(key string) (val string, start int, end int, ok bool) {
	s := t.Raw

	// Skip '<' and the tag name.
	i := 1
	for i < len(s) && !isSpace(s[i]) && s[i] != '/' && s[i] != '>' {
		i++
	}

	for i < len(s) {
		for i < len(s) && (isSpace(s[i]) || s[i] == '/') {
			i++
		}
		if i >= len(s) || s[i] == '>' {
			break
		}

		ks := i
		i++
		for i < len(s) && !isSpace(s[i]) && s[i] != '/' && s[i] != '>' && s[i] != '=' {
			i++
		}
		k := s[ks:i]

		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			continue
		}
		i++
		for i < len(s) && isSpace(s[i]) {
			i++
		}

		var vs, ve int
		if i < len(s) && (s[i] == '"' || s[i] == '\'') {
			q := s[i]
			i++
			vs = i
			for i < len(s) && s[i] != q {
				i++
			}
			ve = i
			if i < len(s) {
				i++
			}
		} else {
			vs = i
			for i < len(s) && !isSpace(s[i]) && s[i] != '>' {
				i++
			}
			ve = i
		}

		if strings.EqualFold(k, key) {
			return s[vs:ve], vs, ve, true
		}
	}

	return "", 0, 0, false
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
