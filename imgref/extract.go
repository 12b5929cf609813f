// Package imgref finds image references in markdown text and rewrites them.
//
// Two syntaxes are recognized: inline markdown images, ![alt](target), and
// html img tags carrying a src attribute. Malformed input never produces an
// error; an occurrence that does not match simply yields no reference.
package imgref

import (
	"regexp"
	"strings"

	"github.com/ccollins476ad/mdlocal/web"
)

var inlineRegexp = regexp.MustCompile(`!\[(.*?)\]\((.*?)\)`)

// Form is the syntax a reference was written in.
type Form int

const (
	Inline Form = iota // ![alt](target)
	Tag                // <img src="target">
)

func (f Form) String() string {
	switch f {
	case Inline:
		return "inline"
	case Tag:
		return "tag"
	default:
		return "unknown"
	}
}

// Reference is one occurrence of an image reference in a document.
type Reference struct {
	Value string // Exactly as written in the document.
	Form  Form
	Start int // Byte offset of Value in the document.
	End   int
}

// Extract returns every image reference in text: inline references in order
// of appearance, followed by tag references in order of appearance.
// Duplicates are preserved. Empty references are included too; see Usable.
func Extract(text string) []Reference {
	var refs []Reference

	forEachInline(text, func(ref Reference) {
		refs = append(refs, ref)
	})
	forEachTag(text, func(ref Reference) {
		refs = append(refs, ref)
	})

	return refs
}

// Usable reports whether a reference names something that can be fetched.
// Empty and whitespace-only references are not.
func Usable(ref string) bool {
	return strings.TrimSpace(ref) != ""
}

func forEachInline(text string, fn func(ref Reference)) {
	for _, m := range inlineRegexp.FindAllStringSubmatchIndex(text, -1) {
		// m[4]:m[5] is the target group.
		fn(Reference{
			Value: text[m[4]:m[5]],
			Form:  Inline,
			Start: m[4],
			End:   m[5],
		})
	}
}

func forEachTag(text string, fn func(ref Reference)) {
	web.ScanTags(text, "img", func(t web.Tag) {
		val, start, end, ok := t.Attr("src")
		if !ok {
			return
		}
		fn(Reference{
			Value: val,
			Form:  Tag,
			Start: t.Offset + start,
			End:   t.Offset + end,
		})
	})
}
