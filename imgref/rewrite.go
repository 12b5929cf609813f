package imgref

import (
	"sort"
	"strings"
)

// Records maps a reference, as written in a document, to the local path its
// image was saved to. Only successfully downloaded references have an entry.
type Records map[string]string

// edit replaces text[start:end] with repl.
type edit struct {
	start int
	end   int
	repl  string
}

// Rewrite returns text with every recorded reference replaced by its local
// path. For inline references only the target changes; the alt text stays.
// For tags only the src value changes; quoting, the other attributes and
// the tag form stay. Unrecorded references are left byte-identical.
func Rewrite(text string, recs Records) string {
	edits := plan(text, recs)
	if len(edits) == 0 {
		return text
	}

	sb := strings.Builder{}
	sb.Grow(len(text))

	prev := 0
	for _, e := range edits {
		sb.WriteString(text[prev:e.start])
		sb.WriteString(e.repl)
		prev = e.end
	}
	sb.WriteString(text[prev:])

	return sb.String()
}

// Count returns the number of occurrences Rewrite would replace.
func Count(text string, recs Records) int {
	return len(plan(text, recs))
}

// plan returns the non-overlapping edits needed to rewrite text, sorted by
// offset. Where two occurrences overlap, the earlier one wins.
func plan(text string, recs Records) []edit {
	if len(recs) == 0 {
		return nil
	}

	var edits []edit
	for _, ref := range Extract(text) {
		local, ok := recs[ref.Value]
		if !ok {
			continue
		}
		edits = append(edits, edit{start: ref.Start, end: ref.End, repl: local})
	}

	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].start < edits[j].start
	})

	var out []edit
	end := 0
	for _, e := range edits {
		if e.start < end {
			continue
		}
		out = append(out, e)
		end = e.end
	}

	return out
}
