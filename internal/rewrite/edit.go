package rewrite

import (
	"sort"
	"strings"
)

// Kind labels an edit in results and the audit log.
type Kind string

const (
	KindNormalize       Kind = "normalize"
	KindFixBroken       Kind = "fix-broken"
	KindRemoveDuplicate Kind = "remove-duplicate"
)

// Edit replaces content[Start:End] with Value.
type Edit struct {
	Start int
	End   int
	Value string
	Kind  Kind
}

// Apply performs edits from the highest offset down, so earlier offsets stay
// valid while later text shifts. An edit that reaches into a span already
// rewritten is skipped. It returns the new content and the applied edits.
func Apply(content string, edits []Edit) (string, []Edit) {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start > sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	// Pieces are collected back to front.
	var pieces []string
	applied := make([]Edit, 0, len(sorted))
	lastStart := len(content)
	for _, e := range sorted {
		if e.Start < 0 || e.Start > e.End || e.End > lastStart {
			continue
		}
		pieces = append(pieces, content[e.End:lastStart], e.Value)
		lastStart = e.Start
		applied = append(applied, e)
	}
	pieces = append(pieces, content[:lastStart])

	var b strings.Builder
	for i := len(pieces) - 1; i >= 0; i-- {
		b.WriteString(pieces[i])
	}
	return b.String(), applied
}

// CountKinds tallies edits by kind.
func CountKinds(edits []Edit) map[string]int {
	kinds := make(map[string]int)
	for _, e := range edits {
		kinds[string(e.Kind)]++
	}
	return kinds
}
