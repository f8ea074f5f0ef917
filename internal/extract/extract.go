// Package extract finds path-like references in HTML, CSS and JavaScript
// source text.
//
// Extraction is regex based. Value offsets come from the capture groups of
// the match, so a value that also appears earlier inside the same tag is
// still located correctly.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/brightai/refcheck/internal/project"
)

// PatternType names the syntactic rule that produced a reference.
type PatternType string

const (
	PatternAttr           PatternType = "attr"
	PatternCSSURL         PatternType = "css-url"
	PatternJSKey          PatternType = "js-key"
	PatternJSAssignment   PatternType = "js-assignment"
	PatternJSSetAttribute PatternType = "js-set-attribute"
)

// Reference is one path-like occurrence inside a source file.
// Content[ValueStart:ValueEnd] == Original at extraction time.
type Reference struct {
	File          string      `json:"file"`
	PatternType   PatternType `json:"patternType"`
	AttributeName string      `json:"attributeName,omitempty"` // Lowercased, attr pattern only
	Original      string      `json:"original"`
	ValueStart    int         `json:"valueStart"`
	ValueEnd      int         `json:"valueEnd"`
	Line          int         `json:"line"` // 1-based
}

// quotedValue builds an alternation capturing a value between matching
// quotes, one capture group per quote character. excluded lists the
// characters the value may not contain.
func quotedValue(quotes, excluded string) string {
	class := "[^" + excluded + "]+"
	alts := make([]string, 0, len(quotes))
	for _, q := range quotes {
		alts = append(alts, string(q)+"("+class+")"+string(q))
	}
	return "(?:" + strings.Join(alts, "|") + ")"
}

type pattern struct {
	typ         PatternType
	re          *regexp.Regexp
	valueGroups []int // Alternative capture groups holding the value
	attrGroup   int   // Capture group holding the attribute name, 0 if none
	scriptOnly  bool
	markupOnly  bool
}

const jsValueExcluded = "\"'`\\n\\r"

var patterns = []pattern{
	{
		typ:         PatternAttr,
		re:          regexp.MustCompile(`(?i)\b(href|src|action|poster|data-href|data-src)\s*=\s*` + quotedValue(`'"`, `"'<>`)),
		valueGroups: []int{2, 3},
		attrGroup:   1,
	},
	{
		typ:         PatternCSSURL,
		re:          regexp.MustCompile(`(?i)url\(\s*(?:'([^'")]+)'|"([^'")]+)"|([^'")]+))\s*\)`),
		valueGroups: []int{1, 2, 3},
		markupOnly:  true,
	},
	{
		typ:         PatternJSKey,
		re:          regexp.MustCompile(`\b(?:url|href|path|link)\s*:\s*` + quotedValue("'\"`", jsValueExcluded)),
		valueGroups: []int{1, 2, 3},
		scriptOnly:  true,
	},
	{
		typ: PatternJSKey,
		re: regexp.MustCompile(`(?:'(?:url|href|path|link)'|"(?:url|href|path|link)"|` +
			"`(?:url|href|path|link)`" + `)\s*:\s*` + quotedValue("'\"`", jsValueExcluded)),
		valueGroups: []int{1, 2, 3},
		scriptOnly:  true,
	},
	{
		typ:         PatternJSAssignment,
		re:          regexp.MustCompile(`\b(?:href|src|action)\s*=\s*` + quotedValue("'\"`", jsValueExcluded)),
		valueGroups: []int{1, 2, 3},
		scriptOnly:  true,
	},
	{
		typ: PatternJSSetAttribute,
		re: regexp.MustCompile(`\bsetAttribute\(\s*['"](?:href|src|action|data-href|data-src)['"]\s*,\s*` +
			quotedValue("'\"`", jsValueExcluded) + `\s*\)`),
		valueGroups: []int{1, 2, 3},
		scriptOnly:  true,
	},
}

type dedupeKey struct {
	start, end int
	value      string
}

// References extracts every reference from content. JavaScript files get the
// script patterns, everything else gets the markup and stylesheet patterns;
// the attribute pattern applies to both. The result is sorted by ValueStart.
func References(file, content string) []Reference {
	lines := NewLineIndex(content)
	isScript := project.IsJavaScript(strings.ToLower(file))

	var refs []Reference
	seen := make(map[dedupeKey]struct{})

	for _, p := range patterns {
		if (p.scriptOnly && !isScript) || (p.markupOnly && isScript) {
			continue
		}
		for _, m := range p.re.FindAllStringSubmatchIndex(content, -1) {
			start, end, ok := firstGroup(m, p.valueGroups)
			if !ok {
				continue
			}
			value := content[start:end]
			key := dedupeKey{start, end, value}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			ref := Reference{
				File:        file,
				PatternType: p.typ,
				Original:    value,
				ValueStart:  start,
				ValueEnd:    end,
				Line:        lines.Line(start),
			}
			if p.attrGroup > 0 && m[2*p.attrGroup] >= 0 {
				ref.AttributeName = strings.ToLower(content[m[2*p.attrGroup]:m[2*p.attrGroup+1]])
			}
			refs = append(refs, ref)
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].ValueStart < refs[j].ValueStart
	})
	return refs
}

// firstGroup returns the span of the first participating capture group.
func firstGroup(match []int, groups []int) (start, end int, ok bool) {
	for _, g := range groups {
		if 2*g+1 < len(match) && match[2*g] >= 0 && match[2*g+1] > match[2*g] {
			return match[2*g], match[2*g+1], true
		}
	}
	return 0, 0, false
}

// LineIndex maps byte offsets to 1-based line numbers.
type LineIndex struct {
	starts []int
}

// NewLineIndex records the start offset of every line in content.
func NewLineIndex(content string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts}
}

// Line returns the 1-based line containing offset. Offsets past the end map
// to the last line.
func (li *LineIndex) Line(offset int) int {
	// Index of the first line starting after offset.
	i := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset })
	if i == 0 {
		return 1
	}
	return i
}
