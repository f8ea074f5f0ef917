package resources

import (
	"regexp"
	"slices"
	"strings"

	"github.com/brightai/refcheck/internal/extract"
)

// Kind classifies a resource tag.
type Kind string

const (
	KindScript       Kind = "script"
	KindStyleSheet   Kind = "style-sheet"
	KindStylePreload Kind = "style-preload"
)

var (
	resourceTagRegex = regexp.MustCompile(`(?i)<script\b[^>]*\bsrc\s*=\s*(?:'([^"'<>]+)'|"([^"'<>]+)")[^>]*>` +
		`|<link\b[^>]*\bhref\s*=\s*(?:'([^"'<>]+)'|"([^"'<>]+)")[^>]*>`)
	noscriptBlockRegex = regexp.MustCompile(`(?is)<noscript\b[^>]*>.*?</noscript>`)

	relQuotedRegex   = regexp.MustCompile(`(?i)(?:^|\s)rel\s*=\s*(?:'([^'"]*)'|"([^'"]*)")`)
	relUnquotedRegex = regexp.MustCompile(`(?i)(?:^|\s)rel\s*=\s*([^\s>]+)`)
	asQuotedRegex    = regexp.MustCompile(`(?i)(?:^|\s)as\s*=\s*(?:'([^'"]*)'|"([^'"]*)")`)
	asUnquotedRegex  = regexp.MustCompile(`(?i)(?:^|\s)as\s*=\s*([^\s>]+)`)
)

type span struct {
	start, end int
}

func (s span) contains(offset int) bool {
	return offset >= s.start && offset < s.end
}

// tagReference is a resource tag as found in the markup, before evaluation.
type tagReference struct {
	kind       Kind
	original   string
	line       int
	tagStart   int
	tagEnd     int
	valueStart int
	valueEnd   int
	inNoscript bool
}

// extractTags finds every <script src> and stylesheet <link href> in content.
// Links that are neither stylesheets nor style preloads are skipped.
func extractTags(content string) []tagReference {
	lines := extract.NewLineIndex(content)

	var noscripts []span
	for _, m := range noscriptBlockRegex.FindAllStringIndex(content, -1) {
		noscripts = append(noscripts, span{m[0], m[1]})
	}

	var refs []tagReference
	for _, m := range resourceTagRegex.FindAllStringSubmatchIndex(content, -1) {
		tag := content[m[0]:m[1]]
		kind, ok := classifyTag(tag)
		if !ok {
			continue
		}

		start, end := -1, -1
		for g := 1; g <= 4; g++ {
			if m[2*g] >= 0 {
				start, end = m[2*g], m[2*g+1]
				break
			}
		}
		if start < 0 {
			continue
		}
		raw := content[start:end]
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		start += strings.Index(raw, trimmed)
		end = start + len(trimmed)

		ref := tagReference{
			kind:       kind,
			original:   trimmed,
			line:       lines.Line(m[0]),
			tagStart:   m[0],
			tagEnd:     m[1],
			valueStart: start,
			valueEnd:   end,
		}
		for _, ns := range noscripts {
			if ns.contains(m[0]) {
				ref.inNoscript = true
				break
			}
		}
		refs = append(refs, ref)
	}
	return refs
}

func classifyTag(tag string) (Kind, bool) {
	lower := strings.ToLower(tag)
	if strings.HasPrefix(lower, "<script") {
		return KindScript, true
	}
	if !strings.HasPrefix(lower, "<link") {
		return "", false
	}

	rel := strings.Fields(strings.ToLower(attributeValue(lower, relQuotedRegex, relUnquotedRegex)))
	as := strings.ToLower(attributeValue(lower, asQuotedRegex, asUnquotedRegex))

	if slices.Contains(rel, "stylesheet") {
		return KindStyleSheet, true
	}
	if slices.Contains(rel, "preload") && as == "style" {
		return KindStylePreload, true
	}
	return "", false
}

func attributeValue(tag string, quoted, unquoted *regexp.Regexp) string {
	if m := quoted.FindStringSubmatch(tag); m != nil {
		if m[1] != "" {
			return strings.TrimSpace(m[1])
		}
		return strings.TrimSpace(m[2])
	}
	if m := unquoted.FindStringSubmatch(tag); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
