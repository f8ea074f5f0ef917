// Package resolver classifies extracted references as ignored, valid or
// broken, and proposes replacements for broken ones.
package resolver

import (
	"sort"
	"strings"

	"github.com/brightai/refcheck/internal/extract"
	"github.com/brightai/refcheck/internal/index"
	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/project"
)

// Status is the outcome of evaluating one reference.
type Status string

const (
	StatusIgnored Status = "ignored"
	StatusValid   Status = "valid"
	StatusBroken  Status = "broken"
)

// Reason explains why a reference is broken.
type Reason string

const (
	ReasonPathNotFound Reason = "path_not_found"
	ReasonOutsideRoot  Reason = "outside_project_root"
)

// Suggestion confidences. These are fixed and not configurable.
const (
	ConfidenceExact  = 0.95 // Single candidate, or the path exists once reinterpreted
	ConfidenceSuffix = 0.85 // Exactly one file ends with the wanted path
	ConfidenceScored = 0.78 // Best of several candidates by a clear margin
	ConfidenceSlug   = 0.70 // Slugified page name match; never auto-applied

	// AutoFixConfidence is the minimum confidence for a suggestion to be
	// applied without review.
	AutoFixConfidence = 0.75

	// scoreMargin is how far the best candidate must lead the runner-up.
	scoreMargin = 3
)

// Verdict is the evaluation of a single reference. Exactly one of the
// ignored/valid/broken field groups is meaningful, as selected by Status.
type Verdict struct {
	Status Status `json:"status"`

	// Ignored
	IgnoreReason string `json:"ignoreReason,omitempty"`

	// Valid and broken
	NormalizedPath string `json:"normalizedReferencePath,omitempty"`

	// Valid
	MatchedPath        string `json:"matchedPath,omitempty"`
	Canonical          string `json:"canonical,omitempty"`
	NeedsNormalization bool   `json:"needsNormalization,omitempty"`

	// Broken
	Reason         Reason  `json:"reason,omitempty"`
	Suggestion     string  `json:"suggestion,omitempty"`     // "/" + SuggestionPath + suffix
	SuggestionPath string  `json:"suggestionPath,omitempty"` // Project-relative
	Confidence     float64 `json:"suggestionConfidence,omitempty"`
}

// HasSuggestion reports whether a broken reference has a proposed fix.
func (v Verdict) HasSuggestion() bool {
	return v.Status == StatusBroken && v.Suggestion != ""
}

// AutoFixable reports whether the suggestion is confident enough to apply.
func (v Verdict) AutoFixable() bool {
	return v.HasSuggestion() && v.Confidence >= AutoFixConfidence
}

// Candidate is a proposed replacement target.
type Candidate struct {
	Path       string
	Confidence float64
}

// Options tunes optional resolver behavior.
type Options struct {
	// SlugMatch enables a last-resort lookup of HTML pages by slugified
	// name ("About_Us" finds "about-us.html").
	SlugMatch bool
}

// Resolver evaluates references against a file index.
type Resolver struct {
	idx  *index.FileIndex
	opts Options
}

// New creates a Resolver over idx.
func New(idx *index.FileIndex, opts Options) *Resolver {
	return &Resolver{idx: idx, opts: opts}
}

// Evaluate classifies ref.
func (r *Resolver) Evaluate(ref extract.Reference) Verdict {
	if reason := IgnoreReason(ref); reason != "" {
		return Verdict{Status: StatusIgnored, IgnoreReason: reason}
	}

	refPath, suffix := paths.SplitSuffix(ref.Original)
	normalized := paths.NormalizeReference(refPath)
	if normalized == "" {
		return Verdict{Status: StatusIgnored, IgnoreReason: IgnoreEmptyAfterNorm}
	}

	rel, ok := paths.ToProjectRelative(ref.File, normalized)
	if !ok {
		v := Verdict{Status: StatusBroken, Reason: ReasonOutsideRoot, NormalizedPath: normalized}
		r.attachSuggestion(&v, normalized, ref.File, suffix)
		return v
	}

	if matched, found := r.firstExisting(rel); found {
		canonical := "/" + matched + suffix
		return Verdict{
			Status:             StatusValid,
			NormalizedPath:     normalized,
			MatchedPath:        matched,
			Canonical:          canonical,
			NeedsNormalization: canonical != strings.TrimSpace(ref.Original),
		}
	}

	v := Verdict{Status: StatusBroken, Reason: ReasonPathNotFound, NormalizedPath: normalized}
	r.attachSuggestion(&v, normalized, ref.File, suffix)
	return v
}

func (r *Resolver) attachSuggestion(v *Verdict, normalized, sourceFile, suffix string) {
	c, ok := r.Suggest(normalized, sourceFile)
	if !ok {
		return
	}
	v.Suggestion = "/" + c.Path + suffix
	v.SuggestionPath = c.Path
	v.Confidence = c.Confidence
}

func (r *Resolver) firstExisting(rel string) (string, bool) {
	for _, c := range paths.ExpandCandidates(rel) {
		if r.idx.Has(c) {
			return c, true
		}
	}
	return "", false
}

// Suggest searches for a replacement target for a normalized reference that
// does not resolve. Strategies are tried in order and the first hit wins:
//   - the path read as root-relative, then as written
//   - files with the same basename
//   - HTML files with the same stem
//   - the single file whose path ends with the wanted path
//   - HTML files with the same slugified stem (only with Options.SlugMatch)
func (r *Resolver) Suggest(normalized, sourceFile string) (Candidate, bool) {
	if normalized == "" || normalized == "/" {
		return Candidate{}, false
	}

	rootCandidate := paths.NormalizeRelative(strings.TrimPrefix(normalized, "/"))
	if rootCandidate != "" {
		if p, ok := r.firstExisting(rootCandidate); ok {
			return Candidate{Path: p, Confidence: ConfidenceExact}, true
		}
	}

	wanted, ok := paths.ToProjectRelative(sourceFile, normalized)
	if !ok {
		wanted = ""
	}
	if wanted != "" {
		if p, ok := r.firstExisting(wanted); ok {
			return Candidate{Path: p, Confidence: ConfidenceExact}, true
		}
	}

	scoreAgainst := wanted
	if scoreAgainst == "" {
		scoreAgainst = rootCandidate
	}

	if base := paths.Base(normalized); base != "" {
		if c, ok := ChooseBest(r.idx.ByBasename(base), scoreAgainst); ok {
			return c, true
		}
	}

	stem := paths.Stem(normalized)
	if stem != "" {
		var pages []string
		for _, p := range r.idx.ByStem(stem) {
			if project.IsHTML(p) {
				pages = append(pages, p)
			}
		}
		if c, ok := ChooseBest(pages, scoreAgainst); ok {
			return c, true
		}
	}

	if wanted != "" {
		if p, ok := UniqueSuffixMatch(r.idx.All(), wanted); ok {
			return Candidate{Path: p, Confidence: ConfidenceSuffix}, true
		}
	}

	if r.opts.SlugMatch && stem != "" {
		if pages := r.idx.HTMLBySlug(stem); len(pages) == 1 {
			return Candidate{Path: pages[0], Confidence: ConfidenceSlug}, true
		}
	}

	return Candidate{}, false
}

// ChooseBest picks a candidate for wanted. A single candidate is accepted
// outright. Several candidates are ranked with Score, and the best one is
// accepted only if it leads the runner-up by at least three points.
func ChooseBest(candidates []string, wanted string) (Candidate, bool) {
	switch {
	case len(candidates) == 0:
		return Candidate{}, false
	case len(candidates) == 1:
		return Candidate{Path: candidates[0], Confidence: ConfidenceExact}, true
	case wanted == "":
		return Candidate{}, false
	}

	type scored struct {
		path  string
		score int
	}
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{path: c, score: Score(c, wanted)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if ranked[0].score >= ranked[1].score+scoreMargin {
		return Candidate{Path: ranked[0].path, Confidence: ConfidenceScored}, true
	}
	return Candidate{}, false
}

// Score rates how closely candidate resembles wanted (case-insensitive):
// +8 when the basenames match, +3 for every trailing segment the two paths
// share (the basename included), +1 when the first segments match.
func Score(candidate, wanted string) int {
	cp := strings.Split(strings.ToLower(candidate), "/")
	wp := strings.Split(strings.ToLower(wanted), "/")
	score := 0

	if cp[len(cp)-1] == wp[len(wp)-1] {
		score += 8
	}
	for i := 1; i <= len(cp) && i <= len(wp); i++ {
		if cp[len(cp)-i] != wp[len(wp)-i] {
			break
		}
		score += 3
	}
	if cp[0] == wp[0] {
		score++
	}
	return score
}

// UniqueSuffixMatch returns the only file whose path ends with wanted
// (case-insensitive).
func UniqueSuffixMatch(files []string, wanted string) (string, bool) {
	lower := strings.ToLower(wanted)
	match := ""
	for _, f := range files {
		if strings.HasSuffix(strings.ToLower(f), lower) {
			if match != "" {
				return "", false
			}
			match = f
		}
	}
	return match, match != ""
}

// Describe returns the Arabic label used in Markdown reports.
func (r Reason) Describe() string {
	switch r {
	case ReasonPathNotFound:
		return "المسار غير موجود"
	case ReasonOutsideRoot:
		return "المسار يشير إلى خارج جذر المشروع"
	default:
		return string(r)
	}
}
