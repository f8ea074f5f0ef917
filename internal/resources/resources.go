// Package resources audits the <script src> and stylesheet <link href> tags
// of HTML pages: broken asset paths, non-canonical paths and resources
// loaded more than once by the same page.
package resources

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/brightai/refcheck/internal/check"
	"github.com/brightai/refcheck/internal/index"
	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/project"
	"github.com/brightai/refcheck/internal/resolver"
)

// Reference is one resource tag with its verdict and duplicate membership.
type Reference struct {
	File       string `json:"file"`
	Kind       Kind   `json:"kind"`
	Original   string `json:"original"`
	Line       int    `json:"line"` // Line of the tag start
	TagStart   int    `json:"tagStart"`
	TagEnd     int    `json:"tagEnd"`
	ValueStart int    `json:"valueStart"`
	ValueEnd   int    `json:"valueEnd"`
	InNoscript bool   `json:"inNoscript"`

	Status             resolver.Status `json:"status"`
	Reason             string          `json:"reason,omitempty"`
	Suffix             string          `json:"suffix,omitempty"`
	NormalizedPath     string          `json:"normalizedReferencePath,omitempty"`
	ProjectPath        string          `json:"projectRelativePath,omitempty"`          // Valid only
	CandidatePath      string          `json:"projectRelativePathCandidate,omitempty"` // Broken only
	Canonical          string          `json:"canonical,omitempty"`
	NeedsNormalization bool            `json:"needsNormalization,omitempty"`
	Suggestion         string          `json:"suggestion,omitempty"`

	IsDuplicate       bool   `json:"isDuplicate,omitempty"`
	IsDuplicateLeader bool   `json:"isDuplicateLeader,omitempty"`
	DuplicateKey      string `json:"duplicateKey,omitempty"`
	KeeperLine        int    `json:"duplicateKeeperLine,omitempty"`
	KeeperReference   string `json:"duplicateKeeperReference,omitempty"`
}

// BrokenRow is the reported form of a broken resource path.
type BrokenRow struct {
	File       string `json:"file"`
	Line       int    `json:"line"`
	Kind       Kind   `json:"kind"`
	Reference  string `json:"reference"`
	Reason     string `json:"reason"`
	Suggestion string `json:"suggestion"`
}

// DuplicateRow is the reported form of a redundant resource load.
type DuplicateRow struct {
	File                 string `json:"file"`
	Line                 int    `json:"line"`
	Kind                 Kind   `json:"kind"`
	Reference            string `json:"reference"`
	DuplicateOfLine      int    `json:"duplicateOfLine"`
	DuplicateOfReference string `json:"duplicateOfReference"`
}

// Report is the result of one resource audit.
type Report struct {
	GeneratedAt             string            `json:"generatedAt"`
	Root                    string            `json:"root"`
	FilesScanned            int               `json:"filesScanned"`
	ResourcesScanned        int               `json:"resourcesScanned"`
	LocalResources          int               `json:"localResources"`
	BrokenResources         int               `json:"brokenResources"`
	FixableBrokenResources  int               `json:"fixableBrokenResources"`
	DuplicateResources      int               `json:"duplicateResources"`
	NormalizationCandidates int               `json:"normalizationCandidates"`
	TopBrokenFiles          []check.FileCount `json:"topBrokenFiles"`
	TopDuplicateFiles       []check.FileCount `json:"topDuplicateFiles"`
	BrokenRows              []BrokenRow       `json:"brokenRows"`
	DuplicateRows           []DuplicateRow    `json:"duplicateRows"`

	References []*Reference `json:"-"`
}

// Options configures a resource audit.
type Options struct {
	Root    string
	Include []string // Defaults to project.DefaultResourcePatterns
	Ignore  []string // Defaults to project.DefaultIgnorePatterns
	Now     func() time.Time
}

// Run audits every matching HTML page under opts.Root.
func Run(ctx context.Context, opts Options) (*Report, error) {
	include := opts.Include
	if len(include) == 0 {
		include = project.DefaultResourcePatterns
	}
	ignore := opts.Ignore
	if ignore == nil {
		ignore = project.DefaultIgnorePatterns
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	files, err := project.Collect(opts.Root, include, ignore)
	if err != nil {
		return nil, fmt.Errorf("collect files: %w", err)
	}
	idx, err := index.Build(opts.Root, ignore)
	if err != nil {
		return nil, fmt.Errorf("build file index: %w", err)
	}

	var refs []*Reference
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := project.ReadFile(opts.Root, file)
		if err != nil {
			return nil, err
		}
		refs = append(refs, Analyze(file, content, idx)...)
	}

	return buildReport(refs, len(files), paths.ToSlash(opts.Root), check.Timestamp(now())), nil
}

// Analyze extracts, evaluates and groups the resource tags of one page.
func Analyze(file, content string, idx *index.FileIndex) []*Reference {
	tags := extractTags(content)
	refs := make([]*Reference, 0, len(tags))
	for _, t := range tags {
		ref := &Reference{
			File:       file,
			Kind:       t.kind,
			Original:   t.original,
			Line:       t.line,
			TagStart:   t.tagStart,
			TagEnd:     t.tagEnd,
			ValueStart: t.valueStart,
			ValueEnd:   t.valueEnd,
			InNoscript: t.inNoscript,
		}
		evaluate(ref, idx)
		refs = append(refs, ref)
	}
	markDuplicates(refs)
	return refs
}

var (
	versionParamRegex = regexp.MustCompile(`(?i)[?&]v=\d+`)
	minifiedRegex     = regexp.MustCompile(`(?i)\.min\.`)
)

// priority ranks duplicate candidates: a cache-busting version parameter
// wins, any other query or fragment comes next, minified files get a
// small bonus.
func priority(ref *Reference) int {
	score := 0
	if versionParamRegex.MatchString(ref.Suffix) {
		score += 50
	} else if ref.Suffix != "" {
		score += 10
	}
	if minifiedRegex.MatchString(ref.NormalizedPath) {
		score += 2
	}
	return score
}

// markDuplicates groups the non-ignored tags of a single page by kind and
// target, elects one keeper per group and flags the others. Tags inside
// <noscript> are fallbacks and never count as duplicates.
func markDuplicates(refs []*Reference) {
	groups := make(map[string][]*Reference)
	var order []string
	for _, ref := range refs {
		if ref.Status == resolver.StatusIgnored || ref.InNoscript {
			continue
		}
		target := ref.ProjectPath
		if target == "" {
			target = ref.CandidatePath
		}
		if target == "" {
			target = ref.NormalizedPath
		}
		if target == "" {
			continue
		}
		key := string(ref.Kind) + "|" + strings.ToLower(target)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], ref)
	}

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		keeper := group[0]
		for _, ref := range group[1:] {
			if p, kp := priority(ref), priority(keeper); p > kp || (p == kp && ref.TagStart < keeper.TagStart) {
				keeper = ref
			}
		}
		for _, ref := range group {
			if ref == keeper {
				ref.IsDuplicateLeader = true
				continue
			}
			ref.IsDuplicate = true
			ref.DuplicateKey = key
			ref.KeeperLine = keeper.Line
			ref.KeeperReference = keeper.Original
		}
	}
}

func buildReport(refs []*Reference, filesScanned int, root, generatedAt string) *Report {
	report := &Report{
		GeneratedAt:      generatedAt,
		Root:             root,
		FilesScanned:     filesScanned,
		ResourcesScanned: len(refs),
		BrokenRows:       []BrokenRow{},
		DuplicateRows:    []DuplicateRow{},
		References:       refs,
	}

	for _, ref := range refs {
		if ref.Status == resolver.StatusIgnored {
			continue
		}
		report.LocalResources++
		switch ref.Status {
		case resolver.StatusBroken:
			report.BrokenResources++
			if ref.Suggestion != "" {
				report.FixableBrokenResources++
			}
			report.BrokenRows = append(report.BrokenRows, BrokenRow{
				File:       ref.File,
				Line:       ref.Line,
				Kind:       ref.Kind,
				Reference:  ref.Original,
				Reason:     ref.Reason,
				Suggestion: ref.Suggestion,
			})
		case resolver.StatusValid:
			if ref.NeedsNormalization {
				report.NormalizationCandidates++
			}
		}
		if ref.IsDuplicate {
			report.DuplicateRows = append(report.DuplicateRows, DuplicateRow{
				File:                 ref.File,
				Line:                 ref.Line,
				Kind:                 ref.Kind,
				Reference:            ref.Original,
				DuplicateOfLine:      ref.KeeperLine,
				DuplicateOfReference: ref.KeeperReference,
			})
		}
	}
	report.DuplicateResources = len(report.DuplicateRows)

	sort.SliceStable(report.BrokenRows, func(i, j int) bool {
		a, b := report.BrokenRows[i], report.BrokenRows[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})
	sort.SliceStable(report.DuplicateRows, func(i, j int) bool {
		a, b := report.DuplicateRows[i], report.DuplicateRows[j]
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})

	report.TopBrokenFiles = check.CountByFile(brokenFiles(report.BrokenRows))
	report.TopDuplicateFiles = check.CountByFile(duplicateFiles(report.DuplicateRows))
	return report
}

func brokenFiles(rows []BrokenRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.File
	}
	return out
}

func duplicateFiles(rows []DuplicateRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.File
	}
	return out
}
