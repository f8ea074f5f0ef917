// Package check runs the internal-links audit over a project.
package check

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/brightai/refcheck/internal/extract"
	"github.com/brightai/refcheck/internal/index"
	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/project"
	"github.com/brightai/refcheck/internal/resolver"
)

// Options configures an audit run.
type Options struct {
	Root      string
	Include   []string // Defaults to project.DefaultFilePatterns
	Ignore    []string // Defaults to project.DefaultIgnorePatterns
	SlugMatch bool

	// Now is used for the report timestamp; time.Now when nil.
	Now func() time.Time
}

// Reference is an extracted reference together with its verdict.
type Reference struct {
	extract.Reference
	resolver.Verdict
}

// FileCount is one row of a "files with most problems" ranking.
type FileCount struct {
	File  string `json:"file"`
	Count int    `json:"count"`
}

// BrokenRow is the reported form of a broken reference.
type BrokenRow struct {
	File           string  `json:"file"`
	Line           int     `json:"line"`
	PatternType    string  `json:"patternType"`
	Reference      string  `json:"reference"`
	NormalizedPath string  `json:"normalizedReferencePath"`
	Reason         string  `json:"reason"`
	Suggestion     string  `json:"suggestion"`
	Confidence     float64 `json:"suggestionConfidence,omitempty"`
}

// Report is the result of one audit run. It is never modified after Run
// returns.
type Report struct {
	GeneratedAt             string      `json:"generatedAt"`
	Root                    string      `json:"root"`
	FilesScanned            int         `json:"filesScanned"`
	ReferencesScanned       int         `json:"referencesScanned"`
	InternalReferences      int         `json:"internalReferences"`
	BrokenReferences        int         `json:"brokenReferences"`
	FixableBrokenReferences int         `json:"fixableBrokenReferences"`
	NormalizationCandidates int         `json:"normalizationCandidates"`
	TopBrokenFiles          []FileCount `json:"topBrokenFiles"`
	BrokenRows              []BrokenRow `json:"brokenRows"`

	// References holds every evaluated reference for the rewriter.
	References []Reference `json:"-"`
}

// Run collects the project's files, builds the file index and evaluates
// every reference, one file at a time. Any read error aborts the run.
func Run(ctx context.Context, opts Options) (*Report, error) {
	include := opts.Include
	if len(include) == 0 {
		include = project.DefaultFilePatterns
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
	res := resolver.New(idx, resolver.Options{SlugMatch: opts.SlugMatch})

	var refs []Reference
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := project.ReadFile(opts.Root, file)
		if err != nil {
			return nil, err
		}
		for _, ref := range extract.References(file, content) {
			refs = append(refs, Reference{Reference: ref, Verdict: res.Evaluate(ref)})
		}
	}

	report := &Report{
		GeneratedAt:       Timestamp(now()),
		Root:              paths.ToSlash(opts.Root),
		FilesScanned:      len(files),
		ReferencesScanned: len(refs),
		References:        refs,
	}

	rows := []BrokenRow{}
	for _, r := range refs {
		switch r.Status {
		case resolver.StatusIgnored:
			continue
		case resolver.StatusValid:
			if r.NeedsNormalization {
				report.NormalizationCandidates++
			}
		case resolver.StatusBroken:
			report.BrokenReferences++
			if r.HasSuggestion() {
				report.FixableBrokenReferences++
			}
			rows = append(rows, BrokenRow{
				File:           r.File,
				Line:           r.Line,
				PatternType:    string(r.PatternType),
				Reference:      r.Original,
				NormalizedPath: r.NormalizedPath,
				Reason:         string(r.Reason),
				Suggestion:     r.Suggestion,
				Confidence:     r.Confidence,
			})
		}
		report.InternalReferences++
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].File != rows[j].File {
			return rows[i].File < rows[j].File
		}
		return rows[i].Line < rows[j].Line
	})
	report.BrokenRows = rows

	rowFiles := make([]string, len(rows))
	for i, row := range rows {
		rowFiles[i] = row.File
	}
	report.TopBrokenFiles = CountByFile(rowFiles)
	return report, nil
}

// CountByFile counts occurrences per file, most frequent first and then by
// file name.
func CountByFile(files []string) []FileCount {
	counts := make(map[string]int)
	for _, f := range files {
		counts[f]++
	}
	out := make([]FileCount, 0, len(counts))
	for f, n := range counts {
		out = append(out, FileCount{File: f, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].File < out[j].File
	})
	return out
}

// Timestamp formats t the way report artifacts record it
// (UTC, millisecond precision, e.g. 2025-03-01T10:04:05.123Z).
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
