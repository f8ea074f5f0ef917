// Package rewrite applies audit results back to source files: confident
// suggestions for broken references and canonical forms for valid ones.
package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/brightai/refcheck/internal/atomicfile"
	"github.com/brightai/refcheck/internal/audit"
	"github.com/brightai/refcheck/internal/check"
	"github.com/brightai/refcheck/internal/diff"
	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/resolver"
)

// PipelineLinks names the internal-links pipeline in the audit log.
const PipelineLinks = "links"

// Eligible reports whether a file may be rewritten at all. Third-party
// bundles under a vendor/ directory and minified files are left alone.
func Eligible(file string) bool {
	normalized := "/" + strings.ToLower(strings.ReplaceAll(file, `\`, "/"))
	if strings.Contains(normalized, "/vendor/") {
		return false
	}
	return !strings.HasSuffix(normalized, ".min.js") && !strings.HasSuffix(normalized, ".min.css")
}

// FilePlan is the set of edits scheduled for one file.
type FilePlan struct {
	File  string
	Edits []Edit
}

// Plan decides the edits for an audit's references. Valid references that
// are not canonical are normalized; broken ones are replaced by their
// suggestion when its confidence reaches resolver.AutoFixConfidence.
// Plans are sorted by file.
func Plan(refs []check.Reference) []FilePlan {
	byFile := make(map[string][]Edit)
	for _, ref := range refs {
		if !Eligible(ref.File) {
			continue
		}

		var next string
		var kind Kind
		switch {
		case ref.Status == resolver.StatusValid && ref.NeedsNormalization && ref.Canonical != "" &&
			strings.TrimSpace(ref.Original) != ref.Canonical:
			next, kind = ref.Canonical, KindNormalize
		case ref.AutoFixable():
			next, kind = ref.Suggestion, KindFixBroken
		}
		if next == "" || next == ref.Original {
			continue
		}

		byFile[ref.File] = append(byFile[ref.File], Edit{
			Start: ref.ValueStart,
			End:   ref.ValueEnd,
			Value: next,
			Kind:  kind,
		})
	}

	plans := make([]FilePlan, 0, len(byFile))
	for file, edits := range byFile {
		plans = append(plans, FilePlan{File: file, Edits: edits})
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].File < plans[j].File })
	return plans
}

// Options controls Execute.
type Options struct {
	// DryRun computes diffs instead of writing files.
	DryRun bool

	// Audit receives one entry per rewritten file; may be nil.
	Audit *audit.Logger

	// Pipeline names the caller in the audit log.
	Pipeline string

	Diff diff.Options
}

// FileChange summarizes the edits applied to one file.
type FileChange struct {
	File    string         `json:"file"`
	Changes int            `json:"changes"`
	Kinds   map[string]int `json:"kinds,omitempty"`
	Diff    string         `json:"diff,omitempty"` // Dry runs only
}

// Execute reads each planned file, applies its edits and writes it back
// atomically. Files whose content does not change are not reported.
// Changes are sorted by edit count, then by file.
func Execute(ctx context.Context, root string, plans []FilePlan, opts Options) ([]FileChange, error) {
	var changes []FileChange
	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		abs := filepath.Join(root, filepath.FromSlash(plan.File))
		if err := paths.ValidateWithinRoot(root, abs); err != nil {
			return nil, fmt.Errorf("rewrite %s: %w", plan.File, err)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", plan.File, err)
		}
		original := string(data)

		updated, applied := Apply(original, plan.Edits)
		if updated == original {
			continue
		}

		change := FileChange{File: plan.File, Changes: len(applied), Kinds: CountKinds(applied)}
		if opts.DryRun {
			change.Diff = diff.Unified(plan.File, original, updated, opts.Diff)
		} else {
			if err := atomicfile.WriteString(abs, updated); err != nil {
				return nil, fmt.Errorf("write %s: %w", plan.File, err)
			}
			if err := opts.Audit.LogRewrite(opts.Pipeline, plan.File, change.Kinds); err != nil {
				return nil, err
			}
		}
		changes = append(changes, change)
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Changes != changes[j].Changes {
			return changes[i].Changes > changes[j].Changes
		}
		return changes[i].File < changes[j].File
	})
	return changes, nil
}

// Outcome is the result of a full fix run.
type Outcome struct {
	Before  *check.Report
	After   *check.Report
	Changes []FileChange
}

// Fixed is the number of broken references that disappeared.
func (o *Outcome) Fixed() int {
	return max(0, o.Before.BrokenReferences-o.After.BrokenReferences)
}

// Normalized is the number of normalization candidates that disappeared.
func (o *Outcome) Normalized() int {
	return max(0, o.Before.NormalizationCandidates-o.After.NormalizationCandidates)
}

// FixLinks audits the project, rewrites what it can and audits again from
// scratch, so the after report reflects what is actually on disk. In a dry
// run the after report equals the before report.
func FixLinks(ctx context.Context, auditOpts check.Options, opts Options) (*Outcome, error) {
	if opts.Pipeline == "" {
		opts.Pipeline = PipelineLinks
	}

	before, err := check.Run(ctx, auditOpts)
	if err != nil {
		return nil, err
	}
	if !opts.DryRun {
		if err := opts.Audit.LogRunStart(opts.Pipeline, false); err != nil {
			return nil, err
		}
	}

	changes, err := Execute(ctx, auditOpts.Root, Plan(before.References), opts)
	if err != nil {
		return nil, err
	}

	after := before
	if !opts.DryRun {
		after, err = check.Run(ctx, auditOpts)
		if err != nil {
			return nil, err
		}
		err = opts.Audit.LogRunFinish(opts.Pipeline, len(changes), map[string]interface{}{
			"broken_before": before.BrokenReferences,
			"broken_after":  after.BrokenReferences,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Outcome{Before: before, After: after, Changes: changes}, nil
}
