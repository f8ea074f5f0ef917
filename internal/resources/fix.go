package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/brightai/refcheck/internal/atomicfile"
	"github.com/brightai/refcheck/internal/diff"
	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/resolver"
	"github.com/brightai/refcheck/internal/rewrite"
)

// PipelineResources names the resource pipeline in the audit log.
const PipelineResources = "resources"

var (
	trailingNoscriptRegex    = regexp.MustCompile(`(?is)^\s*<noscript\b[^>]*>.*?</noscript>`)
	trailingScriptCloseRegex = regexp.MustCompile(`(?i)^\s*</script\s*>`)
)

// removalEnd returns where the removal of a duplicate tag stops. A script
// takes its closing tag with it; a style preload takes the <noscript>
// fallback that follows it when that fallback loads the same file.
func removalEnd(content string, ref *Reference) int {
	end := ref.TagEnd
	tail := content[end:]
	switch ref.Kind {
	case KindScript:
		if m := trailingScriptCloseRegex.FindString(tail); m != "" {
			end += len(m)
		}
	case KindStylePreload:
		m := trailingNoscriptRegex.FindString(tail)
		if m != "" && strings.Contains(strings.ToLower(m), strings.ToLower(ref.NormalizedPath)) {
			end += len(m)
		}
	}
	return end
}

// PlanFile computes the edits for one page: duplicate tags are removed
// and broken paths with a suggestion are replaced, unless the path sits
// inside a tag that is being removed.
func PlanFile(content string, refs []*Reference) []rewrite.Edit {
	var edits []rewrite.Edit
	var removed []span
	for _, ref := range refs {
		if !ref.IsDuplicate {
			continue
		}
		end := removalEnd(content, ref)
		edits = append(edits, rewrite.Edit{Start: ref.TagStart, End: end, Kind: rewrite.KindRemoveDuplicate})
		removed = append(removed, span{ref.TagStart, end})
	}

outer:
	for _, ref := range refs {
		if ref.Status != resolver.StatusBroken || ref.Suggestion == "" {
			continue
		}
		for _, r := range removed {
			if ref.ValueStart >= r.start && ref.ValueEnd <= r.end {
				continue outer
			}
		}
		edits = append(edits, rewrite.Edit{
			Start: ref.ValueStart,
			End:   ref.ValueEnd,
			Value: ref.Suggestion,
			Kind:  rewrite.KindFixBroken,
		})
	}
	return edits
}

// FixResult summarizes one application of resource fixes.
type FixResult struct {
	ChangedFiles         []string             `json:"changedFiles"`
	DuplicateTagsRemoved int                  `json:"duplicateTagsRemoved"`
	BrokenPathsFixed     int                  `json:"brokenPathsFixed"`
	Changes              []rewrite.FileChange `json:"changes"`
}

// ApplyFixes rewrites every page of report that has something to fix.
// Files are processed in the order their references appear in the report.
func ApplyFixes(ctx context.Context, root string, report *Report, opts rewrite.Options) (*FixResult, error) {
	if opts.Pipeline == "" {
		opts.Pipeline = PipelineResources
	}

	var order []string
	byFile := make(map[string][]*Reference)
	for _, ref := range report.References {
		if _, ok := byFile[ref.File]; !ok {
			order = append(order, ref.File)
		}
		byFile[ref.File] = append(byFile[ref.File], ref)
	}

	result := &FixResult{ChangedFiles: []string{}, Changes: []rewrite.FileChange{}}
	for _, file := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		abs := filepath.Join(root, filepath.FromSlash(file))
		if err := paths.ValidateWithinRoot(root, abs); err != nil {
			return nil, fmt.Errorf("rewrite %s: %w", file, err)
		}
		data, err := os.ReadFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		content := string(data)

		edits := PlanFile(content, byFile[file])
		if len(edits) == 0 {
			continue
		}
		updated, applied := rewrite.Apply(content, edits)
		if updated == content {
			continue
		}

		kinds := rewrite.CountKinds(applied)
		change := rewrite.FileChange{File: file, Changes: len(applied), Kinds: kinds}
		if opts.DryRun {
			change.Diff = diff.Unified(file, content, updated, opts.Diff)
		} else {
			if err := atomicfile.WriteString(abs, updated); err != nil {
				return nil, fmt.Errorf("write %s: %w", file, err)
			}
			if err := opts.Audit.LogRewrite(opts.Pipeline, file, kinds); err != nil {
				return nil, err
			}
		}

		result.ChangedFiles = append(result.ChangedFiles, file)
		result.Changes = append(result.Changes, change)
		result.DuplicateTagsRemoved += kinds[string(rewrite.KindRemoveDuplicate)]
		result.BrokenPathsFixed += kinds[string(rewrite.KindFixBroken)]
	}
	return result, nil
}

// FixOutcome is the result of a full resource fix run.
type FixOutcome struct {
	Before *Report
	After  *Report
	Result *FixResult
}

// FixResources audits, applies fixes and audits again. A dry run reuses the
// before report as the after report.
func FixResources(ctx context.Context, auditOpts Options, opts rewrite.Options) (*FixOutcome, error) {
	if opts.Pipeline == "" {
		opts.Pipeline = PipelineResources
	}

	before, err := Run(ctx, auditOpts)
	if err != nil {
		return nil, err
	}
	if !opts.DryRun {
		if err := opts.Audit.LogRunStart(opts.Pipeline, false); err != nil {
			return nil, err
		}
	}

	result, err := ApplyFixes(ctx, auditOpts.Root, before, opts)
	if err != nil {
		return nil, err
	}

	after := before
	if !opts.DryRun {
		after, err = Run(ctx, auditOpts)
		if err != nil {
			return nil, err
		}
		err = opts.Audit.LogRunFinish(opts.Pipeline, len(result.ChangedFiles), map[string]interface{}{
			"broken_before":     before.BrokenResources,
			"broken_after":      after.BrokenResources,
			"duplicates_before": before.DuplicateResources,
			"duplicates_after":  after.DuplicateResources,
		})
		if err != nil {
			return nil, err
		}
	}

	return &FixOutcome{Before: before, After: after, Result: result}, nil
}
