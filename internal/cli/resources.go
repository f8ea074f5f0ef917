package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/brightai/refcheck/internal/check"
	"github.com/brightai/refcheck/internal/history"
	"github.com/brightai/refcheck/internal/report"
	"github.com/brightai/refcheck/internal/resources"
	"github.com/brightai/refcheck/internal/ui"
)

var (
	resourceStage      report.Stage
	fixResourcesDryRun bool
)

type resourceAuditResult struct {
	*resources.Report
	Stage     report.Stage  `json:"stage"`
	Artifacts report.Written `json:"artifacts"`
	HistoryID int64          `json:"historyId,omitempty"`
}

type resourceFixResult struct {
	DryRun           bool `json:"dryRun"`
	BrokenBefore     int  `json:"brokenBefore"`
	BrokenAfter      int  `json:"brokenAfter"`
	DuplicatesBefore int  `json:"duplicatesBefore"`
	DuplicatesAfter  int  `json:"duplicatesAfter"`
	*resources.FixResult
	Artifacts []report.Written `json:"artifacts,omitempty"`
}

var resourceAuditCmd = &cobra.Command{
	Use:   "resource-paths-audit [before|after]",
	Short: "Audit <script src> and <link href> resource paths",
	Long: `Scans the project's HTML pages for script and stylesheet tags, reports
paths that do not point at an existing file and resources loaded more than
once, and writes resource_paths_<stage>.json and .md.

The stage defaults to "before"; it can be given as an argument or with --stage.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{string(report.StageBefore), string(report.StageAfter)},
	RunE:      runResourceAudit,
}

var fixResourcesCmd = &cobra.Command{
	Use:   "fix-resource-paths",
	Short: "Remove duplicate resource tags and repair broken resource paths",
	Long: `Audits resource paths, removes every duplicate <script>/<link> tag except the
best one of each group, rewrites broken paths that have a suggestion and
audits again. Writes resource_paths_before, resource_paths_after and
resource_paths_before_after.md.`,
	Args: cobra.NoArgs,
	RunE: runFixResources,
}

// stageFromArgs combines the positional stage with --stage.
func stageFromArgs(cmd *cobra.Command, args []string) (report.Stage, error) {
	stage := resourceStage
	if len(args) == 1 {
		parsed, err := report.ParseStage(args[0])
		if err != nil {
			return "", err
		}
		if cmd.Flags().Changed("stage") && parsed != stage {
			return "", fmt.Errorf("%w: argument %q conflicts with --stage %q", report.ErrInvalidStage, parsed, stage)
		}
		stage = parsed
	}
	if stage == "" {
		stage = report.StageBefore
	}
	return stage, nil
}

func runResourceAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	stage, err := stageFromArgs(cmd, args)
	if err != nil {
		return handleError(ErrInvalidInput, err, "Use \"before\" or \"after\"")
	}

	stop := startSpinner("Auditing resource paths")
	rep, err := resources.Run(ctx, settings.ResourceOptions())
	stop()
	if err != nil {
		return handleError(classify(err), err, "")
	}

	written, err := reportWriter().Resources(stage, rep)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	id, warn := recordRun(ctx, history.FromResources(string(stage), rep))

	if isJSONOutput() {
		data := resourceAuditResult{Report: rep, Stage: stage, Artifacts: written, HistoryID: id}
		outputSuccessWithWarnings(data, warnings(warn), &Meta{Count: rep.BrokenResources + rep.DuplicateResources, DurationMs: time.Since(start).Milliseconds()})
		return nil
	}

	summary(
		"Audit stage:", string(stage),
		"Files scanned:", fmt.Sprint(rep.FilesScanned),
		"Resource references:", fmt.Sprint(rep.ResourcesScanned),
		"Broken paths:", fmt.Sprint(rep.BrokenResources),
		"Duplicate loads:", fmt.Sprint(rep.DuplicateResources),
	)
	fmt.Printf("Saved report: %s\n", ui.FilePath(displayPath(written.Markdown)))
	printResourceProblems(rep)
	printWarnings(warnings(warn))
	return nil
}

func printResourceProblems(rep *resources.Report) {
	broken := make([]problemRow, 0, len(rep.BrokenRows))
	for _, r := range rep.BrokenRows {
		detail := r.Reason
		if r.Suggestion != "" {
			detail = "→ " + r.Suggestion
		}
		broken = append(broken, problemRow{file: r.File, line: r.Line, ref: r.Reference, detail: detail})
	}
	printProblems("Broken paths", broken, len(broken))

	dups := make([]problemRow, 0, len(rep.DuplicateRows))
	for _, r := range rep.DuplicateRows {
		dups = append(dups, problemRow{
			file:   r.File,
			line:   r.Line,
			ref:    r.Reference,
			detail: fmt.Sprintf("kept at line %d", r.DuplicateOfLine),
		})
	}
	printProblems("Duplicate loads", dups, len(dups))
}

func runFixResources(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !fixResourcesDryRun {
		lock, err := history.AcquireLock(settings.Root)
		if err != nil {
			return handleError(classify(err), err, "Wait for the other fix run to finish")
		}
		defer lock.Release()
	}

	stop := startSpinner("Fixing resource paths")
	out, err := resources.FixResources(ctx, settings.ResourceOptions(), rewriteOptions(fixResourcesDryRun))
	stop()
	if err != nil {
		return handleError(classify(err), err, "")
	}

	result := resourceFixResult{
		DryRun:           fixResourcesDryRun,
		BrokenBefore:     out.Before.BrokenResources,
		BrokenAfter:      out.After.BrokenResources,
		DuplicatesBefore: out.Before.DuplicateResources,
		DuplicatesAfter:  out.After.DuplicateResources,
		FixResult:        out.Result,
	}

	if fixResourcesDryRun {
		if isJSONOutput() {
			outputSuccessWithWarnings(result, []Warning{{Code: WarnDryRun, Message: "no files were written"}}, nil)
			return nil
		}
		printDiffs(out.Result.Changes)
		fmt.Println(ui.Info(fmt.Sprintf("Dry run: %d files would change.", len(out.Result.ChangedFiles))))
		return nil
	}

	w := reportWriter()
	before, err := w.Resources(report.StageBefore, out.Before)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	after, err := w.Resources(report.StageAfter, out.After)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	comparison, err := w.ResourcesComparison(out, check.Timestamp(time.Now()))
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	result.Artifacts = []report.Written{before, after, comparison}

	_, warnBefore := recordRun(ctx, history.FromResources(string(report.StageBefore), out.Before))
	_, warnAfter := recordRun(ctx, history.FromResources(string(report.StageAfter), out.After))
	ws := warnings(warnBefore, warnAfter)

	if isJSONOutput() {
		outputSuccessWithWarnings(result, ws, nil)
		return nil
	}

	fmt.Println(ui.Success("Completed resource path fix process."))
	summary(
		"Broken paths before:", fmt.Sprint(out.Before.BrokenResources),
		"Broken paths after:", fmt.Sprint(out.After.BrokenResources),
		"Duplicate loads before:", fmt.Sprint(out.Before.DuplicateResources),
		"Duplicate loads after:", fmt.Sprint(out.After.DuplicateResources),
		"Changed files:", fmt.Sprint(len(out.Result.ChangedFiles)),
	)
	fmt.Printf("Saved report: %s\n", ui.FilePath(displayPath(comparison.Markdown)))
	printWarnings(ws)
	return nil
}

func init() {
	resourceAuditCmd.Flags().Var(&resourceStage, "stage", "Audit stage: before or after")
	fixResourcesCmd.Flags().BoolVar(&fixResourcesDryRun, "dry-run", false, "Show the diff of every change without writing files")
	rootCmd.AddCommand(resourceAuditCmd)
	rootCmd.AddCommand(fixResourcesCmd)
}
