package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/brightai/refcheck/internal/check"
	"github.com/brightai/refcheck/internal/history"
	"github.com/brightai/refcheck/internal/report"
	"github.com/brightai/refcheck/internal/resolver"
	"github.com/brightai/refcheck/internal/rewrite"
	"github.com/brightai/refcheck/internal/ui"
)

var fixLinksDryRun bool

type linksAuditResult struct {
	*check.Report
	Artifacts report.Written `json:"artifacts"`
	HistoryID int64          `json:"historyId,omitempty"`
}

type linksFixResult struct {
	DryRun       bool                 `json:"dryRun"`
	ChangedFiles int                  `json:"changedFiles"`
	BrokenBefore int                  `json:"brokenBefore"`
	BrokenAfter  int                  `json:"brokenAfter"`
	Fixed        int                  `json:"fixed"`
	Normalized   int                  `json:"normalized"`
	Changes      []rewrite.FileChange `json:"changes"`
	Artifacts    []report.Written     `json:"artifacts,omitempty"`
}

var linksAuditCmd = &cobra.Command{
	Use:   "internal-links-audit",
	Short: "Audit internal links and write the broken_links_before report",
	Long: `Scans every matching HTML, CSS and JavaScript file, resolves each internal
reference against the project's files and writes broken_links_before.json
and broken_links_before.md into the reports directory.`,
	Args: cobra.NoArgs,
	RunE: runLinksAudit,
}

var fixLinksCmd = &cobra.Command{
	Use:   "fix-internal-links",
	Short: "Rewrite broken and non-canonical internal links",
	Long: `Audits the project, rewrites every confidently repairable broken reference
and every non-canonical path to its root-relative form, then audits again.

Writes broken_links_before, broken_links_after and the comparison report
broken_links_before_after.md. With --dry-run nothing is written; the
unified diff of every file that would change is printed instead.`,
	Args: cobra.NoArgs,
	RunE: runFixLinks,
}

func runLinksAudit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	stop := startSpinner("Auditing internal links")
	rep, err := check.Run(ctx, settings.LinksOptions())
	stop()
	if err != nil {
		return handleError(classify(err), err, "")
	}

	written, err := reportWriter().Links(report.StageBefore, rep)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	id, warn := recordRun(ctx, history.FromLinks(string(report.StageBefore), rep))

	if isJSONOutput() {
		data := linksAuditResult{Report: rep, Artifacts: written, HistoryID: id}
		outputSuccessWithWarnings(data, warnings(warn), &Meta{Count: rep.BrokenReferences, DurationMs: time.Since(start).Milliseconds()})
		return nil
	}

	fmt.Println(ui.Success("اكتمل تدقيق الروابط."))
	summary(
		"الملفات المفحوصة:", fmt.Sprint(rep.FilesScanned),
		"إجمالي المراجع:", fmt.Sprint(rep.ReferencesScanned),
		"المراجع الداخلية:", fmt.Sprint(rep.InternalReferences),
		"الأعطال المكتشفة:", fmt.Sprint(rep.BrokenReferences),
		"الأعطال القابلة للإصلاح التلقائي:", fmt.Sprint(rep.FixableBrokenReferences),
		"فرص توحيد النمط:", fmt.Sprint(rep.NormalizationCandidates),
	)
	fmt.Printf("تم حفظ التقرير: %s\n", ui.FilePath(displayPath(written.Markdown)))
	printLinkProblems(rep)
	printWarnings(warnings(warn))
	return nil
}

func printLinkProblems(rep *check.Report) {
	rows := make([]problemRow, 0, len(rep.BrokenRows))
	for _, r := range rep.BrokenRows {
		detail := resolver.Reason(r.Reason).Describe()
		if r.Suggestion != "" {
			detail = "→ " + r.Suggestion
		}
		rows = append(rows, problemRow{file: r.File, line: r.Line, ref: r.Reference, detail: detail})
	}
	printProblems("Broken references", rows, len(rows))
}

func runFixLinks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !fixLinksDryRun {
		lock, err := history.AcquireLock(settings.Root)
		if err != nil {
			return handleError(classify(err), err, "Wait for the other fix run to finish")
		}
		defer lock.Release()
	}

	stop := startSpinner("Fixing internal links")
	out, err := rewrite.FixLinks(ctx, settings.LinksOptions(), rewriteOptions(fixLinksDryRun))
	stop()
	if err != nil {
		return handleError(classify(err), err, "")
	}

	result := linksFixResult{
		DryRun:       fixLinksDryRun,
		ChangedFiles: len(out.Changes),
		BrokenBefore: out.Before.BrokenReferences,
		BrokenAfter:  out.After.BrokenReferences,
		Fixed:        out.Fixed(),
		Normalized:   out.Normalized(),
		Changes:      out.Changes,
	}

	if fixLinksDryRun {
		if isJSONOutput() {
			outputSuccessWithWarnings(result, []Warning{{Code: WarnDryRun, Message: "no files were written"}}, nil)
			return nil
		}
		printDiffs(out.Changes)
		fmt.Println(ui.Info(fmt.Sprintf("Dry run: %d files would change.", len(out.Changes))))
		return nil
	}

	w := reportWriter()
	before, err := w.Links(report.StageBefore, out.Before)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	after, err := w.Links(report.StageAfter, out.After)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	comparison, err := w.LinksComparison(out, check.Timestamp(time.Now()))
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}
	result.Artifacts = []report.Written{before, after, comparison}

	_, warnBefore := recordRun(ctx, history.FromLinks(string(report.StageBefore), out.Before))
	_, warnAfter := recordRun(ctx, history.FromLinks(string(report.StageAfter), out.After))
	ws := warnings(warnBefore, warnAfter)

	if isJSONOutput() {
		outputSuccessWithWarnings(result, ws, nil)
		return nil
	}

	fmt.Println(ui.Success("اكتمل إصلاح الروابط وتوحيد النمط."))
	summary(
		"الملفات المعدلة:", fmt.Sprint(len(out.Changes)),
		"المكسور قبل الإصلاح:", fmt.Sprint(out.Before.BrokenReferences),
		"المكسور بعد الإصلاح:", fmt.Sprint(out.After.BrokenReferences),
		"تم إصلاح:", fmt.Sprint(out.Fixed()),
	)
	fmt.Printf("تم حفظ تقرير المقارنة: %s\n", ui.FilePath(displayPath(comparison.Markdown)))
	printWarnings(ws)
	return nil
}

func init() {
	fixLinksCmd.Flags().BoolVar(&fixLinksDryRun, "dry-run", false, "Show the diff of every change without writing files")
	rootCmd.AddCommand(linksAuditCmd)
	rootCmd.AddCommand(fixLinksCmd)
}
