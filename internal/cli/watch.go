package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brightai/refcheck/internal/check"
	"github.com/brightai/refcheck/internal/history"
	"github.com/brightai/refcheck/internal/report"
	"github.com/brightai/refcheck/internal/resources"
	"github.com/brightai/refcheck/internal/ui"
	"github.com/brightai/refcheck/internal/watcher"
)

var (
	watchDebounce  time.Duration
	watchDebug     bool
	watchResources bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the links audit whenever a project file changes",
	Long: `Watches the project and re-runs the internal-links audit after HTML, CSS or
JavaScript files change, rewriting the broken_links_before report each time.
With --resources the resource-paths audit runs as well. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if isJSONOutput() {
		return handleErrorMsg(ErrInvalidInput, "watch does not support --json", "Run the audit commands with --json instead")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	include := settings.Include
	if watchResources {
		include = append(append([]string{}, settings.Include...), settings.ResourceInclude...)
	}

	w, err := watcher.New(watcher.Config{
		Root:          settings.Root,
		Include:       include,
		Ignore:        settings.Ignore,
		ReportsDir:    settings.ReportsDir,
		DebounceDelay: watchDebounce,
		Debug:         watchDebug,
		OnChange:      rerunAudits,
		OnError: func(err error) {
			fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		},
	})
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}

	if err := rerunAudits(ctx, nil); err != nil {
		return handleError(classify(err), err, "")
	}
	fmt.Println(ui.Hint("Watching " + displayPath(settings.Root) + " for changes. Press Ctrl-C to stop."))

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return handleError(ErrInternal, err, "")
	}
	return nil
}

// rerunAudits runs the audits once; changed is nil for the initial run.
func rerunAudits(ctx context.Context, changed []string) error {
	if len(changed) > 0 {
		fmt.Println()
		fmt.Println(ui.Info(fmt.Sprintf("%s changed", strings.Join(changed, ", "))))
	}

	rep, err := check.Run(ctx, settings.LinksOptions())
	if err != nil {
		return err
	}
	written, err := reportWriter().Links(report.StageBefore, rep)
	if err != nil {
		return err
	}
	_, warn := recordRun(ctx, history.FromLinks(string(report.StageBefore), rep))
	fmt.Println(ui.Successf("%s  broken %d, fixable %d, normalization %d  %s",
		time.Now().Format("15:04:05"), rep.BrokenReferences, rep.FixableBrokenReferences,
		rep.NormalizationCandidates, ui.Hint(displayPath(written.Markdown))))
	printWarnings(warnings(warn))

	if !watchResources {
		return nil
	}
	res, err := resources.Run(ctx, settings.ResourceOptions())
	if err != nil {
		return err
	}
	written, err = reportWriter().Resources(report.StageBefore, res)
	if err != nil {
		return err
	}
	_, warn = recordRun(ctx, history.FromResources(string(report.StageBefore), res))
	fmt.Println(ui.Successf("%s  broken paths %d, duplicate loads %d  %s",
		time.Now().Format("15:04:05"), res.BrokenResources, res.DuplicateResources,
		ui.Hint(displayPath(written.Markdown))))
	printWarnings(warnings(warn))
	return nil
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watcher.DefaultDebounce, "Quiet period before re-running the audit")
	watchCmd.Flags().BoolVar(&watchDebug, "debug", false, "Print watcher events to stderr")
	watchCmd.Flags().BoolVar(&watchResources, "resources", false, "Also re-run the resource-paths audit")
	rootCmd.AddCommand(watchCmd)
}
