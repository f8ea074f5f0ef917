package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brightai/refcheck/internal/history"
	"github.com/brightai/refcheck/internal/ui"
)

var (
	historyLimit    int
	historyPipeline string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded audit runs",
	Long: `Lists the audit runs recorded in .refcheck/history.db, newest first.
Every audit and both sides of every fix run are recorded unless history is
disabled in the global config.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one recorded run with its broken references",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistory(cmd *cobra.Command, args []string) error {
	switch historyPipeline {
	case "", history.PipelineLinks, history.PipelineResources:
	default:
		return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("unknown pipeline %q", historyPipeline),
			"Use --pipeline links or --pipeline resources")
	}

	store, err := history.Open(settings.Root)
	if err != nil {
		return handleError(ErrHistoryError, err, "")
	}
	defer store.Close()

	runs, err := store.Recent(cmd.Context(), historyPipeline, historyLimit)
	if err != nil {
		return handleError(ErrHistoryError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"runs": runs}, &Meta{Count: len(runs)})
		return nil
	}

	if len(runs) == 0 {
		fmt.Println(ui.Hint("No runs recorded yet."))
		return nil
	}

	t := ui.NewTable(6)
	t.AddRow(ui.Muted.Render("ID"), ui.Muted.Render("PIPELINE"), ui.Muted.Render("STAGE"),
		ui.Muted.Render("GENERATED"), ui.Muted.Render("BROKEN"), ui.Muted.Render("DUPLICATES"))
	for _, r := range runs {
		t.AddRow(strconv.FormatInt(r.ID, 10), r.Pipeline, r.Stage, r.GeneratedAt,
			strconv.Itoa(r.Broken), strconv.Itoa(r.Duplicates))
	}
	fmt.Print(t.String())
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("invalid run id %q", args[0]), "Use an ID from 'refcheck history'")
	}

	store, err := history.Open(settings.Root)
	if err != nil {
		return handleError(ErrHistoryError, err, "")
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return handleError(classify(err), err, "Use an ID from 'refcheck history'")
	}

	if isJSONOutput() {
		outputSuccess(run, &Meta{Count: len(run.Rows)})
		return nil
	}

	fmt.Println(ui.Header(fmt.Sprintf("Run %d: %s (%s)", run.ID, run.Pipeline, run.Stage)))
	summary(
		"Generated:", run.GeneratedAt,
		"Files scanned:", strconv.Itoa(run.FilesScanned),
		"References:", strconv.Itoa(run.ReferencesScanned),
		"Broken:", strconv.Itoa(run.Broken),
		"Fixable:", strconv.Itoa(run.Fixable),
		"Duplicates:", strconv.Itoa(run.Duplicates),
		"Normalization candidates:", strconv.Itoa(run.NormalizationCandidates),
	)

	rows := make([]problemRow, 0, len(run.Rows))
	for _, r := range run.Rows {
		detail := r.Reason
		if r.Suggestion != "" {
			detail = "→ " + r.Suggestion
		}
		rows = append(rows, problemRow{file: r.File, line: r.Line, ref: r.Reference, detail: detail})
	}
	printProblems("Broken references", rows, len(rows))
	return nil
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyPipeline, "pipeline", "", "Only list runs of one pipeline (links or resources)")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
