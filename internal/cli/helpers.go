package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/brightai/refcheck/internal/audit"
	"github.com/brightai/refcheck/internal/diff"
	"github.com/brightai/refcheck/internal/history"
	"github.com/brightai/refcheck/internal/rewrite"
	"github.com/brightai/refcheck/internal/ui"
)

// maxConsoleRows caps the problem table printed after an audit; the full
// list is always in the report.
const maxConsoleRows = 15

// startSpinner starts a spinner unless JSON output is on. The returned stop
// function is always safe to call.
func startSpinner(message string) func() {
	if isJSONOutput() {
		return func() {}
	}
	s := ui.NewSpinner(message)
	s.Start()
	return s.Stop
}

// recordRun stores run in the project history when history is enabled.
// Failures never fail the command; they come back as a warning.
func recordRun(ctx context.Context, run history.Run) (int64, *Warning) {
	if !settings.History {
		return 0, nil
	}
	store, err := history.Open(settings.Root)
	if err != nil {
		return 0, &Warning{Code: WarnHistoryFailed, Message: err.Error()}
	}
	defer store.Close()

	id, err := store.Record(ctx, run)
	if err != nil {
		return 0, &Warning{Code: WarnHistoryFailed, Message: err.Error()}
	}
	return id, nil
}

func warnings(ws ...*Warning) []Warning {
	var out []Warning
	for _, w := range ws {
		if w != nil {
			out = append(out, *w)
		}
	}
	return out
}

func printWarnings(ws []Warning) {
	for _, w := range ws {
		fmt.Println(ui.Warning(w.Message))
	}
}

// rewriteOptions returns the options shared by both fix commands.
func rewriteOptions(dryRun bool) rewrite.Options {
	return rewrite.Options{
		DryRun: dryRun,
		Audit:  audit.New(settings.Root, !dryRun),
		Diff:   diff.Options{Context: diff.DefaultContext},
	}
}

// summary prints label/value pairs aligned as one table.
func summary(pairs ...string) {
	t := ui.NewTable(2)
	for i := 0; i+1 < len(pairs); i += 2 {
		t.AddRow(pairs[i], pairs[i+1])
	}
	fmt.Print(t.String())
}

// problemRow is one line of the console problem table.
type problemRow struct {
	file   string
	line   int
	ref    string
	detail string
}

func printProblems(title string, rows []problemRow, total int) {
	if len(rows) == 0 {
		return
	}
	fmt.Println()
	fmt.Println(ui.Header(title))

	shown := rows
	if len(shown) > maxConsoleRows {
		shown = shown[:maxConsoleRows]
	}
	tbl := ui.NewResultsTable(ui.NewDisplayContext(), ui.ProblemLayout)
	for i, r := range shown {
		tbl.AddRow(ui.ResultRow{Cells: []string{
			ui.FormatRowNum(i+1, len(shown)),
			r.file + ":" + strconv.Itoa(r.line),
			r.ref,
			r.detail,
		}})
	}
	fmt.Print(tbl.Render())
	if total > len(shown) {
		fmt.Println(ui.Hint(fmt.Sprintf("… and %d more in the report", total-len(shown))))
	}
}

func printDiffs(changes []rewrite.FileChange) {
	for _, c := range changes {
		if c.Diff == "" {
			continue
		}
		fmt.Println()
		fmt.Print(c.Diff)
	}
}
