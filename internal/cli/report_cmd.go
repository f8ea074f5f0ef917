package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brightai/refcheck/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Inspect written reports",
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the Markdown reports in the reports directory",
	Args:  cobra.NoArgs,
	RunE:  runReportList,
}

var reportShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Render a Markdown report in the terminal",
	Long: `Renders a report from the reports directory, for example:

  refcheck report show broken_links_before
  refcheck report show resource_paths_before_after.md`,
	Args: cobra.ExactArgs(1),
	RunE: runReportShow,
}

type reportEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func listReports() ([]reportEntry, error) {
	entries, err := os.ReadDir(settings.ReportsDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []reportEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		out = append(out, reportEntry{
			Name: strings.TrimSuffix(e.Name(), ".md"),
			Path: filepath.Join(settings.ReportsDir, e.Name()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	reports, err := listReports()
	if err != nil {
		return handleError(ErrFileReadError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"reports": reports}, &Meta{Count: len(reports)})
		return nil
	}

	if len(reports) == 0 {
		fmt.Println(ui.Hint("No reports yet. Run 'refcheck internal-links-audit' first."))
		return nil
	}
	for _, r := range reports {
		fmt.Printf("%s  %s\n", r.Name, ui.Hint(displayPath(r.Path)))
	}
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	name := strings.TrimSuffix(strings.TrimSpace(args[0]), ".md")
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("invalid report name %q", args[0]), "Use a name from 'refcheck report list'")
	}

	path := filepath.Join(settings.ReportsDir, name+".md")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return handleErrorWithDetails(ErrFileNotFound, "report not found: "+name,
			"Use a name from 'refcheck report list'", map[string]string{"path": path})
	}
	if err != nil {
		return handleError(ErrFileReadError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{
			"name":     name,
			"path":     path,
			"markdown": string(data),
		}, nil)
		return nil
	}

	display := ui.NewDisplayContext()
	if !display.IsTTY {
		fmt.Print(string(data))
		return nil
	}
	rendered, err := ui.RenderMarkdown(string(data), display.TermWidth)
	if err != nil {
		return handleError(ErrInternal, err, "")
	}
	fmt.Print(rendered)
	return nil
}

func init() {
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportShowCmd)
	rootCmd.AddCommand(reportCmd)
}
