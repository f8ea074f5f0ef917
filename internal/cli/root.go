// Package cli implements the command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brightai/refcheck/internal/config"
	"github.com/brightai/refcheck/internal/report"
	"github.com/brightai/refcheck/internal/ui"
)

var (
	// Global flags
	rootFlag       string
	configPath     string
	reportsDirFlag string
	noColor        bool
	htmlOutput     bool

	// Resolved values
	cfg      *config.Config
	settings config.Settings
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "refcheck",
	Short: "Audit and fix internal links and resource paths of a static site",
	Long: `refcheck scans the HTML, CSS and JavaScript files of a website project,
reports references that point at files which do not exist, and rewrites
them to canonical root-relative paths when the fix is unambiguous.

Reports are written as JSON and Markdown into the project's reports directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			ui.DisableColor()
		}

		// Commands that never touch a project.
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}

		var err error
		cfg, err = config.LoadResolved(configPath)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "Fix the config file or pass --config with another path")
		}
		ui.ConfigureTheme(cfg.UI.Accent)
		ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

		root, err := resolveRoot(rootFlag)
		if err != nil {
			return handleError(ErrInvalidInput, err, "Pass --root with an existing directory")
		}

		proj, err := config.LoadProject(root)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "Check "+config.ProjectFileName+" in the project root")
		}
		settings = config.Resolve(root, cfg, proj, config.Overrides{ReportsDir: reportsDirFlag})
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}
	// Errors already written as a JSON envelope only set the exit code.
	if !errors.Is(err, errReported) {
		if jsonOutput {
			outputError(classify(err), err.Error(), nil, "")
		} else {
			fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", "", "Project root directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&reportsDirFlag, "reports-dir", "", "Directory for report artifacts (default: \"تقارير للمشروع\" under the root)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&htmlOutput, "html", false, "Also render every Markdown report as HTML")
}

func resolveRoot(flag string) (string, error) {
	root := flag
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		root = wd
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project root not found: %s", abs)
	}
	if !st.IsDir() {
		return "", fmt.Errorf("project root is not a directory: %s", abs)
	}
	return abs, nil
}

// reportWriter returns the artifact writer for the resolved settings.
func reportWriter() report.Writer {
	return report.Writer{Dir: settings.ReportsDir, HTML: htmlOutput}
}

// displayPath returns p relative to the project root when it lies inside it.
func displayPath(p string) string {
	rel, err := filepath.Rel(settings.Root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return p
	}
	return filepath.ToSlash(rel)
}
