package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/brightai/refcheck/internal/config"
	"github.com/brightai/refcheck/internal/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the global refcheck config",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the global config path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the global config with commented defaults",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective global config",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := config.ResolveConfigPath(configPath)
	_, statErr := os.Stat(path)

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"path": path, "exists": statErr == nil}, nil)
		return nil
	}
	fmt.Println(path)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ResolveConfigPath(configPath)
	created, err := config.CreateDefault(path)
	if err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(map[string]interface{}{"path": path, "created": created}, nil)
		return nil
	}
	if created {
		fmt.Println(ui.Successf("Created %s", ui.FilePath(path)))
	} else {
		fmt.Println(ui.Infof("Config already exists: %s", ui.FilePath(path)))
	}
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := config.ResolveConfigPath(configPath)
	loaded, err := config.LoadResolved(configPath)
	if err != nil {
		return handleError(ErrConfigInvalid, err, "")
	}
	_, statErr := os.Stat(path)

	data := map[string]interface{}{
		"config_path": path,
		"exists":      statErr == nil,
		"reports_dir": loaded.ReportsDir,
		"history":     loaded.HistoryEnabled(),
		"ui": map[string]interface{}{
			"accent":     loaded.UI.Accent,
			"code_theme": loaded.UI.CodeTheme,
		},
	}
	if isJSONOutput() {
		outputSuccess(data, nil)
		return nil
	}

	if statErr != nil {
		fmt.Printf("Config file does not exist: %s\n", path)
		fmt.Println(ui.Hint("Run 'refcheck config init' to create it."))
		return nil
	}
	fmt.Printf("config: %s\n", path)
	if loaded.ReportsDir != "" {
		fmt.Printf("reports_dir: %s\n", loaded.ReportsDir)
	}
	fmt.Printf("history: %t\n", loaded.HistoryEnabled())
	if loaded.UI.Accent != "" {
		fmt.Printf("ui.accent: %s\n", loaded.UI.Accent)
	}
	if loaded.UI.CodeTheme != "" {
		fmt.Printf("ui.code_theme: %s\n", loaded.UI.CodeTheme)
	}
	return nil
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
