package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brightai/refcheck/internal/buildinfo"
	"github.com/brightai/refcheck/internal/ui"
)

const defaultModulePath = "github.com/brightai/refcheck"

type versionInfo struct {
	Version    string `json:"version"`
	ModulePath string `json:"module_path"`
	Commit     string `json:"commit,omitempty"`
	CommitTime string `json:"commit_time,omitempty"`
	Modified   bool   `json:"modified"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show refcheck version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := currentVersionInfo()

		if isJSONOutput() {
			outputSuccess(info, nil)
			return nil
		}

		fmt.Printf("refcheck %s\n", info.Version)
		if info.Commit != "" {
			commit := info.Commit
			if len(commit) > 12 {
				commit = commit[:12]
			}
			if info.Modified {
				commit += " (modified)"
			}
			fmt.Println(ui.Muted.Render("commit: " + commit))
		}
		fmt.Println(ui.Muted.Render(fmt.Sprintf("go: %s %s", info.GoVersion, info.Platform)))
		return nil
	},
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:    "devel",
		ModulePath: defaultModulePath,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}

	bi, ok := readBuildInfo()
	if ok && bi != nil {
		if bi.Main.Path != "" {
			info.ModulePath = bi.Main.Path
		}
		info.Version = normalizeVersion(bi.Main.Version)
		if bi.GoVersion != "" {
			info.GoVersion = bi.GoVersion
		}
		info.Commit = buildSetting(bi, "vcs.revision")
		info.CommitTime = buildSetting(bi, "vcs.time")
		info.Modified = strings.EqualFold(buildSetting(bi, "vcs.modified"), "true")
	}

	// Release binaries carry their version in ldflags.
	if info.Version == "devel" && buildinfo.Version != "" {
		info.Version = normalizeVersion(buildinfo.Version)
	}
	if info.Commit == "" {
		info.Commit = buildinfo.Commit
	}
	if info.CommitTime == "" {
		info.CommitTime = buildinfo.Date
	}
	return info
}

func normalizeVersion(version string) string {
	if version == "" || version == "(devel)" {
		return "devel"
	}
	return version
}

func buildSetting(info *debug.BuildInfo, key string) string {
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
