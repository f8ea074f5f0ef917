package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/brightai/refcheck/internal/config"
	"github.com/brightai/refcheck/internal/history"
	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/report"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"locked", fmt.Errorf("fix: %w", history.ErrLocked), ErrRunLocked},
		{"unknown run", fmt.Errorf("%w: 7", history.ErrRunNotFound), ErrRunNotFound},
		{"outside root", fmt.Errorf("rewrite a.html: %w", paths.ErrPathOutsideRoot), ErrFileOutsideRoot},
		{"bad config", fmt.Errorf("%w: bad toml", config.ErrInvalid), ErrConfigInvalid},
		{"bad stage", fmt.Errorf("%w: got %q", report.ErrInvalidStage, "x"), ErrInvalidInput},
		{"missing file", fmt.Errorf("read a.html: %w", fs.ErrNotExist), ErrFileNotFound},
		{"read error", &fs.PathError{Op: "read", Path: "a.html", Err: errors.New("io")}, ErrFileReadError},
		{"write error", &fs.PathError{Op: "write", Path: "a.html", Err: errors.New("disk full")}, ErrFileWriteError},
		{"other", errors.New("boom"), ErrInternal},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.err); got != tc.want {
				t.Fatalf("classify(%v) = %s, want %s", tc.err, got, tc.want)
			}
		})
	}
}

func TestStageFromArgs(t *testing.T) {
	newCmd := func() *cobra.Command {
		resourceStage = ""
		cmd := &cobra.Command{Use: "resource-paths-audit"}
		cmd.Flags().Var(&resourceStage, "stage", "")
		return cmd
	}

	tests := []struct {
		name    string
		flags   []string
		args    []string
		want    report.Stage
		wantErr bool
	}{
		{name: "default", want: report.StageBefore},
		{name: "argument", args: []string{"after"}, want: report.StageAfter},
		{name: "flag", flags: []string{"--stage", "after"}, want: report.StageAfter},
		{name: "matching flag and argument", flags: []string{"--stage=after"}, args: []string{"after"}, want: report.StageAfter},
		{name: "conflict", flags: []string{"--stage=before"}, args: []string{"after"}, wantErr: true},
		{name: "invalid argument", args: []string{"during"}, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd := newCmd()
			if err := cmd.Flags().Parse(tc.flags); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			got, err := stageFromArgs(cmd, tc.args)
			if tc.wantErr {
				if !errors.Is(err, report.ErrInvalidStage) {
					t.Fatalf("error = %v, want ErrInvalidStage", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("stageFromArgs() = %q, %v; want %q", got, err, tc.want)
			}
		})
	}
	resourceStage = ""
}

func TestInvalidStageFlagRejected(t *testing.T) {
	var s report.Stage
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Var(&s, "stage", "")
	if err := cmd.Flags().Parse([]string{"--stage", "later"}); err == nil {
		t.Fatal("expected --stage later to be rejected")
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveRoot(dir)
	if err != nil {
		t.Fatalf("resolveRoot() error = %v", err)
	}
	if !filepath.IsAbs(got) {
		t.Fatalf("resolveRoot() = %q, want absolute path", got)
	}

	if _, err := resolveRoot(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected an error for a missing root")
	}

	file := filepath.Join(dir, "index.html")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveRoot(file); err == nil {
		t.Fatal("expected an error for a file root")
	}
}

func TestDisplayPath(t *testing.T) {
	root := t.TempDir()
	old := settings
	settings = config.Settings{Root: root}
	defer func() { settings = old }()

	inside := filepath.Join(root, "تقارير للمشروع", "broken_links_before.md")
	if got := displayPath(inside); got != "تقارير للمشروع/broken_links_before.md" {
		t.Fatalf("displayPath(inside) = %q", got)
	}
	outside := filepath.Join(filepath.Dir(root), "elsewhere.md")
	if got := displayPath(outside); got != outside {
		t.Fatalf("displayPath(outside) = %q, want %q", got, outside)
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"internal-links-audit",
		"fix-internal-links",
		"resource-paths-audit",
		"fix-resource-paths",
		"report",
		"history",
		"watch",
		"version",
		"config",
	}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd == nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}
