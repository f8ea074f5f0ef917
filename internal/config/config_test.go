package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/brightai/refcheck/internal/project"
)

func TestLoadFrom(t *testing.T) {
	t.Run("full config", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := `reports_dir = "out/reports"
history = false

[ui]
accent = "39"
code_theme = "dracula"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom() error = %v", err)
		}
		if cfg.ReportsDir != "out/reports" || cfg.HistoryEnabled() || cfg.UI.Accent != "39" || cfg.UI.CodeTheme != "dracula" {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("history defaults to enabled", func(t *testing.T) {
		if !(&Config{}).HistoryEnabled() {
			t.Error("expected history enabled by default")
		}
	})

	t.Run("malformed toml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("reports_dir = [unterminated"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFrom(path); !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid, got %v", err)
		}
	})
}

func TestCreateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refcheck", "config.toml")

	created, err := CreateDefault(path)
	if err != nil || !created {
		t.Fatalf("CreateDefault() = %v, %v", created, err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("default config must parse: %v", err)
	}
	if cfg.ReportsDir != "" || !cfg.HistoryEnabled() {
		t.Errorf("default config must only contain comments, got %+v", cfg)
	}

	created, err = CreateDefault(path)
	if err != nil || created {
		t.Fatalf("second CreateDefault() = %v, %v; want false, nil", created, err)
	}
}

func TestLoadProject(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		pc, err := LoadProject(t.TempDir())
		if err != nil {
			t.Fatalf("LoadProject() error = %v", err)
		}
		if !reflect.DeepEqual(pc, &ProjectConfig{}) {
			t.Errorf("expected empty config, got %+v", pc)
		}
	})

	t.Run("all keys", func(t *testing.T) {
		root := t.TempDir()
		content := `include:
  - "site/**/*.html"
resource_include:
  - "site/**/*.html"
ignore:
  - "site/drafts/**"
reports_dir: reports
slug_match: true
`
		if err := os.WriteFile(filepath.Join(root, ProjectFileName), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		pc, err := LoadProject(root)
		if err != nil {
			t.Fatalf("LoadProject() error = %v", err)
		}
		want := &ProjectConfig{
			Include:         []string{"site/**/*.html"},
			ResourceInclude: []string{"site/**/*.html"},
			Ignore:          []string{"site/drafts/**"},
			ReportsDir:      "reports",
			SlugMatch:       true,
		}
		if !reflect.DeepEqual(pc, want) {
			t.Errorf("LoadProject() = %+v, want %+v", pc, want)
		}
	})

	t.Run("bad pattern", func(t *testing.T) {
		root := t.TempDir()
		if err := os.WriteFile(filepath.Join(root, ProjectFileName), []byte("ignore: [\"[abc\"]\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadProject(root); !errors.Is(err, ErrInvalid) {
			t.Errorf("expected ErrInvalid, got %v", err)
		}
	})
}

func TestResolve(t *testing.T) {
	root := filepath.Join(t.TempDir(), "site")

	t.Run("defaults", func(t *testing.T) {
		s := Resolve(root, nil, nil, Overrides{})
		if s.ReportsDir != filepath.Join(root, project.DefaultReportsDir) {
			t.Errorf("ReportsDir = %q", s.ReportsDir)
		}
		if !reflect.DeepEqual(s.Include, project.DefaultFilePatterns) || !s.History || s.SlugMatch {
			t.Errorf("unexpected defaults %+v", s)
		}
		wantTail := []string{project.DefaultReportsDir + "/**", ".refcheck/**"}
		if got := s.Ignore[len(s.Ignore)-2:]; !reflect.DeepEqual(got, wantTail) {
			t.Errorf("ignore tail = %v, want %v", got, wantTail)
		}
	})

	t.Run("precedence", func(t *testing.T) {
		global := &Config{ReportsDir: "global-reports"}
		proj := &ProjectConfig{ReportsDir: "project-reports", Ignore: []string{"drafts/**"}, SlugMatch: true}

		s := Resolve(root, global, proj, Overrides{})
		if s.ReportsDir != filepath.Join(root, "project-reports") {
			t.Errorf("project must beat global, got %q", s.ReportsDir)
		}
		if !s.SlugMatch {
			t.Error("slug_match not applied")
		}

		s = Resolve(root, global, proj, Overrides{ReportsDir: "flag-reports"})
		if s.ReportsDir != filepath.Join(root, "flag-reports") {
			t.Errorf("flag must beat project, got %q", s.ReportsDir)
		}

		ignoredDrafts := false
		for _, p := range s.Ignore {
			if p == "drafts/**" {
				ignoredDrafts = true
			}
		}
		if !ignoredDrafts {
			t.Errorf("project ignores must be added, got %v", s.Ignore)
		}
	})

	t.Run("reports outside root", func(t *testing.T) {
		outside := filepath.Join(filepath.Dir(root), "elsewhere")
		s := Resolve(root, nil, nil, Overrides{ReportsDir: outside})
		if s.ReportsDir != outside {
			t.Errorf("absolute reports dir must be kept, got %q", s.ReportsDir)
		}
		if last := s.Ignore[len(s.Ignore)-1]; last != ".refcheck/**" || s.Ignore[len(s.Ignore)-2] == "../elsewhere/**" {
			t.Errorf("outside reports dir must not become an ignore pattern: %v", s.Ignore)
		}
	})

	t.Run("options", func(t *testing.T) {
		s := Resolve(root, nil, &ProjectConfig{SlugMatch: true}, Overrides{})
		lo := s.LinksOptions()
		if lo.Root != root || !lo.SlugMatch || !reflect.DeepEqual(lo.Ignore, s.Ignore) {
			t.Errorf("LinksOptions() = %+v", lo)
		}
		ro := s.ResourceOptions()
		if !reflect.DeepEqual(ro.Include, project.DefaultResourcePatterns) {
			t.Errorf("ResourceOptions().Include = %v", ro.Include)
		}
	})
}
