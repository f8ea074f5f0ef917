package config

import (
	"path/filepath"
	"strings"

	"github.com/brightai/refcheck/internal/check"
	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/project"
	"github.com/brightai/refcheck/internal/resources"
)

// Settings is the effective configuration of one command invocation.
type Settings struct {
	Root            string
	Include         []string
	ResourceInclude []string
	Ignore          []string
	ReportsDir      string // Absolute
	SlugMatch       bool
	History         bool
	UI              UIConfig
}

// Overrides holds values given on the command line.
type Overrides struct {
	ReportsDir string
}

// Resolve merges built-in defaults, the global config, the project config
// and command-line overrides, in increasing order of precedence. The
// reports directory and the state directory are always ignored.
func Resolve(root string, global *Config, proj *ProjectConfig, over Overrides) Settings {
	if global == nil {
		global = &Config{}
	}
	if proj == nil {
		proj = &ProjectConfig{}
	}

	s := Settings{
		Root:            root,
		Include:         project.DefaultFilePatterns,
		ResourceInclude: project.DefaultResourcePatterns,
		SlugMatch:       proj.SlugMatch,
		History:         global.HistoryEnabled(),
		UI:              global.UI,
	}
	if len(proj.Include) > 0 {
		s.Include = proj.Include
	}
	if len(proj.ResourceInclude) > 0 {
		s.ResourceInclude = proj.ResourceInclude
	}

	reports := project.DefaultReportsDir
	for _, v := range []string{global.ReportsDir, proj.ReportsDir, over.ReportsDir} {
		if strings.TrimSpace(v) != "" {
			reports = v
		}
	}
	if !filepath.IsAbs(reports) {
		reports = filepath.Join(root, reports)
	}
	s.ReportsDir = reports

	ignore := append([]string{}, project.DefaultIgnorePatterns...)
	ignore = append(ignore, proj.Ignore...)
	if rel, err := filepath.Rel(root, reports); err == nil {
		rel = paths.ToSlash(rel)
		if rel != "." && rel != ".." && !strings.HasPrefix(rel, "../") {
			ignore = append(ignore, rel+"/**")
		}
	}
	ignore = append(ignore, project.StateDir+"/**")
	s.Ignore = ignore
	return s
}

// LinksOptions returns the options of an internal-links audit.
func (s Settings) LinksOptions() check.Options {
	return check.Options{
		Root:      s.Root,
		Include:   s.Include,
		Ignore:    s.Ignore,
		SlugMatch: s.SlugMatch,
	}
}

// ResourceOptions returns the options of a resource-paths audit.
func (s Settings) ResourceOptions() resources.Options {
	return resources.Options{
		Root:    s.Root,
		Include: s.ResourceInclude,
		Ignore:  s.Ignore,
	}
}
