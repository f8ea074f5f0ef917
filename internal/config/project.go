package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/brightai/refcheck/internal/project"
)

// ProjectFileName is the per-project configuration file at the root.
const ProjectFileName = "refcheck.yaml"

// ProjectConfig represents project-level configuration from refcheck.yaml.
type ProjectConfig struct {
	// Include replaces the file patterns of the internal-links audit.
	Include []string `yaml:"include,omitempty"`

	// ResourceInclude replaces the HTML patterns of the resource audit.
	ResourceInclude []string `yaml:"resource_include,omitempty"`

	// Ignore is added to the built-in ignore patterns.
	Ignore []string `yaml:"ignore,omitempty"`

	// ReportsDir overrides the global reports_dir.
	ReportsDir string `yaml:"reports_dir,omitempty"`

	// SlugMatch enables low-confidence slug suggestions for HTML pages.
	SlugMatch bool `yaml:"slug_match,omitempty"`
}

// LoadProject loads refcheck.yaml from root. A missing file yields an
// empty config.
func LoadProject(root string) (*ProjectConfig, error) {
	configPath := filepath.Join(root, ProjectFileName)

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return &ProjectConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project config %s: %w", configPath, err)
	}

	var config ProjectConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse project config %s: %v", ErrInvalid, configPath, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, configPath, err)
	}
	return &config, nil
}

// Validate checks every glob pattern.
func (pc *ProjectConfig) Validate() error {
	for _, patterns := range [][]string{pc.Include, pc.ResourceInclude, pc.Ignore} {
		if err := project.ValidatePatterns(patterns); err != nil {
			return err
		}
	}
	return nil
}
