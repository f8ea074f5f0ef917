// Package project discovers the files of a website corpus.
//
// Files are selected with doublestar glob patterns relative to the project
// root. Hidden files and directories are never visited.
package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/brightai/refcheck/internal/paths"
)

// StateDir is the tool's own directory inside a project (history, audit log).
const StateDir = ".refcheck"

// DefaultReportsDir is where report artifacts are written, relative to the root.
const DefaultReportsDir = "تقارير للمشروع"

// DefaultFilePatterns selects the files scanned by the internal-links audit.
var DefaultFilePatterns = []string{
	"*.html",
	"*.htm",
	"*.js",
	"*.css",
	"frontend/**/*.html",
	"frontend/**/*.htm",
	"frontend/**/*.js",
	"frontend/**/*.mjs",
	"frontend/**/*.css",
}

// DefaultResourcePatterns selects the HTML files scanned by the resource-paths audit.
var DefaultResourcePatterns = []string{
	"*.html",
	"*.htm",
	"frontend/**/*.html",
	"frontend/**/*.htm",
	"brightai-platform/public/**/*.html",
	"brightai-platform/public/**/*.htm",
}

// DefaultIgnorePatterns are never scanned nor indexed.
var DefaultIgnorePatterns = []string{
	"**/.git/**",
	"**/node_modules/**",
	"backend/**",
	"server/**",
	"scripts/**",
	"brightai_orchestrator_output/**",
}

var (
	htmlFileRegex = regexp.MustCompile(`(?i)\.(?:html?|xhtml)$`)
	jsFileRegex   = regexp.MustCompile(`(?i)\.m?js$`)
	assetRegex    = regexp.MustCompile(`(?i)\.(?:m?js|css)$`)
)

// IsHTML reports whether file is an HTML page.
func IsHTML(file string) bool { return htmlFileRegex.MatchString(file) }

// IsJavaScript reports whether file is a JavaScript module or script.
func IsJavaScript(file string) bool { return jsFileRegex.MatchString(file) }

// IsAsset reports whether file is a script or stylesheet.
func IsAsset(file string) bool { return assetRegex.MatchString(file) }

// ValidatePatterns returns an error for the first malformed glob pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

// Collect returns the sorted, de-duplicated project-relative paths of every
// file that matches at least one include pattern and no ignore pattern.
func Collect(root string, include, ignore []string) ([]string, error) {
	if err := ValidatePatterns(include); err != nil {
		return nil, err
	}
	var files []string
	err := walk(root, ignore, func(rel string) {
		if matchAny(include, rel) {
			files = append(files, rel)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ListAll returns every non-ignored file under root, sorted.
func ListAll(root string, ignore []string) ([]string, error) {
	var files []string
	if err := walk(root, ignore, func(rel string) { files = append(files, rel) }); err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile reads a project-relative file as text.
func ReadFile(root, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	return string(data), nil
}

// Matches reports whether a project-relative file is selected by include
// and not excluded by ignore.
func Matches(rel string, include, ignore []string) bool {
	rel = paths.NormalizeRelative(paths.ToSlash(rel))
	if rel == "" || hiddenPath(rel) {
		return false
	}
	return matchAny(include, rel) && !matchAny(ignore, rel)
}

func walk(root string, ignore []string, visit func(rel string)) error {
	if err := ValidatePatterns(ignore); err != nil {
		return err
	}
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", p, err)
		}
		if p == root {
			return nil
		}
		relPath, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel := paths.ToSlash(relPath)

		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if dirIgnored(ignore, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if matchAny(ignore, rel) {
			return nil
		}
		visit(rel)
		return nil
	})
}

// dirIgnored reports whether everything below dir is ignored, testing a
// synthetic child name so "dir/**" style patterns prune the walk.
func dirIgnored(ignore []string, dir string) bool {
	sample := dir + "/\x00"
	for _, p := range ignore {
		if ok, _ := doublestar.Match(p, sample); ok {
			return true
		}
	}
	return false
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func hiddenPath(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
