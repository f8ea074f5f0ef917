// Package report writes audit results as JSON and Markdown artifacts in the
// project's reports directory.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/brightai/refcheck/internal/atomicfile"
	"github.com/brightai/refcheck/internal/check"
	"github.com/brightai/refcheck/internal/resources"
	"github.com/brightai/refcheck/internal/rewrite"
)

// Artifact base names, without extension.
const (
	LinksComparisonName     = "broken_links_before_after"
	ResourcesComparisonName = "resource_paths_before_after"
)

// LinksName returns the artifact base name of a links audit.
func LinksName(stage Stage) string {
	return "broken_links_" + string(stage)
}

// ResourcesName returns the artifact base name of a resource audit.
func ResourcesName(stage Stage) string {
	return "resource_paths_" + string(stage)
}

// Writer writes artifacts under Dir.
type Writer struct {
	Dir string

	// HTML also writes an .html rendering next to every .md file.
	HTML bool
}

// Written lists the files produced by one Writer call.
type Written struct {
	JSON     string `json:"json,omitempty"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html,omitempty"`
}

// Links writes broken_links_<stage>.{json,md}.
func (w Writer) Links(stage Stage, r *check.Report) (Written, error) {
	return w.audit(LinksName(stage), r, LinksMarkdown(r, linksTitle(stage)), linksTitle(stage))
}

// Resources writes resource_paths_<stage>.{json,md}.
func (w Writer) Resources(stage Stage, r *resources.Report) (Written, error) {
	return w.audit(ResourcesName(stage), r, ResourcesMarkdown(r, resourcesTitle(stage)), resourcesTitle(stage))
}

// LinksComparison writes broken_links_before_after.md.
func (w Writer) LinksComparison(o *rewrite.Outcome, generatedAt string) (Written, error) {
	md := LinksComparison(o, generatedAt)
	return w.markdown(LinksComparisonName, md, firstHeading(md))
}

// ResourcesComparison writes resource_paths_before_after.md.
func (w Writer) ResourcesComparison(o *resources.FixOutcome, generatedAt string) (Written, error) {
	md := ResourcesComparison(o, generatedAt)
	return w.markdown(ResourcesComparisonName, md, firstHeading(md))
}

// Path returns the location of an artifact inside the reports directory.
func (w Writer) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

func (w Writer) audit(name string, v interface{}, md, title string) (Written, error) {
	jsonPath := w.Path(name + ".json")
	if err := WriteJSON(jsonPath, v); err != nil {
		return Written{}, fmt.Errorf("write %s: %w", jsonPath, err)
	}
	out, err := w.markdown(name, md, title)
	if err != nil {
		return Written{}, err
	}
	out.JSON = jsonPath
	return out, nil
}

func (w Writer) markdown(name, md, title string) (Written, error) {
	out := Written{Markdown: w.Path(name + ".md")}
	if err := atomicfile.WriteFile(out.Markdown, []byte(md), 0o644); err != nil {
		return Written{}, fmt.Errorf("write %s: %w", out.Markdown, err)
	}
	if !w.HTML {
		return out, nil
	}

	page, err := RenderHTML(title, md)
	if err != nil {
		return Written{}, err
	}
	out.HTML = w.Path(name + ".html")
	if err := atomicfile.WriteFile(out.HTML, page, 0o644); err != nil {
		return Written{}, fmt.Errorf("write %s: %w", out.HTML, err)
	}
	return out, nil
}

func firstHeading(md string) string {
	line, _, _ := strings.Cut(md, "\n")
	return strings.TrimPrefix(line, "# ")
}
