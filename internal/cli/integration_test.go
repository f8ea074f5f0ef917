//go:build integration

package cli_test

import (
	"strconv"
	"testing"

	"github.com/brightai/refcheck/internal/testutil"
)

const reportsDir = "تقارير للمشروع"

func TestIntegration_LinksAuditAndFix(t *testing.T) {
	p := testutil.NewTestProject(t).WithFiles(testutil.MarketingSite()).Build()

	result := p.RunCLI("internal-links-audit").MustSucceed(t)
	if got := result.DataInt("filesScanned"); got != 5 {
		t.Errorf("filesScanned = %d, want 5", got)
	}
	if got := result.DataInt("brokenReferences"); got != 1 {
		t.Errorf("brokenReferences = %d, want 1", got)
	}
	if got := result.DataInt("normalizationCandidates"); got != 4 {
		t.Errorf("normalizationCandidates = %d, want 4", got)
	}
	p.AssertFileExists(reportsDir + "/broken_links_before.json")
	p.AssertFileContains(reportsDir+"/broken_links_before.md", "/missing.js")

	result = p.RunCLI("fix-internal-links").MustSucceed(t)
	if got := result.DataInt("changedFiles"); got != 4 {
		t.Errorf("changedFiles = %d, want 4", got)
	}
	if got := result.DataInt("normalized"); got != 4 {
		t.Errorf("normalized = %d, want 4", got)
	}
	if got := result.DataInt("brokenAfter"); got != 1 {
		t.Errorf("brokenAfter = %d, want 1", got)
	}
	p.AssertFileContains("index.html", `<script src="/js/app.js">`)
	p.AssertFileExists(reportsDir + "/broken_links_after.md")
	p.AssertFileExists(reportsDir + "/broken_links_before_after.md")
	p.AssertFileExists(".refcheck/audit.log")

	// A second run finds nothing left to normalize.
	result = p.RunCLI("fix-internal-links").MustSucceed(t)
	if got := result.DataInt("changedFiles"); got != 0 {
		t.Errorf("second run changedFiles = %d, want 0", got)
	}
}

func TestIntegration_FixLinksDryRunWritesNothing(t *testing.T) {
	p := testutil.NewTestProject(t).WithFiles(testutil.MarketingSite()).Build()
	original := p.ReadFile("index.html")

	result := p.RunCLI("fix-internal-links", "--dry-run").MustSucceed(t)
	if got := result.DataInt("changedFiles"); got != 4 {
		t.Errorf("changedFiles = %d, want 4", got)
	}
	if len(result.Warnings) != 1 || result.Warnings[0].Code != "DRY_RUN" {
		t.Errorf("warnings = %+v, want one DRY_RUN warning", result.Warnings)
	}
	if p.ReadFile("index.html") != original {
		t.Error("dry run modified index.html")
	}
	p.AssertFileNotExists(reportsDir + "/broken_links_before_after.md")
	p.AssertFileNotExists(".refcheck/audit.log")
}

func TestIntegration_ResourceAuditAndFix(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithFile("js/app.js", "console.log('app');\n").
		WithFile("index.html", "<html><head>\n<script src=\"/js/app.js\"></script>\n<script src=\"/js/app.js?v=42\"></script>\n</head></html>\n").
		Build()

	result := p.RunCLI("resource-paths-audit").MustSucceed(t)
	if got := result.DataString("stage"); got != "before" {
		t.Errorf("stage = %q, want before", got)
	}
	if got := result.DataInt("duplicateResources"); got != 1 {
		t.Errorf("duplicateResources = %d, want 1", got)
	}
	p.AssertFileExists(reportsDir + "/resource_paths_before.json")

	result = p.RunCLI("fix-resource-paths").MustSucceed(t)
	if got := result.DataInt("duplicatesAfter"); got != 0 {
		t.Errorf("duplicatesAfter = %d, want 0", got)
	}
	if got := result.DataInt("duplicateTagsRemoved"); got != 1 {
		t.Errorf("duplicateTagsRemoved = %d, want 1", got)
	}
	p.AssertCount("index.html", "<script", 1)
	p.AssertFileExists(reportsDir + "/resource_paths_before_after.md")

	result = p.RunCLI("resource-paths-audit", "after").MustSucceed(t)
	if got := result.DataString("stage"); got != "after" {
		t.Errorf("stage = %q, want after", got)
	}
	p.AssertFileExists(reportsDir + "/resource_paths_after.json")
}

func TestIntegration_InvalidStage(t *testing.T) {
	p := testutil.NewTestProject(t).WithFile("index.html", "<html></html>\n").Build()

	p.RunCLI("resource-paths-audit", "during").MustFail(t, "INVALID_INPUT")
	p.RunCLI("resource-paths-audit", "--stage=before", "after").MustFail(t, "INVALID_INPUT")
}

func TestIntegration_HistoryRecordsRuns(t *testing.T) {
	p := testutil.NewTestProject(t).WithFiles(testutil.MarketingSite()).Build()

	p.RunCLI("internal-links-audit").MustSucceed(t)
	p.RunCLI("resource-paths-audit").MustSucceed(t)

	result := p.RunCLI("history").MustSucceed(t)
	runs := result.DataList("runs")
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	newest, _ := runs[0].(map[string]interface{})
	if newest["pipeline"] != "resources" {
		t.Errorf("newest run pipeline = %v, want resources", newest["pipeline"])
	}

	result = p.RunCLI("history", "--pipeline", "links").MustSucceed(t)
	if got := len(result.DataList("runs")); got != 1 {
		t.Errorf("links runs = %d, want 1", got)
	}

	links, _ := result.DataList("runs")[0].(map[string]interface{})
	id, _ := links["id"].(float64)
	show := p.RunCLI("history", "show", formatID(id)).MustSucceed(t)
	if got := len(show.DataList("rows")); got != 1 {
		t.Errorf("rows = %d, want 1", got)
	}

	p.RunCLI("history", "show", "999").MustFail(t, "RUN_NOT_FOUND")
	p.RunCLI("history", "show", "abc").MustFail(t, "INVALID_INPUT")
}

func TestIntegration_ReportShow(t *testing.T) {
	p := testutil.NewTestProject(t).WithFiles(testutil.MarketingSite()).Build()

	p.RunCLI("report", "show", "broken_links_before").MustFail(t, "FILE_NOT_FOUND")
	p.RunCLI("internal-links-audit").MustSucceed(t)

	result := p.RunCLI("report", "show", "broken_links_before.md").MustSucceed(t)
	if result.DataString("markdown") == "" {
		t.Error("expected markdown content")
	}
	list := p.RunCLI("report", "list").MustSucceed(t)
	if got := len(list.DataList("reports")); got != 1 {
		t.Errorf("reports = %d, want 1", got)
	}
	p.RunCLI("report", "show", "../secret").MustFail(t, "INVALID_INPUT")
}

func TestIntegration_ProjectConfig(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithFiles(testutil.MarketingSite()).
		WithConfig("reports_dir: out/reports\nignore:\n  - \"frontend/vendor/**\"\n").
		Build()

	result := p.RunCLI("internal-links-audit").MustSucceed(t)
	if got := result.DataInt("brokenReferences"); got != 0 {
		t.Errorf("brokenReferences = %d, want 0 with the vendor bundle ignored", got)
	}
	p.AssertFileExists("out/reports/broken_links_before.md")

	bad := testutil.NewTestProject(t).WithConfig("include: [\"[\"]\n").Build()
	bad.RunCLI("internal-links-audit").MustFail(t, "CONFIG_INVALID")
}

func TestIntegration_Version(t *testing.T) {
	p := testutil.NewTestProject(t).Build()
	result := p.RunCLI("version").MustSucceed(t)
	if result.DataString("module_path") == "" {
		t.Error("expected module_path")
	}
}

func formatID(id float64) string {
	return strconv.FormatInt(int64(id), 10)
}
