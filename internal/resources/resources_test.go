package resources

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brightai/refcheck/internal/audit"
	"github.com/brightai/refcheck/internal/index"
	"github.com/brightai/refcheck/internal/resolver"
	"github.com/brightai/refcheck/internal/rewrite"
	"github.com/brightai/refcheck/internal/testutil"
)

func fixedNow() time.Time {
	return time.Date(2025, 3, 1, 10, 4, 5, 0, time.UTC)
}

func TestExtractTagsClassifiesKinds(t *testing.T) {
	content := `<head>
<link rel="stylesheet" href="/css/site.css">
<link rel="preload" href="/css/print.css" as="style">
<link rel="preload" href="/fonts/a.woff2" as="font">
<link rel="icon" href="/favicon.ico">
<link rel='alternate stylesheet' href='/css/alt.css'>
<script src=" /js/app.js "></script>
<script>var inline = true;</script>
</head>`

	tags := extractTags(content)
	want := []struct {
		kind     Kind
		original string
		line     int
	}{
		{KindStyleSheet, "/css/site.css", 2},
		{KindStylePreload, "/css/print.css", 3},
		{KindStyleSheet, "/css/alt.css", 6},
		{KindScript, "/js/app.js", 7},
	}
	if len(tags) != len(want) {
		t.Fatalf("got %d tags, want %d: %+v", len(tags), len(want), tags)
	}
	for i, w := range want {
		got := tags[i]
		if got.kind != w.kind || got.original != w.original || got.line != w.line {
			t.Errorf("tag %d = %+v, want %+v", i, got, w)
		}
		if content[got.valueStart:got.valueEnd] != got.original {
			t.Errorf("tag %d offsets point at %q", i, content[got.valueStart:got.valueEnd])
		}
		if !strings.HasPrefix(content[got.tagStart:got.tagEnd], "<") {
			t.Errorf("tag %d span does not start a tag", i)
		}
	}
}

func TestExtractTagsMarksNoscript(t *testing.T) {
	content := `<link rel="preload" href="/css/a.css" as="style">
<noscript><link rel="stylesheet" href="/css/a.css"></noscript>`

	tags := extractTags(content)
	if len(tags) != 2 {
		t.Fatalf("got %d tags, want 2", len(tags))
	}
	if tags[0].inNoscript || !tags[1].inNoscript {
		t.Fatalf("noscript membership = %v, %v", tags[0].inNoscript, tags[1].inNoscript)
	}
}

func TestEvaluate(t *testing.T) {
	idx := index.New([]string{"index.html", "js/app.js", "js/main.js", "css/site.css", "frontend/pages/about.html"})

	tests := []struct {
		name       string
		file       string
		original   string
		status     resolver.Status
		reason     string
		suggestion string
		normalize  bool
	}{
		{name: "external", file: "index.html", original: "https://cdn.example.com/x.js", status: resolver.StatusIgnored, reason: IgnoreExternal},
		{name: "protocol relative", file: "index.html", original: "//cdn.example.com/x.js", status: resolver.StatusIgnored, reason: IgnoreExternal},
		{name: "template", file: "index.html", original: "/js/${name}.js", status: resolver.StatusIgnored, reason: IgnoreExternal},
		{name: "query only", file: "index.html", original: "?v=1", status: resolver.StatusIgnored, reason: IgnoreEmpty},
		{name: "root", file: "index.html", original: "/", status: resolver.StatusIgnored, reason: IgnoreEmptyAfterNorm},
		{name: "canonical", file: "index.html", original: "/js/app.js", status: resolver.StatusValid},
		{name: "leading dot", file: "index.html", original: "./js/app.js", status: resolver.StatusValid, normalize: true},
		{name: "relative without dot", file: "index.html", original: "js/app.js", status: resolver.StatusValid},
		{name: "parent segments", file: "frontend/pages/about.html", original: "../../js/app.js?v=2", status: resolver.StatusValid, normalize: true},
		{name: "basename match", file: "index.html", original: "/assets/main.js?v=3", status: resolver.StatusBroken, reason: string(resolver.ReasonPathNotFound), suggestion: "/js/main.js?v=3"},
		{name: "no candidate", file: "index.html", original: "/js/nothing.js", status: resolver.StatusBroken, reason: string(resolver.ReasonPathNotFound)},
		{name: "not an asset", file: "index.html", original: "/img/app.png", status: resolver.StatusBroken, reason: string(resolver.ReasonPathNotFound)},
		{name: "outside root", file: "index.html", original: "../../app.js", status: resolver.StatusBroken, reason: string(resolver.ReasonOutsideRoot), suggestion: "/js/app.js"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ref := &Reference{File: tc.file, Original: tc.original}
			evaluate(ref, idx)
			if ref.Status != tc.status || ref.Reason != tc.reason {
				t.Fatalf("status = %s (%q), want %s (%q)", ref.Status, ref.Reason, tc.status, tc.reason)
			}
			if ref.Suggestion != tc.suggestion {
				t.Errorf("suggestion = %q, want %q", ref.Suggestion, tc.suggestion)
			}
			if ref.NeedsNormalization != tc.normalize {
				t.Errorf("needsNormalization = %v, want %v", ref.NeedsNormalization, tc.normalize)
			}
		})
	}
}

func TestAnalyzeDuplicateKeeper(t *testing.T) {
	idx := index.New([]string{"index.html", "js/app.js", "css/site.css"})

	tests := []struct {
		name       string
		content    string
		keeperLine int
	}{
		{
			name:       "version parameter wins",
			content:    "<head>\n<script src=\"/js/app.js\"></script>\n<script src=\"/js/app.js?v=42\"></script>\n</head>",
			keeperLine: 3,
		},
		{
			name:       "any suffix beats none",
			content:    "<link rel=\"stylesheet\" href=\"/css/site.css\">\n<link rel=\"stylesheet\" href=\"./css/site.css#print\">",
			keeperLine: 2,
		},
		{
			name:       "earliest wins ties",
			content:    "<script src=\"js/app.js\"></script>\n<script src=\"/js/app.js\"></script>\n<script src=\"./js/app.js\"></script>",
			keeperLine: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			refs := Analyze("index.html", tc.content, idx)
			leaders := 0
			for _, ref := range refs {
				if ref.IsDuplicateLeader {
					leaders++
					if ref.Line != tc.keeperLine {
						t.Errorf("keeper on line %d, want %d", ref.Line, tc.keeperLine)
					}
					continue
				}
				if !ref.IsDuplicate {
					t.Errorf("line %d is neither keeper nor duplicate", ref.Line)
				}
				if ref.KeeperLine != tc.keeperLine {
					t.Errorf("line %d points at keeper line %d, want %d", ref.Line, ref.KeeperLine, tc.keeperLine)
				}
			}
			if leaders != 1 {
				t.Fatalf("got %d keepers, want exactly 1", leaders)
			}
		})
	}
}

func TestAnalyzeIgnoresNoscriptAndDifferentKinds(t *testing.T) {
	idx := index.New([]string{"index.html", "css/site.css"})
	content := `<link rel="preload" href="/css/site.css" as="style">
<noscript><link rel="stylesheet" href="/css/site.css"></noscript>
<link rel="stylesheet" href="/css/site.css">`

	for _, ref := range Analyze("index.html", content, idx) {
		if ref.IsDuplicate || ref.IsDuplicateLeader {
			t.Fatalf("line %d (%s) must not be grouped", ref.Line, ref.Kind)
		}
	}
}

func TestRunScenarioD(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithFile("js/app.js", "console.log('app');\n").
		WithFile("index.html", "<html><head>\n<script src=\"/js/app.js\"></script>\n<script src=\"/js/app.js?v=42\"></script>\n</head></html>\n").
		Build()

	report, err := Run(context.Background(), Options{Root: p.Path, Now: fixedNow})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.FilesScanned != 1 || report.ResourcesScanned != 2 || report.LocalResources != 2 {
		t.Fatalf("unexpected counts %+v", report)
	}
	if report.DuplicateResources != 1 || len(report.DuplicateRows) != 1 {
		t.Fatalf("duplicates = %d, want 1", report.DuplicateResources)
	}
	row := report.DuplicateRows[0]
	want := DuplicateRow{
		File:                 "index.html",
		Line:                 2,
		Kind:                 KindScript,
		Reference:            "/js/app.js",
		DuplicateOfLine:      3,
		DuplicateOfReference: "/js/app.js?v=42",
	}
	if row != want {
		t.Fatalf("duplicate row = %+v, want %+v", row, want)
	}

	outcome, err := FixResources(context.Background(), Options{Root: p.Path, Now: fixedNow}, rewrite.Options{})
	if err != nil {
		t.Fatalf("FixResources() error = %v", err)
	}
	if outcome.Result.DuplicateTagsRemoved != 1 || outcome.After.DuplicateResources != 0 {
		t.Fatalf("removed %d, duplicates after %d", outcome.Result.DuplicateTagsRemoved, outcome.After.DuplicateResources)
	}
	p.AssertCount("index.html", "<script", 1)
	p.AssertCount("index.html", "</script>", 1)
	p.AssertFileContains("index.html", `<script src="/js/app.js?v=42"></script>`)
}

func TestFixSwallowsNoscriptFallback(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithFile("css/site.css", "body{}\n").
		WithFile("index.html", `<head>
<link rel="preload" href="/css/site.css" as="style">
<noscript><link rel="stylesheet" href="/css/site.css"></noscript>
<link rel="preload" href="/css/site.css" as="style">
<noscript><link rel="stylesheet" href="/CSS/SITE.css"></noscript>
</head>
`).
		Build()

	if _, err := FixResources(context.Background(), Options{Root: p.Path}, rewrite.Options{}); err != nil {
		t.Fatalf("FixResources() error = %v", err)
	}
	p.AssertFileEquals("index.html", `<head>
<link rel="preload" href="/css/site.css" as="style">
<noscript><link rel="stylesheet" href="/css/site.css"></noscript>

</head>
`)
}

func TestFixKeepsUnrelatedNoscript(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithFile("css/site.css", "body{}\n").
		WithFile("index.html", `<link rel="preload" href="/css/site.css" as="style">
<link rel="preload" href="/css/site.css" as="style">
<noscript><link rel="stylesheet" href="/css/other.css"></noscript>
`).
		Build()

	if _, err := FixResources(context.Background(), Options{Root: p.Path}, rewrite.Options{}); err != nil {
		t.Fatalf("FixResources() error = %v", err)
	}
	p.AssertCount("index.html", `rel="preload"`, 1)
	p.AssertFileContains("index.html", "/css/other.css")
}

func TestFixBrokenPaths(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithFile("js/main.js", "main();\n").
		WithFile("js/util.js", "util();\n").
		WithFile("index.html", `<script src="/assets/main.js?v=3"></script>
<script src="/old/util.js"></script>
<script src="/old/util.js"></script>
<script src="/js/none.js"></script>
`).
		Build()

	logger := audit.New(p.Path, true)
	outcome, err := FixResources(context.Background(), Options{Root: p.Path}, rewrite.Options{Audit: logger})
	if err != nil {
		t.Fatalf("FixResources() error = %v", err)
	}

	res := outcome.Result
	if res.BrokenPathsFixed != 2 || res.DuplicateTagsRemoved != 1 {
		t.Fatalf("fixed %d, removed %d; want 2, 1", res.BrokenPathsFixed, res.DuplicateTagsRemoved)
	}
	if len(res.ChangedFiles) != 1 || res.ChangedFiles[0] != "index.html" {
		t.Fatalf("changed files = %v", res.ChangedFiles)
	}
	if outcome.Before.BrokenResources != 4 || outcome.After.BrokenResources != 1 {
		t.Fatalf("broken before/after = %d/%d, want 4/1", outcome.Before.BrokenResources, outcome.After.BrokenResources)
	}
	p.AssertFileEquals("index.html", `<script src="/js/main.js?v=3"></script>
<script src="/js/util.js"></script>

<script src="/js/none.js"></script>
`)

	entries, err := logger.Read()
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d audit entries, want 3", len(entries))
	}
}

func TestFixResourcesDryRun(t *testing.T) {
	original := "<script src=\"/js/app.js\"></script>\n<script src=\"/js/app.js\"></script>\n"
	p := testutil.NewTestProject(t).
		WithFile("js/app.js", "app();\n").
		WithFile("index.html", original).
		Build()

	outcome, err := FixResources(context.Background(), Options{Root: p.Path}, rewrite.Options{DryRun: true})
	if err != nil {
		t.Fatalf("FixResources() error = %v", err)
	}
	p.AssertFileEquals("index.html", original)
	if outcome.After != outcome.Before {
		t.Fatal("dry run must reuse the before report")
	}
	if len(outcome.Result.Changes) != 1 || !strings.Contains(outcome.Result.Changes[0].Diff, "-<script") {
		t.Fatalf("expected a diff removing a script tag, got %+v", outcome.Result.Changes)
	}
}
