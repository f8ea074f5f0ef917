package project

import (
	"reflect"
	"testing"

	"github.com/brightai/refcheck/internal/testutil"
)

func TestCollectDefaultPatterns(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithFile("index.html", "").
		WithFile("about.htm", "").
		WithFile("style.css", "").
		WithFile("js/app.js", "").
		WithFile("frontend/pages/contact.html", "").
		WithFile("frontend/js/module.mjs", "").
		WithFile("frontend/node_modules/pkg/index.js", "").
		WithFile("backend/server.js", "").
		WithFile("scripts/fix.mjs", "").
		WithFile(".hidden/page.html", "").
		WithFile("img/logo.png", "").
		Build()

	got, err := Collect(p.Path, DefaultFilePatterns, DefaultIgnorePatterns)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := []string{
		"about.htm",
		"frontend/js/module.mjs",
		"frontend/pages/contact.html",
		"index.html",
		"style.css",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Collect() = %#v, want %#v", got, want)
	}
}

func TestListAllSkipsIgnoredAndHidden(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithFile("index.html", "").
		WithFile("img/logo.png", "").
		WithFile(".git/HEAD", "").
		WithFile("server/app.js", "").
		WithFile("تقارير للمشروع/broken_links_before.md", "").
		Build()

	ignore := append(append([]string{}, DefaultIgnorePatterns...), DefaultReportsDir+"/**")
	got, err := ListAll(p.Path, ignore)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	want := []string{"img/logo.png", "index.html"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ListAll() = %#v, want %#v", got, want)
	}
}

func TestCollectRejectsBadPattern(t *testing.T) {
	p := testutil.NewTestProject(t).WithFile("index.html", "").Build()
	if _, err := Collect(p.Path, []string{"[abc"}, nil); err == nil {
		t.Fatalf("expected error for malformed pattern")
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"index.html", true},
		{"frontend/a/b.css", true},
		{"backend/x.js", false},
		{"img/logo.png", false},
		{"frontend/.cache/x.js", false},
	}
	for _, tc := range tests {
		if got := Matches(tc.rel, DefaultFilePatterns, DefaultIgnorePatterns); got != tc.want {
			t.Fatalf("Matches(%q) = %v, want %v", tc.rel, got, tc.want)
		}
	}
}

func TestFileKinds(t *testing.T) {
	if !IsHTML("a/B.HTML") || IsHTML("a.js") {
		t.Fatalf("IsHTML misclassified")
	}
	if !IsJavaScript("x.mjs") || IsJavaScript("x.css") {
		t.Fatalf("IsJavaScript misclassified")
	}
	if !IsAsset("x.css") || IsAsset("x.png") {
		t.Fatalf("IsAsset misclassified")
	}
}
