package watcher

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/brightai/refcheck/internal/project"
)

func TestNewRequiresRootAndHandler(t *testing.T) {
	if _, err := New(Config{OnChange: func(context.Context, []string) error { return nil }}); err == nil {
		t.Fatal("expected error without root")
	}
	if _, err := New(Config{Root: t.TempDir()}); err == nil {
		t.Fatal("expected error without handler")
	}
}

func TestRelevant(t *testing.T) {
	root := t.TempDir()
	reports := filepath.Join(root, project.DefaultReportsDir)
	w, err := New(Config{
		Root:       root,
		Include:    project.DefaultFilePatterns,
		Ignore:     project.DefaultIgnorePatterns,
		ReportsDir: reports,
		OnChange:   func(context.Context, []string) error { return nil },
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"write scanned page", filepath.Join(root, "index.html"), fsnotify.Write, true},
		{"write nested script", filepath.Join(root, "frontend", "js", "app.mjs"), fsnotify.Write, true},
		{"write unscanned file", filepath.Join(root, "notes.txt"), fsnotify.Write, false},
		{"create asset", filepath.Join(root, "assets", "logo.png"), fsnotify.Create, true},
		{"remove asset", filepath.Join(root, "assets", "logo.png"), fsnotify.Remove, true},
		{"rename asset", filepath.Join(root, "docs", "guide.pdf"), fsnotify.Rename, true},
		{"chmod scanned page", filepath.Join(root, "index.html"), fsnotify.Chmod, false},
		{"create in node_modules", filepath.Join(root, "node_modules", "x", "a.js"), fsnotify.Create, false},
		{"create in hidden dir", filepath.Join(root, ".refcheck", "audit.log"), fsnotify.Create, false},
		{"create in reports dir", filepath.Join(reports, "broken_links_before.md"), fsnotify.Create, false},
		{"outside root", filepath.Join(filepath.Dir(root), "index.html"), fsnotify.Write, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.Relevant(tc.path, tc.op); got != tc.want {
				t.Errorf("Relevant(%q, %s) = %v, want %v", tc.path, tc.op, got, tc.want)
			}
		})
	}
}

func TestStartBatchesChanges(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "frontend"), 0755); err != nil {
		t.Fatal(err)
	}

	batches := make(chan []string, 4)
	w, err := New(Config{
		Root:          root,
		Include:       project.DefaultFilePatterns,
		Ignore:        project.DefaultIgnorePatterns,
		DebounceDelay: 100 * time.Millisecond,
		OnChange: func(_ context.Context, changed []string) error {
			batches <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("draft"), 0644); err != nil {
		t.Fatal(err)
	}

	// Give fsnotify time to register the directories.
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("edited"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"index.html", "logo.png", filepath.Join("frontend", "page.html")} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("<a href=\"/x.html\">x</a>"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case got := <-batches:
		want := []string{"frontend/page.html", "index.html", "logo.png"}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("batch = %v, want %v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a batch")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
