package testutil

import (
	"strings"
)

// AssertFileExists fails the test if the file does not exist.
func (p *TestProject) AssertFileExists(relPath string) {
	p.t.Helper()
	if !p.FileExists(relPath) {
		p.t.Errorf("expected file to exist: %s", relPath)
	}
}

// AssertFileNotExists fails the test if the file exists.
func (p *TestProject) AssertFileNotExists(relPath string) {
	p.t.Helper()
	if p.FileExists(relPath) {
		p.t.Errorf("expected file to not exist: %s", relPath)
	}
}

// AssertFileContains fails the test if the file does not contain the substring.
func (p *TestProject) AssertFileContains(relPath, substr string) {
	p.t.Helper()
	content := p.ReadFile(relPath)
	if !strings.Contains(content, substr) {
		p.t.Errorf("expected file %s to contain %q, got:\n%s", relPath, substr, content)
	}
}

// AssertFileEquals fails the test if the file content differs from want.
func (p *TestProject) AssertFileEquals(relPath, want string) {
	p.t.Helper()
	if got := p.ReadFile(relPath); got != want {
		p.t.Errorf("file %s mismatch\nwant:\n%s\ngot:\n%s", relPath, want, got)
	}
}

// AssertCount fails the test if strings.Count(file, substr) != n.
func (p *TestProject) AssertCount(relPath, substr string, n int) {
	p.t.Helper()
	content := p.ReadFile(relPath)
	if got := strings.Count(content, substr); got != n {
		p.t.Errorf("expected %d occurrences of %q in %s, got %d:\n%s", n, substr, relPath, got, content)
	}
}
