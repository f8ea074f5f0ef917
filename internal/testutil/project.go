// Package testutil provides reusable fixtures for refcheck tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TestProject represents a temporary website corpus for testing.
type TestProject struct {
	Path  string
	t     *testing.T
	files map[string]string
}

// NewTestProject creates a new test project builder.
// Call Build() to create the actual project directory.
func NewTestProject(t *testing.T) *TestProject {
	t.Helper()
	return &TestProject{
		t:     t,
		files: make(map[string]string),
	}
}

// WithFile adds a file to the project.
// The path is relative to the project root and uses forward slashes.
func (p *TestProject) WithFile(path, content string) *TestProject {
	p.files[path] = content
	return p
}

// WithFiles adds several files to the project.
func (p *TestProject) WithFiles(files map[string]string) *TestProject {
	for path, content := range files {
		p.files[path] = content
	}
	return p
}

// WithConfig sets the refcheck.yaml content for the project.
func (p *TestProject) WithConfig(yaml string) *TestProject {
	p.files["refcheck.yaml"] = yaml
	return p
}

// Build creates the project directory and all configured files.
func (p *TestProject) Build() *TestProject {
	p.t.Helper()
	p.Path = p.t.TempDir()
	for path, content := range p.files {
		p.WriteFile(path, content)
	}
	return p
}

// WriteFile writes a file to the project, creating directories as needed.
func (p *TestProject) WriteFile(relPath, content string) {
	p.t.Helper()
	fullPath := filepath.Join(p.Path, filepath.FromSlash(relPath))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		p.t.Fatalf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
		p.t.Fatalf("failed to write file %s: %v", fullPath, err)
	}
}

// ReadFile reads a project file as a string.
func (p *TestProject) ReadFile(relPath string) string {
	p.t.Helper()
	fullPath := filepath.Join(p.Path, filepath.FromSlash(relPath))
	content, err := os.ReadFile(fullPath)
	if err != nil {
		p.t.Fatalf("failed to read file %s: %v", fullPath, err)
	}
	return string(content)
}

// FileExists checks if a file exists in the project.
func (p *TestProject) FileExists(relPath string) bool {
	p.t.Helper()
	_, err := os.Stat(filepath.Join(p.Path, filepath.FromSlash(relPath)))
	return err == nil
}

// MarketingSite returns a small corpus shaped like the sites refcheck audits:
// a root page, nested pages under frontend/, shared assets and a vendor bundle.
func MarketingSite() map[string]string {
	return map[string]string{
		"index.html": `<!doctype html>
<html>
<head>
  <link rel="stylesheet" href="/css/site.css">
  <script src="./js/app.js"></script>
</head>
<body>
  <a href="/about.html">About</a>
  <a href="mailto:info@example.com">Mail</a>
</body>
</html>
`,
		"about.html":                   "<html><body><a href=\"/\">Home</a></body></html>\n",
		"css/site.css":                 "body { background: url('/img/bg.png'); }\n",
		"img/bg.png":                   "png",
		"js/app.js":                    "const links = { href: '/about.html' };\n",
		"frontend/pages/contact.html":  "<html><body><a href=\"../../index.html\">Home</a></body></html>\n",
		"frontend/vendor/lib.min.js":   "var a={url:'/missing.js'};\n",
		"frontend/pages/services.html": "<html><body><img src=\"../img/team.png\"></body></html>\n",
		"frontend/img/team.png":        "png",
	}
}
