// Package diff renders unified diffs of rewritten source files for dry runs.
package diff

import (
	"fmt"
	"strings"

	difflib "github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of context lines around each hunk.
const DefaultContext = 3

// Options controls patch generation.
type Options struct {
	// Context lines per hunk; DefaultContext when 0.
	Context int

	// MaxBytes skips files whose old+new size exceeds it. 0 means no limit.
	MaxBytes int
}

// Unified returns a unified patch turning before into after for the
// project-relative file name. An empty string means the contents are equal.
func Unified(name, before, after string, opt Options) string {
	if before == after {
		return ""
	}
	if opt.MaxBytes > 0 && len(before)+len(after) > opt.MaxBytes {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n@@\n# diff omitted (oversize)\n", name, name)
	}

	ctx := opt.Context
	if ctx <= 0 {
		ctx = DefaultContext
	}
	u := difflib.UnifiedDiff{
		A:        splitLines(before),
		B:        splitLines(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  ctx,
	}
	s, err := difflib.GetUnifiedDiffString(u)
	if err != nil {
		return fmt.Sprintf("--- a/%s\n+++ b/%s\n@@\n# diff unavailable: %v\n", name, name, err)
	}
	return s
}

// splitLines keeps the newline on each line so hunks reproduce the file exactly.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
