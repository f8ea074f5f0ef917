// Package slugs provides the slugification used to match page names that
// differ only in case, spacing or punctuation ("About Us.html" vs "about-us.html").
package slugs

import (
	"strings"

	goslug "github.com/gosimple/slug"
)

// ComponentSlug converts a single path component (usually a file stem) to a
// URL-safe slug. Underscores count as separators.
func ComponentSlug(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "_", " "))
	if s == "" {
		return ""
	}
	slugged := goslug.Make(s)
	if slugged == "" {
		slugged = strings.ToLower(strings.ReplaceAll(s, " ", "-"))
	}
	return slugged
}

// SameSlug reports whether two components slugify to the same non-empty value.
func SameSlug(a, b string) bool {
	sa := ComponentSlug(a)
	return sa != "" && sa == ComponentSlug(b)
}
