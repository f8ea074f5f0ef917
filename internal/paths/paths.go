// Package paths provides canonical helpers for converting between:
// - raw reference values as written in source files (e.g. "../css/site.css?v=3")
// - project-relative file paths (e.g. "frontend/css/site.css")
//
// Every component that resolves or rewrites a reference goes through these
// helpers so that extraction, resolution and rewriting agree on what a path is.
package paths

import (
	"errors"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrPathOutsideRoot is returned when a path escapes the project root.
var ErrPathOutsideRoot = errors.New("path is outside project root")

// ToSlash converts OS separators to '/'.
func ToSlash(p string) string {
	return filepath.ToSlash(p)
}

// NormalizeRelative normalizes a project-relative path-like value:
// - converts '\' to '/'
// - cleans "." and ".." segments, keeping a trailing '/' if present
// - trims leading "./" and leading "/"
//
// Examples:
// - "./js/app.js"   -> "js/app.js"
// - "/a//b/../c/"   -> "a/c/"
// - "."             -> ""
func NormalizeRelative(p string) string {
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	trailing := strings.HasSuffix(p, "/")

	cleaned := path.Clean(p)
	cleaned = strings.TrimLeft(cleaned, "/")
	for strings.HasPrefix(cleaned, "./") {
		cleaned = strings.TrimPrefix(cleaned, "./")
	}
	if cleaned == "." || cleaned == "" {
		return ""
	}
	if trailing {
		cleaned += "/"
	}
	return cleaned
}

// SplitSuffix splits a reference at the first '?' or '#' into the path part
// and the query/fragment suffix (suffix keeps its leading delimiter).
func SplitSuffix(ref string) (refPath, suffix string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// reservedEscape matches escapes of the URI reserved characters and '#',
// which decodeURI-style decoding leaves encoded.
var reservedEscape = regexp.MustCompile(`%(?:2[346BbCcFf]|3[AaBbDdFf]|40)`)

// NormalizeReference normalizes the path part of a raw reference value.
// It trims whitespace, converts '\' to '/', collapses repeated slashes,
// strips one leading "./" and decodes percent-escapes except those of
// reserved characters ("%2F" stays "%2F"). Malformed escapes leave the
// string as-is.
func NormalizeReference(ref string) string {
	if ref == "/" {
		return "/"
	}
	p := strings.TrimSpace(ref)
	if p == "" {
		return ""
	}
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	p = strings.TrimPrefix(p, "./")
	return decodeURI(p)
}

func decodeURI(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range reservedEscape.FindAllStringIndex(s, -1) {
		part, err := url.PathUnescape(s[last:loc[0]])
		if err != nil {
			return s
		}
		b.WriteString(part)
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	part, err := url.PathUnescape(s[last:])
	if err != nil {
		return s
	}
	b.WriteString(part)
	return b.String()
}

// ToProjectRelative resolves a normalized reference against the referencing
// file. A leading '/' means project-root-relative; anything else is relative
// to the directory of sourceFile.
//
// ok is false when the resolved path climbs above the project root.
// The project root itself resolves to "".
func ToProjectRelative(sourceFile, normalized string) (rel string, ok bool) {
	if normalized == "" || normalized == "/" {
		return "", true
	}

	var joined string
	if strings.HasPrefix(normalized, "/") {
		joined = strings.TrimLeft(normalized, "/")
	} else {
		dir := path.Dir(ToSlash(sourceFile))
		joined = dir + "/" + normalized
	}

	if escapesRoot(joined) {
		return "", false
	}
	return NormalizeRelative(joined), true
}

// escapesRoot reports whether a slash-separated relative path, once cleaned,
// starts with "..".
func escapesRoot(p string) bool {
	cleaned := path.Clean(strings.TrimLeft(p, "/"))
	return cleaned == ".." || strings.HasPrefix(cleaned, "../")
}

// ExpandCandidates returns the project-relative paths to try for a resolved
// reference, in priority order:
// - the path itself
// - "dir/" also tries "dir/index.html" and "dir/index.htm"
// - an extensionless path also tries ".html", ".htm", "/index.html", "/index.htm"
//
// The project root ("") expands to "index.html" and "index.htm".
func ExpandCandidates(rel string) []string {
	rel = NormalizeRelative(rel)
	if rel == "" {
		return []string{"index.html", "index.htm"}
	}
	if strings.HasSuffix(rel, "/") {
		return []string{rel, rel + "index.html", rel + "index.htm"}
	}

	out := []string{rel}
	if path.Ext(rel) == "" {
		out = append(out,
			rel+".html",
			rel+".htm",
			rel+"/index.html",
			rel+"/index.htm",
		)
	}
	return out
}

// Base returns the last slash-separated element of p.
func Base(p string) string {
	p = strings.TrimSuffix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// Stem returns the base name of p without its extension.
func Stem(p string) string {
	base := Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Ext returns the lowercased extension of p, including the dot.
func Ext(p string) string {
	return strings.ToLower(path.Ext(Base(p)))
}

// ValidateWithinRoot verifies that target (absolute or relative to the cwd)
// lies inside root.
func ValidateWithinRoot(root, target string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return ErrPathOutsideRoot
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return ErrPathOutsideRoot
	}
	return nil
}
