package resources

import (
	"strings"

	"github.com/brightai/refcheck/internal/index"
	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/resolver"
)

// Ignore reasons for resource tags.
const (
	IgnoreExternal       = "external_or_non_file"
	IgnoreEmpty          = "empty_reference"
	IgnoreEmptyAfterNorm = "empty_after_normalization"
)

// skipPrefixes is narrower than the link auditor's list: only schemes that
// can appear in a src or href of a resource tag.
var skipPrefixes = []string{
	"http://",
	"https://",
	"//",
	"mailto:",
	"tel:",
	"javascript:",
	"data:",
	"blob:",
	"ws:",
	"wss:",
	"ftp:",
}

func shouldSkip(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return true
	}
	if strings.Contains(trimmed, "${") || strings.Contains(trimmed, "{{") || strings.Contains(trimmed, "%PUBLIC_URL%") {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, p := range skipPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// evaluate fills the verdict fields of ref. Unlike links, a resource is
// only valid when the exact file exists; no index.html or extension
// fallbacks apply.
func evaluate(ref *Reference, idx *index.FileIndex) {
	if shouldSkip(ref.Original) {
		ref.Status, ref.Reason = resolver.StatusIgnored, IgnoreExternal
		return
	}

	refPath, suffix := paths.SplitSuffix(ref.Original)
	normalized := paths.NormalizeReference(refPath)
	ref.Suffix = suffix
	if normalized == "" {
		ref.Status, ref.Reason = resolver.StatusIgnored, IgnoreEmpty
		return
	}
	ref.NormalizedPath = normalized

	rel, ok := paths.ToProjectRelative(ref.File, normalized)
	if !ok {
		ref.Status, ref.Reason = resolver.StatusBroken, string(resolver.ReasonOutsideRoot)
		ref.Suggestion = suggestionFor(suggestAsset(idx, normalized, ""), suffix)
		return
	}
	if rel == "" {
		ref.Status, ref.Reason = resolver.StatusIgnored, IgnoreEmptyAfterNorm
		return
	}

	if idx.Has(rel) {
		canonical := "/" + rel + suffix
		ref.Status = resolver.StatusValid
		ref.ProjectPath = rel
		ref.Canonical = canonical
		ref.NeedsNormalization = nonCanonicalSyntax(refPath) && canonical != strings.TrimSpace(ref.Original)
		return
	}

	ref.Status, ref.Reason = resolver.StatusBroken, string(resolver.ReasonPathNotFound)
	ref.CandidatePath = rel
	ref.Suggestion = suggestionFor(suggestAsset(idx, normalized, rel), suffix)
}

// nonCanonicalSyntax reports whether a written path uses backslashes,
// dot segments or doubled slashes.
func nonCanonicalSyntax(refPath string) bool {
	return strings.Contains(refPath, `\`) ||
		strings.Contains(refPath, "/./") ||
		strings.HasPrefix(refPath, "./") ||
		strings.Contains(refPath, "../") ||
		strings.Contains(refPath, "//")
}

func suggestionFor(path, suffix string) string {
	if path == "" {
		return ""
	}
	return "/" + path + suffix
}

// suggestAsset looks for a script or stylesheet to replace a missing one.
// Only .js, .mjs and .css references get suggestions.
func suggestAsset(idx *index.FileIndex, normalized, candidate string) string {
	switch paths.Ext(normalized) {
	case ".js", ".mjs", ".css":
	default:
		return ""
	}

	wanted := candidate
	if wanted == "" {
		wanted = strings.TrimLeft(normalized, "/")
	}

	byBase := idx.AssetsByBasename(paths.Base(normalized))
	if len(byBase) == 1 {
		return byBase[0]
	}
	if len(byBase) > 1 && wanted != "" {
		if c, ok := resolver.ChooseBest(byBase, wanted); ok {
			return c.Path
		}
	}
	if wanted != "" {
		if p, ok := resolver.UniqueSuffixMatch(idx.Assets(), wanted); ok {
			return p
		}
	}
	return ""
}
