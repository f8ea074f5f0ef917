// Package index holds the read-only snapshot of a project's file set used to
// resolve references and look up repair candidates.
package index

import (
	"sort"
	"strings"

	"github.com/brightai/refcheck/internal/paths"
	"github.com/brightai/refcheck/internal/project"
	"github.com/brightai/refcheck/internal/slugs"
)

// FileIndex is built once per audit run and never mutated afterwards.
type FileIndex struct {
	files     map[string]struct{} // Set of all project-relative paths
	all       []string            // Sorted copy of files
	basenames map[string][]string // lower(basename) -> sorted paths
	stems     map[string][]string // lower(stem) -> sorted paths

	assets         []string            // Sorted .js/.mjs/.css paths
	assetBasenames map[string][]string // lower(basename) -> sorted asset paths

	htmlSlugs map[string][]string // slug(stem) -> sorted HTML paths
}

// New builds an index from project-relative paths.
func New(files []string) *FileIndex {
	idx := &FileIndex{
		files:          make(map[string]struct{}, len(files)),
		basenames:      make(map[string][]string),
		stems:          make(map[string][]string),
		assetBasenames: make(map[string][]string),
		htmlSlugs:      make(map[string][]string),
	}

	for _, f := range files {
		f = paths.NormalizeRelative(paths.ToSlash(f))
		if f == "" {
			continue
		}
		if _, dup := idx.files[f]; dup {
			continue
		}
		idx.files[f] = struct{}{}
		idx.all = append(idx.all, f)

		base := strings.ToLower(paths.Base(f))
		stem := strings.ToLower(paths.Stem(f))
		idx.basenames[base] = append(idx.basenames[base], f)
		idx.stems[stem] = append(idx.stems[stem], f)

		if project.IsAsset(f) {
			idx.assets = append(idx.assets, f)
			idx.assetBasenames[base] = append(idx.assetBasenames[base], f)
		}
		if project.IsHTML(f) {
			key := slugs.ComponentSlug(paths.Stem(f))
			idx.htmlSlugs[key] = append(idx.htmlSlugs[key], f)
		}
	}

	sort.Strings(idx.all)
	sort.Strings(idx.assets)
	for _, m := range []map[string][]string{idx.basenames, idx.stems, idx.assetBasenames, idx.htmlSlugs} {
		for _, v := range m {
			sort.Strings(v)
		}
	}
	return idx
}

// Build lists every non-ignored file under root and indexes it.
func Build(root string, ignore []string) (*FileIndex, error) {
	files, err := project.ListAll(root, ignore)
	if err != nil {
		return nil, err
	}
	return New(files), nil
}

// Has reports whether rel is a file of the project.
func (idx *FileIndex) Has(rel string) bool {
	_, ok := idx.files[rel]
	return ok
}

// Len returns the number of indexed files.
func (idx *FileIndex) Len() int {
	return len(idx.all)
}

// All returns every indexed path, sorted. Callers must not modify it.
func (idx *FileIndex) All() []string {
	return idx.all
}

// ByBasename returns files whose basename equals name (case-insensitive).
func (idx *FileIndex) ByBasename(name string) []string {
	return idx.basenames[strings.ToLower(name)]
}

// ByStem returns files whose extension-less basename equals stem (case-insensitive).
func (idx *FileIndex) ByStem(stem string) []string {
	return idx.stems[strings.ToLower(stem)]
}

// Assets returns every script and stylesheet path, sorted.
func (idx *FileIndex) Assets() []string {
	return idx.assets
}

// AssetsByBasename returns scripts/stylesheets whose basename equals name.
func (idx *FileIndex) AssetsByBasename(name string) []string {
	return idx.assetBasenames[strings.ToLower(name)]
}

// HTMLBySlug returns HTML pages whose slugified stem equals the slug of stem.
func (idx *FileIndex) HTMLBySlug(stem string) []string {
	key := slugs.ComponentSlug(stem)
	if key == "" {
		return nil
	}
	return idx.htmlSlugs[key]
}
