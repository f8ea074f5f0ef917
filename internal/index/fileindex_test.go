package index

import (
	"reflect"
	"testing"
)

func TestNewBuildsLookupMaps(t *testing.T) {
	idx := New([]string{
		"./js/app.js",
		"frontend/js/App.js",
		"frontend/pages/About_Us.html",
		"img/logo.png",
		"js/app.js",
	})

	if idx.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", idx.Len())
	}
	if !idx.Has("js/app.js") || idx.Has("./js/app.js") {
		t.Fatalf("Has() did not normalize paths")
	}
	if got, want := idx.ByBasename("APP.JS"), []string{"frontend/js/App.js", "js/app.js"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ByBasename() = %#v, want %#v", got, want)
	}
	if got, want := idx.ByStem("logo"), []string{"img/logo.png"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ByStem() = %#v, want %#v", got, want)
	}
	if got, want := idx.Assets(), []string{"frontend/js/App.js", "js/app.js"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Assets() = %#v, want %#v", got, want)
	}
	if got := idx.AssetsByBasename("logo.png"); len(got) != 0 {
		t.Fatalf("AssetsByBasename(logo.png) = %#v, want none", got)
	}
	if got, want := idx.HTMLBySlug("about-us"), []string{"frontend/pages/About_Us.html"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("HTMLBySlug() = %#v, want %#v", got, want)
	}
}

func TestAllIsSorted(t *testing.T) {
	idx := New([]string{"b.html", "a.html", "c/a.html"})
	want := []string{"a.html", "b.html", "c/a.html"}
	if got := idx.All(); !reflect.DeepEqual(got, want) {
		t.Fatalf("All() = %#v, want %#v", got, want)
	}
}
