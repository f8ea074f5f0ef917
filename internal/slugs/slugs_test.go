package slugs

import "testing"

func TestComponentSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"About Us", "about-us"},
		{"about_us", "about-us"},
		{"UPPER CASE", "upper-case"},
		{"contact-page", "contact-page"},
		{"Special: Characters!", "special-characters"},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ComponentSlug(tt.in); got != tt.want {
				t.Fatalf("ComponentSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSameSlug(t *testing.T) {
	if !SameSlug("About_Us", "about-us") {
		t.Fatalf("expected About_Us and about-us to share a slug")
	}
	if SameSlug("about", "contact") {
		t.Fatalf("expected different slugs")
	}
	if SameSlug("", "") {
		t.Fatalf("empty values never match")
	}
}
