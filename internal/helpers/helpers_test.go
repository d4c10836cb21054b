package helpers

import "testing"

func TestSanitizeSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Kentish Town!!", "kentish-town"},
		{"  ", ""},
		{"SoHo", "soho"},
		{"St. John's  Wood", "st-johns-wood"},
		{"--already--hyphened--", "already-hyphened"},
		{"Crouch End / N8", "crouch-end-n8"},
		{"漢字", ""},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			if got := SanitizeSlug(c.in); got != c.want {
				t.Fatalf("SanitizeSlug(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	if got := TitleCase("kentish-town"); got != "Kentish Town" {
		t.Fatalf("expected Kentish Town, got %q", got)
	}
	if got := TitleCase("soho"); got != "Soho" {
		t.Fatalf("expected Soho, got %q", got)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := CollapseWhitespace("  live   music\ttonight "); got != "live music tonight" {
		t.Fatalf("unexpected collapse result %q", got)
	}
	if got := CollapseWhitespace("   "); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestContains(t *testing.T) {
	lines := []string{"Music", "Food"}
	if !Contains(lines, "music") {
		t.Fatal("expected case-insensitive match")
	}
	if Contains(lines, "comedy") {
		t.Fatal("unexpected match")
	}
}
