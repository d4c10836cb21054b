package query

import (
	"reflect"
	"testing"
)

func TestSplitTags_ExtractsFrequencyAndPrice(t *testing.T) {
	parts := SplitTags([]string{"Free", "Weekly", "Music", "Free"})

	if parts.Frequency != "Weekly" {
		t.Fatalf("expected frequency Weekly, got %q", parts.Frequency)
	}
	if parts.Price != "Free" {
		t.Fatalf("expected price Free, got %q", parts.Price)
	}
	if !reflect.DeepEqual(parts.Categories, []string{"Music"}) {
		t.Fatalf("expected categories [Music], got %v", parts.Categories)
	}
}

func TestSplitTags_FirstMatchWins(t *testing.T) {
	parts := SplitTags([]string{"Weekly", "Monthly", "Paid", "Free"})

	if parts.Frequency != "Weekly" {
		t.Fatalf("expected first frequency tag to win, got %q", parts.Frequency)
	}
	if parts.Price != "Paid" {
		t.Fatalf("expected first price tag to win, got %q", parts.Price)
	}
	if len(parts.Categories) != 0 {
		t.Fatalf("expected no categories, got %v", parts.Categories)
	}
}

func TestSplitTags_CategoriesDedupedCaseInsensitively(t *testing.T) {
	parts := SplitTags([]string{"Music", "music", "MUSIC", "Jazz"})

	if !reflect.DeepEqual(parts.Categories, []string{"Music", "Jazz"}) {
		t.Fatalf("expected first-seen casing and order preserved, got %v", parts.Categories)
	}
}

func TestSplitTags_NormalizesBeforeClassifying(t *testing.T) {
	parts := SplitTags([]string{"  FORTNIGHTLY ", " ticketed", "Art "})

	if parts.Frequency != "Fortnightly" {
		t.Fatalf("expected Fortnightly, got %q", parts.Frequency)
	}
	if parts.Price != "Paid" {
		t.Fatalf("expected Paid for ticketed, got %q", parts.Price)
	}
	if !reflect.DeepEqual(parts.Categories, []string{"Art"}) {
		t.Fatalf("expected trimmed category Art, got %v", parts.Categories)
	}
}

func TestSplitTags_EmptyInput(t *testing.T) {
	for _, tags := range [][]string{nil, {}, {"", "  "}} {
		parts := SplitTags(tags)
		if len(parts.Categories) != 0 || parts.Frequency != "" || parts.Price != "" {
			t.Fatalf("expected zero-value parts for %v, got %+v", tags, parts)
		}
	}
}
