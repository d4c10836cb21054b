package query

import (
	"testing"
	"time"

	"github.com/whatson-app/whatson-cli/internal/model"
)

func TestGroupByDay(t *testing.T) {
	tz := london(t)
	// Wednesday 11 June 2025.
	now := time.Date(2025, 6, 11, 12, 0, 0, 0, tz)

	evening := eventAt("evening", now.Add(7*time.Hour), time.Time{})
	matinee := eventAt("matinee", now.Add(2*time.Hour), time.Time{})
	thursday := eventAt("thursday", now.AddDate(0, 0, 1), time.Time{})
	saturday := eventAt("saturday", now.AddDate(0, 0, 3), time.Time{})
	broken := model.Event{ID: "broken", StartTime: "nope"}

	// Deliberately out of order: grouping must sort by start first.
	sections := GroupByDay([]model.Event{saturday, evening, broken, thursday, matinee}, tz, now)

	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}

	if sections[0].Title != "Today" || sections[0].ID != "2025-06-11" {
		t.Fatalf("first section = %q (%s)", sections[0].Title, sections[0].ID)
	}
	if ids(sections[0].Events) != "matinee,evening" {
		t.Fatalf("today events out of order: %s", ids(sections[0].Events))
	}

	if sections[1].Title != "Tomorrow" {
		t.Fatalf("second section = %q", sections[1].Title)
	}
	if ids(sections[1].Events) != "thursday" {
		t.Fatalf("tomorrow events: %s", ids(sections[1].Events))
	}

	if sections[2].Title != "Saturday, 14 June" {
		t.Fatalf("third section = %q", sections[2].Title)
	}
}

func TestGroupByDay_SkipsUnparseable(t *testing.T) {
	tz := london(t)
	now := time.Date(2025, 6, 11, 12, 0, 0, 0, tz)
	sections := GroupByDay([]model.Event{{ID: "broken", StartTime: "garbage"}}, tz, now)
	if len(sections) != 0 {
		t.Fatalf("expected no sections, got %d", len(sections))
	}
}

func TestGroupByDay_StableWithinDay(t *testing.T) {
	tz := london(t)
	now := time.Date(2025, 6, 11, 12, 0, 0, 0, tz)
	start := now.Add(5 * time.Hour)

	// Identical starts keep their input order.
	first := eventAt("first", start, time.Time{})
	second := eventAt("second", start, time.Time{})
	sections := GroupByDay([]model.Event{first, second}, tz, now)
	if len(sections) != 1 || ids(sections[0].Events) != "first,second" {
		t.Fatalf("stable order violated: %v", sections)
	}
}

func TestGroupByDay_TimezoneDayBoundary(t *testing.T) {
	// 23:30 UTC in summer London is 00:30 the next day; section assignment
	// must follow the town timezone, not UTC.
	tz := london(t)
	now := time.Date(2025, 6, 11, 12, 0, 0, 0, tz)
	late := eventAt("late", time.Date(2025, 6, 11, 23, 30, 0, 0, time.UTC), time.Time{})

	sections := GroupByDay([]model.Event{late}, tz, now)
	if len(sections) != 1 || sections[0].ID != "2025-06-12" {
		t.Fatalf("expected 2025-06-12 section, got %v", sections)
	}
	if sections[0].Title != "Tomorrow" {
		t.Fatalf("expected Tomorrow, got %q", sections[0].Title)
	}
}
