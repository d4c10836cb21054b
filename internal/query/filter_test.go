package query

import (
	"fmt"
	"testing"
	"time"

	"github.com/whatson-app/whatson-cli/internal/model"
)

func london(t *testing.T) *time.Location {
	t.Helper()
	tz, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("load Europe/London: %v", err)
	}
	return tz
}

func eventAt(id string, start, end time.Time) model.Event {
	e := model.Event{ID: id, Title: id, StartTime: start.Format(time.RFC3339)}
	if !end.IsZero() {
		e.EndTime = end.Format(time.RFC3339)
	}
	return e
}

func TestEventSpan_DefaultDuration(t *testing.T) {
	tz := london(t)
	start := time.Date(2025, 6, 11, 19, 0, 0, 0, tz)

	cases := []struct {
		name string
		end  string
	}{
		{"missing end", ""},
		{"end equals start", start.Format(time.RFC3339)},
		{"end before start", start.Add(-time.Hour).Format(time.RFC3339)},
		{"unparseable end", "not-a-date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := model.Event{StartTime: start.Format(time.RFC3339), EndTime: tc.end}
			_, end, ok := EventSpan(e, tz)
			if !ok {
				t.Fatal("expected parseable span")
			}
			if !end.Equal(start.Add(2 * time.Hour)) {
				t.Fatalf("expected start+2h, got %v", end)
			}
		})
	}
}

func TestIsLiveNow(t *testing.T) {
	tz := london(t)
	start := time.Date(2025, 6, 11, 19, 0, 0, 0, tz)
	e := eventAt("gig", start, start.Add(time.Hour))

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"before start", start.Add(-time.Minute), false},
		{"at start", start, true},
		{"mid event", start.Add(30 * time.Minute), true},
		{"at end", start.Add(time.Hour), false},
		{"after end", start.Add(2 * time.Hour), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsLiveNow(e, tz, tc.now); got != tc.want {
				t.Fatalf("IsLiveNow at %v = %v, want %v", tc.now, got, tc.want)
			}
		})
	}

	if IsLiveNow(model.Event{StartTime: "garbage"}, tz, start) {
		t.Fatal("unparseable start must never be live")
	}
}

func TestRelativeStartTag(t *testing.T) {
	tz := london(t)
	start := time.Date(2025, 6, 11, 19, 0, 0, 0, tz)
	e := eventAt("gig", start, start.Add(time.Hour))

	cases := []struct {
		name string
		now  time.Time
		want string
	}{
		{"live", start.Add(10 * time.Minute), "NOW"},
		{"five minutes out", start.Add(-5 * time.Minute), "in 5m"},
		{"rounds up", start.Add(-4*time.Minute - 30*time.Second), "in 5m"},
		{"exactly 180m", start.Add(-180 * time.Minute), "in 180m"},
		{"beyond horizon", start.Add(-181 * time.Minute), ""},
		{"already over", start.Add(2 * time.Hour), ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RelativeStartTag(e, tz, tc.now); got != tc.want {
				t.Fatalf("RelativeStartTag at %v = %q, want %q", tc.now, got, tc.want)
			}
		})
	}
}

func TestFilterByTimeWindow_NowAndUpcoming(t *testing.T) {
	tz := london(t)
	now := time.Date(2025, 6, 11, 20, 0, 0, 0, tz)

	live := eventAt("live", now.Add(-time.Hour), now.Add(time.Hour))
	over := eventAt("over", now.Add(-3*time.Hour), now.Add(-time.Hour))
	later := eventAt("later", now.Add(2*time.Hour), time.Time{})
	// Started 90m ago with no end: default 2h duration means still running.
	running := eventAt("running", now.Add(-90*time.Minute), time.Time{})
	broken := model.Event{ID: "broken", StartTime: "not-a-date"}

	events := []model.Event{live, over, later, running, broken}

	got := FilterByTimeWindow(events, tz, model.TimeWindowNow, now)
	if ids(got) != "live,running" {
		t.Fatalf("now window: got %s", ids(got))
	}

	got = FilterByTimeWindow(events, tz, model.TimeWindowAllUpcoming, now)
	if ids(got) != "live,later,running" {
		t.Fatalf("all_upcoming window: got %s", ids(got))
	}
}

func TestFilterByTimeWindow_DateBuckets(t *testing.T) {
	tz := london(t)
	// A Wednesday evening.
	now := time.Date(2025, 6, 11, 18, 0, 0, 0, tz)

	tonight := eventAt("tonight", now.Add(2*time.Hour), time.Time{})
	tomorrow := eventAt("tomorrow", now.AddDate(0, 0, 1), time.Time{})
	saturday := eventAt("saturday", now.AddDate(0, 0, 3), time.Time{})
	sunday := eventAt("sunday", now.AddDate(0, 0, 4), time.Time{})
	nextMonday := eventAt("next-monday", now.AddDate(0, 0, 5), time.Time{})
	events := []model.Event{tonight, tomorrow, saturday, sunday, nextMonday}

	cases := []struct {
		window model.TimeWindow
		want   string
	}{
		{model.TimeWindowToday, "tonight"},
		{model.TimeWindowTodayTomorrow, "tonight,tomorrow"},
		{model.TimeWindowNext3Days, "tonight,tomorrow"},
		{model.TimeWindowNext7Days, "tonight,tomorrow,saturday,sunday,next-monday"},
		// Wednesday through Sunday inclusive, never past Sunday.
		{model.TimeWindowThisWeek, "tonight,tomorrow,saturday,sunday"},
	}
	for _, tc := range cases {
		t.Run(tc.window.String(), func(t *testing.T) {
			got := FilterByTimeWindow(events, tz, tc.window, now)
			if ids(got) != tc.want {
				t.Fatalf("window %v: got %s, want %s", tc.window, ids(got), tc.want)
			}
		})
	}
}

func TestFilterByTimeWindow_ThisWeekAlwaysIncludesToday(t *testing.T) {
	tz := london(t)
	// A Sunday: this-week must still span exactly one day.
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, tz)
	today := eventAt("today", now.Add(4*time.Hour), time.Time{})
	monday := eventAt("monday", now.AddDate(0, 0, 1), time.Time{})

	got := FilterByTimeWindow([]model.Event{today, monday}, tz, model.TimeWindowThisWeek, now)
	if ids(got) != "today" {
		t.Fatalf("this_week on Sunday: got %s, want today", ids(got))
	}
}

func TestFilterByTimeWindow_TimezoneBoundaries(t *testing.T) {
	// 23:30 in London on June 11 is June 12 in Tokyo; the calendar date must
	// come from the target timezone, not UTC.
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load Asia/Tokyo: %v", err)
	}
	now := time.Date(2025, 6, 11, 23, 30, 0, 0, time.UTC)
	e := eventAt("late", now.Add(time.Hour), time.Time{})

	gotUTC := FilterByTimeWindow([]model.Event{e}, time.UTC, model.TimeWindowToday, now)
	if len(gotUTC) != 0 {
		t.Fatalf("event after UTC midnight must not be today in UTC, got %s", ids(gotUTC))
	}
	gotTokyo := FilterByTimeWindow([]model.Event{e}, tokyo, model.TimeWindowToday, now)
	if ids(gotTokyo) != "late" {
		t.Fatalf("event must be today in Tokyo, got %s", ids(gotTokyo))
	}
}

func TestFilterByTimeWindow_DropsUnparseableEverywhere(t *testing.T) {
	tz := london(t)
	now := time.Date(2025, 6, 11, 18, 0, 0, 0, tz)
	broken := model.Event{ID: "broken", StartTime: "2025-13-45T99:00:00Z"}

	windows := []model.TimeWindow{
		model.TimeWindowNow, model.TimeWindowAllUpcoming, model.TimeWindowToday,
		model.TimeWindowTodayTomorrow, model.TimeWindowNext3Days,
		model.TimeWindowNext7Days, model.TimeWindowThisWeek,
	}
	for _, w := range windows {
		if got := FilterByTimeWindow([]model.Event{broken}, tz, w, now); len(got) != 0 {
			t.Fatalf("window %v must exclude unparseable events", w)
		}
	}
}

func ids(events []model.Event) string {
	s := ""
	for i, e := range events {
		if i > 0 {
			s += ","
		}
		s += e.ID
	}
	return s
}

func TestParseEventTime_NaiveLayoutUsesTimezone(t *testing.T) {
	tz := london(t)
	got, ok := ParseEventTime("2025-06-11T19:00:00", tz)
	if !ok {
		t.Fatal("expected naive layout to parse")
	}
	want := time.Date(2025, 6, 11, 19, 0, 0, 0, tz)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func BenchmarkFilterByTimeWindow(b *testing.B) {
	tz, _ := time.LoadLocation("Europe/London")
	now := time.Date(2025, 6, 11, 18, 0, 0, 0, tz)
	events := make([]model.Event, 200)
	for i := range events {
		events[i] = eventAt(fmt.Sprintf("e%d", i), now.Add(time.Duration(i)*time.Hour), time.Time{})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FilterByTimeWindow(events, tz, model.TimeWindowThisWeek, now)
	}
}
