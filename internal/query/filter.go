package query

import (
	"strconv"
	"time"

	"github.com/whatson-app/whatson-cli/internal/model"
)

// DefaultEventDuration backs the "is live" computation when an event has no
// usable end time.
const DefaultEventDuration = 2 * time.Hour

// relativeTagHorizon caps how far ahead "in Nm" badges are shown.
const relativeTagHorizon = 180 * time.Minute

// startTimeLayouts are tried in order when parsing event instants.
var startTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseEventTime parses an ISO-8601-ish instant string. Layouts without an
// offset are interpreted in tz (the event's town timezone).
func ParseEventTime(raw string, tz *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if tz == nil {
		tz = time.UTC
	}
	for _, layout := range startTimeLayouts[1:] {
		if t, err := time.ParseInLocation(layout, raw, tz); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// EventSpan returns the event's start and effective end instant.
// The end defaults to start + 2h when endTime is absent or not after start.
// ok is false when the start does not parse; such events take part in no
// time-based view.
func EventSpan(e model.Event, tz *time.Location) (start, end time.Time, ok bool) {
	start, ok = ParseEventTime(e.StartTime, tz)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, endOK := ParseEventTime(e.EndTime, tz)
	if !endOK || !end.After(start) {
		end = start.Add(DefaultEventDuration)
	}
	return start, end, true
}

// IsLiveNow reports whether now falls within [start, end).
func IsLiveNow(e model.Event, tz *time.Location, now time.Time) bool {
	start, end, ok := EventSpan(e, tz)
	if !ok {
		return false
	}
	return !now.Before(start) && now.Before(end)
}

// RelativeStartTag annotates an event with "NOW" when live, or "in Nm" when
// it starts within the next 3 hours (minutes rounded up). An event that
// already started and is not live yields "".
func RelativeStartTag(e model.Event, tz *time.Location, now time.Time) string {
	start, end, ok := EventSpan(e, tz)
	if !ok {
		return ""
	}
	if !now.Before(start) && now.Before(end) {
		return "NOW"
	}
	until := start.Sub(now)
	if until <= 0 || until > relativeTagHorizon {
		return ""
	}
	minutes := int((until + time.Minute - 1) / time.Minute)
	return "in " + strconv.Itoa(minutes) + "m"
}

// DateKey formats an instant as YYYY-MM-DD in the target timezone. All
// calendar-day comparisons go through this, never raw UTC day boundaries.
func DateKey(t time.Time, tz *time.Location) string {
	if tz == nil {
		tz = time.UTC
	}
	return t.In(tz).Format("2006-01-02")
}

// dayWindowLength returns how many consecutive calendar days (starting today)
// a date-bucketed window spans, or 0 when the window is not date-bucketed.
func dayWindowLength(w model.TimeWindow, now time.Time, tz *time.Location) int {
	switch w {
	case model.TimeWindowToday:
		return 1
	case model.TimeWindowTodayTomorrow:
		return 2
	case model.TimeWindowNext3Days:
		return 3
	case model.TimeWindowNext7Days:
		return 7
	case model.TimeWindowThisWeek:
		// Through the coming Sunday inclusive: Monday=7 days, Sunday=1.
		weekday := int(now.In(tz).Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return 8 - weekday
	default:
		return 0
	}
}

// FilterByTimeWindow returns the events matching the given window, in input
// order. Events with an unparseable start are excluded under every window.
// Malformed input degrades to exclusion, never to a panic or error.
func FilterByTimeWindow(events []model.Event, tz *time.Location, w model.TimeWindow, now time.Time) []model.Event {
	if tz == nil {
		tz = time.UTC
	}
	filtered := make([]model.Event, 0, len(events))

	var allowedDays map[string]struct{}
	if days := dayWindowLength(w, now, tz); days > 0 {
		allowedDays = make(map[string]struct{}, days)
		day := now.In(tz)
		for i := 0; i < days; i++ {
			allowedDays[DateKey(day, tz)] = struct{}{}
			day = day.AddDate(0, 0, 1)
		}
	}

	for _, e := range events {
		start, end, ok := EventSpan(e, tz)
		if !ok {
			continue
		}
		switch w {
		case model.TimeWindowNow:
			if !now.Before(start) && now.Before(end) {
				filtered = append(filtered, e)
			}
		case model.TimeWindowAllUpcoming, model.TimeWindowUnknown:
			// Not yet concluded, which includes events already in progress.
			if end.After(now) {
				filtered = append(filtered, e)
			}
		default:
			if !end.After(now) {
				continue
			}
			if _, ok := allowedDays[DateKey(start, tz)]; ok {
				filtered = append(filtered, e)
			}
		}
	}
	return filtered
}
