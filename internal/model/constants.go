package model

import "strings"

// JSON output levels
const (
	JSONLevelMinimal  = "minimal"
	JSONLevelStandard = "standard"
)

// DefaultQuery is sent when the user's input collapses to nothing.
const DefaultQuery = "what's on this week"

// FallbackTownSlug is the last resort of town resolution.
const FallbackTownSlug = "kentish-town"

// DefaultTimezone is used when the backend omits a town timezone.
const DefaultTimezone = "Europe/London"

// TimeWindow is the canonical time filter inferred from or selected for a query.
type TimeWindow int

const (
	TimeWindowUnknown TimeWindow = iota
	TimeWindowNow
	TimeWindowAllUpcoming
	TimeWindowToday
	TimeWindowTodayTomorrow
	TimeWindowNext3Days
	TimeWindowNext7Days
	TimeWindowThisWeek
)

// String returns the wire/CLI spelling of the TimeWindow.
func (w TimeWindow) String() string {
	switch w {
	case TimeWindowNow:
		return "now"
	case TimeWindowAllUpcoming:
		return "all"
	case TimeWindowToday:
		return "today"
	case TimeWindowTodayTomorrow:
		return "today-tomorrow"
	case TimeWindowNext3Days:
		return "next-3-days"
	case TimeWindowNext7Days:
		return "next-7-days"
	case TimeWindowThisWeek:
		return "this-week"
	default:
		return "unknown"
	}
}

// Label returns the human-readable name shown in the UI.
func (w TimeWindow) Label() string {
	switch w {
	case TimeWindowNow:
		return "Happening now"
	case TimeWindowAllUpcoming:
		return "All upcoming"
	case TimeWindowToday:
		return "Today"
	case TimeWindowTodayTomorrow:
		return "Today & tomorrow"
	case TimeWindowNext3Days:
		return "Next 3 days"
	case TimeWindowNext7Days:
		return "Next 7 days"
	case TimeWindowThisWeek:
		return "This week"
	default:
		return "Any time"
	}
}

// HintPhrase is appended to a query that carries no time intent of its own,
// so the backend sees the window the user selected in the UI.
func (w TimeWindow) HintPhrase() string {
	switch w {
	case TimeWindowNow:
		return "happening now"
	case TimeWindowToday:
		return "today"
	case TimeWindowTodayTomorrow:
		return "today or tomorrow"
	case TimeWindowNext3Days:
		return "in the next 3 days"
	case TimeWindowNext7Days:
		return "in the next 7 days"
	case TimeWindowThisWeek:
		return "this week"
	default:
		return ""
	}
}

// ParseTimeWindow converts a CLI spelling to a TimeWindow.
func ParseTimeWindow(s string) TimeWindow {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "now":
		return TimeWindowNow
	case "all", "upcoming", "all-upcoming":
		return TimeWindowAllUpcoming
	case "today":
		return TimeWindowToday
	case "today-tomorrow", "tomorrow":
		return TimeWindowTodayTomorrow
	case "next-3-days", "weekend":
		return TimeWindowNext3Days
	case "next-7-days", "next-week":
		return TimeWindowNext7Days
	case "this-week", "week":
		return TimeWindowThisWeek
	default:
		return TimeWindowUnknown
	}
}
