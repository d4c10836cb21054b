package model

// Config holds the user's configuration.
type Config struct {
	APIBase          string `json:"apiBase"`
	HomeTown         string `json:"homeTown,omitempty"`
	HomeTownID       int    `json:"homeTownID,omitempty"`
	Locale           string `json:"locale,omitempty"`
	Limit            int    `json:"limit,omitempty"`
	DebounceMs       int    `json:"debounceMs,omitempty"`
	FallbackTimezone string `json:"fallbackTimezone,omitempty"`

	// JSONLevel is resolved from CLI args, never persisted.
	JSONLevel string `json:"-"`
}

// ArgsDescriptionFunc is set by package main to provide colored help text.
// If nil, Description() returns an empty string (go-arg will use default help).
var ArgsDescriptionFunc func() string

// Args holds CLI arguments parsed by go-arg.
type Args struct {
	Words      []string `arg:"positional" help:"Free text query, or a command: towns, home, watch."`
	Town       string   `arg:"-t,--town" help:"Town slug to query, overriding the stored home town."`
	Limit      int      `arg:"-n,--limit" default:"-1" help:"Maximum number of events to request."`
	JSON       bool     `arg:"--json" help:"Emit JSON instead of formatted output."`
	NoDetect   bool     `arg:"--no-detect" help:"Skip IP-based town detection."`
	TimeWindow string   `arg:"-w,--window" help:"Explicit time window: now, all, today, today-tomorrow, next-3-days, next-7-days, this-week."`
}

// Description provides custom help text for go-arg.
func (Args) Description() string {
	if ArgsDescriptionFunc != nil {
		return ArgsDescriptionFunc()
	}
	return ""
}

// Zone is one active town from the directory endpoint.
// Latitude/Longitude back the nearest-zone search during town detection.
type Zone struct {
	ID                int     `json:"id" validate:"required,gt=0"`
	Name              string  `json:"name" validate:"required"`
	Slug              string  `json:"slug" validate:"required"`
	CountryCode       string  `json:"countryCode,omitempty"`
	ActiveUsers       int     `json:"activeUsers,omitempty"`
	WeeklyEventsCount int     `json:"weeklyEventsCount,omitempty"`
	Latitude          float64 `json:"lat,omitempty"`
	Longitude         float64 `json:"lng,omitempty"`
}

// Event is a single verified event as delivered by the backend.
// StartTime/EndTime stay raw strings; parsing happens at the filtering
// layer so a malformed date drops one event instead of one response.
type Event struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	StartTime string   `json:"startTime"`
	EndTime   string   `json:"endTime,omitempty"`
	VenueName string   `json:"venueName"`
	Tags      []string `json:"tags"`
	URL       string   `json:"url"`
}

// TagParts is the structured view of an event's raw tag list.
type TagParts struct {
	Categories []string `json:"categories"`
	Frequency  string   `json:"frequency,omitempty"`
	Price      string   `json:"price,omitempty"`
}

// TownContext is the result of town resolution for the current run.
type TownContext struct {
	Slug   string `json:"slug"`
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Town resolution sources, in cascade order.
const (
	SourceArgument   = "argument"
	SourcePreference = "preference"
	SourceDetected   = "detected"
	SourceFallback   = "fallback"
)

// DaySection is one calendar day of events for presentation.
type DaySection struct {
	ID     string  `json:"id"` // YYYY-MM-DD in the target timezone
	Title  string  `json:"title"`
	Events []Event `json:"events"`
}

// QueryRequest is the body for the backend event-query endpoint.
type QueryRequest struct {
	Query        string   `json:"query"`
	TownSlug     string   `json:"townSlug"`
	Locale       string   `json:"locale"`
	Limit        int      `json:"limit,omitempty"`
	Conversation []string `json:"conversation,omitempty"`
}

// QueryTown is the town metadata echoed back by the query endpoint.
type QueryTown struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Timezone    string `json:"timezone"`
	CountryCode string `json:"countryCode,omitempty"`
}

// QueryResponse is the backend's answer to one event query.
type QueryResponse struct {
	Answer      string    `json:"answer"`
	Events      []Event   `json:"events"`
	Town        QueryTown `json:"town"`
	Suggestions []string  `json:"suggestions"`
}
