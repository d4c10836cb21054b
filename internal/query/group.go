package query

import (
	"sort"
	"time"

	"github.com/whatson-app/whatson-cli/internal/model"
)

// GroupByDay buckets events into per-calendar-day sections in the target
// timezone. Events are sorted ascending by start instant first (unparseable
// starts sort last, stably); events whose start cannot be parsed are skipped
// entirely since they cannot be keyed to a day. Sections come out in
// first-appearance order, which is chronological after the sort.
func GroupByDay(events []model.Event, tz *time.Location, now time.Time) []model.DaySection {
	if tz == nil {
		tz = time.UTC
	}

	type keyed struct {
		event model.Event
		start time.Time
		ok    bool
	}
	items := make([]keyed, 0, len(events))
	for _, e := range events {
		start, ok := ParseEventTime(e.StartTime, tz)
		items = append(items, keyed{event: e, start: start, ok: ok})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].ok != items[j].ok {
			return items[i].ok
		}
		if !items[i].ok {
			return false
		}
		return items[i].start.Before(items[j].start)
	})

	todayKey := DateKey(now, tz)
	tomorrowKey := DateKey(now.In(tz).AddDate(0, 0, 1), tz)

	var sections []model.DaySection
	index := make(map[string]int)
	for _, item := range items {
		if !item.ok {
			continue
		}
		key := DateKey(item.start, tz)
		i, ok := index[key]
		if !ok {
			sections = append(sections, model.DaySection{
				ID:    key,
				Title: dayTitle(key, todayKey, tomorrowKey, item.start, tz),
			})
			i = len(sections) - 1
			index[key] = i
		}
		sections[i].Events = append(sections[i].Events, item.event)
	}
	return sections
}

// dayTitle labels a section "Today", "Tomorrow", or "{Weekday}, {Day} {Month}".
func dayTitle(key, todayKey, tomorrowKey string, start time.Time, tz *time.Location) string {
	switch key {
	case todayKey:
		return "Today"
	case tomorrowKey:
		return "Tomorrow"
	default:
		return start.In(tz).Format("Monday, 2 January")
	}
}
