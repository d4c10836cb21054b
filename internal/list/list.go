package list

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/whatson-app/whatson-cli/internal/api"
	"github.com/whatson-app/whatson-cli/internal/cache"
	"github.com/whatson-app/whatson-cli/internal/model"
	"github.com/whatson-app/whatson-cli/internal/query"
	"github.com/whatson-app/whatson-cli/internal/ui"
)

// Deps holds the external calls this package makes, injectable for tests.
type Deps struct {
	FetchZones func(ctx context.Context, apiBase string) ([]model.Zone, error)
	ReadCache  func() ([]model.Zone, error)
	WriteCache func(zones []model.Zone, endpoint string) error
}

// DefaultDeps wires the real network and cache calls.
func DefaultDeps() *Deps {
	return &Deps{
		FetchZones: api.FetchActiveZones,
		ReadCache:  cache.ReadZones,
		WriteCache: cache.WriteZones,
	}
}

var activityFilterRegex = regexp.MustCompile(`^(>=|<=|>|<|=)\s*(\d+)$`)

// ParseActivityFilter parses a filter expression like ">100" into operator
// and value, filtering towns by weekly event count.
func ParseActivityFilter(filter string) (string, int, error) {
	matches := activityFilterRegex.FindStringSubmatch(filter)
	if matches == nil {
		return "", 0, fmt.Errorf("invalid filter format: %s (expected: >N, <N, >=N, <=N, or =N)", filter)
	}
	value, err := strconv.Atoi(matches[2])
	if err != nil {
		return "", 0, fmt.Errorf("invalid number in filter: %s", matches[2])
	}
	return matches[1], value, nil
}

// ApplyActivityFilter filters zones by weekly event count.
func ApplyActivityFilter(zones []model.Zone, operator string, value int) []model.Zone {
	var filtered []model.Zone
	for _, zone := range zones {
		include := false
		switch operator {
		case ">":
			include = zone.WeeklyEventsCount > value
		case "<":
			include = zone.WeeklyEventsCount < value
		case ">=":
			include = zone.WeeklyEventsCount >= value
		case "<=":
			include = zone.WeeklyEventsCount <= value
		case "=":
			include = zone.WeeklyEventsCount == value
		}
		if include {
			filtered = append(filtered, zone)
		}
	}
	return filtered
}

// ListTowns fetches and displays the active town directory. A successful
// fetch refreshes the on-disk cache; on failure the cached copy is shown
// with a warning so the command still works offline.
func ListTowns(ctx context.Context, apiBase, jsonLevel, activityFilter string, deps *Deps) error {
	if deps == nil {
		deps = DefaultDeps()
	}
	if jsonLevel == "" {
		ui.PrintInfo("Fetching town directory...")
	}

	zones, err := deps.FetchZones(ctx, apiBase)
	if err != nil {
		cached, cacheErr := deps.ReadCache()
		if cacheErr != nil || cached == nil {
			ui.PrintError("Failed to fetch town directory")
			return err
		}
		if jsonLevel == "" {
			ui.PrintWarning(fmt.Sprintf("Directory fetch failed (%v), showing cached copy", err))
		}
		zones = cached
	} else if deps.WriteCache != nil {
		if cacheErr := deps.WriteCache(zones, apiBase); cacheErr != nil && jsonLevel == "" {
			ui.PrintWarning(fmt.Sprintf("Failed to cache town directory: %v", cacheErr))
		}
	}

	if activityFilter != "" {
		operator, value, err := ParseActivityFilter(activityFilter)
		if err != nil {
			return err
		}
		zones = ApplyActivityFilter(zones, operator, value)
	}

	sort.Slice(zones, func(i, j int) bool {
		return zones[i].Slug < zones[j].Slug
	})

	if jsonLevel != "" {
		data, err := json.MarshalIndent(map[string]any{
			"towns": zones,
			"total": len(zones),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal towns: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	ui.PrintHeader("Towns")
	table := ui.NewTable([]ui.TableColumn{
		{Header: "Slug", Width: 22, Align: "left"},
		{Header: "Name", Width: 24, Align: "left"},
		{Header: "Country", Width: 7, Align: "center"},
		{Header: "Users", Width: 9, Align: "right"},
		{Header: "Events/wk", Width: 9, Align: "right"},
	})
	for _, zone := range zones {
		table.AddRow(
			zone.Slug,
			zone.Name,
			zone.CountryCode,
			humanize.Comma(int64(zone.ActiveUsers)),
			humanize.Comma(int64(zone.WeeklyEventsCount)),
		)
	}
	table.Print()
	fmt.Printf("\nTotal: %s towns\n", humanize.Comma(int64(len(zones))))
	return nil
}

// RenderResult prints one query result: the answer line, then day sections
// with time, title, venue, tag chips, and live/starting-soon badges.
func RenderResult(res query.Result, tz *time.Location, now time.Time) {
	if res.Answer != "" {
		fmt.Printf("\n%s\n", res.Answer)
	}

	total := 0
	for _, section := range res.Sections {
		total += len(section.Events)
	}
	if total == 0 {
		ui.PrintInfo(fmt.Sprintf("No events match %q (%s)", res.Query, res.Window.Label()))
		return
	}

	for _, section := range res.Sections {
		ui.PrintSection(section.Title)
		for _, e := range section.Events {
			fmt.Println(formatEventLine(e, tz, now))
		}
	}

	if len(res.Suggestions) > 0 {
		fmt.Println()
		ui.PrintInfo("Try also:")
		ui.PrintList(res.Suggestions, ui.ColorPurple)
	}
}

// formatEventLine renders one event row.
func formatEventLine(e model.Event, tz *time.Location, now time.Time) string {
	start, _, ok := query.EventSpan(e, tz)
	clock := "--:--"
	if ok {
		clock = start.In(tz).Format("15:04")
	}

	line := fmt.Sprintf("  %s%s%s  %s%s%s", ui.ColorCyan, clock, ui.ColorReset, ui.ColorBold, e.Title, ui.ColorReset)
	if e.VenueName != "" {
		line += fmt.Sprintf(" %s@ %s%s", ui.ColorBlue, e.VenueName, ui.ColorReset)
	}

	if tag := query.RelativeStartTag(e, tz, now); tag != "" {
		color := ui.ColorYellow
		if tag == "NOW" {
			color = ui.ColorGreen
			tag = ui.SymbolLive + " LIVE"
		}
		line += fmt.Sprintf("  %s[%s]%s", color, tag, ui.ColorReset)
	}

	parts := query.SplitTags(e.Tags)
	var chips []string
	chips = append(chips, parts.Categories...)
	if parts.Price != "" {
		chips = append(chips, parts.Price)
	}
	if parts.Frequency != "" {
		chips = append(chips, parts.Frequency)
	}
	if len(chips) > 0 {
		line += "  " + ui.ColorPurple
		for i, chip := range chips {
			if i > 0 {
				line += " "
			}
			line += "#" + chip
		}
		line += ui.ColorReset
	}
	return line
}

// DescribeCacheAge returns a humanized freshness line for the zone cache.
func DescribeCacheAge(meta *cache.ZonesMeta) string {
	if meta == nil {
		return "no cached town directory"
	}
	return fmt.Sprintf("town directory cached %s (%s towns)",
		humanize.Time(meta.LastFetched), humanize.Comma(int64(meta.TotalZones)))
}
