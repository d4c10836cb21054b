package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/whatson-app/whatson-cli/internal/helpers"
	"github.com/whatson-app/whatson-cli/internal/model"
)

var zoneValidate = validator.New()

// rawZone is one undecoded directory record. Records are decoded one by one
// so a single malformed entry drops that entry, not the whole directory.
type rawZone struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	Slug              string  `json:"slug"`
	CountryCode       string  `json:"countryCode"`
	ActiveUsers       int     `json:"activeUsers"`
	WeeklyEventsCount int     `json:"weeklyEventsCount"`
	Latitude          float64 `json:"lat"`
	Longitude         float64 `json:"lng"`
	Hidden            bool    `json:"hidden"`
	Active            *bool   `json:"active"`
}

// FetchActiveZones retrieves the active town directory. It tries the
// canonical endpoint first, then the legacy path, using the first 2xx
// response; when every candidate fails the error carries the last HTTP
// status or the network failure.
//
// The canonical endpoint's active/hidden flags are trusted as-is; there is
// deliberately no includeHidden variant in this client.
func FetchActiveZones(ctx context.Context, apiBase string) ([]model.Zone, error) {
	base, err := NormalizeBaseURL(apiBase)
	if err != nil {
		return nil, err
	}

	candidates := []struct {
		label    string
		endpoint string
	}{
		{"locations.list", base + ZonesPath},
		{"locations.list.legacy", base + ZonesLegacyPath},
	}

	var lastErr error
	for _, c := range candidates {
		endpoint := c.endpoint
		do, err := retryDo(ctx, c.label, func() (*http.Request, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Add("User-Agent", UserAgent)
			return req, nil
		})
		if err != nil {
			lastErr = fmt.Errorf("%w: %s: %w", model.ErrNoZoneEndpoint, endpoint, err)
			continue
		}
		if do.StatusCode < 200 || do.StatusCode > 299 {
			do.Body.Close()
			lastErr = fmt.Errorf("%w: %s returned %s", model.ErrNoZoneEndpoint, endpoint, do.Status)
			continue
		}

		var rawRecords []json.RawMessage
		err = json.NewDecoder(do.Body).Decode(&rawRecords)
		do.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: %s: malformed payload: %w", model.ErrNoZoneEndpoint, endpoint, err)
			continue
		}
		return normalizeZones(rawRecords), nil
	}
	return nil, lastErr
}

// normalizeZones validates and dedupes raw directory records. Invalid,
// hidden, and inactive records are dropped silently; duplicate slugs keep
// the first occurrence.
func normalizeZones(rawRecords []json.RawMessage) []model.Zone {
	zones := make([]model.Zone, 0, len(rawRecords))
	seen := make(map[string]struct{})

	for _, raw := range rawRecords {
		var rec rawZone
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		if rec.Hidden || (rec.Active != nil && !*rec.Active) {
			continue
		}
		slug := rec.Slug
		if slug == "" {
			slug = rec.Name
		}
		zone := model.Zone{
			ID:                rec.ID,
			Name:              rec.Name,
			Slug:              helpers.SanitizeSlug(slug),
			CountryCode:       rec.CountryCode,
			ActiveUsers:       rec.ActiveUsers,
			WeeklyEventsCount: rec.WeeklyEventsCount,
			Latitude:          rec.Latitude,
			Longitude:         rec.Longitude,
		}
		if err := zoneValidate.Struct(zone); err != nil {
			continue
		}
		if _, dup := seen[zone.Slug]; dup {
			continue
		}
		seen[zone.Slug] = struct{}{}
		zones = append(zones, zone)
	}
	return zones
}
