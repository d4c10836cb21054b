package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/whatson-app/whatson-cli/internal/model"
)

// IPAPIEndpoint is the external IP geolocation provider. Overridable for tests.
var IPAPIEndpoint = "https://ipapi.co/json/"

// GeoTimeout bounds every geolocation-related call. The IP service is
// outside our control and nothing user-facing may block on it indefinitely.
const GeoTimeout = 2 * time.Second

// geoClient makes one-shot calls with a short timeout; geolocation steps
// never retry, a miss just advances the resolution cascade.
var geoClient = &http.Client{Timeout: GeoTimeout}

// IPLocation is the IP geolocation provider's payload. The provider has
// shipped both latitude/longitude and lat/lon spellings, so both are kept.
type IPLocation struct {
	Latitude    *float64 `json:"latitude"`
	Lat         *float64 `json:"lat"`
	Longitude   *float64 `json:"longitude"`
	Lon         *float64 `json:"lon"`
	CountryCode string   `json:"country_code"`
}

// Coords returns the usable coordinate pair, preferring the long spellings.
func (l *IPLocation) Coords() (lat, lng float64, ok bool) {
	switch {
	case l.Latitude != nil && l.Longitude != nil:
		return *l.Latitude, *l.Longitude, true
	case l.Lat != nil && l.Lon != nil:
		return *l.Lat, *l.Lon, true
	default:
		return 0, 0, false
	}
}

// LookupIPLocation asks the IP geolocation provider where this client is.
func LookupIPLocation(ctx context.Context) (*IPLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, GeoTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, IPAPIEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("User-Agent", UserAgent)

	start := time.Now()
	resp, err := geoClient.Do(req)
	if err != nil {
		logRequest("geo.ip", 0, time.Since(start), 0, "closed", err)
		return nil, fmt.Errorf("IP geolocation failed: %w", err)
	}
	defer resp.Body.Close()
	logRequest("geo.ip", resp.StatusCode, time.Since(start), 0, "closed", nil)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("IP geolocation failed: %s", resp.Status)
	}

	var loc IPLocation
	if err = json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return nil, fmt.Errorf("IP geolocation payload: %w", err)
	}
	if _, _, ok := loc.Coords(); !ok {
		return nil, model.ErrNoLocation
	}
	return &loc, nil
}

// MatchZone reverse-geocodes coordinates to a zone via the backend.
// Returns ErrNoZoneMatch when the backend knows no zone for the location.
func MatchZone(ctx context.Context, apiBase string, lat, lng float64) (slug, name string, err error) {
	base, err := NormalizeBaseURL(apiBase)
	if err != nil {
		return "", "", err
	}
	ctx, cancel := context.WithTimeout(ctx, GeoTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	endpoint := base + MatchZonePath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Add("User-Agent", UserAgent)

	start := time.Now()
	resp, err := geoClient.Do(req)
	if err != nil {
		logRequest("places.match-zone", 0, time.Since(start), 0, "closed", err)
		return "", "", fmt.Errorf("reverse geocode at %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()
	logRequest("places.match-zone", resp.StatusCode, time.Since(start), 0, "closed", nil)
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("reverse geocode failed: %s", resp.Status)
	}

	var obj struct {
		Zone *struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		} `json:"zone"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&obj); err != nil {
		return "", "", fmt.Errorf("reverse geocode payload: %w", err)
	}
	if obj.Zone == nil || obj.Zone.Slug == "" {
		return "", "", model.ErrNoZoneMatch
	}
	return obj.Zone.Slug, obj.Zone.Name, nil
}
