// Package town resolves which town's events to query. Resolution is a
// strictly ordered cascade — argument, stored preference, IP detection,
// hardcoded fallback — and always terminates with a value, never an error.
package town

import (
	"context"
	"math"
	"strings"

	"github.com/whatson-app/whatson-cli/internal/api"
	"github.com/whatson-app/whatson-cli/internal/helpers"
	"github.com/whatson-app/whatson-cli/internal/model"
)

// earthRadiusKm is the great-circle Earth radius used by the haversine formula.
const earthRadiusKm = 6371.0

// Deps holds the external calls a Resolver makes, injectable for tests.
type Deps struct {
	LookupIP   func(ctx context.Context) (*api.IPLocation, error)
	MatchZone  func(ctx context.Context, apiBase string, lat, lng float64) (slug, name string, err error)
	FetchZones func(ctx context.Context, apiBase string) ([]model.Zone, error)
}

// Resolver runs the town resolution cascade against one API base URL.
type Resolver struct {
	APIBase string
	Deps    Deps
}

// NewResolver wires a Resolver to the real network calls.
func NewResolver(apiBase string) *Resolver {
	return &Resolver{
		APIBase: apiBase,
		Deps: Deps{
			LookupIP:   api.LookupIPLocation,
			MatchZone:  api.MatchZone,
			FetchZones: api.FetchActiveZones,
		},
	}
}

// step is one rung of the cascade. A nil result means "did not resolve";
// failures inside a step are contained there and never propagate.
type step struct {
	name string
	run  func(ctx context.Context) *model.TownContext
}

// Resolve returns the town to query. First applicable step wins:
// explicit argument, stored preference, IP-based detection, then the
// hardcoded fallback, which always succeeds.
func (r *Resolver) Resolve(ctx context.Context, argumentSlug, defaultSlug string) model.TownContext {
	steps := []step{
		{model.SourceArgument, func(context.Context) *model.TownContext {
			return slugContext(argumentSlug, model.SourceArgument)
		}},
		{model.SourcePreference, func(context.Context) *model.TownContext {
			return slugContext(defaultSlug, model.SourcePreference)
		}},
		{model.SourceDetected, r.detect},
	}
	for _, s := range steps {
		if town := s.run(ctx); town != nil {
			return *town
		}
	}
	return model.TownContext{
		Slug:   model.FallbackTownSlug,
		Name:   helpers.TitleCase(model.FallbackTownSlug),
		Source: model.SourceFallback,
	}
}

// slugContext builds a context from a user-supplied slug, or nil when the
// sanitized slug is empty.
func slugContext(raw, source string) *model.TownContext {
	slug := helpers.SanitizeSlug(raw)
	if slug == "" {
		return nil
	}
	return &model.TownContext{Slug: slug, Name: helpers.TitleCase(slug), Source: source}
}

// detect geolocates by IP, then reverse-geocodes; when reverse geocoding
// fails it falls back to the nearest zone by great-circle distance. Any
// failure just means this step did not resolve.
func (r *Resolver) detect(ctx context.Context) *model.TownContext {
	if r.Deps.LookupIP == nil {
		return nil
	}
	loc, err := r.Deps.LookupIP(ctx)
	if err != nil {
		return nil
	}
	lat, lng, ok := loc.Coords()
	if !ok {
		return nil
	}

	if r.Deps.MatchZone != nil {
		if slug, name, err := r.Deps.MatchZone(ctx, r.APIBase, lat, lng); err == nil {
			slug = helpers.SanitizeSlug(slug)
			if slug != "" {
				if name == "" {
					name = helpers.TitleCase(slug)
				}
				return &model.TownContext{Slug: slug, Name: name, Source: model.SourceDetected}
			}
		}
	}

	// Reverse geocode did not resolve but we do have coordinates.
	if r.Deps.FetchZones == nil {
		return nil
	}
	zones, err := r.Deps.FetchZones(ctx, r.APIBase)
	if err != nil {
		return nil
	}
	zone := NearestZone(zones, lat, lng, loc.CountryCode)
	if zone == nil {
		return nil
	}
	return &model.TownContext{Slug: zone.Slug, Name: zone.Name, Source: model.SourceDetected}
}

// NearestZone returns the zone closest to (lat, lng) by haversine distance.
// When countryCode is known and any zone shares it, only those zones compete.
// Ties keep the first minimal-distance candidate in list order.
func NearestZone(zones []model.Zone, lat, lng float64, countryCode string) *model.Zone {
	if len(zones) == 0 {
		return nil
	}
	candidates := zones
	if countryCode != "" {
		var sameCountry []model.Zone
		for _, z := range zones {
			if strings.EqualFold(z.CountryCode, countryCode) {
				sameCountry = append(sameCountry, z)
			}
		}
		if len(sameCountry) > 0 {
			candidates = sameCountry
		}
	}

	best := -1
	bestDist := math.Inf(1)
	for i, z := range candidates {
		d := Haversine(lat, lng, z.Latitude, z.Longitude)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return nil
	}
	zone := candidates[best]
	return &zone
}

// Haversine computes the great-circle distance in kilometers.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
