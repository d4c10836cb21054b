package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/whatson-app/whatson-cli/internal/model"
)

func TestIPLocationCoords(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	cases := []struct {
		name             string
		loc              IPLocation
		wantLat, wantLng float64
		wantOK           bool
	}{
		{"long spellings", IPLocation{Latitude: f(51.5), Longitude: f(-0.1)}, 51.5, -0.1, true},
		{"short spellings", IPLocation{Lat: f(48.85), Lon: f(2.35)}, 48.85, 2.35, true},
		{"long preferred over short", IPLocation{Latitude: f(1), Longitude: f(2), Lat: f(3), Lon: f(4)}, 1, 2, true},
		{"mismatched pair unusable", IPLocation{Latitude: f(51.5), Lon: f(2.35)}, 0, 0, false},
		{"empty", IPLocation{}, 0, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lat, lng, ok := tc.loc.Coords()
			if ok != tc.wantOK || lat != tc.wantLat || lng != tc.wantLng {
				t.Fatalf("Coords() = %v,%v,%v", lat, lng, ok)
			}
		})
	}
}

func withIPAPIEndpoint(t *testing.T, url string) {
	t.Helper()
	prev := IPAPIEndpoint
	IPAPIEndpoint = url
	t.Cleanup(func() { IPAPIEndpoint = prev })
}

func TestLookupIPLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"latitude":51.55,"longitude":-0.14,"country_code":"GB"}`))
	}))
	defer srv.Close()
	withIPAPIEndpoint(t, srv.URL)

	loc, err := LookupIPLocation(context.Background())
	if err != nil {
		t.Fatalf("LookupIPLocation: %v", err)
	}
	lat, lng, ok := loc.Coords()
	if !ok || lat != 51.55 || lng != -0.14 || loc.CountryCode != "GB" {
		t.Fatalf("loc = %+v", loc)
	}
}

func TestLookupIPLocation_NoCoordinates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"country_code":"GB"}`))
	}))
	defer srv.Close()
	withIPAPIEndpoint(t, srv.URL)

	_, err := LookupIPLocation(context.Background())
	if !errors.Is(err, model.ErrNoLocation) {
		t.Fatalf("expected ErrNoLocation, got %v", err)
	}
}

func TestLookupIPLocation_ProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	withIPAPIEndpoint(t, srv.URL)

	if _, err := LookupIPLocation(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestMatchZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != MatchZonePath {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("lat"); got != "51.55" {
			t.Errorf("lat = %q", got)
		}
		if got := r.URL.Query().Get("lng"); got != "-0.14" {
			t.Errorf("lng = %q", got)
		}
		w.Write([]byte(`{"zone":{"slug":"kentish-town","name":"Kentish Town"}}`))
	}))
	defer srv.Close()

	slug, name, err := MatchZone(context.Background(), srv.URL, 51.55, -0.14)
	if err != nil {
		t.Fatalf("MatchZone: %v", err)
	}
	if slug != "kentish-town" || name != "Kentish Town" {
		t.Fatalf("got %q/%q", slug, name)
	}
}

func TestMatchZone_NoMatch(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"null zone", `{"zone":null}`},
		{"empty slug", `{"zone":{"slug":"","name":"Nowhere"}}`},
		{"empty object", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, _, err := MatchZone(context.Background(), srv.URL, 0, 0)
			if !errors.Is(err, model.ErrNoZoneMatch) {
				t.Fatalf("expected ErrNoZoneMatch, got %v", err)
			}
		})
	}
}
