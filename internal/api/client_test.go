package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/whatson-app/whatson-cli/internal/model"
)

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"already normal", "https://api.whatson.live", "https://api.whatson.live", false},
		{"trailing slash trimmed", "https://api.whatson.live/", "https://api.whatson.live", false},
		{"scheme added", "localhost:8080", "http://localhost:8080", false},
		{"whitespace trimmed", "  https://api.whatson.live  ", "https://api.whatson.live", false},
		{"empty is an error", "", "", true},
		{"whitespace only is an error", "   ", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeBaseURL(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestQueryEvents(t *testing.T) {
	var gotReq model.QueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != QueryPath {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if ua := r.Header.Get("User-Agent"); ua != UserAgent {
			t.Errorf("user agent = %q", ua)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(model.QueryResponse{
			Answer: "Two gigs tonight.",
			Town:   model.QueryTown{Slug: "kentish-town", Timezone: "Europe/London"},
			Events: []model.Event{{ID: "e1", Title: "Jazz Night", StartTime: "2025-06-11T19:00:00Z"}},
		})
	}))
	defer srv.Close()

	resp, err := QueryEvents(context.Background(), srv.URL, model.QueryRequest{
		Query:    "jazz tonight",
		TownSlug: "kentish-town",
		Locale:   "en-GB",
	})
	if err != nil {
		t.Fatalf("QueryEvents: %v", err)
	}
	if resp.Answer != "Two gigs tonight." || len(resp.Events) != 1 {
		t.Fatalf("response = %+v", resp)
	}
	if gotReq.Limit != DefaultQueryLimit {
		t.Fatalf("zero limit must be replaced with the default, got %d", gotReq.Limit)
	}
	if gotReq.Query != "jazz tonight" {
		t.Fatalf("query = %q", gotReq.Query)
	}
}

func TestQueryEvents_ErrorBodySurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"town not covered"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := QueryEvents(context.Background(), srv.URL, model.QueryRequest{Query: "jazz"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "town not covered") {
		t.Fatalf("error must carry the response body, got: %v", err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Fatalf("error must carry the status, got: %v", err)
	}
}

func TestQueryEvents_NetworkErrorNamesEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := QueryEvents(context.Background(), srv.URL, model.QueryRequest{Query: "jazz"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), QueryPath) {
		t.Fatalf("error must name the endpoint, got: %v", err)
	}
}

func TestQueryEvents_RetriesHonoringRetryAfter(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(model.QueryResponse{Answer: "recovered"})
	}))
	defer srv.Close()

	resp, err := QueryEvents(context.Background(), srv.URL, model.QueryRequest{Query: "jazz"})
	if err != nil {
		t.Fatalf("QueryEvents: %v", err)
	}
	if resp.Answer != "recovered" || calls != 2 {
		t.Fatalf("answer = %q after %d calls", resp.Answer, calls)
	}
}

func TestQueryEvents_EmptyBase(t *testing.T) {
	_, err := QueryEvents(context.Background(), "", model.QueryRequest{Query: "jazz"})
	if err != model.ErrEmptyAPIBase {
		t.Fatalf("expected ErrEmptyAPIBase, got %v", err)
	}
}
