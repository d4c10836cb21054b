package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/whatson-app/whatson-cli/internal/model"
)

const (
	UserAgent = "whatson-cli/1.2 (+https://github.com/whatson-app/whatson-cli)"

	// DefaultAPIBase is the production backend; overridable in config.json.
	DefaultAPIBase = "https://api.whatson.live"

	QueryPath       = "/raycast/query"
	ZonesPath       = "/locations/list"
	ZonesLegacyPath = "/list"
	MatchZonePath   = "/places/match-zone"

	// DefaultQueryLimit is sent when the config specifies no limit.
	DefaultQueryLimit = 8
)

var (
	Client = &http.Client{Timeout: 30 * time.Second}

	// RateLimiter enforces a courtesy rate limit on all outbound API calls.
	// 5 requests/second with a burst of 10 — interactive typing stays
	// instant while follow mode cannot hammer the backend.
	RateLimiter = newRateLimiter(5.0, 10)

	// CircuitBreaker trips after 5 consecutive API-level failures (HTTP 429
	// or 5xx) and stays open for 60 seconds before probing recovery.
	CircuitBreaker = newCircuitBreaker(5, 60*time.Second)
)

// NormalizeBaseURL prepends http:// when the scheme is missing and trims a
// trailing slash. An empty base URL is a hard configuration error.
func NormalizeBaseURL(raw string) (string, error) {
	base := strings.TrimSpace(raw)
	if base == "" {
		return "", model.ErrEmptyAPIBase
	}
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return strings.TrimRight(base, "/"), nil
}

// retryDo is the single gateway for every outbound API call.
//
// It enforces, in order:
//  1. Rate limiting  — token-bucket, 5 req/s, burst 10
//  2. Circuit breaker — rejects immediately when open; logs state transitions
//  3. HTTP execution  — with context cancellation
//  4. Retry on 429 / 5xx — exponential backoff (500ms → 30s), Retry-After respected
//  5. Structured logging — every attempt, wait, rejection, and state change
//
// label is a short human-readable endpoint name used in log entries
// (e.g. "raycast.query"). Caller is responsible for closing the body.
func retryDo(ctx context.Context, label string, makeReq func() (*http.Request, error)) (*http.Response, error) {
	const maxRetries = 4
	backoff := 500 * time.Millisecond

	for attempt := 0; ; attempt++ {
		waited, err := RateLimiter.Wait(ctx)
		if err != nil {
			return nil, fmt.Errorf("rate limiter cancelled for %s: %w", label, err)
		}
		if waited > time.Millisecond {
			logRateLimitWait(label, waited)
		}

		cbState, allowed := CircuitBreaker.Allow()
		if !allowed {
			logCircuitRejected(label)
			return nil, fmt.Errorf("%w (label: %s)", ErrCircuitOpen, label)
		}

		req, err := makeReq()
		if err != nil {
			return nil, err
		}
		start := time.Now()
		resp, err := Client.Do(req)
		duration := time.Since(start)

		if err != nil {
			// Network-level error: log but do NOT trip the circuit breaker.
			// Network hiccups are distinct from the backend being overloaded.
			logRequest(label, 0, duration, attempt, cbState.String(), err)
			return nil, err
		}

		isAPIError := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		if !isAPIError {
			prev := CircuitBreaker.RecordSuccess()
			if prev != circuitClosed {
				logCircuitStateChange("circuit_closed", label, prev.String(), circuitClosed.String())
			}
			logRequest(label, resp.StatusCode, duration, attempt, circuitClosed.String(), nil)
			return resp, nil
		}

		resp.Body.Close()
		newState := CircuitBreaker.RecordFailure()
		if newState == circuitOpen && cbState != circuitOpen {
			logCircuitStateChange("circuit_opened", label, cbState.String(), newState.String())
		}
		apiErr := fmt.Errorf("HTTP %s", resp.Status)
		logRequest(label, resp.StatusCode, duration, attempt, newState.String(), apiErr)

		if attempt >= maxRetries {
			return nil, fmt.Errorf("API %s failed after %d attempts: %w", label, attempt+1, apiErr)
		}

		wait := backoff
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, e := strconv.Atoi(ra); e == nil {
				wait = time.Duration(secs) * time.Second
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
		backoff = min(backoff*2, 30*time.Second)
	}
}

// QueryEvents posts a free-text query to the backend and decodes the answer.
// A non-2xx response surfaces its body text; a network failure surfaces the
// endpoint attempted.
func QueryEvents(ctx context.Context, apiBase string, q model.QueryRequest) (*model.QueryResponse, error) {
	base, err := NormalizeBaseURL(apiBase)
	if err != nil {
		return nil, err
	}
	if q.Limit <= 0 {
		q.Limit = DefaultQueryLimit
	}
	body, err := json.Marshal(q)
	if err != nil {
		return nil, err
	}
	endpoint := base + QueryPath
	do, err := retryDo(ctx, "raycast.query", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Add("User-Agent", UserAgent)
		req.Header.Add("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("query request to %s failed: %w", endpoint, err)
	}
	defer do.Body.Close()
	if do.StatusCode < 200 || do.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(do.Body, 2048))
		return nil, fmt.Errorf("API query failed: %s: %s", do.Status, strings.TrimSpace(string(detail)))
	}
	var obj model.QueryResponse
	if err = json.NewDecoder(do.Body).Decode(&obj); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}
	return &obj, nil
}
