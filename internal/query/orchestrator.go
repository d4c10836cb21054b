package query

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/whatson-app/whatson-cli/internal/api"
	"github.com/whatson-app/whatson-cli/internal/helpers"
	"github.com/whatson-app/whatson-cli/internal/model"
)

// DefaultDebounce is the trailing-edge debounce applied to text changes in
// follow mode.
const DefaultDebounce = 250 * time.Millisecond

// conversationDepth caps how much query history is sent to the backend.
const conversationDepth = 8

// QueryFunc issues one backend query. Swappable for tests.
type QueryFunc func(ctx context.Context, apiBase string, q model.QueryRequest) (*model.QueryResponse, error)

// Result is one fully presented answer: the backend's reply routed through
// the time-window filter and day grouper.
type Result struct {
	SessionID   string             `json:"sessionId"`
	Query       string             `json:"query"`
	Answer      string             `json:"answer"`
	Town        model.QueryTown    `json:"town"`
	Window      model.TimeWindow   `json:"-"`
	WindowName  string             `json:"window"`
	Category    string             `json:"category,omitempty"`
	Sections    []model.DaySection `json:"sections"`
	Suggestions []string           `json:"suggestions,omitempty"`
	FromCache   bool               `json:"fromCache,omitempty"`
}

// Session orchestrates queries for one user sitting: it derives the
// canonical backend query from raw text, debounces rapid changes, tags every
// dispatch with a generation counter so stale responses are no-ops, and
// keeps an in-memory per-town response cache.
type Session struct {
	mu         sync.Mutex
	ctx        context.Context
	id         string
	apiBase    string
	locale     string
	limit      int
	debounce   time.Duration
	queryFn    QueryFunc
	classifier *Classifier
	nowFn      func() time.Time
	fallbackTZ string

	town     model.TownContext
	window   model.TimeWindow
	category string

	windowMemo   OverrideMemo
	categoryMemo OverrideMemo

	gen     atomic.Uint64
	timer   *time.Timer
	history []string
	cache   map[string]*model.QueryResponse

	// OnResult and OnError receive follow-mode outcomes. Both may be nil.
	OnResult func(Result)
	OnError  func(error)
}

// SessionOption tweaks a Session at construction time.
type SessionOption func(*Session)

// WithQueryFunc replaces the backend call, used by tests.
func WithQueryFunc(fn QueryFunc) SessionOption {
	return func(s *Session) { s.queryFn = fn }
}

// WithClock replaces the session clock, used by tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.nowFn = now }
}

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.debounce = d
		}
	}
}

// NewSession builds a query session for the given town.
func NewSession(ctx context.Context, cfg *model.Config, town model.TownContext, opts ...SessionOption) *Session {
	s := &Session{
		ctx:        ctx,
		id:         uuid.NewString(),
		apiBase:    cfg.APIBase,
		locale:     cfg.Locale,
		limit:      cfg.Limit,
		debounce:   DefaultDebounce,
		queryFn:    api.QueryEvents,
		classifier: NewClassifier(nil),
		nowFn:      time.Now,
		fallbackTZ: cfg.FallbackTimezone,
		town:       town,
		cache:      make(map[string]*model.QueryResponse),
	}
	if s.locale == "" {
		s.locale = "en-GB"
	}
	if s.fallbackTZ == "" {
		s.fallbackTZ = model.DefaultTimezone
	}
	if cfg.DebounceMs > 0 {
		s.debounce = time.Duration(cfg.DebounceMs) * time.Millisecond
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session's conversation id.
func (s *Session) ID() string { return s.id }

// SetClassifier replaces the intent classifier (for keywords.yaml overlays).
func (s *Session) SetClassifier(c *Classifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c != nil {
		s.classifier = c
	}
}

// SetTimeWindow records a manual time-window selection for the given query
// text. Auto-inference is skipped while the text stays unchanged.
func (s *Session) SetTimeWindow(w model.TimeWindow, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = w
	s.windowMemo.Remember(text)
}

// SetCategory records a manual category selection for the given query text.
func (s *Session) SetCategory(category, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.category = category
	s.categoryMemo.Remember(text)
}

// SetTown switches the active town. A cached response for that town is
// presented immediately so switching back never blocks on the network; a
// fresh query then supersedes it.
func (s *Session) SetTown(town model.TownContext, text string) {
	s.mu.Lock()
	s.town = town
	cached := s.cache[town.Slug]
	canonical := s.canonical(text)
	s.mu.Unlock()

	if cached != nil && s.OnResult != nil {
		s.OnResult(s.present(cached, canonical, true))
	}
	s.SetText(text)
}

// SetText feeds a new raw query text into the session. Inference updates the
// window/category unless a manual selection for this exact text exists. The
// backend call fires on a trailing-edge debounce timer; every keystroke
// restarts it, and each dispatch captures a generation so that a response
// arriving after a newer dispatch is discarded.
func (s *Session) SetText(text string) {
	s.mu.Lock()
	s.infer(text)
	gen := s.gen.Add(1)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		s.run(gen, text)
	})
	s.mu.Unlock()
}

// Search runs one synchronous query for the given text (one-shot CLI path;
// no debounce, no staleness window).
func (s *Session) Search(ctx context.Context, text string) (Result, error) {
	s.mu.Lock()
	s.infer(text)
	canonical := s.canonical(text)
	req := s.buildRequest(canonical)
	s.mu.Unlock()

	resp, err := s.queryFn(ctx, s.apiBase, req)
	if err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	s.cache[req.TownSlug] = resp
	s.history = append(s.history, canonical)
	s.mu.Unlock()

	return s.present(resp, canonical, false), nil
}

// infer updates window and category from text. Callers hold s.mu.
func (s *Session) infer(text string) {
	if !s.windowMemo.Matches(text) {
		if w, ok := s.classifier.InferTimeWindow(text); ok {
			s.window = w
			s.windowMemo.Clear()
		}
	}
	if !s.categoryMemo.Matches(text) {
		if cat, ok := s.classifier.InferCategory(text); ok {
			s.category = cat
			s.categoryMemo.Clear()
		}
	}
}

// canonical derives the backend query string: collapse whitespace, fall back
// to the default phrase when empty, append the active window's hint phrase
// when the text itself carries no time intent. Callers hold s.mu.
func (s *Session) canonical(text string) string {
	q := helpers.CollapseWhitespace(text)
	if q == "" {
		return model.DefaultQuery
	}
	if _, hasIntent := s.classifier.InferTimeWindow(q); !hasIntent {
		if hint := s.window.HintPhrase(); hint != "" {
			q = q + " " + hint
		}
	}
	return q
}

// buildRequest snapshots the request for the current state. Callers hold s.mu.
func (s *Session) buildRequest(canonical string) model.QueryRequest {
	depth := len(s.history)
	if depth > conversationDepth {
		depth = conversationDepth
	}
	conversation := make([]string, depth)
	copy(conversation, s.history[len(s.history)-depth:])
	return model.QueryRequest{
		Query:        canonical,
		TownSlug:     s.town.Slug,
		Locale:       s.locale,
		Limit:        s.limit,
		Conversation: conversation,
	}
}

// run executes one debounced dispatch. The generation is checked before the
// network call and again before any state mutation, so a stale response can
// never overwrite state produced by a newer dispatch.
func (s *Session) run(gen uint64, text string) {
	if s.gen.Load() != gen {
		return
	}

	s.mu.Lock()
	canonical := s.canonical(text)
	req := s.buildRequest(canonical)
	s.mu.Unlock()

	resp, err := s.queryFn(s.ctx, s.apiBase, req)

	if s.gen.Load() != gen {
		return
	}
	if err != nil {
		if s.OnError != nil {
			s.OnError(err)
		}
		return
	}

	s.mu.Lock()
	if s.gen.Load() != gen {
		s.mu.Unlock()
		return
	}
	s.cache[req.TownSlug] = resp
	s.history = append(s.history, canonical)
	s.mu.Unlock()

	if s.OnResult != nil {
		s.OnResult(s.present(resp, canonical, false))
	}
}

// present routes a backend response through the filter and grouper.
func (s *Session) present(resp *model.QueryResponse, canonical string, fromCache bool) Result {
	s.mu.Lock()
	window := s.window
	category := s.category
	s.mu.Unlock()

	tzName := resp.Town.Timezone
	if tzName == "" {
		tzName = s.fallbackTZ
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		tz, _ = time.LoadLocation(model.DefaultTimezone)
	}

	now := s.nowFn()
	events := FilterByTimeWindow(resp.Events, tz, window, now)
	if category != "" {
		events = filterByCategory(events, category)
	}

	return Result{
		SessionID:   s.id,
		Query:       canonical,
		Answer:      resp.Answer,
		Town:        resp.Town,
		Window:      window,
		WindowName:  window.String(),
		Category:    category,
		Sections:    GroupByDay(events, tz, now),
		Suggestions: resp.Suggestions,
		FromCache:   fromCache,
	}
}

// filterByCategory keeps events whose parsed tag categories contain the
// selected category (case-insensitive).
func filterByCategory(events []model.Event, category string) []model.Event {
	kept := make([]model.Event, 0, len(events))
	for _, e := range events {
		parts := SplitTags(e.Tags)
		for _, c := range parts.Categories {
			if strings.EqualFold(c, category) {
				kept = append(kept, e)
				break
			}
		}
	}
	return kept
}
