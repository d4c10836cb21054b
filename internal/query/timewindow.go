package query

import (
	"regexp"
	"strings"

	"github.com/whatson-app/whatson-cli/internal/model"
)

var nonAlnumRegex = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeQuery lowercases, strips non-alphanumerics to spaces, and
// collapses whitespace. All keyword matching runs over this form.
func NormalizeQuery(text string) string {
	s := strings.ToLower(text)
	s = nonAlnumRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// windowRule is one entry of the ordered time-intent cascade.
type windowRule struct {
	keywords []string
	window   model.TimeWindow
}

// windowRules are evaluated in order; the first matching rule wins.
// "now" must precede "today" so "happening now tonight" resolves to now.
var windowRules = []windowRule{
	{[]string{"happening now", "right now", "now"}, model.TimeWindowNow},
	{[]string{"tomorrow"}, model.TimeWindowTodayTomorrow},
	{[]string{"this weekend", "weekend"}, model.TimeWindowNext3Days},
	{[]string{"next week", "next 7 days"}, model.TimeWindowNext7Days},
	{[]string{"this week"}, model.TimeWindowThisWeek},
	{[]string{"today", "tonight", "this evening"}, model.TimeWindowToday},
}

// categoryRule is one keyword family of the category cascade.
type categoryRule struct {
	category string
	keywords []string
}

// defaultCategoryRules are evaluated in order; the first family with a
// matching keyword wins.
var defaultCategoryRules = []categoryRule{
	{"Kids", []string{"kids", "children", "family", "toddler"}},
	{"Music", []string{"music", "live", "dj", "concert", "gig"}},
	{"Food", []string{"food", "eat", "dinner", "restaurant"}},
	{"Comedy", []string{"comedy"}},
	{"Art", []string{"art", "gallery", "museum"}},
}

// Classifier infers a time window and a category hint from free query text.
// Inference is advisory: callers track manual selections with OverrideMemo
// and skip inference while the memo still matches the current text.
type Classifier struct {
	categoryRules []categoryRule
}

// NewClassifier builds a classifier from the built-in keyword families.
// extra maps a category name to additional keywords (from keywords.yaml);
// unknown categories are appended after the built-in families, so overrides
// extend the cascade but never remove or outrank it.
func NewClassifier(extra map[string][]string) *Classifier {
	rules := make([]categoryRule, len(defaultCategoryRules))
	copy(rules, defaultCategoryRules)

	var extended []string
	for i, rule := range rules {
		if more, ok := extra[rule.category]; ok {
			merged := make([]string, 0, len(rule.keywords)+len(more))
			merged = append(merged, rule.keywords...)
			for _, kw := range more {
				kw = NormalizeQuery(kw)
				if kw != "" && !containsWord(merged, kw) {
					merged = append(merged, kw)
				}
			}
			rules[i].keywords = merged
			extended = append(extended, rule.category)
		}
	}
	for category, keywords := range extra {
		if containsWord(extended, category) {
			continue
		}
		known := false
		for _, rule := range defaultCategoryRules {
			if rule.category == category {
				known = true
				break
			}
		}
		if known {
			continue
		}
		var cleaned []string
		for _, kw := range keywords {
			if kw = NormalizeQuery(kw); kw != "" {
				cleaned = append(cleaned, kw)
			}
		}
		if len(cleaned) > 0 {
			rules = append(rules, categoryRule{category, cleaned})
		}
	}
	return &Classifier{categoryRules: rules}
}

func containsWord(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// InferTimeWindow maps free text to a canonical time window.
// Returns (TimeWindowUnknown, false) when no rule fires; callers must not
// override an existing explicit selection in that case.
func (c *Classifier) InferTimeWindow(text string) (model.TimeWindow, bool) {
	normalized := NormalizeQuery(text)
	if normalized == "" {
		return model.TimeWindowUnknown, false
	}
	for _, rule := range windowRules {
		for _, kw := range rule.keywords {
			if containsPhrase(normalized, kw) {
				return rule.window, true
			}
		}
	}
	return model.TimeWindowUnknown, false
}

// InferCategory maps free text to a category hint, or ("", false).
func (c *Classifier) InferCategory(text string) (string, bool) {
	normalized := NormalizeQuery(text)
	if normalized == "" {
		return "", false
	}
	for _, rule := range c.categoryRules {
		for _, kw := range rule.keywords {
			if containsPhrase(normalized, kw) {
				return rule.category, true
			}
		}
	}
	return "", false
}

// containsPhrase reports whether phrase occurs in normalized text on word
// boundaries, so "now" does not fire inside "snow".
func containsPhrase(normalized, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(normalized[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || normalized[start-1] == ' '
		afterOK := end == len(normalized) || normalized[end] == ' '
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

// OverrideMemo remembers, for one filter dimension, the raw query text that
// produced the last manual selection. While the current text still equals
// the remembered text, auto-inference must be skipped so a stale re-inference
// cannot overwrite what the user chose.
type OverrideMemo struct {
	set  bool
	text string
}

// Remember records that a manual selection was made for the given query text.
func (m *OverrideMemo) Remember(text string) {
	m.set = true
	m.text = text
}

// Matches reports whether the current text is the one that produced the last
// manual selection.
func (m *OverrideMemo) Matches(text string) bool {
	return m.set && m.text == text
}

// Clear forgets the manual selection.
func (m *OverrideMemo) Clear() {
	m.set = false
	m.text = ""
}
