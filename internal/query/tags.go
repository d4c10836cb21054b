package query

import (
	"strings"

	"github.com/whatson-app/whatson-cli/internal/model"
)

// frequencySynonyms maps normalized tag spellings to their canonical
// recurrence label. Checked before the price tables; first match wins.
var frequencySynonyms = map[string]string{
	"one-off":     "One-Off",
	"one off":     "One-Off",
	"oneoff":      "One-Off",
	"once":        "One-Off",
	"weekly":      "Weekly",
	"every week":  "Weekly",
	"daily":       "Daily",
	"every day":   "Daily",
	"monthly":     "Monthly",
	"every month": "Monthly",
	"fortnightly": "Fortnightly",
	"biweekly":    "Biweekly",
	"bi-weekly":   "Biweekly",
	"weekdays":    "Weekdays",
	"weekends":    "Weekends",
}

var freeSynonyms = map[string]struct{}{
	"free":          {},
	"free entry":    {},
	"free entrance": {},
	"no charge":     {},
}

var paidSynonyms = map[string]struct{}{
	"paid":      {},
	"ticketed":  {},
	"tickets":   {},
	"entry fee": {},
	"admission": {},
	"cover":     {},
	"cover fee": {},
}

// SplitTags parses an event's free-form tag list into structured parts.
// Exactly one frequency and one price tag are extracted (first match wins);
// every remaining tag becomes a category. Categories are deduplicated
// case-insensitively, preserving first-seen casing and insertion order.
func SplitTags(tags []string) model.TagParts {
	parts := model.TagParts{Categories: []string{}}
	seen := make(map[string]struct{})

	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		normalized := strings.ToLower(tag)

		// Vocabulary tags are consumed whether or not their slot is still
		// open: a second "Free" is dropped, never demoted to a category.
		if canonical, ok := frequencySynonyms[normalized]; ok {
			if parts.Frequency == "" {
				parts.Frequency = canonical
			}
			continue
		}
		if _, ok := freeSynonyms[normalized]; ok {
			if parts.Price == "" {
				parts.Price = "Free"
			}
			continue
		}
		if _, ok := paidSynonyms[normalized]; ok {
			if parts.Price == "" {
				parts.Price = "Paid"
			}
			continue
		}

		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		parts.Categories = append(parts.Categories, tag)
	}
	return parts
}
