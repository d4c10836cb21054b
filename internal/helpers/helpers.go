package helpers

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	whitespaceRegex = regexp.MustCompile(`\s+`)
	slugStripRegex  = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRunRegex  = regexp.MustCompile(`-{2,}`)
)

// SanitizeSlug derives a canonical town slug from raw input: lowercase,
// whitespace to hyphens, strip anything outside [a-z0-9-], collapse repeated
// hyphens, trim hyphens at the edges. Unusable input yields "".
func SanitizeSlug(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = whitespaceRegex.ReplaceAllString(s, "-")
	s = slugStripRegex.ReplaceAllString(s, "")
	s = hyphenRunRegex.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// TitleCase turns a slug like "kentish-town" into "Kentish Town".
func TitleCase(slug string) string {
	parts := strings.Split(slug, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// CollapseWhitespace trims a query and squeezes internal runs of whitespace
// into single spaces.
func CollapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// Contains checks if a string slice contains a value (case-insensitive).
func Contains(lines []string, value string) bool {
	for _, line := range lines {
		if strings.EqualFold(line, value) {
			return true
		}
	}
	return false
}

// HandleErr prints an error to stderr and optionally exits. When fatal is true,
// the process exits with code 1 after printing.
//
// Deprecated: Prefer returning errors to callers instead of printing directly.
func HandleErr(errText string, err error, fatal bool) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, errText+"\n"+err.Error())
	if fatal {
		os.Exit(1)
	}
}
