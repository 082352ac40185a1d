// Package sanitize provides text sanitization for user-supplied form fields.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// StripHTML removes all HTML tags from a string, making it safe for text-only display.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", "\"",
		"&#39;", "'",
	).Replace(result)
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes free-form text such as a contact message.
func Text(s string) string {
	return StripHTML(s)
}

// Line sanitizes a single-line value (names, locations) and collapses
// internal whitespace runs to one space.
func Line(s string) string {
	return whitespaceRegex.ReplaceAllString(StripHTML(s), " ")
}

// Email trims and lowercases an address so throttling and uniqueness
// treat case variants as the same identity.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
