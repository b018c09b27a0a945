package crawler

import (
	"html"
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanText collapses whitespace runs to single spaces and trims the result.
func CleanText(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// UnescapeAndClean decodes HTML entities left behind by tag stripping and
// normalizes whitespace.
func UnescapeAndClean(text string) string {
	return CleanText(html.UnescapeString(text))
}
