package models

import (
	"regexp"
	"strings"
)

var slugSeparatorRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases value, collapses every run of non-alphanumeric
// characters into one hyphen and trims hyphens from both ends.
func Slugify(value string) string {
	slug := slugSeparatorRegex.ReplaceAllString(strings.ToLower(value), "-")
	return strings.Trim(slug, "-")
}
