// Package strings provides string clean-up shared by personnel matching and
// diagnostic reporting.
package strings

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  foo ", "bar", "foo", "", "  "})
//	// Returns: []string{"foo", "bar"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// NormalizeName prepares a personal name for an exact-match directory
// lookup: NFC composition (Thai and accented Latin names arrive decomposed
// from some HR exports) and single spaces between words.
//
// Example:
//
//	NormalizeName("  Somchai   Jaidee ")
//	// Returns: "Somchai Jaidee"
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
