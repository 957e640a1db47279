// Package normalize reduces extracted document text to the canonical form
// the translation prompt is built from.
package normalize

import (
	"regexp"
	"strings"
)

var (
	reLineBreaks = regexp.MustCompile(`[\n\r]+`)
	reDisallowed = regexp.MustCompile(`[^a-z0-9#:\-. ]`)
	reMultiSpace = regexp.MustCompile(` +`)
)

// Canonical lowercases s, folds line breaks into spaces, strips every
// character outside [a-z0-9#:\-. ], collapses runs of spaces, and trims.
// The result is stable: Canonical(Canonical(s)) == Canonical(s).
func Canonical(s string) string {
	if s == "" {
		return s
	}
	s = strings.ToLower(s)
	s = reLineBreaks.ReplaceAllString(s, " ")
	s = reDisallowed.ReplaceAllString(s, "")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
