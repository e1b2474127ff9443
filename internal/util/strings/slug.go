// Package strings holds small string helpers shared across rulebook packages.
package strings

import (
	"strings"
	"unicode"
)

// Slugify converts a title into a lower-case, dash-separated file name stem.
// Runs of anything that is not a letter or digit collapse into one dash.
//
//	Slugify("Use Effect.gen for Sequential Code") // "use-effect-gen-for-sequential-code"
func Slugify(s string) string {
	var result strings.Builder
	pendingDash := false

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && result.Len() > 0 {
				result.WriteRune('-')
			}
			pendingDash = false
			result.WriteRune(unicode.ToLower(r))
			continue
		}
		pendingDash = true
	}
	return result.String()
}

// FoldKey returns the case-insensitive comparison key for a title
func FoldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
