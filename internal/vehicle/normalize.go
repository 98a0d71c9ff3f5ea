// Package vehicle turns spoken or typed registration numbers into canonical ids.
package vehicle

import "strings"

// MinLength is the shortest normalized id accepted as a usable vehicle number.
const MinLength = 6

// fillers are transcription artifacts removed from the cleaned string. Order matters:
// multi-letter words go before the bare "O".
var fillers = []string{
	"ZERO", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE",
	"OH", "O",
}

// Normalize upper-cases raw, keeps only ASCII letters and digits and strips spelled-out
// digit words and the "OH"/"O" fillers wherever they appear.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToUpper(raw) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	// Removing one filler can splice a new one together ("NIONE" -> "NINE"), so run to
	// a fixed point to keep Normalize idempotent.
	for {
		next := cleaned
		for _, f := range fillers {
			next = strings.ReplaceAll(next, f, "")
		}
		if next == cleaned {
			return cleaned
		}
		cleaned = next
	}
}

// Usable reports whether a normalized id is long enough to be looked up or booked.
func Usable(id string) bool {
	return len(id) >= MinLength
}
