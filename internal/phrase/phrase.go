// Package phrase normalizes caller utterances and matches fixed phrases against them
// on token boundaries, so "no" never matches inside "know".
package phrase

import (
	"strings"
	"unicode"
)

var contractions = strings.NewReplacer(
	"it's", "it is",
	"that's", "that is",
	"what's", "what is",
	"let's", "let us",
	"i'm", "i am",
	"i'd", "i would",
	"i'll", "i will",
	"don't", "do not",
	"doesn't", "does not",
	"isn't", "is not",
	"can't", "can not",
	"won't", "will not",
	"o'clock", "o clock",
)

// Normalize lowercases s, expands common contractions, turns punctuation into spaces
// and collapses runs of whitespace.
func Normalize(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "’", "'")
	s = contractions.Replace(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

// Contains reports whether the already normalized text contains p as a whole-token
// sequence. p is normalized before matching.
func Contains(text, p string) bool {
	p = Normalize(p)
	if p == "" || text == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+p+" ")
}

// Set is a fixed list of trigger phrases.
type Set []string

// MatchAny reports whether any phrase of the set occurs in the normalized text.
func (s Set) MatchAny(text string) bool {
	return s.Count(text) > 0
}

// Count returns how many distinct phrases of the set occur in the normalized text.
func (s Set) Count(text string) int {
	n := 0
	for _, p := range s {
		if Contains(text, p) {
			n++
		}
	}
	return n
}
