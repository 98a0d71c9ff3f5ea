package dialog

import "github.com/wolfman30/carservice-desk/internal/phrase"

var (
	positivePhrases = phrase.Set{
		"yes", "yeah", "yep", "yup", "ya", "correct", "right", "sure", "ok", "okay",
		"confirm", "confirmed", "absolutely", "exactly", "perfect", "it is", "that is it",
	}
	negativePhrases = phrase.Set{
		"no", "nope", "nah", "not", "wrong", "incorrect", "never", "negative", "change",
		"mistake",
	}
	closingPhrases = phrase.Set{
		"no", "nope", "nothing", "nothing else", "that is all", "thank", "thanks",
		"thank you", "bye", "goodbye", "done", "all good", "nah", "not really", "no need",
	}
)

// Intent is what the caller wants from the main menu.
type Intent string

const (
	IntentNone   Intent = ""
	IntentBook   Intent = "book"
	IntentStatus Intent = "status"
)

type intentRule struct {
	intent   Intent
	triggers phrase.Set
}

// intentRules is checked in order; earlier rules win ties.
var intentRules = []intentRule{
	{IntentBook, phrase.Set{"book", "booking", "appointment", "service", "schedule", "reserve", "new appointment"}},
	{IntentStatus, phrase.Set{"status", "check", "ready", "car status", "my appointment", "where is my car", "when is my"}},
}

// affirmed reports confirmation: a positive phrase present and no negative phrase.
// Utterances carrying both, or neither, are not confirmations.
func affirmed(text string) bool {
	return positivePhrases.MatchAny(text) && !negativePhrases.MatchAny(text)
}

func closing(text string) bool {
	return closingPhrases.MatchAny(text)
}

// classifyIntent returns the intent whose triggers match the most phrases.
func classifyIntent(text string) Intent {
	best, bestCount := IntentNone, 0
	for _, rule := range intentRules {
		if n := rule.triggers.Count(text); n > bestCount {
			best, bestCount = rule.intent, n
		}
	}
	return best
}
