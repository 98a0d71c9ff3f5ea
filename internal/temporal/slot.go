package temporal

import (
	"github.com/wolfman30/carservice-desk/internal/phrase"
	"github.com/wolfman30/carservice-desk/internal/slots"
)

type lexiconEntry struct {
	phrase string
	slot   slots.Slot
}

// timeLexicon is scanned in order and the first contained phrase wins, so explicit
// hours are listed before the day-part words ("4 in the afternoon" is 4 PM).
var timeLexicon = []lexiconEntry{
	{"10 am", slots.Morning},
	{"10am", slots.Morning},
	{"10 a m", slots.Morning},
	{"10 00", slots.Morning},
	{"10 o clock", slots.Morning},
	{"ten am", slots.Morning},
	{"ten a m", slots.Morning},
	{"ten o clock", slots.Morning},
	{"10", slots.Morning},
	{"ten", slots.Morning},

	{"1 pm", slots.Afternoon},
	{"1pm", slots.Afternoon},
	{"1 p m", slots.Afternoon},
	{"13 00", slots.Afternoon},
	{"1 00", slots.Afternoon},
	{"1 o clock", slots.Afternoon},
	{"one pm", slots.Afternoon},
	{"one p m", slots.Afternoon},
	{"one o clock", slots.Afternoon},
	{"13", slots.Afternoon},
	{"1", slots.Afternoon},
	{"one", slots.Afternoon},

	{"4 pm", slots.Evening},
	{"4pm", slots.Evening},
	{"4 p m", slots.Evening},
	{"16 00", slots.Evening},
	{"4 00", slots.Evening},
	{"4 o clock", slots.Evening},
	{"four pm", slots.Evening},
	{"four p m", slots.Evening},
	{"four o clock", slots.Evening},
	{"16", slots.Evening},
	{"4", slots.Evening},
	{"four", slots.Evening},

	{"morning", slots.Morning},
	{"noon", slots.Afternoon},
	{"afternoon", slots.Afternoon},
	{"evening", slots.Evening},
}

// ResolveTimeSlot maps a time phrase onto one of the fixed slots. Unmatched text
// yields false; no slot is ever guessed.
func (r *Resolver) ResolveTimeSlot(text string) (slots.Slot, bool) {
	return ResolveTimeSlot(text)
}

// ResolveTimeSlot is the clock-independent form of Resolver.ResolveTimeSlot.
func ResolveTimeSlot(text string) (slots.Slot, bool) {
	norm := phrase.Normalize(text)
	if norm == "" {
		return slots.None, false
	}
	for _, e := range timeLexicon {
		if phrase.Contains(norm, e.phrase) {
			return e.slot, true
		}
	}
	return slots.None, false
}
