// Package slots holds the fixed daily appointment slots and the forward search that
// allocates one of them.
package slots

// Slot is one of the fixed daily appointment start times, in 24h "HH:MM" form.
type Slot string

const (
	Morning   Slot = "10:00"
	Afternoon Slot = "13:00"
	Evening   Slot = "16:00"

	// None means the caller expressed no preference.
	None Slot = ""
)

// All is the enumeration order used when allocating a slot.
var All = []Slot{Morning, Afternoon, Evening}

var labels = map[Slot]string{
	Morning:   "10 AM",
	Afternoon: "1 PM",
	Evening:   "4 PM",
}

// Label returns the spoken form of the slot ("10 AM"). Unknown slots are returned as is.
func (s Slot) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is one of the fixed slots.
func (s Slot) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Parse converts a stored "HH:MM" value back into a Slot.
func Parse(v string) (Slot, bool) {
	s := Slot(v)
	return s, s.Valid()
}

// Menu is the human list of bookable times, e.g. "10 AM, 1 PM, or 4 PM".
func Menu() string {
	out := ""
	for i, s := range All {
		switch {
		case i == 0:
		case i == len(All)-1:
			out += ", or "
		default:
			out += ", "
		}
		out += s.Label()
	}
	return out
}
