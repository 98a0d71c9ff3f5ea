package slots

import (
	"fmt"
	"time"
)

// SearchHorizonDays bounds how far past the requested date the ledger looks.
const SearchHorizonDays = 30

// BookedFunc reports whether slot is already taken on date.
type BookedFunc func(date time.Time, slot Slot) (bool, error)

// FindSlot walks forward from target looking for the first day with a free slot.
//
// The preferred slot wins only on target itself; on later days the first free slot in
// All order is returned. When every slot in the horizon is taken the result is
// target+SearchHorizonDays at the first slot. FindSlot never writes anything: two
// callers may be offered the same slot, and the store's uniqueness check decides.
func FindSlot(target time.Time, preferred Slot, isBooked BookedFunc) (time.Time, Slot, error) {
	if isBooked == nil {
		return time.Time{}, None, fmt.Errorf("slots: booked lookup required")
	}
	day := DateOf(target)

	for offset := 0; offset < SearchHorizonDays; offset++ {
		candidate := day.AddDate(0, 0, offset)

		if offset == 0 && preferred.Valid() {
			taken, err := isBooked(candidate, preferred)
			if err != nil {
				return time.Time{}, None, fmt.Errorf("slots: check %s %s: %w", candidate.Format(DateLayout), preferred, err)
			}
			if !taken {
				return candidate, preferred, nil
			}
		}

		for _, s := range All {
			taken, err := isBooked(candidate, s)
			if err != nil {
				return time.Time{}, None, fmt.Errorf("slots: check %s %s: %w", candidate.Format(DateLayout), s, err)
			}
			if !taken {
				return candidate, s, nil
			}
		}
	}

	return day.AddDate(0, 0, SearchHorizonDays), All[0], nil
}

// DateLayout is the ISO calendar date form used on the wire and in storage.
const DateLayout = "2006-01-02"

// DateOf truncates t to midnight UTC of its calendar day in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
