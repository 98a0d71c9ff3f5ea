// Package temporal resolves free-form date and time phrases against an injected
// "current moment".
package temporal

import "time"

// Clock supplies the anchor used to resolve relative phrases such as "tomorrow".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// Location returns the *time.Location for a timezone name.
// Falls back to UTC if the name is empty or unknown.
func Location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AnchoredClock reports the anchor's calendar date with the wall clock's time of day,
// so time-of-day greetings still follow the real hour.
type AnchoredClock struct {
	Date     time.Time
	Location *time.Location

	wall func() time.Time
}

func (c AnchoredClock) Now() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	wall := c.wall
	if wall == nil {
		wall = time.Now
	}
	w := wall().In(loc)
	y, m, d := c.Date.Date()
	return time.Date(y, m, d, w.Hour(), w.Minute(), w.Second(), w.Nanosecond(), loc)
}

// ClockFromAnchor returns an AnchoredClock on anchor (YYYY-MM-DD) or a SystemClock
// when anchor is empty. An unparseable anchor is reported as an error
// rather than silently falling back to the wall clock.
func ClockFromAnchor(anchor string, loc *time.Location) (Clock, error) {
	if loc == nil {
		loc = time.UTC
	}
	if anchor == "" {
		return SystemClock{Location: loc}, nil
	}
	at, err := time.ParseInLocation("2006-01-02", anchor, loc)
	if err != nil {
		return nil, err
	}
	return AnchoredClock{Date: at, Location: loc}, nil
}
