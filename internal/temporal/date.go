package temporal

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/wolfman30/carservice-desk/internal/phrase"
	"github.com/wolfman30/carservice-desk/internal/slots"
)

const monthPattern = `(january|february|march|april|may|june|july|august|september|october|november|december|sept|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)`

var (
	isoDateRe     = regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})(?:[/.\-](\d{4}|\d{2}))?\b`)
	ordinalRe     = regexp.MustCompile(`\b(\d{1,2})(?:st|nd|rd|th)\b`)
	dayMonthRe    = regexp.MustCompile(`\b(\d{1,2}) ` + monthPattern + `\b(?: (\d{4})\b)?`)
	monthDayRe    = regexp.MustCompile(`\b` + monthPattern + ` (?:the )?(\d{1,2})\b(?: (\d{4})\b)?`)
	// A relative match only counts when it names a day; a bare month or hour does not.
	relativeDayRe = regexp.MustCompile(`\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun|day|days|week|weeks|fortnight|tomorrow|today|tonight)\b`)
)

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// Resolver turns caller phrases into calendar dates and slots.
type Resolver struct {
	clock Clock
	loc   *time.Location
	when  *when.Parser
}

// NewResolver builds a resolver anchored on clock. Dates are interpreted in loc.
func NewResolver(clock Clock, loc *time.Location) *Resolver {
	if clock == nil {
		clock = SystemClock{Location: loc}
	}
	if loc == nil {
		loc = time.UTC
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Resolver{clock: clock, loc: loc, when: w}
}

// Today returns the anchor's calendar date.
func (r *Resolver) Today() time.Time {
	return slots.DateOf(r.clock.Now().In(r.loc))
}

// Now returns the anchor instant in the resolver's location.
func (r *Resolver) Now() time.Time {
	return r.clock.Now().In(r.loc)
}

// ResolveDate interprets text as a calendar date relative to the anchor. Numeric and
// month-name forms read day before month. It returns false when nothing parses.
func (r *Resolver) ResolveDate(text string) (time.Time, bool) {
	raw := strings.ToLower(strings.TrimSpace(text))
	if raw == "" {
		return time.Time{}, false
	}
	today := r.Today()

	if m := isoDateRe.FindStringSubmatch(raw); m != nil {
		return buildDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := numericDateRe.FindStringSubmatch(raw); m != nil {
		day, month := atoi(m[1]), atoi(m[2])
		if m[3] == "" {
			return upcoming(today, day, time.Month(month))
		}
		return buildDate(expandYear(m[3]), month, day)
	}

	cleaned := ordinalRe.ReplaceAllString(raw, "$1")
	cleaned = phrase.Normalize(cleaned)
	cleaned = strings.ReplaceAll(" "+cleaned+" ", " of ", " ")
	cleaned = strings.TrimSpace(cleaned)

	if m := dayMonthRe.FindStringSubmatch(cleaned); m != nil {
		return monthDate(today, m[3], m[2], m[1])
	}
	if m := monthDayRe.FindStringSubmatch(cleaned); m != nil {
		return monthDate(today, m[3], m[1], m[2])
	}

	switch {
	case phrase.Contains(cleaned, "day after tomorrow"):
		return today.AddDate(0, 0, 2), true
	case phrase.Contains(cleaned, "tomorrow"):
		return today.AddDate(0, 0, 1), true
	case phrase.Contains(cleaned, "today"):
		return today, true
	}

	res, err := r.when.Parse(cleaned, r.Now())
	if err != nil || res == nil || !relativeDayRe.MatchString(res.Text) {
		return time.Time{}, false
	}
	return slots.DateOf(res.Time.In(r.loc)), true
}

func monthDate(today time.Time, year, monthName, day string) (time.Time, bool) {
	month, ok := monthsByPrefix[monthName[:3]]
	if !ok {
		return time.Time{}, false
	}
	if year == "" {
		return upcoming(today, atoi(day), month)
	}
	return buildDate(atoi(year), int(month), atoi(day))
}

// upcoming resolves a day/month without a year to its next occurrence on or after today.
func upcoming(today time.Time, day int, month time.Month) (time.Time, bool) {
	d, ok := buildDate(today.Year(), int(month), day)
	if !ok {
		// 29 February in a non-leap anchor year.
		return buildDate(today.Year()+1, int(month), day)
	}
	if d.Before(today) {
		return buildDate(today.Year()+1, int(month), day)
	}
	return d, true
}

func buildDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return d, true
}

func expandYear(v string) int {
	y := atoi(v)
	if len(v) == 2 {
		return 2000 + y
	}
	return y
}

func atoi(v string) int {
	n, _ := strconv.Atoi(v)
	return n
}

// FormatLong renders a date the way it is spoken back to callers: "05 December 2025".
func FormatLong(d time.Time) string {
	return d.Format("02 January 2006")
}

// FormatSpoken renders a date with its weekday: "Friday, 05 December 2025".
func FormatSpoken(d time.Time) string {
	return d.Format("Monday, 02 January 2006")
}
