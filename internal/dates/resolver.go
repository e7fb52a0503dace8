// Package dates resolves relative date phrases to concrete local dates.
package dates

import (
	"regexp"
	"strings"
	"time"
)

// DateFormat is the wire form for resolved dates.
const DateFormat = "2006-01-02"

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var (
	tomorrowRe = regexp.MustCompile(`\btomorrow\b`)
	weekdayRe  = regexp.MustCompile(`\b(?:on\s+|next\s+)?(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
)

// Resolver resolves due-date phrases relative to an injectable clock so
// results are deterministic under test.
type Resolver struct {
	now func() time.Time
}

// NewResolver returns a resolver using the system clock.
func NewResolver() *Resolver {
	return &Resolver{now: time.Now}
}

// NewResolverAt returns a resolver with a fixed notion of "now".
func NewResolverAt(now func() time.Time) *Resolver {
	return &Resolver{now: now}
}

// Resolve scans text for a relative date phrase and returns the concrete
// local date in YYYY-MM-DD form, or "" when no phrase matches.
//
// "tomorrow" always wins over a weekday mention. Weekday phrases resolve to
// the next occurrence of that weekday at or after today, so "on Friday"
// said on a Friday means today.
func (r *Resolver) Resolve(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	today := r.today()

	if tomorrowRe.MatchString(lower) {
		return today.AddDate(0, 0, 1).Format(DateFormat)
	}

	m := weekdayRe.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}

	target := weekdays[m[1]]
	diff := (int(target) - int(today.Weekday()) + 7) % 7
	return today.AddDate(0, 0, diff).Format(DateFormat)
}

// Today returns the current local date in YYYY-MM-DD form.
func (r *Resolver) Today() string {
	return r.today().Format(DateFormat)
}

// DaysAgo returns the local date the given number of days before today,
// in YYYY-MM-DD form.
func (r *Resolver) DaysAgo(days int) string {
	return r.today().AddDate(0, 0, -days).Format(DateFormat)
}

// today truncates the clock to a local calendar date.
func (r *Resolver) today() time.Time {
	now := r.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
