// Package schedule implements the slot calendar: the pure, deterministic
// rules that decide which bookable times exist on a given calendar date and
// which of them remain free. The package performs no I/O and never consults
// the wall clock; callers supply the date and the set of taken times.
package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a time within a day at minute precision, stored as minutes
// since midnight. It is comparable, ordered, and independent of any calendar
// date or timezone.
type TimeOfDay int

// ParseTimeOfDay parses a 24-hour "HH:MM" string. It rejects out-of-range
// hours/minutes and any other layout (including "H:MM" and trailing text).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// String renders the time in 24-hour HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Block describes a run of equally spaced slots: Count slots starting at
// Start, Every minutes apart. Duration of a slot equals its spacing.
type Block struct {
	Start TimeOfDay
	Every time.Duration
	Count int
}

// times expands the block into its individual slot times, in order.
func (b Block) times() []TimeOfDay {
	out := make([]TimeOfDay, 0, b.Count)
	step := TimeOfDay(b.Every / time.Minute)
	for i := 0; i < b.Count; i++ {
		out = append(out, b.Start+TimeOfDay(i)*step)
	}
	return out
}

// Rule is the schedule configuration for the calendar: one slot layout for
// weekdays and one for weekends. Day classification is derived from the
// date's weekday. Blocks within a classification must not overlap and must
// be listed in ascending order; DefaultRule satisfies both.
type Rule struct {
	Weekday []Block
	Weekend []Block
}

// DefaultRule returns the shop's schedule: eight 50-minute slots from 13:00
// on weekdays; on weekends an additional morning run of six 30-minute slots
// from 08:00 ahead of the same afternoon layout.
func DefaultRule() Rule {
	afternoon := Block{Start: 13 * 60, Every: 50 * time.Minute, Count: 8}
	return Rule{
		Weekday: []Block{afternoon},
		Weekend: []Block{
			{Start: 8 * 60, Every: 30 * time.Minute, Count: 6},
			afternoon,
		},
	}
}

// blocksFor selects the block list for the date's day classification.
func (r Rule) blocksFor(date time.Time) []Block {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return r.Weekend
	default:
		return r.Weekday
	}
}

// Slots returns the ordered bookable times for the given calendar date.
// The function is total: past dates, far-future dates, and dates in any
// location all produce the schedule for their weekday. Filtering out past
// dates is a caller concern (the booking arbiter enforces it).
func (r Rule) Slots(date time.Time) []TimeOfDay {
	var out []TimeOfDay
	for _, b := range r.blocksFor(date) {
		out = append(out, b.times()...)
	}
	return out
}

// Contains reports whether t is one of the date's bookable times.
func (r Rule) Contains(date time.Time, t TimeOfDay) bool {
	for _, s := range r.Slots(date) {
		if s == t {
			return true
		}
	}
	return false
}
