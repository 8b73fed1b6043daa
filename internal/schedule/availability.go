package schedule

import "time"

// Available filters the date's slots down to the times not present in
// booked, preserving ascending order. The booked set should be the scheduled
// times read from the store immediately beforehand; the result is a display
// hint only, since another customer may take a slot between the read and a
// subsequent reserve attempt. The authoritative check happens at admission.
func (r Rule) Available(date time.Time, booked map[TimeOfDay]struct{}) []TimeOfDay {
	all := r.Slots(date)
	out := make([]TimeOfDay, 0, len(all))
	for _, t := range all {
		if _, taken := booked[t]; taken {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BookedSet converts a list of "HH:MM" strings (as stored on reservations)
// into a set usable by Available. Malformed entries are skipped; the store
// column is constrained to the same format the parser accepts.
func BookedSet(times []string) map[TimeOfDay]struct{} {
	set := make(map[TimeOfDay]struct{}, len(times))
	for _, s := range times {
		t, err := ParseTimeOfDay(s)
		if err != nil {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}
