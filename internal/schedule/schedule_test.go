package schedule

import (
	"testing"
	"time"
)

func TestParseTimeOfDay_Valid(t *testing.T) {
	cases := []struct {
		in   string
		want TimeOfDay
	}{
		{"00:00", 0},
		{"08:00", 8 * 60},
		{"13:00", 13 * 60},
		{"13:50", 13*60 + 50},
		{"23:59", 23*60 + 59},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTimeOfDay(%q) = %d, want %d", tc.in, got, tc.want)
		}
		if got.String() != tc.in {
			t.Fatalf("String roundtrip: %q -> %q", tc.in, got.String())
		}
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, in := range []string{
		"", "13", "1300", "13:0", "9:30", "13:60", "24:00", "ab:cd", "13:00 ", " 13:00", "13-00",
	} {
		if _, err := ParseTimeOfDay(in); err == nil {
			t.Fatalf("ParseTimeOfDay(%q) expected error", in)
		}
	}
}

// Monday 2024-03-25 and Saturday 2024-03-23 anchor the day classifications.
var (
	aMonday   = time.Date(2024, 3, 25, 0, 0, 0, 0, time.UTC)
	aSaturday = time.Date(2024, 3, 23, 0, 0, 0, 0, time.UTC)
	aSunday   = time.Date(2024, 3, 24, 0, 0, 0, 0, time.UTC)
)

func TestDefaultRule_WeekdaySlots(t *testing.T) {
	slots := DefaultRule().Slots(aMonday)

	want := []string{"13:00", "13:50", "14:40", "15:30", "16:20", "17:10", "18:00", "18:50"}
	if len(slots) != len(want) {
		t.Fatalf("weekday slot count = %d, want %d (%v)", len(slots), len(want), slots)
	}
	for i, w := range want {
		if slots[i].String() != w {
			t.Fatalf("weekday slot[%d] = %s, want %s", i, slots[i], w)
		}
	}
}

func TestDefaultRule_WeekendSlots(t *testing.T) {
	for _, day := range []time.Time{aSaturday, aSunday} {
		slots := DefaultRule().Slots(day)

		want := []string{
			"08:00", "08:30", "09:00", "09:30", "10:00", "10:30",
			"13:00", "13:50", "14:40", "15:30", "16:20", "17:10", "18:00", "18:50",
		}
		if len(slots) != len(want) {
			t.Fatalf("%s slot count = %d, want %d", day.Weekday(), len(slots), len(want))
		}
		for i, w := range want {
			if slots[i].String() != w {
				t.Fatalf("%s slot[%d] = %s, want %s", day.Weekday(), i, slots[i], w)
			}
		}
	}
}

func TestDefaultRule_Contains(t *testing.T) {
	r := DefaultRule()

	mustParse := func(s string) TimeOfDay {
		t.Helper()
		tod, err := ParseTimeOfDay(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return tod
	}

	// Morning run exists only on weekends.
	if r.Contains(aMonday, mustParse("08:00")) {
		t.Fatalf("08:00 must not be bookable on a weekday")
	}
	if !r.Contains(aSaturday, mustParse("08:00")) {
		t.Fatalf("08:00 must be bookable on Saturday")
	}

	// Afternoon run on both classifications.
	if !r.Contains(aMonday, mustParse("13:50")) || !r.Contains(aSunday, mustParse("13:50")) {
		t.Fatalf("13:50 must be bookable every day")
	}

	// Off-grid times are never bookable, even inside the covered window.
	for _, s := range []string{"07:30", "13:10", "14:00", "19:40", "20:00"} {
		if r.Contains(aMonday, mustParse(s)) {
			t.Fatalf("%s must not be bookable on a weekday", s)
		}
	}
	if r.Contains(aSaturday, mustParse("11:00")) {
		t.Fatalf("11:00 falls between runs and must not be bookable on Saturday")
	}
}

func TestRule_Available_ExcludesTakenPreservesOrder(t *testing.T) {
	r := DefaultRule()

	taken := BookedSet([]string{"13:00", "15:30", "not-a-time"})
	free := r.Available(aMonday, taken)

	if len(free) != 6 {
		t.Fatalf("free count = %d, want 6 (%v)", len(free), free)
	}
	want := []string{"13:50", "14:40", "16:20", "17:10", "18:00", "18:50"}
	for i, w := range want {
		if free[i].String() != w {
			t.Fatalf("free[%d] = %s, want %s", i, free[i], w)
		}
	}
}

func TestRule_Available_FullyBooked(t *testing.T) {
	r := DefaultRule()

	all := make([]string, 0)
	for _, s := range r.Slots(aMonday) {
		all = append(all, s.String())
	}
	free := r.Available(aMonday, BookedSet(all))
	if len(free) != 0 {
		t.Fatalf("expected no free slots, got %v", free)
	}
}

func TestBookedSet_SkipsMalformed(t *testing.T) {
	set := BookedSet([]string{"13:00", "", "9:00", "13:50"})
	if len(set) != 2 {
		t.Fatalf("BookedSet size = %d, want 2", len(set))
	}
	if _, ok := set[13*60]; !ok {
		t.Fatalf("13:00 missing from set")
	}
	if _, ok := set[13*60+50]; !ok {
		t.Fatalf("13:50 missing from set")
	}
}
