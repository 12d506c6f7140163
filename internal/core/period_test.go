package core

import (
	"testing"
	"time"
)

func TestResolvePeriods(t *testing.T) {
	cases := []struct {
		name      string
		now       time.Time
		curStart  time.Time
		curEnd    time.Time
		prevStart time.Time
	}{
		{
			name:      "mid month",
			now:       time.Date(2025, 6, 15, 13, 45, 0, 0, time.UTC),
			curStart:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			curEnd:    time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			prevStart: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "january rolls back to december",
			now:       time.Date(2026, 1, 3, 8, 0, 0, 0, time.UTC),
			curStart:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			curEnd:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			prevStart: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "december rolls forward to january",
			now:       time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC),
			curStart:  time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
			curEnd:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			prevStart: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "31st of a month after a short month",
			now:       time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC),
			curStart:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			curEnd:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			prevStart: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "first instant of the month",
			now:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			curStart:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			curEnd:    time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			prevStart: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cur, prev := ResolvePeriods(tc.now)
			if !cur.Start.Equal(tc.curStart) || !cur.End.Equal(tc.curEnd) {
				t.Fatalf("current = [%v, %v), want [%v, %v)", cur.Start, cur.End, tc.curStart, tc.curEnd)
			}
			if !prev.Start.Equal(tc.prevStart) || !prev.End.Equal(tc.curStart) {
				t.Fatalf("previous = [%v, %v), want [%v, %v)", prev.Start, prev.End, tc.prevStart, tc.curStart)
			}
			if !cur.Contains(tc.now) {
				t.Fatalf("current window does not contain now")
			}
		})
	}
}

func TestResolvePeriodsIgnoresDayOfMonth(t *testing.T) {
	first, firstPrev := ResolvePeriods(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	for day := 2; day <= 31; day++ {
		cur, prev := ResolvePeriods(time.Date(2025, 8, day, 18, 30, 0, 0, time.UTC))
		if cur != first || prev != firstPrev {
			t.Fatalf("day %d resolved to %v/%v, want %v/%v", day, cur, prev, first, firstPrev)
		}
	}
}

func TestResolvePeriodsKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	// 23:30 UTC on Jan 31 is already February in UTC+2.
	now := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC).In(loc)
	cur, prev := ResolvePeriods(now)
	if cur.Label() != "2025-02" || prev.Label() != "2025-01" {
		t.Fatalf("labels = %s/%s, want 2025-02/2025-01", cur.Label(), prev.Label())
	}
	if cur.Start.Location() != loc {
		t.Fatalf("window lost its location")
	}
}

func TestWindowContainsIsHalfOpen(t *testing.T) {
	w := MonthWindow(time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC))
	if !w.Contains(w.Start) {
		t.Fatalf("start must be inside the window")
	}
	if w.Contains(w.End) {
		t.Fatalf("end must be outside the window")
	}
	if !w.Contains(w.End.Add(-time.Nanosecond)) {
		t.Fatalf("last instant must be inside the window")
	}
}
