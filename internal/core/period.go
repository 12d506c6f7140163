package core

import "time"

// Window is the half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Label returns the window's month as YYYY-MM.
func (w Window) Label() string {
	return w.Start.Format("2006-01")
}

// MonthWindow returns the calendar month containing t, in t's location.
func MonthWindow(t time.Time) Window {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}

// ResolvePeriods returns the calendar month containing now and the month before it.
// Both windows are anchored on the first of the month, so the day of now never matters.
func ResolvePeriods(now time.Time) (current, previous Window) {
	current = MonthWindow(now)
	prevStart := current.Start.AddDate(0, -1, 0)
	previous = Window{Start: prevStart, End: current.Start}
	return current, previous
}
