// Package clock abstracts wall time so day-boundary logic is testable.
package clock

import "time"

// DateFormat is the canonical calendar-date form used for reset bookkeeping.
const DateFormat = "2006-01-02"

type Clock interface {
	// Now returns the current instant.
	Now() time.Time
	// Today returns the current calendar date at midnight local time.
	Today() time.Time
}

// System is the real clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) Today() time.Time {
	return StartOfDay(time.Now())
}

// Fixed is a clock pinned to a settable instant, for tests.
type Fixed struct {
	Current time.Time
}

func NewFixed(t time.Time) *Fixed { return &Fixed{Current: t} }

func (f *Fixed) Now() time.Time   { return f.Current }
func (f *Fixed) Today() time.Time { return StartOfDay(f.Current) }

// Advance moves the fixed clock forward.
func (f *Fixed) Advance(d time.Duration) { f.Current = f.Current.Add(d) }

// StartOfDay truncates an instant to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two instants fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
