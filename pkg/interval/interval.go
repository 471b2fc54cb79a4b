// Package interval holds the half-open [Start, End) overlap predicate shared by
// availability calculation and reservation admission.
package interval

import "time"

type Interval struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Overlaps reports whether a and b share at least one instant.
// Touching boundaries ([10:00,11:00) and [11:00,12:00)) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// OverlapsAny returns the first interval in others overlapping candidate.
func OverlapsAny(candidate Interval, others []Interval) (Interval, bool) {
	for _, o := range others {
		if Overlaps(candidate, o) {
			return o, true
		}
	}
	return Interval{}, false
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}
