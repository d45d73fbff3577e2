// Package interval holds the overlap predicates used by the scheduling core.
//
// Time-of-day ranges are half-open: [start, end). Two bookings that touch
// (one ends at 09:30, the next starts at 09:30) do not overlap.
// Calendar date ranges are closed: [start, end]. A semester that ends on the
// day another begins overlaps it.
package interval

// TimeOverlap reports whether the half-open ranges [a1,a2) and [b1,b2) share
// at least one minute.
func TimeOverlap(a1, a2, b1, b2 TimeOfDay) bool {
	return a1 < b2 && b1 < a2
}

// DateOverlap reports whether the closed ranges [a1,a2] and [b1,b2] share at
// least one day.
func DateOverlap(a1, a2, b1, b2 Date) bool {
	return (a1.OnOrBefore(b1) && a2.OnOrAfter(b1)) ||
		(a1.OnOrBefore(b2) && a2.OnOrAfter(b2)) ||
		(a1.OnOrAfter(b1) && a2.OnOrBefore(b2))
}

// TimeRange is a half-open time-of-day range.
type TimeRange struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Overlaps applies TimeOverlap to both ranges.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return TimeOverlap(r.Start, r.End, other.Start, other.End)
}

// Minutes returns the length of the range. It is negative for inverted ranges.
func (r TimeRange) Minutes() int {
	return int(r.End) - int(r.Start)
}

// DateRange is a closed calendar range.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// Overlaps applies DateOverlap to both ranges.
func (r DateRange) Overlaps(other DateRange) bool {
	return DateOverlap(r.Start, r.End, other.Start, other.End)
}
