package timeutils

import "time"

// Period is a half-open span of absolute time: Start is part of the period,
// End is not.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Equal reports whether both periods cover the same instants. The boundary
// times may carry different locations; comparison is by instant, the way
// time.Time.Equal compares.
func (p Period) Equal(other Period) bool {
	return p.Start.Equal(other.Start) && p.End.Equal(other.End)
}
