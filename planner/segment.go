package planner

import "time"

// ScheduleSegment is one contiguous window of a planned day: chronologically
// ordered, non-overlapping, with adjacent same-state segments already
// coalesced by the strategy that produced it.
type ScheduleSegment struct {
	Start time.Time
	End   time.Time
	State SlotState
	Soc   int
}

// dropPastSegments removes segments that have fully passed. This is the
// post-processing shared by every strategy before segments are written into
// the slot store.
func dropPastSegments(segments []ScheduleSegment, now time.Time) []ScheduleSegment {
	kept := segments[:0]
	for _, segment := range segments {
		if segment.End.After(now) {
			kept = append(kept, segment)
		}
	}
	return kept
}
