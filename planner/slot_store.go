package planner

import "time"

// NumSlots is the fixed capacity of the slot store. The hardware-facing
// automation reads position 0 ("slot 1") as the current or next action.
const NumSlots = 50

// SlotStore is the positional array of scheduled actions. It is the single
// mutable source of truth for what the battery should do next: strategies
// and the manual merger write into it directly and never hold their own
// copy. Non-"off" entries are kept in chronological order and the first
// "off" entry terminates the schedule.
//
// SlotStore is not safe for concurrent use; the owning Planner serializes
// all access through its own lock.
type SlotStore struct {
	slots [NumSlots]Slot
}

// NewSlotStore returns a store in the reset state.
func NewSlotStore() *SlotStore {
	s := &SlotStore{}
	s.Reset()
	return s
}

// Reset returns every position to the inert "off" state.
func (s *SlotStore) Reset() {
	for i := range s.slots {
		s.slots[i] = Slot{State: StateOff, Active: false, Soc: defaultSoc}
	}
}

// At returns the slot at position i.
func (s *SlotStore) At(i int) Slot {
	return s.slots[i]
}

// SetAt replaces the slot at position i.
func (s *SlotStore) SetAt(i int, slot Slot) {
	s.slots[i] = slot
}

// Slots returns a copy of all positions, for publishing and persistence.
func (s *SlotStore) Slots() []Slot {
	out := make([]Slot, NumSlots)
	copy(out, s.slots[:])
	return out
}

// FirstFreeIndex returns the smallest position whose state is "off", which
// is where newly planned segments are appended. If every position is
// occupied it returns NumSlots.
func (s *SlotStore) FirstFreeIndex() int {
	for i, slot := range s.slots {
		if slot.State == StateOff {
			return i
		}
	}
	return NumSlots
}

// ShiftForward moves positions [from, NumSlots-1-steps] up to
// [from+steps, NumSlots-1], iterating from the high end downward so that no
// entry is overwritten before it is moved. Entries shifted past the end of
// the array are lost.
func (s *SlotStore) ShiftForward(from, steps int) {
	for i := NumSlots - 1 - steps; i >= from; i-- {
		s.slots[i+steps] = s.slots[i]
	}
}

// ShiftBack moves positions [from+steps, NumSlots-1] down to
// [from, NumSlots-1-steps], iterating upward. The vacated tail positions
// keep their previous contents; they sit beyond the "off" sentinel and are
// never read.
func (s *SlotStore) ShiftBack(from, steps int) {
	for i := from; i < NumSlots-steps; i++ {
		s.slots[i] = s.slots[i+steps]
	}
}

// WriteSegments writes the given segments sequentially from position start,
// then terminates the schedule with an "off" sentinel carrying the final
// segment's end time. Segments that do not fit in the array are dropped.
func (s *SlotStore) WriteSegments(start int, segments []ScheduleSegment) {
	if len(segments) == 0 {
		return
	}
	i := start
	for _, segment := range segments {
		if i >= NumSlots {
			return
		}
		s.slots[i] = Slot{
			Start:  segment.Start,
			State:  segment.State,
			Active: true,
			Soc:    segment.Soc,
		}
		i++
	}
	if i < NumSlots {
		s.slots[i] = Slot{
			Start:  segments[len(segments)-1].End,
			State:  StateOff,
			Active: false,
			Soc:    defaultSoc,
		}
	}
}

// AdvanceIfExpired shifts the whole schedule down one position when slot 2's
// start time has passed, so that position 0 always holds "now or the next
// upcoming action". It reports whether a shift happened.
func (s *SlotStore) AdvanceIfExpired(now time.Time) bool {
	next := s.slots[1]
	if next.Start.IsZero() || !now.After(next.Start) {
		return false
	}
	s.ShiftBack(0, 1)
	return true
}
