package planner

import "time"

// DisabledRange records a slot the user had switched off before a re-plan,
// keyed by its exact stringified boundaries. Matching after the re-plan is
// by string equality only: a plan that shifts the grid even slightly will
// not restore the disable.
type DisabledRange struct {
	Start string    `json:"start"`
	End   string    `json:"end"`
	State SlotState `json:"state"`
	Soc   int       `json:"soc"`
}

// boundaryString is the canonical form used for disable-range matching.
func boundaryString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// storeDisableState snapshots every scheduled slot whose active flag is
// false, recording its time range (the slot's start up to the next slot's
// start), state and SOC. Called before the store is reset for a re-plan.
func storeDisableState(store *SlotStore) []DisabledRange {
	var ranges []DisabledRange
	for i := 0; i < NumSlots-1; i++ {
		slot := store.At(i)
		if slot.State == StateOff {
			break
		}
		if slot.Active {
			continue
		}
		ranges = append(ranges, DisabledRange{
			Start: boundaryString(slot.Start),
			End:   boundaryString(store.At(i + 1).Start),
			State: slot.State,
			Soc:   slot.Soc,
		})
	}
	return ranges
}

// restoreDisableState re-applies recorded disables onto the freshly written
// schedule: any slot whose (start, next start) boundaries exactly match a
// recorded range is switched back to inactive, so a re-plan does not
// silently re-enable a window the user turned off.
func restoreDisableState(store *SlotStore, ranges []DisabledRange) {
	if len(ranges) == 0 {
		return
	}
	for i := 0; i < NumSlots-1; i++ {
		slot := store.At(i)
		if slot.State == StateOff {
			break
		}
		start := boundaryString(slot.Start)
		end := boundaryString(store.At(i + 1).Start)
		for _, r := range ranges {
			if r.Start == start && r.End == end {
				slot.Active = false
				store.SetAt(i, slot)
				break
			}
		}
	}
}
