package planner

import (
	"log/slog"
	"time"
)

// ManualSlotEntry is a user-authored override window. Entries are persisted
// independently of the slot store and folded back in on every planning
// cycle, so a re-plan never discards what the user asked for.
type ManualSlotEntry struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	State SlotState `json:"state"`
	Soc   *int      `json:"soc,omitempty"`
}

// manualSoc resolves the target state of charge for a manual entry. When the
// user did not give one the default depends on the requested state: actions
// that hold or gain energy aim for the configured maximum, export-excess aims
// for the shutdown floor, and plain discharge gets a neutral midpoint. A
// "sell" without an explicit SOC is unusable and the entry is skipped. The
// result is always clamped to the battery's configured operating range.
func manualSoc(entry ManualSlotEntry, maxSoc, shutdownSoc int) (int, bool) {
	var soc int
	switch {
	case entry.Soc != nil:
		soc = *entry.Soc
	case entry.State == StateCharge || entry.State == StatePause:
		soc = maxSoc
	case entry.State == StateSellExcess:
		soc = shutdownSoc
	case entry.State == StateDischarge || entry.State == StateDiscardExcess:
		soc = defaultSoc
	default: // StateSell with no explicit SOC
		return 0, false
	}

	if soc > maxSoc {
		soc = maxSoc
	}
	if soc < shutdownSoc {
		soc = shutdownSoc
	}
	return soc, true
}

// addManualSlots folds the manual entries into the slot store, splicing the
// array to insert, extend or replace computed entries while keeping the
// chronological non-overlap invariant.
//
// Entries are processed in storage order, not time order. Later entries may
// overwrite portions of earlier ones.
//
// The merge is idempotent: re-running with the same entries against the same
// computed schedule finds each manual window already in place (start and end
// boundaries both aligned) which makes the splice a zero-move rewrite.
func addManualSlots(store *SlotStore, entries []ManualSlotEntry, maxSoc, shutdownSoc int) {
	for _, entry := range entries {
		soc, ok := manualSoc(entry, maxSoc, shutdownSoc)
		if !ok {
			slog.Warn("Skipping manual slot without explicit SOC", "state", entry.State, "start", entry.Start)
			continue
		}

		startIndex := searchSlotIndex(store, entry.Start)
		endIndex := searchSlotIndex(store, entry.End)

		endSlot := store.At(endIndex)
		endIsEnd := !endSlot.Start.IsZero() && endSlot.Start.Equal(entry.End)

		if startIndex == endIndex && !endIsEnd {
			// The manual window falls strictly inside one existing slot.
			// Open two positions: one for the manual window and one to
			// resume the occupying slot's action after it.
			resumeState := StateOff
			resumeSoc := defaultSoc
			if startIndex > 0 {
				occupying := store.At(startIndex - 1)
				resumeState = occupying.State
				resumeSoc = occupying.Soc
			}
			store.ShiftForward(startIndex, 2)
			store.SetAt(startIndex, Slot{Start: entry.Start, State: entry.State, Active: true, Soc: soc})
			store.SetAt(startIndex+1, Slot{Start: entry.End, State: resumeState, Active: true, Soc: resumeSoc})
			continue
		}

		// The window spans one or more existing slot boundaries. Two
		// positions are needed (the manual window and its end boundary);
		// the splice consumes endIndex-startIndex existing positions, plus
		// one more when the end lines up exactly with an existing boundary.
		moves := -2 + (endIndex - startIndex)
		if endIsEnd {
			moves++
		}
		if moves < 0 {
			store.ShiftForward(startIndex, -moves)
		} else if moves > 0 {
			store.ShiftBack(startIndex, moves)
		}

		boundary := store.At(startIndex + 1)
		boundary.Start = entry.End
		store.SetAt(startIndex+1, boundary)
		store.SetAt(startIndex, Slot{Start: entry.Start, State: entry.State, Active: true, Soc: soc})
	}
}

// searchSlotIndex returns the first position whose start time is unset or
// not before `t`.
func searchSlotIndex(store *SlotStore, t time.Time) int {
	for i := 0; i < NumSlots; i++ {
		slot := store.At(i)
		if slot.Start.IsZero() || !slot.Start.Before(t) {
			return i
		}
	}
	return NumSlots - 1
}
