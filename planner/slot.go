package planner

import "time"

// SlotState is the action a battery controller should take during a slot.
type SlotState string

const (
	StateCharge        SlotState = "charge"
	StateDischarge     SlotState = "discharge"
	StateSell          SlotState = "sell"
	StateSellExcess    SlotState = "sell-excess"
	StateDiscardExcess SlotState = "discard-excess"
	StatePause         SlotState = "pause"
	StateOff           SlotState = "off"
)

// ManualStates are the states a user may request through the manual slot
// service. "off" is excluded: it is the schedule terminator, not an action.
var ManualStates = []SlotState{
	StateCharge,
	StateDischarge,
	StateSell,
	StateSellExcess,
	StateDiscardExcess,
	StatePause,
}

// IsManual reports whether s may be used in a manual slot entry.
func (s SlotState) IsManual() bool {
	for _, state := range ManualStates {
		if s == state {
			return true
		}
	}
	return false
}

// Slot is one entry of the slot store. A zero Start means the slot has no
// scheduled time yet, which only happens in the reset state. A slot runs from
// its Start until the next slot's Start; the first "off" slot terminates the
// schedule and entries after it are stale leftovers.
type Slot struct {
	Start  time.Time
	State  SlotState
	Active bool
	Soc    int
}

// defaultSoc is the neutral state-of-charge target that slots are reset to.
const defaultSoc = 50
