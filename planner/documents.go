package planner

import (
	"time"

	"github.com/gridsmith/energyplanner/nordpool"
)

// SlotRecord is the persisted form of a schedule slot. Start is a pointer so
// the terminating empty slots serialize as null rather than the zero time.
type SlotRecord struct {
	Start  *time.Time `json:"date_time_start"`
	State  SlotState  `json:"state"`
	Active bool       `json:"active"`
	Soc    int        `json:"soc"`
}

// ValuesDocument holds everything the planner derives at runtime: the
// current schedule plus the price cache, so a restart can replan without
// refetching.
type ValuesDocument struct {
	Slots      []SlotRecord            `json:"slots"`
	PriceCache []nordpool.CachedSeries `json:"price_cache,omitempty"`
}

// ManualSlotsDocument holds the user-entered slot overrides.
type ManualSlotsDocument struct {
	Entries []ManualSlotEntry `json:"entries"`
}

func encodeSlots(store *SlotStore) []SlotRecord {
	records := make([]SlotRecord, NumSlots)
	for i, slot := range store.Slots() {
		record := SlotRecord{State: slot.State, Active: slot.Active, Soc: slot.Soc}
		if !slot.Start.IsZero() {
			start := slot.Start
			record.Start = &start
		}
		records[i] = record
	}
	return records
}

func decodeSlots(store *SlotStore, records []SlotRecord) {
	store.Reset()
	for i, record := range records {
		if i >= NumSlots {
			break
		}
		slot := Slot{State: record.State, Active: record.Active, Soc: record.Soc}
		if record.Start != nil {
			slot.Start = *record.Start
		}
		if slot.State == "" {
			slot.State = StateOff
		}
		store.SetAt(i, slot)
	}
}
