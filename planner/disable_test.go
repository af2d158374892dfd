package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisableStateSurvivesReplan(t *testing.T) {
	base := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	segments := []ScheduleSegment{
		{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour), State: StateCharge, Soc: 100},
		{Start: base.Add(3 * time.Hour), End: base.Add(17 * time.Hour), State: StatePause, Soc: 100},
		{Start: base.Add(17 * time.Hour), End: base.Add(18 * time.Hour), State: StateDischarge, Soc: 10},
	}

	store := NewSlotStore()
	store.WriteSegments(0, segments)

	// the user switches off the discharge slot
	slot := store.At(2)
	slot.Active = false
	store.SetAt(2, slot)

	ranges := storeDisableState(store)
	if assert.Len(t, ranges, 1) {
		assert.Equal(t, StateDischarge, ranges[0].State)
	}

	// a re-plan produces the identical grid
	store.Reset()
	store.WriteSegments(0, segments)
	assert.True(t, store.At(2).Active, "replan re-enables by default")

	restoreDisableState(store, ranges)
	assert.False(t, store.At(2).Active, "the disable must be restored")
	assert.True(t, store.At(0).Active)
	assert.True(t, store.At(1).Active)
}

func TestDisableStateExactMatchOnly(t *testing.T) {
	base := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	store := NewSlotStore()
	store.WriteSegments(0, []ScheduleSegment{
		{Start: base.Add(17 * time.Hour), End: base.Add(18 * time.Hour), State: StateDischarge, Soc: 10},
	})
	slot := store.At(0)
	slot.Active = false
	store.SetAt(0, slot)

	ranges := storeDisableState(store)

	// the new plan shifts the window by one minute: matching is by exact
	// boundary strings, so the disable is not restored
	store.Reset()
	store.WriteSegments(0, []ScheduleSegment{
		{Start: base.Add(17*time.Hour + time.Minute), End: base.Add(18 * time.Hour), State: StateDischarge, Soc: 10},
	})
	restoreDisableState(store, ranges)

	assert.True(t, store.At(0).Active, "a shifted grid must not match")
}

func TestStoreDisableStateStopsAtSentinel(t *testing.T) {
	base := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	store := NewSlotStore()
	store.WriteSegments(0, []ScheduleSegment{
		{Start: base, End: base.Add(time.Hour), State: StateCharge, Soc: 100},
	})

	// stale inactive leftovers beyond the sentinel are never recorded
	store.SetAt(5, Slot{Start: base.Add(5 * time.Hour), State: StateDischarge, Active: false, Soc: 10})

	assert.Empty(t, storeDisableState(store))
}
