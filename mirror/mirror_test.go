package mirror

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gridsmith/energyplanner/planner"
)

func TestPlanRowsStopAtSentinel(t *testing.T) {
	installation := uuid.New()
	base := time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC)

	slots := make([]planner.Slot, planner.NumSlots)
	for i := range slots {
		slots[i] = planner.Slot{State: planner.StateOff, Soc: 50}
	}
	slots[0] = planner.Slot{Start: base, State: planner.StateCharge, Active: true, Soc: 100}
	slots[1] = planner.Slot{Start: base.Add(time.Hour), State: planner.StateDischarge, Active: false, Soc: 10}
	// stale leftover beyond the sentinel must not upload
	slots[3] = planner.Slot{Start: base.Add(5 * time.Hour), State: planner.StatePause, Active: true, Soc: 50}

	snapshot := planner.PlanSnapshot{RunID: uuid.New(), Time: base, Slots: slots}
	rows := planRows(snapshot, installation)

	if assert.Len(t, rows, 2) {
		assert.Equal(t, installation.String(), rows[0].Installation)
		assert.Equal(t, snapshot.RunID.String(), rows[0].PlanRun)
		assert.Equal(t, 0, rows[0].Position)
		assert.Equal(t, "charge", rows[0].State)
		assert.Equal(t, 100, rows[0].Soc)
		assert.True(t, rows[0].Active)

		assert.Equal(t, 1, rows[1].Position)
		assert.Equal(t, "discharge", rows[1].State)
		assert.False(t, rows[1].Active)
	}
}

func TestPlanRowsEmptySchedule(t *testing.T) {
	slots := make([]planner.Slot, planner.NumSlots)
	for i := range slots {
		slots[i] = planner.Slot{State: planner.StateOff}
	}
	rows := planRows(planner.PlanSnapshot{RunID: uuid.New(), Slots: slots}, uuid.New())
	assert.Empty(t, rows)
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New("", "key", "schema", "plans", uuid.New())
	assert.Error(t, err)
}
