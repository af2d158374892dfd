package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlanCheapestHoursDay(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := dayPrices(day, 1.0, map[int]float64{
		40: 0.1, 41: 0.1, 42: 0.1, 43: 0.1, // 10:00–11:00
	})

	schedule := planCheapestHoursDay(points, testDayConfig(day))

	// discharge until the cheap hour, charge through it, discharge after
	if !assert.Len(t, schedule, 3) {
		return
	}
	assert.Equal(t, StateDischarge, schedule[0].State)
	assert.True(t, schedule[0].Start.Equal(day))
	assert.True(t, schedule[0].End.Equal(day.Add(10*time.Hour)))

	assert.Equal(t, StateCharge, schedule[1].State)
	assert.True(t, schedule[1].Start.Equal(day.Add(10*time.Hour)))
	assert.True(t, schedule[1].End.Equal(day.Add(11*time.Hour)))
	assert.Equal(t, 100, schedule[1].Soc)

	assert.Equal(t, StateDischarge, schedule[2].State)
	assert.True(t, schedule[2].End.Equal(day.AddDate(0, 0, 1)))
	assert.Equal(t, 10, schedule[2].Soc)
}

func TestPlanCheapestHoursDaySplitSelection(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := dayPrices(day, 1.0, map[int]float64{
		8: 0.1, 9: 0.1, // 02:00–02:30
		80: 0.1, 81: 0.1, // 20:00–20:30
	})

	schedule := planCheapestHoursDay(points, testDayConfig(day))

	var chargeCount int
	for i, segment := range schedule {
		if i > 0 {
			assert.True(t, schedule[i-1].End.Equal(segment.Start), "schedule must have no gaps")
		}
		if segment.State == StateCharge {
			chargeCount++
		}
	}
	assert.Equal(t, 2, chargeCount, "two separated cheap windows, two charge segments")
	assert.True(t, schedule[0].Start.Equal(day))
	assert.True(t, schedule[len(schedule)-1].End.Equal(day.AddDate(0, 0, 1)))
}

func TestPlanCheapestHoursDayCheapStartOfDay(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := dayPrices(day, 1.0, map[int]float64{
		0: 0.1, 1: 0.1, 2: 0.1, 3: 0.1, // midnight hour is cheapest
	})

	schedule := planCheapestHoursDay(points, testDayConfig(day))

	assert.Equal(t, StateCharge, schedule[0].State, "no leading filler when the day starts cheap")
	assert.True(t, schedule[0].Start.Equal(day))
}

func TestPlanCheapestHoursDayNoSelection(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	cfg := testDayConfig(day)
	cfg.chargeHours = 0

	schedule := planCheapestHoursDay(dayPrices(day, 1.0, nil), cfg)

	if assert.Len(t, schedule, 1) {
		assert.Equal(t, StateDischarge, schedule[0].State)
		assert.True(t, schedule[0].Start.Equal(day))
		assert.True(t, schedule[0].End.Equal(day.AddDate(0, 0, 1)))
	}
}
