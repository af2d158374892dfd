package planner

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gridsmith/energyplanner/nordpool"
	timeutils "github.com/gridsmith/energyplanner/time_utils"
)

func testDayConfig(day time.Time) dayConfig {
	return dayConfig{
		startOfDay:        day,
		endOfDay:          day.AddDate(0, 0, 1),
		chargeHours:       1,
		dischargeHours:    1,
		earliestCharge:    timeutils.ClockTime{Hour: 22, Location: day.Location()},
		earliestDischarge: timeutils.ClockTime{Hour: 6, Location: day.Location()},
		maxSoc:            100,
		shutdownSoc:       10,
		efficiencyFactor:  1,
		cheapState:        StateCharge,
		expensiveState:    StateDischarge,
		inbetweenState:    StatePause,
	}
}

// dayPrices builds one local day of 96 quarter-hour points with the given
// base value, overridden per index.
func dayPrices(day time.Time, base float64, overrides map[int]float64) []nordpool.PricePoint {
	points := make([]nordpool.PricePoint, 96)
	for i := range points {
		value := base
		if v, ok := overrides[i]; ok {
			value = v
		}
		points[i] = nordpool.PricePoint{
			Start: day.Add(time.Duration(i) * 15 * time.Minute),
			End:   day.Add(time.Duration(i+1) * 15 * time.Minute),
			Value: value,
		}
	}
	return points
}

func TestPlanBasicDayConcreteScenario(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := dayPrices(day, 1.0, map[int]float64{
		8: 0.10, 9: 0.10, 10: 0.10, 11: 0.10, // 02:00–03:00, the four cheapest
		68: 3.00, 69: 3.00, 70: 3.00, 71: 3.00, // 17:00–18:00, the four most expensive
	})

	schedule := planBasicDay(points, testDayConfig(day))

	var charge, discharge []ScheduleSegment
	for _, segment := range schedule {
		switch segment.State {
		case StateCharge:
			charge = append(charge, segment)
		case StateDischarge:
			discharge = append(discharge, segment)
		default:
			assert.Equal(t, StatePause, segment.State)
			assert.True(t, segment.Start.Before(day.Add(6*time.Hour)), "pause only fills the charge window")
		}
	}

	if assert.Len(t, charge, 1) {
		assert.True(t, charge[0].Start.Equal(day.Add(2*time.Hour)))
		assert.True(t, charge[0].End.Equal(day.Add(3*time.Hour)))
		assert.Equal(t, 100, charge[0].Soc)
	}
	if assert.Len(t, discharge, 1) {
		assert.True(t, discharge[0].Start.Equal(day.Add(17*time.Hour)))
		assert.True(t, discharge[0].End.Equal(day.Add(18*time.Hour)))
		assert.Equal(t, 10, discharge[0].Soc)
	}
}

func TestPlanBasicDaySelectionBounds(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := dayPrices(day, 1.0, nil)

	cfg := testDayConfig(day)
	cfg.chargeHours = 3
	cfg.dischargeHours = 2

	schedule := planBasicDay(points, cfg)

	chargeQuarters, dischargeQuarters := 0, 0
	for _, segment := range schedule {
		quarters := int(segment.End.Sub(segment.Start) / (15 * time.Minute))
		switch segment.State {
		case StateCharge:
			chargeQuarters += quarters
		case StateDischarge:
			dischargeQuarters += quarters
		}
	}
	assert.LessOrEqual(t, chargeQuarters, 3*4)
	assert.LessOrEqual(t, dischargeQuarters, 2*4)
}

func TestPlanBasicDayCoalesces(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := dayPrices(day, 1.0, map[int]float64{8: 0.1, 9: 0.1, 10: 0.1, 11: 0.1})

	schedule := planBasicDay(points, testDayConfig(day))

	for i := 1; i < len(schedule); i++ {
		if schedule[i].State == schedule[i-1].State {
			assert.False(t, schedule[i-1].End.Equal(schedule[i].Start),
				"adjacent same-state segments must be merged")
		}
	}
}

func TestPlanBasicDayExcludesInfFromDischarge(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	points := dayPrices(day, 1.0, map[int]float64{
		68: math.Inf(1), 69: math.Inf(1),
	})

	schedule := planBasicDay(points, testDayConfig(day))

	for _, segment := range schedule {
		if segment.State != StateDischarge {
			continue
		}
		assert.False(t, segment.Start.Equal(day.Add(17*time.Hour)),
			"an unparseable price must never win the most-expensive selection")
	}
}

func TestPlanBasicDayEmptySeries(t *testing.T) {
	day := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, planBasicDay(nil, testDayConfig(day)))
}
