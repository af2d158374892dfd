package planner

import (
	"sort"
	"time"

	"github.com/gridsmith/energyplanner/nordpool"
	timeutils "github.com/gridsmith/energyplanner/time_utils"
)

// Strategy names one of the interchangeable day-planning algorithms.
type Strategy string

const (
	StrategyBasic         Strategy = "basic"
	StrategyCheapestHours Strategy = "cheapest_hours"
	StrategyPricePeak     Strategy = "price_peak"
	StrategyDynamic       Strategy = "dynamic"
)

// Strategies lists every selectable strategy.
var Strategies = []Strategy{StrategyBasic, StrategyCheapestHours, StrategyPricePeak, StrategyDynamic}

// Valid reports whether s names a known strategy.
func (s Strategy) Valid() bool {
	for _, strategy := range Strategies {
		if s == strategy {
			return true
		}
	}
	return false
}

// dayConfig carries the per-day inputs that the planning functions need:
// the bounds of the local calendar day being planned plus the relevant
// configuration scalars.
type dayConfig struct {
	startOfDay time.Time
	endOfDay   time.Time

	chargeHours    float64
	dischargeHours float64

	earliestCharge    timeutils.ClockTime
	earliestDischarge timeutils.ClockTime

	maxSoc      int
	shutdownSoc int

	efficiencyFactor float64

	cheapState     SlotState
	expensiveState SlotState
	inbetweenState SlotState
}

// quarterCount converts a configured number of hours into a quarter-hour
// count, capped at the number of available price points.
func quarterCount(hours float64, available int) int {
	n := int(hours * 4)
	if n > available {
		n = available
	}
	if n < 0 {
		n = 0
	}
	return n
}

// cheapestPoints returns the n cheapest points of the series, re-sorted into
// chronological order. Selection is stable: among equally priced points the
// earliest wins.
func cheapestPoints(points []nordpool.PricePoint, n int) []nordpool.PricePoint {
	if n > len(points) {
		n = len(points)
	}
	if n <= 0 {
		return nil
	}
	byValue := make([]nordpool.PricePoint, len(points))
	copy(byValue, points)
	sort.SliceStable(byValue, func(i, j int) bool { return byValue[i].Value < byValue[j].Value })
	selected := byValue[:n]
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Start.Before(selected[j].Start) })
	return selected
}
