package planner

import (
	"math"
	"sort"

	"github.com/gridsmith/energyplanner/nordpool"
	timeutils "github.com/gridsmith/energyplanner/time_utils"
)

// planBasicDay is the threshold strategy: the day is split at the earliest
// discharge time into a charge window (which may start the previous evening)
// and a discharge window. The cheapest quarter-hours of the charge window
// become "charge" segments and every other interval in that window becomes
// "pause" at the maximum SOC, so nothing is drained before the discharge
// window opens. The most expensive quarter-hours of the discharge window
// become "discharge" segments; gaps there need no filler because the slot
// array carries the preceding state up to the next boundary.
func planBasicDay(points []nordpool.PricePoint, cfg dayConfig) []ScheduleSegment {
	if len(points) == 0 {
		return nil
	}

	chargeWindow := timeutils.Period{
		Start: cfg.earliestCharge.OnSameDate(cfg.startOfDay.AddDate(0, 0, -1)),
		End:   cfg.earliestDischarge.OnSameDate(cfg.startOfDay),
	}
	dischargeWindow := timeutils.Period{
		Start: chargeWindow.End,
		End:   cfg.endOfDay,
	}

	var chargeCandidates, dischargeCandidates []nordpool.PricePoint
	for _, point := range points {
		switch {
		case chargeWindow.Contains(point.Start):
			chargeCandidates = append(chargeCandidates, point)
		case dischargeWindow.Contains(point.Start) && !math.IsInf(point.Value, 1):
			// +Inf marks an unparseable price; it must never win a "most
			// expensive" selection either, so it is excluded here.
			dischargeCandidates = append(dischargeCandidates, point)
		}
	}

	charging := cheapestPoints(chargeCandidates, quarterCount(cfg.chargeHours, len(chargeCandidates)))
	discharging := mostExpensivePoints(dischargeCandidates, quarterCount(cfg.dischargeHours, len(dischargeCandidates)))

	selected := make(map[int64]bool, len(charging))
	for _, point := range charging {
		selected[point.Start.Unix()] = true
	}

	var schedule []ScheduleSegment

	// Walk the charge window in time order, coalescing runs of equal state.
	for _, point := range chargeCandidates {
		state := StatePause
		if selected[point.Start.Unix()] {
			state = StateCharge
		}
		last := len(schedule) - 1
		if last >= 0 && schedule[last].State == state && schedule[last].End.Equal(point.Start) {
			schedule[last].End = point.End
			continue
		}
		schedule = append(schedule, ScheduleSegment{
			Start: point.Start,
			End:   point.End,
			State: state,
			Soc:   cfg.maxSoc,
		})
	}

	// Discharge segments: coalesce the selected quarter-hours only.
	for _, point := range discharging {
		last := len(schedule) - 1
		if last >= 0 && schedule[last].State == StateDischarge && schedule[last].End.Equal(point.Start) {
			schedule[last].End = point.End
			continue
		}
		schedule = append(schedule, ScheduleSegment{
			Start: point.Start,
			End:   point.End,
			State: StateDischarge,
			Soc:   cfg.shutdownSoc,
		})
	}

	return schedule
}

// mostExpensivePoints returns the n most expensive points re-sorted into
// chronological order, mirroring cheapestPoints.
func mostExpensivePoints(points []nordpool.PricePoint, n int) []nordpool.PricePoint {
	if n > len(points) {
		n = len(points)
	}
	if n <= 0 {
		return nil
	}
	byValue := make([]nordpool.PricePoint, len(points))
	copy(byValue, points)
	sort.SliceStable(byValue, func(i, j int) bool { return byValue[i].Value > byValue[j].Value })
	selected := byValue[:n]
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Start.Before(selected[j].Start) })
	return selected
}
