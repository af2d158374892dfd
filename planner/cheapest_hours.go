package planner

import (
	"github.com/gridsmith/energyplanner/nordpool"
)

// planCheapestHoursDay selects the configured number of cheapest
// quarter-hours anywhere in the local calendar day as "charge" segments at
// the maximum SOC, and fills all remaining time with "discharge" at the
// shutdown SOC: outside the cheap window the installation runs on the
// battery and exports as usual. Adjacent cheap quarter-hours coalesce into a
// single charge segment.
func planCheapestHoursDay(points []nordpool.PricePoint, cfg dayConfig) []ScheduleSegment {
	charging := cheapestPoints(points, quarterCount(cfg.chargeHours, len(points)))

	var schedule []ScheduleSegment
	for _, point := range charging {
		if len(schedule) == 0 {
			if !point.Start.Equal(cfg.startOfDay) {
				schedule = append(schedule, ScheduleSegment{
					Start: cfg.startOfDay,
					End:   point.Start,
					State: StateDischarge,
					Soc:   cfg.shutdownSoc,
				})
			}
			schedule = append(schedule, ScheduleSegment{
				Start: point.Start,
				End:   point.End,
				State: StateCharge,
				Soc:   cfg.maxSoc,
			})
			continue
		}

		last := len(schedule) - 1
		if schedule[last].End.Equal(point.Start) {
			schedule[last].End = point.End
			continue
		}
		schedule = append(schedule, ScheduleSegment{
			Start: schedule[last].End,
			End:   point.Start,
			State: StateDischarge,
			Soc:   cfg.shutdownSoc,
		})
		schedule = append(schedule, ScheduleSegment{
			Start: point.Start,
			End:   point.End,
			State: StateCharge,
			Soc:   cfg.maxSoc,
		})
	}

	// Cover the rest of the day with discharge. When nothing was selected at
	// all this makes the whole day a single discharge segment.
	fillStart := cfg.startOfDay
	if len(schedule) > 0 {
		fillStart = schedule[len(schedule)-1].End
	}
	if fillStart.Before(cfg.endOfDay) {
		schedule = append(schedule, ScheduleSegment{
			Start: fillStart,
			End:   cfg.endOfDay,
			State: StateDischarge,
			Soc:   cfg.shutdownSoc,
		})
	}

	return schedule
}
