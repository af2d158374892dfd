package nordpool

import (
	"log/slog"
	"time"

	timeutils "github.com/gridsmith/energyplanner/time_utils"
)

// JoinForDay concatenates up to three adjacent days' series and slices out
// the points belonging to the local calendar day containing `target` in the
// given area's timezone. Nil series in the input are skipped.
//
// Points whose localized start equals their localized end are degenerate
// intervals produced by the spring-forward daylight-saving transition; they
// are dropped with a logged notice rather than treated as an error.
func JoinForDay(series [][]PricePoint, target time.Time, area string) ([]PricePoint, error) {
	location, err := LocationFor(area)
	if err != nil {
		return nil, err
	}

	day := timeutils.Period{
		Start: timeutils.StartOfDay(target, location),
		End:   timeutils.StartOfNextDay(target, location),
	}

	var joined []PricePoint
	for _, dayseries := range series {
		if dayseries == nil {
			continue
		}
		for _, point := range dayseries {
			localStart := point.Start.In(location)
			localEnd := point.End.In(location)
			if !day.Contains(localStart) {
				continue
			}
			if localStart.Equal(localEnd) {
				slog.Info(
					"Dropping zero-length price interval, most likely a DST transition",
					"area", area,
					"start", localStart,
				)
				continue
			}
			joined = append(joined, PricePoint{
				Start: localStart,
				End:   localEnd,
				Value: point.Value,
			})
		}
	}

	return joined, nil
}
