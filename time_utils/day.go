package timeutils

import "time"

// StartOfDay returns midnight at the start of the calendar day containing `t`,
// evaluated in the given location. Using time.Date here keeps the result
// correct across daylight-saving transitions, where a naive "subtract the
// elapsed time of day" calculation would drift by an hour.
func StartOfDay(t time.Time, location *time.Location) time.Time {
	local := t.In(location)
	year, month, day := local.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// StartOfNextDay returns midnight at the start of the calendar day after the
// one containing `t`, evaluated in the given location.
func StartOfNextDay(t time.Time, location *time.Location) time.Time {
	return StartOfDay(t, location).AddDate(0, 0, 1)
}
