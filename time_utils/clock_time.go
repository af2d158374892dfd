package timeutils

import (
	"fmt"
	"time"
)

// ClockTime represents a time of day in the given locale, without a date.
type ClockTime struct {
	Hour     int
	Minute   int
	Second   int
	Location *time.Location
}

// ParseClockTime parses a "HH:MM" string into a ClockTime in the given location.
func ParseClockTime(s string, location *time.Location) (ClockTime, error) {
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	return ClockTime{
		Hour:     parsed.Hour(),
		Minute:   parsed.Minute(),
		Location: location,
	}, nil
}

// OnDate returns a time with the given clock time on the given date
func (c *ClockTime) OnDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, c.Hour, c.Minute, c.Second, 0, c.Location)
}

// OnSameDate returns a time with the given clock time on the same calendar day
// as `t`, evaluated in the ClockTime's location.
func (c *ClockTime) OnSameDate(t time.Time) time.Time {
	year, month, day := t.In(c.Location).Date()
	return c.OnDate(year, month, day)
}
