package timeutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodContainsBoundaries(t *testing.T) {
	start := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	p := Period{Start: start, End: start.Add(time.Hour)}

	assert.True(t, p.Contains(start), "start is inclusive")
	assert.True(t, p.Contains(start.Add(30*time.Minute)))
	assert.False(t, p.Contains(p.End), "end is exclusive")
	assert.False(t, p.Contains(start.Add(-time.Second)))
}

func TestPeriodEqualAcrossLocations(t *testing.T) {
	stockholm, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		t.Fatalf("Could not load location: %v", err)
	}
	start := time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)
	utc := Period{Start: start, End: start.Add(time.Hour)}
	local := Period{Start: start.In(stockholm), End: start.Add(time.Hour).In(stockholm)}

	assert.True(t, utc.Equal(local))
	assert.False(t, utc.Equal(Period{Start: start, End: start.Add(2 * time.Hour)}))
}
