package nordpool

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// stubDayResponse builds a minimal data portal payload with one entry per
// given raw price value. Raw values are spliced into the JSON verbatim so
// tests can exercise both numeric and string-quoted prices.
func stubDayResponse(area, date string, rawValues []string) string {
	entries := ""
	base, _ := time.Parse("2006-01-02", date)
	for i, raw := range rawValues {
		if i > 0 {
			entries += ","
		}
		start := base.Add(time.Duration(i) * 15 * time.Minute)
		entries += fmt.Sprintf(`{
			"deliveryStart": %q,
			"deliveryEnd": %q,
			"entryPerArea": {%q: %s}
		}`, start.Format(time.RFC3339), start.Add(15*time.Minute).Format(time.RFC3339), area, raw)
	}
	return fmt.Sprintf(`{
		"deliveryDateCET": %q,
		"currency": "SEK",
		"multiAreaEntries": [%s]
	}`, date, entries)
}

func TestFetchDayParsesPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SE3", r.URL.Query().Get("deliveryArea"))
		assert.Equal(t, "SEK", r.URL.Query().Get("currency"))
		assert.Equal(t, "DayAhead", r.URL.Query().Get("market"))
		fmt.Fprint(w, stubDayResponse("SE3", "2024-06-15", []string{
			"42.5",
			`"1 234,56"`, // localized string form
			`"not-a-price"`,
		}))
	}))
	defer server.Close()

	client := NewWithBaseURL(server.Client(), server.URL)
	points := client.FetchDay(context.Background(), "SEK", "SE3", "2024-06-15")

	if assert.Len(t, points, 3) {
		assert.Equal(t, 42.5, points[0].Value)
		assert.Equal(t, 1234.56, points[1].Value)
		assert.True(t, math.IsInf(points[2].Value, 1), "unparseable price should become +Inf")
	}
	for i := 1; i < len(points); i++ {
		assert.True(t, points[i].Start.Equal(points[i-1].End), "points should be contiguous")
	}
}

func TestFetchDayUsesCache(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, stubDayResponse("SE3", "2024-06-15", []string{"1.0"}))
	}))
	defer server.Close()

	client := NewWithBaseURL(server.Client(), server.URL)

	first := client.FetchDay(context.Background(), "SEK", "SE3", "2024-06-15")
	second := client.FetchDay(context.Background(), "SEK", "SE3", "2024-06-15")

	assert.Equal(t, 1, requests, "second fetch should be served from cache")
	assert.Equal(t, first, second)
}

func TestFetchDayProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewWithBaseURL(server.Client(), server.URL)
	points := client.FetchDay(context.Background(), "SEK", "SE3", "2024-06-15")
	assert.Nil(t, points, "provider failure should yield a nil day, not a panic")
}

func TestCacheEviction(t *testing.T) {
	client := New(nil)
	client.Restore([]CachedSeries{
		{Area: "SE3", Date: "2024-06-10", Points: []PricePoint{{Value: 1}}},
		{Area: "SE3", Date: "2024-06-14", Points: []PricePoint{{Value: 2}}},
		{Area: "SE3", Date: "2024-06-15", Points: []PricePoint{{Value: 3}}},
	})

	now := time.Date(2024, 6, 15, 13, 0, 0, 0, time.UTC)
	client.evictStale(now)

	snapshot := client.Snapshot()
	dates := make([]string, 0, len(snapshot))
	for _, series := range snapshot {
		dates = append(dates, series.Date)
	}
	assert.NotContains(t, dates, "2024-06-10", "series older than the retention window should be evicted")
	assert.Contains(t, dates, "2024-06-14")
	assert.Contains(t, dates, "2024-06-15")
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	client := New(nil)
	original := []CachedSeries{
		{Area: "SE3", Date: "2024-06-15", Points: []PricePoint{
			{Start: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 6, 15, 0, 15, 0, 0, time.UTC), Value: 12.3},
		}},
	}
	client.Restore(original)
	assert.Equal(t, original, client.Snapshot())
}
