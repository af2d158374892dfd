package nordpool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const (
	dayAheadPricesURL = "https://dataportal-api.nordpoolgroup.com/api/DayAheadPrices"

	// cacheRetention is how far back cached day series are kept; entries for
	// older delivery days are evicted at the start of each fetch round.
	cacheRetention = 48 * time.Hour

	dateFormat = "2006-01-02"
)

// Client fetches day-ahead auction prices from the Nord Pool data portal.
// Fetched days are cached per (area, date) so that re-planning during the day
// does not hammer the provider, and so the cache can be persisted and
// restored across restarts via Snapshot/Restore.
type Client struct {
	client  *http.Client
	baseURL string

	lock  sync.Mutex                // guards cache
	cache map[string][]CachedSeries // keyed by area

	logger *slog.Logger
}

// dayAheadResponse mirrors the subset of the data portal payload that we use.
// Prices are decoded as raw JSON because the feed occasionally quotes them as
// localized strings; see convToFloat.
type dayAheadResponse struct {
	DeliveryDateCET  string `json:"deliveryDateCET"`
	UpdatedAt        string `json:"updatedAt"`
	Currency         string `json:"currency"`
	MultiAreaEntries []struct {
		DeliveryStart string                     `json:"deliveryStart"`
		DeliveryEnd   string                     `json:"deliveryEnd"`
		EntryPerArea  map[string]json.RawMessage `json:"entryPerArea"`
	} `json:"multiAreaEntries"`
}

func New(client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		client:  client,
		baseURL: dayAheadPricesURL,
		cache:   map[string][]CachedSeries{},
		logger:  slog.Default(),
	}
}

// NewWithBaseURL is used by tests to point the client at a stub server.
func NewWithBaseURL(client *http.Client, baseURL string) *Client {
	c := New(client)
	c.baseURL = baseURL
	return c
}

// FetchDay returns the price series for one delivery day in the given area,
// or nil if the provider is unavailable or the payload is malformed. Failures
// are logged rather than returned: a missing day is an expected condition
// (tomorrow's auction may simply not have cleared yet) and the caller decides
// whether the missing day is fatal to its plan.
func (c *Client) FetchDay(ctx context.Context, currency, area, date string) []PricePoint {
	c.lock.Lock()
	for _, cached := range c.cache[area] {
		if cached.Date == date {
			c.lock.Unlock()
			c.logger.Info("Using cached day-ahead prices", "area", area, "date", date)
			return cached.Points
		}
	}
	c.lock.Unlock()

	points, err := c.requestDay(ctx, currency, area, date)
	if err != nil {
		c.logger.Error("Failed to fetch day-ahead prices", "area", area, "date", date, "error", err)
		return nil
	}

	c.lock.Lock()
	c.cache[area] = append(c.cache[area], CachedSeries{Area: area, Date: date, Points: points})
	c.lock.Unlock()

	return points
}

// requestDay queries the data portal for a single delivery day.
func (c *Client) requestDay(ctx context.Context, currency, area, date string) ([]PricePoint, error) {
	query := url.Values{}
	query.Set("market", "DayAhead")
	query.Set("deliveryArea", area)
	query.Set("currency", currency)
	query.Set("date", date)

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	response, err := c.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("get day-ahead prices: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", response.StatusCode)
	}

	parsedResponse := dayAheadResponse{}
	err = json.NewDecoder(response.Body).Decode(&parsedResponse)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}

	return parseEntries(parsedResponse, area)
}

// parseEntries flattens the per-area entries of a day-ahead response into a
// chronological price series for one area.
func parseEntries(response dayAheadResponse, area string) ([]PricePoint, error) {
	if len(response.MultiAreaEntries) == 0 {
		return nil, fmt.Errorf("no delivery entries in response")
	}

	points := make([]PricePoint, 0, len(response.MultiAreaEntries))
	for _, entry := range response.MultiAreaEntries {
		raw, ok := entry.EntryPerArea[area]
		if !ok {
			continue
		}
		start, err := time.Parse(time.RFC3339, entry.DeliveryStart)
		if err != nil {
			return nil, fmt.Errorf("parse delivery start %q: %w", entry.DeliveryStart, err)
		}
		end, err := time.Parse(time.RFC3339, entry.DeliveryEnd)
		if err != nil {
			return nil, fmt.Errorf("parse delivery end %q: %w", entry.DeliveryEnd, err)
		}
		points = append(points, PricePoint{
			Start: start,
			End:   end,
			Value: convToFloat(raw),
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("no entries for area %q in response", area)
	}

	return points, nil
}

// evictStale drops cached series whose delivery day is more than two days in
// the past.
func (c *Client) evictStale(now time.Time) {
	cutoff := now.Add(-cacheRetention)

	c.lock.Lock()
	defer c.lock.Unlock()

	for area, series := range c.cache {
		kept := series[:0]
		for _, cached := range series {
			date, err := time.Parse(dateFormat, cached.Date)
			if err != nil {
				continue
			}
			if !date.Before(time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)) {
				kept = append(kept, cached)
			}
		}
		c.cache[area] = kept
	}
}

// Snapshot returns a copy of the cache contents for persistence.
func (c *Client) Snapshot() []CachedSeries {
	c.lock.Lock()
	defer c.lock.Unlock()

	var all []CachedSeries
	for _, series := range c.cache {
		all = append(all, series...)
	}
	return all
}

// Restore seeds the cache from a persisted snapshot. Existing entries for the
// same (area, date) are left in place.
func (c *Client) Restore(series []CachedSeries) {
	c.lock.Lock()
	defer c.lock.Unlock()

	for _, cached := range series {
		exists := false
		for _, have := range c.cache[cached.Area] {
			if have.Date == cached.Date {
				exists = true
				break
			}
		}
		if !exists {
			c.cache[cached.Area] = append(c.cache[cached.Area], cached)
		}
	}
}

// FetchRange fetches and joins the price series for yesterday, today and
// (optionally) tomorrow, each sliced to the area's local calendar day. The
// five underlying delivery days are fetched concurrently; all fetches settle
// before any joining happens. A nil slice for a day means that day could not
// be assembled; the caller decides whether that aborts its planning cycle.
func (c *Client) FetchRange(ctx context.Context, currency, area string, now time.Time, includeTomorrow bool) (yesterday, today, tomorrow []PricePoint, err error) {
	c.evictStale(now)

	offsets := []int{-2, -1, 0, 1, 2}
	days := make([][]PricePoint, len(offsets))

	var wg sync.WaitGroup
	for i, offset := range offsets {
		if offset == 2 && !includeTomorrow {
			continue
		}
		wg.Add(1)
		go func(i, offset int) {
			defer wg.Done()
			date := now.AddDate(0, 0, offset).Format(dateFormat)
			days[i] = c.FetchDay(ctx, currency, area, date)
		}(i, offset)
	}
	wg.Wait()

	yesterday, err = JoinForDay(days[0:3], now.AddDate(0, 0, -1), area)
	if err != nil {
		return nil, nil, nil, err
	}
	today, err = JoinForDay(days[1:4], now, area)
	if err != nil {
		return nil, nil, nil, err
	}
	if includeTomorrow {
		tomorrow, err = JoinForDay(days[2:5], now.AddDate(0, 0, 1), area)
		if err != nil {
			return nil, nil, nil, err
		}
	}

	// today's own delivery day failing to fetch means the whole range is
	// unusable, even if adjacent days were cached
	if days[2] == nil {
		return nil, nil, nil, fmt.Errorf("no price series for %s in area %s", now.Format(dateFormat), area)
	}

	return yesterday, today, tomorrow, nil
}
