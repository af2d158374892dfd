package nordpool

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// PricePoint holds one delivery interval's wholesale price.
// Points within a series are contiguous and non-overlapping, and End is
// always after Start. A Value of +Inf means the provider sent something
// unparseable for this interval; it is never considered cheap.
type PricePoint struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Value float64   `json:"value"`
}

// CachedSeries is one day of fetched prices for one area, as persisted in
// the values document so a restart does not re-query the provider.
type CachedSeries struct {
	Area   string       `json:"area"`
	Date   string       `json:"date"` // "2006-01-02" in the provider's convention
	Points []PricePoint `json:"points"`
}

// MarshalJSON encodes +Inf values as the string "inf", since JSON has no
// infinity literal and the cache snapshot must round-trip them.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	type alias struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
		Value any       `json:"value"`
	}
	a := alias{Start: p.Start, End: p.End, Value: p.Value}
	if math.IsInf(p.Value, 1) {
		a.Value = "inf"
	}
	return json.Marshal(a)
}

func (p *PricePoint) UnmarshalJSON(data []byte) error {
	type alias struct {
		Start time.Time       `json:"start"`
		End   time.Time       `json:"end"`
		Value json.RawMessage `json:"value"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	p.Start = a.Start
	p.End = a.End
	p.Value = convToFloat(a.Value)
	return nil
}

// convToFloat converts a raw JSON price value to a float. Prices normally
// arrive as numbers, but some feeds quote them as strings with comma decimal
// separators and grouping spaces. Anything unparseable maps to +Inf so it is
// never selected as the cheapest interval.
func convToFloat(raw json.RawMessage) float64 {
	var number float64
	if err := json.Unmarshal(raw, &number); err == nil {
		return number
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		str = strings.ReplaceAll(str, ",", ".")
		str = strings.ReplaceAll(str, " ", "")
		if str == "inf" {
			return math.Inf(1)
		}
		if number, err := strconv.ParseFloat(str, 64); err == nil {
			return number
		}
	}
	return math.Inf(1)
}
