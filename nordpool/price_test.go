package nordpool

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPricePointInfRoundTrip(t *testing.T) {
	original := PricePoint{
		Start: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 6, 15, 0, 15, 0, 0, time.UTC),
		Value: math.Inf(1),
	}

	encoded, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded PricePoint
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	assert.True(t, decoded.Start.Equal(original.Start))
	assert.True(t, decoded.End.Equal(original.End))
	assert.True(t, math.IsInf(decoded.Value, 1), "+Inf must survive the cache round trip")
}

func TestConvToFloat(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "number", raw: "42.5", want: 42.5},
		{name: "negative number", raw: "-12.01", want: -12.01},
		{name: "string with comma decimal", raw: `"123,45"`, want: 123.45},
		{name: "string with grouping space", raw: `"1 234,56"`, want: 1234.56},
		{name: "plain string number", raw: `"55.5"`, want: 55.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, convToFloat(json.RawMessage(tt.raw)))
		})
	}

	for _, raw := range []string{`"garbage"`, "null", "{}", `""`} {
		assert.True(t, math.IsInf(convToFloat(json.RawMessage(raw)), 1), "raw %s should map to +Inf", raw)
	}
}
