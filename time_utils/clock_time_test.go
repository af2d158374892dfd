package timeutils

import (
	"testing"
	"time"
)

func TestParseClockTime(t *testing.T) {
	stockholm, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		t.Fatalf("Could not load location: %v", err)
	}

	tests := []struct {
		name    string
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{name: "morning", input: "06:30", hour: 6, minute: 30},
		{name: "midnight", input: "00:00", hour: 0, minute: 0},
		{name: "late evening", input: "23:45", hour: 23, minute: 45},
		{name: "missing minutes", input: "06", wantErr: true},
		{name: "out of range", input: "25:00", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock, err := ParseClockTime(tt.input, stockholm)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if clock.Hour != tt.hour || clock.Minute != tt.minute {
				t.Errorf("got %02d:%02d, want %02d:%02d", clock.Hour, clock.Minute, tt.hour, tt.minute)
			}
			if clock.Location != stockholm {
				t.Errorf("location not carried through")
			}
		})
	}
}

func TestOnSameDate(t *testing.T) {
	stockholm, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		t.Fatalf("Could not load location: %v", err)
	}

	clock := ClockTime{Hour: 14, Minute: 30, Location: stockholm}

	// a UTC instant that falls on 2024-06-15 in Stockholm
	instant := time.Date(2024, 6, 15, 3, 0, 0, 0, time.UTC)
	got := clock.OnSameDate(instant)
	want := time.Date(2024, 6, 15, 14, 30, 0, 0, stockholm)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestStartOfDayAcrossDST(t *testing.T) {
	stockholm, err := time.LoadLocation("Europe/Stockholm")
	if err != nil {
		t.Fatalf("Could not load location: %v", err)
	}

	// 2024-03-31 is the spring-forward day in Europe/Stockholm: 23 hours long
	springForward := time.Date(2024, 3, 31, 12, 0, 0, 0, stockholm)

	start := StartOfDay(springForward, stockholm)
	if start.Hour() != 0 || start.Day() != 31 {
		t.Errorf("start of day: got %v", start)
	}

	next := StartOfNextDay(springForward, stockholm)
	if next.Day() != 1 || next.Month() != time.April || next.Hour() != 0 {
		t.Errorf("start of next day: got %v", next)
	}

	if got := next.Sub(start); got != 23*time.Hour {
		t.Errorf("spring-forward day length: got %v, want 23h", got)
	}
}
