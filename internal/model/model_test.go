package model

import (
	"encoding/json"
	"testing"

	"github.com/rickb777/date"
)

func TestClockString(t *testing.T) {
	tests := []struct {
		c    Clock
		want string
	}{
		{NewClock(8, 5, 0), "08:05:00"},
		{NewClock(0, 0, 0), "00:00:00"},
		{NewClock(23, 59, 15), "23:59:15"},
		{NewClock(25, 5, 0), "25:05:00"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.c.String(); got != tt.want {
				t.Errorf("Clock(%d).String() = %q, want %q", int(tt.c), got, tt.want)
			}
		})
	}
}

func TestClockDayOffset(t *testing.T) {
	tests := []struct {
		c    Clock
		want int
	}{
		{NewClock(8, 0, 0), 0},
		{NewClock(23, 59, 59), 0},
		{NewClock(24, 0, 0), 1},
		{NewClock(49, 0, 0), 2},
	}
	for _, tt := range tests {
		if got := tt.c.DayOffset(); got != tt.want {
			t.Errorf("%s.DayOffset() = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestTripStopJSONDayOffset(t *testing.T) {
	tests := []struct {
		name string
		stop TripStop
		want string
	}{
		{
			"same day",
			TripStop{ID: 1, TripID: 1, StopID: 8587387, Sequence: 1, Departure: ClockPtr(NewClock(23, 55, 0))},
			`{"id":1,"trip_id":1,"stop_id":8587387,"sequence":1,"arrival_time":null,"departure_time":"23:55:00","day_offset":0}`,
		},
		{
			"after midnight",
			TripStop{ID: 2, TripID: 1, StopID: 8592995, Sequence: 2, Arrival: ClockPtr(NewClock(24, 4, 0))},
			`{"id":2,"trip_id":1,"stop_id":8592995,"sequence":2,"arrival_time":"24:04:00","departure_time":null,"day_offset":1}`,
		},
		{
			"first stop departs past midnight",
			TripStop{ID: 3, TripID: 2, StopID: 8587387, Sequence: 1, Departure: ClockPtr(NewClock(24, 10, 0))},
			`{"id":3,"trip_id":2,"stop_id":8587387,"sequence":1,"arrival_time":null,"departure_time":"24:10:00","day_offset":1}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.stop)
			if err != nil {
				t.Fatal(err)
			}
			if string(b) != tt.want {
				t.Errorf("json.Marshal = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestParseTransportMode(t *testing.T) {
	tests := []struct {
		token   string
		want    TransportMode
		wantErr bool
	}{
		{"B", ModeBus, false},
		{"T", ModeTramway, false},
		{"Z", ModeRail, false},
		{"U", ModeUnknown, false},
		{"Funicular", ModeFunicular, false},
		{"X", ModeUnknown, true},
		{"", ModeUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ParseTransportMode(tt.token)
			if got != tt.want || (err != nil) != tt.wantErr {
				t.Errorf("ParseTransportMode(%q) = %v, %v; want %v, err=%v", tt.token, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func TestParseBound(t *testing.T) {
	tests := []struct {
		token   string
		want    Bound
		wantErr bool
	}{
		{"H", BoundOutward, false},
		{"R", BoundReturn, false},
		{"Return", BoundReturn, false},
		{"X", BoundInvalid, true},
	}
	for _, tt := range tests {
		got, err := ParseBound(tt.token)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseBound(%q) = %v, %v; want %v, err=%v", tt.token, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestParseColorType(t *testing.T) {
	tests := []struct {
		token string
		want  ColorType
	}{
		{"255 255 255", ColorLight},
		{"000 000 000", ColorDark},
		{"128 128 128", ColorUnknown},
	}
	for _, tt := range tests {
		got, _ := ParseColorType(tt.token)
		if got != tt.want {
			t.Errorf("ParseColorType(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestRecordValuesMatchColumns(t *testing.T) {
	records := []Record{
		Information{ID: 1, StartDate: date.New(2024, 12, 15), EndDate: date.New(2025, 12, 13)},
		Stop{}, Line{}, Calendar{}, Shape{}, ShapeStop{}, Direction{},
		DirectionLeg{}, LegStep{}, StepPath{}, Trip{}, TripStop{},
	}
	for _, r := range records {
		if len(r.Columns()) != len(r.Values()) {
			t.Errorf("%s: %d columns, %d values", r.Table(), len(r.Columns()), len(r.Values()))
		}
	}
}

func TestArg(t *testing.T) {
	if got := Arg(Int(3)); got != int64(3) {
		t.Errorf("Arg(Int(3)) = %v", got)
	}
	if got := Arg(Null{}); got != nil {
		t.Errorf("Arg(Null{}) = %v, want nil", got)
	}
	if got := Arg(Day(date.New(2025, 1, 2))); got != "2025-01-02" {
		t.Errorf("Arg(Day) = %v, want 2025-01-02", got)
	}
	if got := Arg(OptClock(nil)); got != nil {
		t.Errorf("Arg(OptClock(nil)) = %v, want nil", got)
	}
	if got := Arg(OptInt(0)); got != nil {
		t.Errorf("Arg(OptInt(0)) = %v, want nil", got)
	}
}
