// Package model holds the entities produced by an import run. They are plain
// values: the importer builds them, the store persists them and the read API
// serves them back.
package model

import (
	"encoding/json"

	"github.com/rickb777/date"
)

// Information is the validity window of the imported timetable.
type Information struct {
	ID        int       `json:"id"`
	StartDate date.Date `json:"start_date"`
	EndDate   date.Date `json:"end_date"`
}

func (Information) Table() string { return "information" }
func (Information) Columns() []string {
	return []string{"id", "start_date", "end_date"}
}
func (i Information) Values() []Value {
	return []Value{Int(i.ID), Day(i.StartDate), Day(i.EndDate)}
}

// Stop is a served place with WGS84 coordinates.
type Stop struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (Stop) Table() string { return "stops" }
func (Stop) Columns() []string {
	return []string{"id", "name", "latitude", "longitude"}
}
func (s Stop) Values() []Value {
	return []Value{Int(s.ID), Text(s.Name), Real(s.Latitude), Real(s.Longitude)}
}

// Line is a public line with its display color.
type Line struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ColorType ColorType `json:"color_type"`
	Color     string    `json:"color"`
}

func (Line) Table() string { return "lines" }
func (Line) Columns() []string {
	return []string{"id", "name", "color_type", "color"}
}
func (l Line) Values() []Value {
	return []Value{Int(l.ID), Text(l.Name), Text(l.ColorType.String()), Text(l.Color)}
}

// Calendar is an expanded operating-day bitfield. Days holds one '0' or '1'
// per day, starting two positions before the timetable start date.
type Calendar struct {
	ID   int    `json:"id"`
	Days string `json:"days"`
}

func (Calendar) Table() string { return "calendars" }
func (Calendar) Columns() []string {
	return []string{"id", "days"}
}
func (c Calendar) Values() []Value {
	return []Value{Int(c.ID), Text(c.Days)}
}

// Shape is a deduplicated stop sequence.
type Shape struct {
	ID         int    `json:"id"`
	Identifier string `json:"identifier"`
}

func (Shape) Table() string { return "shapes" }
func (Shape) Columns() []string {
	return []string{"id", "identifier"}
}
func (s Shape) Values() []Value {
	return []Value{Int(s.ID), Text(s.Identifier)}
}

// ShapeStop is one stop of a shape.
type ShapeStop struct {
	ID       int `json:"id"`
	ShapeID  int `json:"shape_id"`
	StopID   int `json:"stop_id"`
	Sequence int `json:"sequence"`
}

func (ShapeStop) Table() string { return "shape_stops" }
func (ShapeStop) Columns() []string {
	return []string{"id", "shape_id", "stop_id", "sequence"}
}
func (s ShapeStop) Values() []Value {
	return []Value{Int(s.ID), Int(s.ShapeID), Int(s.StopID), Int(s.Sequence)}
}

// ShapePoint is one road-snapped coordinate of a shape. Points interpolated
// between stops have no ShapeStopID.
type ShapePoint struct {
	ID          int     `json:"id"`
	ShapeID     int     `json:"shape_id"`
	Sequence    int     `json:"sequence"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ShapeStopID int     `json:"shape_stop_id,omitempty"`
}

func (ShapePoint) Table() string { return "shape_points" }
func (ShapePoint) Columns() []string {
	return []string{"id", "shape_id", "sequence", "latitude", "longitude", "shape_stop_id"}
}
func (p ShapePoint) Values() []Value {
	return []Value{Int(p.ID), Int(p.ShapeID), Int(p.Sequence), Real(p.Latitude), Real(p.Longitude), OptInt(p.ShapeStopID)}
}

// Direction is a deduplicated stop sequence that carries routed legs.
type Direction struct {
	ID            int    `json:"id"`
	Identifier    string `json:"identifier"`
	OriginID      int    `json:"origin_id"`
	DestinationID int    `json:"destination_id"`
}

func (Direction) Table() string { return "directions" }
func (Direction) Columns() []string {
	return []string{"id", "identifier", "origin_id", "destination_id"}
}
func (d Direction) Values() []Value {
	return []Value{Int(d.ID), Text(d.Identifier), Int(d.OriginID), Int(d.DestinationID)}
}

// DirectionLeg is the routed segment between two consecutive stops of a direction.
// Distance is in meters and Duration in seconds.
type DirectionLeg struct {
	ID            int `json:"id"`
	DirectionID   int `json:"direction_id"`
	Sequence      int `json:"sequence"`
	OriginID      int `json:"origin_id"`
	DestinationID int `json:"destination_id"`
	Distance      int `json:"distance"`
	Duration      int `json:"duration"`
}

func (DirectionLeg) Table() string { return "direction_legs" }
func (DirectionLeg) Columns() []string {
	return []string{"id", "direction_id", "sequence", "origin_id", "destination_id", "distance", "duration"}
}
func (l DirectionLeg) Values() []Value {
	return []Value{Int(l.ID), Int(l.DirectionID), Int(l.Sequence), Int(l.OriginID),
		Int(l.DestinationID), Int(l.Distance), Int(l.Duration)}
}

// LegStep is one navigation step of a leg.
type LegStep struct {
	ID       int     `json:"id"`
	LegID    int     `json:"leg_id"`
	Sequence int     `json:"sequence"`
	Distance int     `json:"distance"`
	Duration int     `json:"duration"`
	StartLat float64 `json:"start_lat"`
	StartLng float64 `json:"start_lng"`
	EndLat   float64 `json:"end_lat"`
	EndLng   float64 `json:"end_lng"`
}

func (LegStep) Table() string { return "leg_steps" }
func (LegStep) Columns() []string {
	return []string{"id", "leg_id", "sequence", "distance", "duration",
		"start_lat", "start_lng", "end_lat", "end_lng"}
}
func (s LegStep) Values() []Value {
	return []Value{Int(s.ID), Int(s.LegID), Int(s.Sequence), Int(s.Distance), Int(s.Duration),
		Real(s.StartLat), Real(s.StartLng), Real(s.EndLat), Real(s.EndLng)}
}

// StepPath is one decoded polyline point of a step.
type StepPath struct {
	ID        int     `json:"id"`
	StepID    int     `json:"step_id"`
	Sequence  int     `json:"sequence"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (StepPath) Table() string { return "step_paths" }
func (StepPath) Columns() []string {
	return []string{"id", "step_id", "sequence", "latitude", "longitude"}
}
func (p StepPath) Values() []Value {
	return []Value{Int(p.ID), Int(p.StepID), Int(p.Sequence), Real(p.Latitude), Real(p.Longitude)}
}

// Trip is one journey of the timetable. ShapeID and DirectionID are zero when
// the run did not build that entity.
type Trip struct {
	ID            int           `json:"id"`
	JourneyNumber int           `json:"journey_number"`
	OptionCount   int           `json:"option_count"`
	Mode          TransportMode `json:"transport_mode"`
	OriginID      int           `json:"origin_id"`
	DestinationID int           `json:"destination_id"`
	CalendarID    int           `json:"calendar_id"`
	LineID        int           `json:"line_id"`
	Bound         Bound         `json:"direction"`
	Departure     *Clock        `json:"departure_time"`
	Arrival       *Clock        `json:"arrival_time"`
	ShapeID       int           `json:"shape_id,omitempty"`
	DirectionID   int           `json:"direction_id,omitempty"`
}

func (Trip) Table() string { return "trips" }
func (Trip) Columns() []string {
	return []string{"id", "journey_number", "option_count", "transport_mode", "origin_id",
		"destination_id", "calendar_id", "line_id", "direction", "departure_time",
		"arrival_time", "shape_id", "direction_id"}
}
func (t Trip) Values() []Value {
	return []Value{Int(t.ID), Int(t.JourneyNumber), Int(t.OptionCount), Text(t.Mode.String()),
		Int(t.OriginID), Int(t.DestinationID), Int(t.CalendarID), Int(t.LineID),
		Text(t.Bound.String()), OptClock(t.Departure), OptClock(t.Arrival),
		OptInt(t.ShapeID), OptInt(t.DirectionID)}
}

// TripStop is a trip's call at a stop. Its JSON form carries day_offset,
// the number of days past the service day on which the call happens.
type TripStop struct {
	ID        int    `json:"id"`
	TripID    int    `json:"trip_id"`
	StopID    int    `json:"stop_id"`
	Sequence  int    `json:"sequence"`
	Arrival   *Clock `json:"arrival_time"`
	Departure *Clock `json:"departure_time"`
}

func (TripStop) Table() string { return "trip_stops" }
func (TripStop) Columns() []string {
	return []string{"id", "trip_id", "stop_id", "sequence", "arrival_time", "departure_time"}
}
func (s TripStop) Values() []Value {
	return []Value{Int(s.ID), Int(s.TripID), Int(s.StopID), Int(s.Sequence),
		OptClock(s.Arrival), OptClock(s.Departure)}
}

// DayOffset reports the service-day offset of the call, taken from the
// arrival or, at the first stop, the departure.
func (s TripStop) DayOffset() int {
	switch {
	case s.Arrival != nil:
		return s.Arrival.DayOffset()
	case s.Departure != nil:
		return s.Departure.DayOffset()
	}
	return 0
}

func (s TripStop) MarshalJSON() ([]byte, error) {
	type plain TripStop
	return json.Marshal(struct {
		plain
		DayOffset int `json:"day_offset"`
	}{plain(s), s.DayOffset()})
}
