// Package timetable turns assembled journeys into trips, stop times and the
// shared shapes or directions they run along.
package timetable

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rtmap/internal/hrdf"
	"rtmap/internal/model"
)

// DwellSeconds is added to the scheduled dwell of every stop that has both
// an arrival and a departure.
const DwellSeconds = 15

// ReconcileTolerance bounds, in seconds, how far a scheduled arrival may be
// from the routed estimate to be replaced by it.
const ReconcileTolerance = 60

// BuildMode selects what a run groups trips by.
type BuildMode int

const (
	// BuildShapes groups trips into shapes with expanded shape stops.
	BuildShapes BuildMode = iota
	// BuildDirections groups trips into directions and reconciles stop
	// times against routed leg durations.
	BuildDirections
)

// ParseBuildMode accepts "shapes" or "directions".
func ParseBuildMode(s string) (BuildMode, error) {
	switch s {
	case "shapes":
		return BuildShapes, nil
	case "directions":
		return BuildDirections, nil
	}
	return 0, fmt.Errorf("unknown build mode %q", s)
}

func (m BuildMode) String() string {
	if m == BuildDirections {
		return "directions"
	}
	return "shapes"
}

// Options configure a Builder.
type Options struct {
	Mode BuildMode
	// Router is required in BuildDirections mode.
	Router Router
	// Snapper, when set in BuildShapes mode, adds road-snapped points to
	// every shape.
	Snapper Snapper
	// Concurrency above 1 routes that many directions, or snaps that many
	// shapes, in parallel.
	Concurrency int
}

// Report summarises a build.
type Report struct {
	Journeys          int
	Trips             int
	TripStops         int
	Shapes            int
	ShapeStops        int
	ShapePoints       int
	FailedSnaps       int
	Directions        int
	Legs              int
	Steps             int
	Chunks            int
	FailedChunks      int
	CorrectedArrivals int
	BadTimes          int
}

// Result is the entity set produced by one build.
type Result struct {
	Trips       []model.Trip
	TripStops   []model.TripStop
	Shapes      []model.Shape
	ShapeStops  []model.ShapeStop
	ShapePoints []model.ShapePoint
	Directions  []model.Direction
	Legs        []model.DirectionLeg
	Steps       []model.LegStep
	Paths       []model.StepPath
	Report      Report
}

// Builder converts journeys into entities. Trip and trip stop ids are dense
// counters over the whole build.
type Builder struct {
	opts   Options
	stops  map[int]model.Stop
	logger *slog.Logger
}

// NewBuilder creates a Builder. stops supplies coordinates for routing.
func NewBuilder(stops []model.Stop, opts Options, logger *slog.Logger) *Builder {
	byID := make(map[int]model.Stop, len(stops))
	for _, s := range stops {
		byID[s.ID] = s
	}
	return &Builder{opts: opts, stops: byID, logger: logger}
}

// Build runs one pass over journeys in file order.
func (b *Builder) Build(ctx context.Context, journeys []hrdf.Journey) (*Result, error) {
	res := &Result{}
	res.Report.Journeys = len(journeys)
	var err error
	switch b.opts.Mode {
	case BuildShapes:
		err = b.buildShapes(ctx, journeys, res)
	case BuildDirections:
		err = b.buildDirections(ctx, journeys, res)
	default:
		err = fmt.Errorf("unknown build mode %d", b.opts.Mode)
	}
	if err != nil {
		return nil, err
	}

	r := &res.Report
	r.Trips = len(res.Trips)
	r.TripStops = len(res.TripStops)
	r.Shapes = len(res.Shapes)
	r.ShapeStops = len(res.ShapeStops)
	r.ShapePoints = len(res.ShapePoints)
	r.Directions = len(res.Directions)
	r.Legs = len(res.Legs)
	r.Steps = len(res.Steps)
	return res, nil
}

func (b *Builder) buildShapes(ctx context.Context, journeys []hrdf.Journey, res *Result) error {
	shapes := NewShapeIndex()
	for i := range journeys {
		j := &journeys[i]
		shapeID, _ := shapes.Resolve(j.StopIDs())

		trip := b.trip(len(res.Trips)+1, j)
		trip.ShapeID = shapeID
		res.Trips = append(res.Trips, trip)
		res.TripStops = b.appendTripStops(res.TripStops, trip.ID, j, nil, &res.Report)
	}
	res.Shapes = shapes.Shapes()
	res.ShapeStops = shapes.ShapeStops()
	if b.opts.Snapper == nil {
		return nil
	}
	points, err := b.snapShapes(ctx, res.Shapes, res.ShapeStops, b.opts.Concurrency, &res.Report)
	if err != nil {
		return fmt.Errorf("snap shapes: %w", err)
	}
	res.ShapePoints = points
	return nil
}

func (b *Builder) buildDirections(ctx context.Context, journeys []hrdf.Journey, res *Result) error {
	if b.opts.Router == nil {
		return errors.New("directions build requires a router")
	}

	dirs := NewDirectionIndex()
	refs := make([]int, len(journeys))
	for i := range journeys {
		j := &journeys[i]
		d, _ := dirs.Resolve(j.StopIDs(), j.Mode.OriginID, j.Mode.DestinationID)
		refs[i] = d.ID
	}

	cache := newLegCache(b.opts.Router, b.stops, b.logger)
	if b.opts.Concurrency > 1 {
		if err := cache.prefetch(ctx, dirs, b.opts.Concurrency); err != nil {
			return fmt.Errorf("route directions: %w", err)
		}
	}

	legs := newLegTable()
	for i := range journeys {
		if err := ctx.Err(); err != nil {
			return err
		}
		j := &journeys[i]
		dirID := refs[i]
		durations := legs.add(dirID, cache.get(ctx, dirID, dirs.StopIDs(dirID)), &res.Report)

		trip := b.trip(len(res.Trips)+1, j)
		trip.DirectionID = dirID
		res.Trips = append(res.Trips, trip)
		res.TripStops = b.appendTripStops(res.TripStops, trip.ID, j, durations, &res.Report)
	}

	res.Directions = dirs.Directions()
	res.Legs = legs.legs
	res.Steps = legs.steps
	res.Paths = legs.paths
	return nil
}

func (b *Builder) trip(id int, j *hrdf.Journey) model.Trip {
	origin, destination := termini(j.StopIDs(), j.Mode.OriginID, j.Mode.DestinationID)
	t := model.Trip{
		ID:            id,
		JourneyNumber: j.Header.JourneyNumber,
		OptionCount:   j.Header.OptionCount,
		Mode:          j.Mode.Mode,
		OriginID:      origin,
		DestinationID: destination,
		CalendarID:    j.Calendar.CalendarID,
		LineID:        j.Line.LineID,
		Bound:         j.Bound.Bound,
	}
	if n := len(j.Stops); n > 0 {
		// bad text is counted once, when the stop itself is built
		t.Departure = b.parseTime(j.Stops[0].Departure, nil)
		t.Arrival = b.parseTime(j.Stops[n-1].Arrival, nil)
	}
	return t
}

// appendTripStops walks a journey's stops. When durations is non-nil, each
// arrival is reconciled against the previous stop's departure plus the leg
// duration between the two stops.
func (b *Builder) appendTripStops(out []model.TripStop, tripID int, j *hrdf.Journey, durations map[legKey]int, r *Report) []model.TripStop {
	var prevStop int
	var prevDeparture *model.Clock
	for i, st := range j.Stops {
		arrival := b.parseTime(st.Arrival, r)
		departure := b.parseTime(st.Departure, r)
		dwell := Dwell(arrival, departure)

		if i > 0 && arrival != nil && prevDeparture != nil && durations != nil {
			if legSeconds, ok := durations[legKey{prevStop, st.StopID}]; ok {
				if est, ok := Reconcile(*arrival, *prevDeparture, legSeconds); ok {
					if est != *arrival {
						r.CorrectedArrivals++
					}
					arrival = &est
				}
			}
		}
		if arrival != nil {
			departure = model.ClockPtr(arrival.Add(dwell))
		}

		out = append(out, model.TripStop{
			ID:        len(out) + 1,
			TripID:    tripID,
			StopID:    st.StopID,
			Sequence:  i + 1,
			Arrival:   arrival,
			Departure: departure,
		})
		prevStop, prevDeparture = st.StopID, departure
	}
	return out
}

// parseTime returns nil for empty or malformed text. Malformed text is
// counted in r when r is non-nil.
func (b *Builder) parseTime(text string, r *Report) *model.Clock {
	if text == "" {
		return nil
	}
	c, err := hrdf.ParseTime(text)
	if err != nil {
		if r != nil {
			r.BadTimes++
			b.logger.Debug("ignoring stop time", "error", err)
		}
		return nil
	}
	return &c
}

// Dwell returns the seconds between arrival and departure at a stop: the
// scheduled difference plus DwellSeconds when both times exist, else 0.
// It is never negative.
func Dwell(arrival, departure *model.Clock) int {
	if arrival == nil || departure == nil {
		return 0
	}
	return max(int(*departure-*arrival)+DwellSeconds, 0)
}

// Reconcile estimates an arrival as the previous departure plus the leg
// duration. The estimate replaces the scheduled arrival when the two are
// less than ReconcileTolerance seconds apart.
func Reconcile(scheduled, prevDeparture model.Clock, legSeconds int) (model.Clock, bool) {
	est := prevDeparture.Add(legSeconds)
	diff := int(scheduled - est)
	if diff < 0 {
		diff = -diff
	}
	if diff < ReconcileTolerance {
		return est, true
	}
	return scheduled, false
}
