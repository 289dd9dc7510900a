package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"

	sq "github.com/Masterminds/squirrel"
	"github.com/rickb777/date"

	"rtmap/internal/model"
)

type scanner interface {
	Scan(dest ...any) error
}

func queryAll[T any](ctx context.Context, db *DB, q sq.SelectBuilder, scan func(scanner) (T, error)) ([]T, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func queryOne[T any](ctx context.Context, db *DB, q sq.SelectBuilder, scan func(scanner) (T, error)) (T, error) {
	var zero T
	query, args, err := q.Limit(1).ToSql()
	if err != nil {
		return zero, err
	}
	v, err := scan(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	return v, err
}

func selectFrom(db *DB, r model.Record) sq.SelectBuilder {
	return db.sb.Select(r.Columns()...).From(r.Table())
}

func clockFrom(n sql.NullInt64) *model.Clock {
	if !n.Valid {
		return nil
	}
	return model.ClockPtr(model.Clock(n.Int64))
}

func intFrom(n sql.NullInt64) int {
	if !n.Valid {
		return 0
	}
	return int(n.Int64)
}

// Information returns the validity window of the imported timetable.
func (db *DB) Information(ctx context.Context) (model.Information, error) {
	return queryOne(ctx, db, selectFrom(db, model.Information{}).OrderBy("id"), scanInformation)
}

func scanInformation(s scanner) (model.Information, error) {
	var info model.Information
	var start, end string
	if err := s.Scan(&info.ID, &start, &end); err != nil {
		return info, err
	}
	var err error
	if info.StartDate, err = date.ParseISO(start); err != nil {
		return info, fmt.Errorf("start date: %w", err)
	}
	if info.EndDate, err = date.ParseISO(end); err != nil {
		return info, fmt.Errorf("end date: %w", err)
	}
	return info, nil
}

// Stop returns the stop with the given id.
func (db *DB) Stop(ctx context.Context, id int) (model.Stop, error) {
	return queryOne(ctx, db, selectFrom(db, model.Stop{}).Where(sq.Eq{"id": id}), scanStop)
}

// StopsWithin returns stops inside a bounding box, nearest to its center
// first. Longitude differences are scaled by cos(lat) so the ordering matches
// ground distance; callers refine with a true distance.
func (db *DB) StopsWithin(ctx context.Context, lat, lon, latDeg, lonDeg float64, limit int) ([]model.Stop, error) {
	k := math.Cos(lat * math.Pi / 180)
	q := selectFrom(db, model.Stop{}).
		Where(sq.And{
			sq.GtOrEq{"latitude": lat - latDeg},
			sq.LtOrEq{"latitude": lat + latDeg},
			sq.GtOrEq{"longitude": lon - lonDeg},
			sq.LtOrEq{"longitude": lon + lonDeg},
		}).
		OrderByClause("(latitude - ?)*(latitude - ?) + (longitude - ?)*(longitude - ?)*?", lat, lat, lon, lon, k*k).
		Limit(uint64(limit))
	stops, err := queryAll(ctx, db, q, scanStop)
	if err != nil {
		return nil, fmt.Errorf("stops within: %w", err)
	}
	return stops, nil
}

func scanStop(s scanner) (model.Stop, error) {
	var st model.Stop
	err := s.Scan(&st.ID, &st.Name, &st.Latitude, &st.Longitude)
	return st, err
}

// Lines returns every line ordered by id.
func (db *DB) Lines(ctx context.Context) ([]model.Line, error) {
	return queryAll(ctx, db, selectFrom(db, model.Line{}).OrderBy("id"), scanLine)
}

// Line returns the line with the given id.
func (db *DB) Line(ctx context.Context, id int) (model.Line, error) {
	return queryOne(ctx, db, selectFrom(db, model.Line{}).Where(sq.Eq{"id": id}), scanLine)
}

func scanLine(s scanner) (model.Line, error) {
	var l model.Line
	var colorType string
	if err := s.Scan(&l.ID, &l.Name, &colorType, &l.Color); err != nil {
		return l, err
	}
	l.ColorType, _ = model.ParseColorType(colorType)
	return l, nil
}

// Calendar returns the calendar with the given id.
func (db *DB) Calendar(ctx context.Context, id int) (model.Calendar, error) {
	return queryOne(ctx, db, selectFrom(db, model.Calendar{}).Where(sq.Eq{"id": id}),
		func(s scanner) (model.Calendar, error) {
			var c model.Calendar
			err := s.Scan(&c.ID, &c.Days)
			return c, err
		})
}

// Shape returns the shape with the given id.
func (db *DB) Shape(ctx context.Context, id int) (model.Shape, error) {
	return queryOne(ctx, db, selectFrom(db, model.Shape{}).Where(sq.Eq{"id": id}),
		func(s scanner) (model.Shape, error) {
			var sh model.Shape
			err := s.Scan(&sh.ID, &sh.Identifier)
			return sh, err
		})
}

// ShapeStops returns the stops of a shape in sequence order.
func (db *DB) ShapeStops(ctx context.Context, shapeID int) ([]model.ShapeStop, error) {
	q := selectFrom(db, model.ShapeStop{}).Where(sq.Eq{"shape_id": shapeID}).OrderBy("sequence")
	return queryAll(ctx, db, q, func(s scanner) (model.ShapeStop, error) {
		var ss model.ShapeStop
		err := s.Scan(&ss.ID, &ss.ShapeID, &ss.StopID, &ss.Sequence)
		return ss, err
	})
}

// ShapePoints returns the road-snapped points of a shape in sequence order.
func (db *DB) ShapePoints(ctx context.Context, shapeID int) ([]model.ShapePoint, error) {
	q := selectFrom(db, model.ShapePoint{}).Where(sq.Eq{"shape_id": shapeID}).OrderBy("sequence")
	return queryAll(ctx, db, q, func(s scanner) (model.ShapePoint, error) {
		var p model.ShapePoint
		var stop sql.NullInt64
		if err := s.Scan(&p.ID, &p.ShapeID, &p.Sequence, &p.Latitude, &p.Longitude, &stop); err != nil {
			return p, err
		}
		p.ShapeStopID = intFrom(stop)
		return p, nil
	})
}

// Direction returns the direction with the given id.
func (db *DB) Direction(ctx context.Context, id int) (model.Direction, error) {
	return queryOne(ctx, db, selectFrom(db, model.Direction{}).Where(sq.Eq{"id": id}),
		func(s scanner) (model.Direction, error) {
			var d model.Direction
			err := s.Scan(&d.ID, &d.Identifier, &d.OriginID, &d.DestinationID)
			return d, err
		})
}

// DirectionLegs returns the legs of a direction in sequence order.
func (db *DB) DirectionLegs(ctx context.Context, directionID int) ([]model.DirectionLeg, error) {
	q := selectFrom(db, model.DirectionLeg{}).Where(sq.Eq{"direction_id": directionID}).OrderBy("sequence")
	return queryAll(ctx, db, q, scanLeg)
}

// Leg returns the direction leg with the given id.
func (db *DB) Leg(ctx context.Context, id int) (model.DirectionLeg, error) {
	return queryOne(ctx, db, selectFrom(db, model.DirectionLeg{}).Where(sq.Eq{"id": id}), scanLeg)
}

func scanLeg(s scanner) (model.DirectionLeg, error) {
	var l model.DirectionLeg
	err := s.Scan(&l.ID, &l.DirectionID, &l.Sequence, &l.OriginID, &l.DestinationID, &l.Distance, &l.Duration)
	return l, err
}

// LegSteps returns the steps of a leg in sequence order.
func (db *DB) LegSteps(ctx context.Context, legID int) ([]model.LegStep, error) {
	q := selectFrom(db, model.LegStep{}).Where(sq.Eq{"leg_id": legID}).OrderBy("sequence")
	return queryAll(ctx, db, q, scanStep)
}

// DirectionSteps returns the steps of every leg of a direction, ordered by
// leg sequence and then step sequence.
func (db *DB) DirectionSteps(ctx context.Context, directionID int) ([]model.LegStep, error) {
	q := db.sb.Select("s.id", "s.leg_id", "s.sequence", "s.distance", "s.duration",
		"s.start_lat", "s.start_lng", "s.end_lat", "s.end_lng").
		From("leg_steps AS s").
		Join("direction_legs AS l ON l.id = s.leg_id").
		Where(sq.Eq{"l.direction_id": directionID}).
		OrderBy("l.sequence", "s.sequence")
	return queryAll(ctx, db, q, scanStep)
}

func scanStep(s scanner) (model.LegStep, error) {
	var st model.LegStep
	err := s.Scan(&st.ID, &st.LegID, &st.Sequence, &st.Distance, &st.Duration,
		&st.StartLat, &st.StartLng, &st.EndLat, &st.EndLng)
	return st, err
}

// StepPath returns the polyline points of a step in sequence order.
func (db *DB) StepPath(ctx context.Context, stepID int) ([]model.StepPath, error) {
	q := selectFrom(db, model.StepPath{}).Where(sq.Eq{"step_id": stepID}).OrderBy("sequence")
	return queryAll(ctx, db, q, func(s scanner) (model.StepPath, error) {
		var p model.StepPath
		err := s.Scan(&p.ID, &p.StepID, &p.Sequence, &p.Latitude, &p.Longitude)
		return p, err
	})
}

// Trip returns the trip with the given id.
func (db *DB) Trip(ctx context.Context, id int) (model.Trip, error) {
	return queryOne(ctx, db, selectFrom(db, model.Trip{}).Where(sq.Eq{"id": id}), scanTrip)
}

func scanTrip(s scanner) (model.Trip, error) {
	var t model.Trip
	var mode, bound string
	var dep, arr, shapeID, directionID sql.NullInt64
	if err := s.Scan(&t.ID, &t.JourneyNumber, &t.OptionCount, &mode, &t.OriginID,
		&t.DestinationID, &t.CalendarID, &t.LineID, &bound, &dep, &arr,
		&shapeID, &directionID); err != nil {
		return t, err
	}
	t.Mode, _ = model.ParseTransportMode(mode)
	t.Bound, _ = model.ParseBound(bound)
	t.Departure, t.Arrival = clockFrom(dep), clockFrom(arr)
	t.ShapeID, t.DirectionID = intFrom(shapeID), intFrom(directionID)
	return t, nil
}

// TripStops returns the stops of a trip in sequence order.
func (db *DB) TripStops(ctx context.Context, tripID int) ([]model.TripStop, error) {
	q := selectFrom(db, model.TripStop{}).Where(sq.Eq{"trip_id": tripID}).OrderBy("sequence")
	return queryAll(ctx, db, q, func(s scanner) (model.TripStop, error) {
		var ts model.TripStop
		var arr, dep sql.NullInt64
		if err := s.Scan(&ts.ID, &ts.TripID, &ts.StopID, &ts.Sequence, &arr, &dep); err != nil {
			return ts, err
		}
		ts.Arrival, ts.Departure = clockFrom(arr), clockFrom(dep)
		return ts, nil
	})
}
