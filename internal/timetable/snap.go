package timetable

import (
	"context"

	"golang.org/x/sync/errgroup"

	"rtmap/internal/model"
	"rtmap/internal/routing"
)

// Snapper snaps a point list to the road network. routing.Client
// implements it.
type Snapper interface {
	SnapToRoads(ctx context.Context, points []routing.Point) ([]routing.SnappedPoint, error)
}

// snapShapes computes road points for every shape, with at most limit
// requests in flight. A shape whose snap fails gets no points. Ids are
// assigned in shape order so the result does not depend on scheduling.
func (b *Builder) snapShapes(ctx context.Context, shapes []model.Shape, stops []model.ShapeStop, limit int, r *Report) ([]model.ShapePoint, error) {
	byShape := make(map[int][]model.ShapeStop, len(shapes))
	for _, s := range stops {
		byShape[s.ShapeID] = append(byShape[s.ShapeID], s)
	}

	snapped := make([][]model.ShapePoint, len(shapes))
	failed := make([]bool, len(shapes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(limit, 1))
	for i, sh := range shapes {
		i, sh := i, sh
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pts, err := b.snapShape(gctx, sh.ID, byShape[sh.ID])
			if err != nil {
				failed[i] = true
				b.logger.Warn("snap to roads failed", "shape_id", sh.ID, "error", err)
				return nil
			}
			snapped[i] = pts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []model.ShapePoint
	for i, pts := range snapped {
		if failed[i] {
			r.FailedSnaps++
		}
		for _, p := range pts {
			p.ID = len(out) + 1
			out = append(out, p)
		}
	}
	return out, nil
}

// snapShape snaps the coordinates of one shape's stops. Snapped points that
// came from an input stop keep a reference to its shape stop.
func (b *Builder) snapShape(ctx context.Context, shapeID int, stops []model.ShapeStop) ([]model.ShapePoint, error) {
	var refs []int
	var pts []routing.Point
	for _, ss := range stops {
		s, ok := b.stops[ss.StopID]
		if !ok {
			continue
		}
		refs = append(refs, ss.ID)
		pts = append(pts, routing.Point{Lat: s.Latitude, Lng: s.Longitude})
	}
	if len(pts) < 2 {
		return nil, nil
	}

	snapped, err := b.opts.Snapper.SnapToRoads(ctx, pts)
	if err != nil {
		return nil, err
	}
	out := make([]model.ShapePoint, len(snapped))
	for i, sp := range snapped {
		out[i] = model.ShapePoint{
			ShapeID:   shapeID,
			Sequence:  i + 1,
			Latitude:  sp.Lat,
			Longitude: sp.Lng,
		}
		if sp.Input >= 0 && sp.Input < len(refs) {
			out[i].ShapeStopID = refs[sp.Input]
		}
	}
	return out, nil
}
