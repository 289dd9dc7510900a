package timetable

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"rtmap/internal/model"
	"rtmap/internal/routing"
)

// Router computes legs between consecutive points. routing.Client
// implements it.
type Router interface {
	Route(ctx context.Context, points []routing.Point) routing.Result
}

// routedDirection is the router's answer for one direction. waypoints are
// the stop ids that were routed, in order; leg.From indexes into them.
type routedDirection struct {
	waypoints []int
	result    routing.Result
}

// legCache computes each direction's legs at most once, even when
// directions are requested concurrently.
type legCache struct {
	router Router
	stops  map[int]model.Stop
	logger *slog.Logger

	group singleflight.Group
	mu    sync.Mutex
	done  map[int]*routedDirection
}

func newLegCache(router Router, stops map[int]model.Stop, logger *slog.Logger) *legCache {
	return &legCache{
		router: router,
		stops:  stops,
		logger: logger,
		done:   make(map[int]*routedDirection),
	}
}

// waypoints drops consecutive repeats and stops without coordinates.
func (c *legCache) waypoints(stopIDs []int) ([]int, []routing.Point) {
	var ids []int
	var pts []routing.Point
	for _, id := range stopIDs {
		if len(ids) > 0 && ids[len(ids)-1] == id {
			continue
		}
		s, ok := c.stops[id]
		if !ok {
			c.logger.Debug("stop without coordinates left out of routing", "stop_id", id)
			continue
		}
		ids = append(ids, id)
		pts = append(pts, routing.Point{Lat: s.Latitude, Lng: s.Longitude})
	}
	return ids, pts
}

func (c *legCache) get(ctx context.Context, directionID int, stopIDs []int) *routedDirection {
	c.mu.Lock()
	if rd, ok := c.done[directionID]; ok {
		c.mu.Unlock()
		return rd
	}
	c.mu.Unlock()

	v, _, _ := c.group.Do(strconv.Itoa(directionID), func() (any, error) {
		c.mu.Lock()
		if rd, ok := c.done[directionID]; ok {
			c.mu.Unlock()
			return rd, nil
		}
		c.mu.Unlock()

		ids, pts := c.waypoints(stopIDs)
		rd := &routedDirection{waypoints: ids, result: c.router.Route(ctx, pts)}

		c.mu.Lock()
		c.done[directionID] = rd
		c.mu.Unlock()
		return rd, nil
	})
	return v.(*routedDirection)
}

// prefetch routes the given directions with at most limit requests in flight.
func (c *legCache) prefetch(ctx context.Context, dirs *DirectionIndex, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, d := range dirs.Directions() {
		id := d.ID
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c.get(ctx, id, dirs.StopIDs(id))
			return nil
		})
	}
	return g.Wait()
}

// legKey names a leg by the stop ids it joins.
type legKey struct {
	from, to int
}

// legTable assigns leg, step and path ids in the order directions are
// first used, and remembers each direction's leg durations.
type legTable struct {
	legs      []model.DirectionLeg
	steps     []model.LegStep
	paths     []model.StepPath
	durations map[int]map[legKey]int
}

func newLegTable() *legTable {
	return &legTable{durations: make(map[int]map[legKey]int)}
}

// add records the legs of a routed direction once and returns the leg
// durations keyed by stop pair.
func (t *legTable) add(directionID int, rd *routedDirection, r *Report) map[legKey]int {
	if d, ok := t.durations[directionID]; ok {
		return d
	}
	r.Chunks += rd.result.Chunks
	r.FailedChunks += rd.result.FailedChunks

	durations := make(map[legKey]int, len(rd.result.Legs))
	for _, leg := range rd.result.Legs {
		if leg.From+1 >= len(rd.waypoints) {
			continue
		}
		key := legKey{rd.waypoints[leg.From], rd.waypoints[leg.From+1]}
		if _, seen := durations[key]; !seen {
			durations[key] = leg.Duration
		}
		legID := len(t.legs) + 1
		t.legs = append(t.legs, model.DirectionLeg{
			ID:            legID,
			DirectionID:   directionID,
			Sequence:      leg.From + 1,
			OriginID:      key.from,
			DestinationID: key.to,
			Distance:      leg.Distance,
			Duration:      leg.Duration,
		})
		for i, s := range leg.Steps {
			stepID := len(t.steps) + 1
			t.steps = append(t.steps, model.LegStep{
				ID:       stepID,
				LegID:    legID,
				Sequence: i + 1,
				Distance: s.Distance,
				Duration: s.Duration,
				StartLat: s.Start.Lat,
				StartLng: s.Start.Lng,
				EndLat:   s.End.Lat,
				EndLng:   s.End.Lng,
			})
			for k, p := range s.Path {
				t.paths = append(t.paths, model.StepPath{
					ID:        len(t.paths) + 1,
					StepID:    stepID,
					Sequence:  k + 1,
					Latitude:  p.Lat,
					Longitude: p.Lng,
				})
			}
		}
	}
	t.durations[directionID] = durations
	return durations
}
