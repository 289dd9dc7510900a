package timetable

import (
	"context"
	"errors"
	"testing"
	"time"

	"rtmap/internal/hrdf"
	"rtmap/internal/routing"
)

// fakeSnapper returns every input point plus an interpolated midpoint
// between consecutive inputs. Paths starting at failLat fail.
type fakeSnapper struct {
	failLat float64
	delay   time.Duration
}

func (f *fakeSnapper) SnapToRoads(ctx context.Context, pts []routing.Point) ([]routing.SnappedPoint, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if pts[0].Lat == f.failLat {
		return nil, errors.New("quota exceeded")
	}
	var out []routing.SnappedPoint
	for i, p := range pts {
		if i > 0 {
			mid := routing.Point{Lat: (pts[i-1].Lat + p.Lat) / 2, Lng: (pts[i-1].Lng + p.Lng) / 2}
			out = append(out, routing.SnappedPoint{Point: mid, Input: -1})
		}
		out = append(out, routing.SnappedPoint{Point: p, Input: i})
	}
	return out, nil
}

func shapeJourneys() []hrdf.Journey {
	return []hrdf.Journey{
		journey(1, 1, 3, st(1, "", "00800"), st(2, "00805", "00806"), st(3, "00811", "")),
		journey(2, 3, 1, st(3, "", "00900"), st(2, "00905", "00906"), st(1, "00911", "")),
		journey(3, 2, 3, st(2, "", "01000"), st(3, "01005", "")),
	}
}

func TestBuildShapesSnapsPoints(t *testing.T) {
	// shape 2 starts at Carouge and fails
	snap := &fakeSnapper{failLat: testStops[2].Latitude}
	b := NewBuilder(testStops, Options{Mode: BuildShapes, Snapper: snap}, discard)
	res, err := b.Build(context.Background(), shapeJourneys())
	if err != nil {
		t.Fatal(err)
	}

	type want struct{ id, shape, seq, shapeStop int }
	wants := []want{
		{1, 1, 1, 1}, {2, 1, 2, 0}, {3, 1, 3, 2}, {4, 1, 4, 0}, {5, 1, 5, 3},
		{6, 3, 1, 7}, {7, 3, 2, 0}, {8, 3, 3, 8},
	}
	if len(res.ShapePoints) != len(wants) {
		t.Fatalf("shape points = %+v, want %d", res.ShapePoints, len(wants))
	}
	for i, w := range wants {
		p := res.ShapePoints[i]
		if p.ID != w.id || p.ShapeID != w.shape || p.Sequence != w.seq || p.ShapeStopID != w.shapeStop {
			t.Errorf("point %d = %+v, want %+v", i, p, w)
		}
	}
	if p := res.ShapePoints[0]; p.Latitude != testStops[0].Latitude || p.Longitude != testStops[0].Longitude {
		t.Errorf("first point at %v,%v, want Cornavin", p.Latitude, p.Longitude)
	}
	if r := res.Report; r.ShapePoints != 8 || r.FailedSnaps != 1 {
		t.Errorf("report points=%d failed=%d, want 8 and 1", r.ShapePoints, r.FailedSnaps)
	}
}

func TestBuildShapesSnapConcurrentMatchesSequential(t *testing.T) {
	build := func(concurrency int) *Result {
		snap := &fakeSnapper{delay: 5 * time.Millisecond}
		b := NewBuilder(testStops, Options{Mode: BuildShapes, Snapper: snap, Concurrency: concurrency}, discard)
		res, err := b.Build(context.Background(), shapeJourneys())
		if err != nil {
			t.Fatal(err)
		}
		return res
	}
	seq, par := build(1), build(4)
	if len(seq.ShapePoints) != len(par.ShapePoints) {
		t.Fatalf("points = %d sequential, %d concurrent", len(seq.ShapePoints), len(par.ShapePoints))
	}
	for i := range seq.ShapePoints {
		if seq.ShapePoints[i] != par.ShapePoints[i] {
			t.Errorf("point %d = %+v sequential, %+v concurrent", i, seq.ShapePoints[i], par.ShapePoints[i])
		}
	}
}

func TestBuildShapesWithoutSnapper(t *testing.T) {
	b := NewBuilder(testStops, Options{Mode: BuildShapes}, discard)
	res, err := b.Build(context.Background(), shapeJourneys())
	if err != nil {
		t.Fatal(err)
	}
	if len(res.ShapePoints) != 0 || res.Report.FailedSnaps != 0 {
		t.Errorf("points=%d failed=%d without snapper", len(res.ShapePoints), res.Report.FailedSnaps)
	}
}

func TestBuildShapesSnapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBuilder(testStops, Options{Mode: BuildShapes, Snapper: &fakeSnapper{}}, discard)
	if _, err := b.Build(ctx, shapeJourneys()); !errors.Is(err, context.Canceled) {
		t.Errorf("Build with cancelled context = %v, want context.Canceled", err)
	}
}
