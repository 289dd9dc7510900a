package importer

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"rtmap/internal/hrdf"
	"rtmap/internal/routing"
	"rtmap/internal/storage"
	"rtmap/internal/timetable"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const agency = "000881"

// cols lays out fixed-column text: alternating start column and value.
func cols(pairs ...any) string {
	var b []byte
	for i := 0; i+1 < len(pairs); i += 2 {
		at, text := pairs[i].(int), pairs[i+1].(string)
		for len(b) < at {
			b = append(b, ' ')
		}
		b = append(b[:at], text...)
	}
	return string(b)
}

func stop(id, name, arr, dep string) string {
	return cols(0, id, 8, name, 30, arr, 37, dep)
}

func journeyLines(number, dep, arr string) []string {
	return []string{
		cols(0, "*Z", 3, number, 10, agency, 19, "101"),
		cols(0, "*G", 3, "B", 7, "8587387", 15, "8592995"),
		cols(0, "*A VE", 6, "8587387", 14, "8592995", 22, "000042"),
		cols(0, "*L", 3, "#", 4, "0000012"),
		cols(0, "*R", 3, "H", 6, "000001"),
		stop("8587387", "Cornavin", "", dep),
		stop("8592995", "Carouge", arr, ""),
	}
}

func sourceFiles() map[string]string {
	var fplan []string
	fplan = append(fplan, journeyLines("000001", "00800", "00810")...)
	fplan = append(fplan, journeyLines("000002", "00900", "00910")...)
	return map[string]string{
		hrdf.FileValidity:  "15.12.2024\n13.12.2025\n",
		hrdf.FileSchedule:  strings.Join(fplan, "\n") + "\n",
		hrdf.FileCalendars: cols(0, "000042", 7, "FFFF") + "\n",
		hrdf.FileLines:     cols(0, "0000012", 8, "N", 12, "12") + "\n",
		hrdf.FileStops: cols(0, "8587387", 10, "6.142455", 20, "46.210204", 39, "Cornavin") + "\n" +
			cols(0, "8592995", 10, "6.139087", 20, "46.183893", 39, "Carouge") + "\n",
	}
}

func writeSource(t *testing.T, dir string) {
	t.Helper()
	for name, content := range sourceFiles() {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(storage.DriverSQLite, filepath.Join(t.TempDir(), "rtmap.db"), discard)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestImportShapes(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	dir := t.TempDir()
	writeSource(t, dir)

	imp := New(db, Options{AgencyID: agency, Mode: timetable.BuildShapes}, discard)
	sum, err := imp.Import(ctx, hrdf.NewSource(dir, "utf-8", discard), map[string]string{MetaETag: `"v1"`})
	if err != nil {
		t.Fatal(err)
	}
	if sum.Source.Retained != 2 || sum.Build.Trips != 2 || sum.Build.Shapes != 1 || sum.Build.ShapeStops != 2 {
		t.Errorf("summary = %+v", sum)
	}

	trip, err := db.Trip(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if trip.ShapeID != 1 || trip.CalendarID != 42 || trip.LineID != 12 || trip.Departure.String() != "09:00:00" {
		t.Errorf("trip 2 = %+v", trip)
	}
	if _, err := db.Calendar(ctx, 42); err != nil {
		t.Errorf("Calendar(42): %v", err)
	}
	if v, _ := db.GetMetadata(ctx, MetaRunID); v != sum.RunID {
		t.Errorf("run id = %q, want %q", v, sum.RunID)
	}
	if v, _ := db.GetMetadata(ctx, MetaETag); v != `"v1"` {
		t.Errorf("etag = %q", v)
	}
	if v, _ := db.GetMetadata(ctx, MetaBuildMode); v != "shapes" {
		t.Errorf("build mode = %q", v)
	}

	// a second run replaces the first
	if _, err := imp.Import(ctx, hrdf.NewSource(dir, "utf-8", discard), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Trip(ctx, 3); err == nil {
		t.Error("second import appended trips")
	}
}

func TestImportFailureKeepsPreviousData(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	dir := t.TempDir()
	writeSource(t, dir)
	imp := New(db, Options{AgencyID: agency, Mode: timetable.BuildShapes}, discard)
	if _, err := imp.Import(ctx, hrdf.NewSource(dir, "utf-8", discard), nil); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(filepath.Join(dir, hrdf.FileStops)); err != nil {
		t.Fatal(err)
	}
	if _, err := imp.Import(ctx, hrdf.NewSource(dir, "utf-8", discard), nil); err == nil {
		t.Fatal("import without stops file succeeded")
	}
	if !db.HasData(ctx) {
		t.Error("failed import removed stored data")
	}
}

type constRouter struct{ calls int32 }

func (r *constRouter) Route(ctx context.Context, pts []routing.Point) routing.Result {
	atomic.AddInt32(&r.calls, 1)
	res := routing.Result{Chunks: 1}
	for i := 0; i+1 < len(pts); i++ {
		res.Legs = append(res.Legs, routing.Leg{From: i, Distance: 3000, Duration: 595})
	}
	return res
}

func TestImportDirections(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	dir := t.TempDir()
	writeSource(t, dir)
	router := &constRouter{}

	imp := New(db, Options{AgencyID: agency, Mode: timetable.BuildDirections, Router: router, Concurrency: 2}, discard)
	sum, err := imp.Import(ctx, hrdf.NewSource(dir, "utf-8", discard), nil)
	if err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&router.calls); n != 1 {
		t.Errorf("router calls = %d, want 1", n)
	}
	if sum.Build.Directions != 1 || sum.Build.Legs != 1 || sum.Build.CorrectedArrivals != 2 {
		t.Errorf("report = %+v", sum.Build)
	}

	stops, err := db.TripStops(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	// 08:00:00 + 595s
	if len(stops) != 2 || stops[1].Arrival.String() != "08:09:55" {
		t.Errorf("trip stops = %+v", stops)
	}
	legs, err := db.DirectionLegs(ctx, 1)
	if err != nil || len(legs) != 1 || legs[0].Duration != 595 {
		t.Errorf("DirectionLegs(1) = %+v, %v", legs, err)
	}
}

// echoSnapper returns the input points unchanged.
type echoSnapper struct{}

func (echoSnapper) SnapToRoads(ctx context.Context, pts []routing.Point) ([]routing.SnappedPoint, error) {
	out := make([]routing.SnappedPoint, len(pts))
	for i, p := range pts {
		out[i] = routing.SnappedPoint{Point: p, Input: i}
	}
	return out, nil
}

func TestImportShapesStoresSnappedPoints(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	dir := t.TempDir()
	writeSource(t, dir)

	imp := New(db, Options{AgencyID: agency, Mode: timetable.BuildShapes, Snapper: echoSnapper{}}, discard)
	sum, err := imp.Import(ctx, hrdf.NewSource(dir, "utf-8", discard), nil)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Build.ShapePoints != 2 || sum.Build.FailedSnaps != 0 {
		t.Errorf("report = %+v", sum.Build)
	}
	points, err := db.ShapePoints(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 2 || points[0].ShapeStopID != 1 || points[1].ShapeStopID != 2 {
		t.Fatalf("ShapePoints(1) = %+v", points)
	}
	if points[1].Latitude != 46.183893 {
		t.Errorf("second point latitude = %v, want Carouge", points[1].Latitude)
	}
}

func zipSource(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range sourceFiles() {
		w, err := zw.Create("oev_sammellieferung/" + name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUnpackFlattens(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "hrdf.zip")
	if err := os.WriteFile(zipPath, zipSource(t), 0o644); err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	n, err := Unpack(zipPath, dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("Unpack = %d files, want 5", n)
	}
	if _, err := os.Stat(filepath.Join(dir, hrdf.FileSchedule)); err != nil {
		t.Errorf("FPLAN not at top level: %v", err)
	}
}

func archiveServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	body := zipSource(t)
	var gets int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Header().Set("Last-Modified", "Sun, 15 Dec 2024 03:00:00 GMT")
		if r.Method == http.MethodGet {
			atomic.AddInt32(&gets, 1)
			w.Write(body)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &gets
}

func TestSchedulerDownloadsOnce(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	srv, gets := archiveServer(t)
	dir := t.TempDir()

	imp := New(db, Options{AgencyID: agency, Mode: timetable.BuildShapes}, discard)
	dl := NewDownloader(srv.URL, t.TempDir(), 5*time.Second, discard)
	s := NewScheduler(imp, dl, db, dir, "utf-8", time.Hour, discard)

	if err := s.EnsureData(ctx); err != nil {
		t.Fatal(err)
	}
	if !db.HasData(ctx) {
		t.Fatal("EnsureData imported nothing")
	}
	if v, _ := db.GetMetadata(ctx, MetaETag); v != `"v1"` {
		t.Errorf("etag = %q, want %q", v, `"v1"`)
	}
	runID, _ := db.GetMetadata(ctx, MetaRunID)

	if err := s.EnsureData(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.CheckAndUpdate(ctx); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(gets); n != 1 {
		t.Errorf("downloads = %d, want 1", n)
	}
	if v, _ := db.GetMetadata(ctx, MetaRunID); v != runID {
		t.Error("unchanged archive was imported again")
	}
}

func TestSchedulerLocalDirectory(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	dir := t.TempDir()
	writeSource(t, dir)

	imp := New(db, Options{AgencyID: agency, Mode: timetable.BuildShapes}, discard)
	s := NewScheduler(imp, nil, db, dir, "utf-8", 0, discard)
	if err := s.EnsureData(ctx); err != nil {
		t.Fatal(err)
	}
	if !db.HasData(ctx) {
		t.Error("EnsureData imported nothing")
	}
	if err := s.CheckAndUpdate(ctx); err != nil {
		t.Errorf("CheckAndUpdate without downloader = %v", err)
	}
}
