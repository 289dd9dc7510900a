// Package importer runs HRDF imports: it reads a source directory, builds
// the timetable entities and replaces the stored ones in one transaction.
package importer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hako/durafmt"

	"rtmap/internal/hrdf"
	"rtmap/internal/model"
	"rtmap/internal/storage"
	"rtmap/internal/timetable"
)

// Metadata keys written by an import.
const (
	MetaRunID        = "run_id"
	MetaImportedAt   = "imported_at"
	MetaAgencyID     = "agency_id"
	MetaBuildMode    = "build_mode"
	MetaLastModified = "last_modified"
	MetaETag         = "etag"
)

// Options configure what an import builds.
type Options struct {
	AgencyID    string
	Mode        timetable.BuildMode
	Router      timetable.Router
	Snapper     timetable.Snapper
	Concurrency int
}

// Summary describes a finished import run.
type Summary struct {
	RunID   string
	Source  hrdf.AssembleStats
	Build   timetable.Report
	Elapsed time.Duration
}

// Importer loads HRDF sources into the store.
type Importer struct {
	db     *storage.DB
	opts   Options
	logger *slog.Logger
}

// New creates an Importer.
func New(db *storage.DB, opts Options, logger *slog.Logger) *Importer {
	return &Importer{db: db, opts: opts, logger: logger}
}

// Import reads src and replaces the stored timetable. meta is stored
// alongside the run's own metadata. Nothing is written if any step fails.
func (imp *Importer) Import(ctx context.Context, src *hrdf.Source, meta map[string]string) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := imp.logger.With("run_id", runID)
	logger.Info("import started", "dir", src.Dir(), "agency", imp.opts.AgencyID, "mode", imp.opts.Mode)

	tt, err := src.Load(imp.opts.AgencyID)
	if err != nil {
		return nil, err
	}

	builder := timetable.NewBuilder(tt.Stops, timetable.Options{
		Mode:        imp.opts.Mode,
		Router:      imp.opts.Router,
		Snapper:     imp.opts.Snapper,
		Concurrency: imp.opts.Concurrency,
	}, logger)
	res, err := builder.Build(ctx, tt.Journeys)
	if err != nil {
		return nil, fmt.Errorf("build timetable: %w", err)
	}

	tx, err := imp.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.Clear(ctx); err != nil {
		return nil, err
	}
	if err := store(ctx, tx, tt, res); err != nil {
		return nil, err
	}

	values := map[string]string{
		MetaRunID:      runID,
		MetaImportedAt: time.Now().UTC().Format(time.RFC3339),
		MetaAgencyID:   imp.opts.AgencyID,
		MetaBuildMode:  imp.opts.Mode.String(),
	}
	for k, v := range meta {
		if v != "" {
			values[k] = v
		}
	}
	for k, v := range values {
		if err := tx.SetMetadata(ctx, k, v); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	sum := &Summary{RunID: runID, Source: tt.Stats, Build: res.Report, Elapsed: time.Since(start)}
	r := sum.Build
	logger.Info("import complete",
		"duration", durafmt.Parse(sum.Elapsed.Round(time.Millisecond)).LimitFirstN(2).String(),
		"journeys_read", sum.Source.Read,
		"journeys_retained", sum.Source.Retained,
		"journeys_dropped", sum.Source.Dropped,
		"trips", r.Trips,
		"trip_stops", r.TripStops,
		"shapes", r.Shapes,
		"shape_points", r.ShapePoints,
		"failed_snaps", r.FailedSnaps,
		"directions", r.Directions,
		"legs", r.Legs,
		"chunks", r.Chunks,
		"failed_chunks", r.FailedChunks,
		"corrected_arrivals", r.CorrectedArrivals,
	)
	return sum, nil
}

// store writes every entity set, parents first.
func store(ctx context.Context, tx *storage.Tx, tt *hrdf.Timetable, res *timetable.Result) error {
	steps := []func() (int, error){
		func() (int, error) { return storage.InsertMany(ctx, tx, []model.Information{tt.Information}) },
		func() (int, error) { return storage.InsertMany(ctx, tx, tt.Stops) },
		func() (int, error) { return storage.InsertMany(ctx, tx, tt.Lines) },
		func() (int, error) { return storage.InsertMany(ctx, tx, tt.Calendars) },
		func() (int, error) { return storage.InsertMany(ctx, tx, res.Shapes) },
		func() (int, error) { return storage.InsertMany(ctx, tx, res.ShapeStops) },
		func() (int, error) { return storage.InsertMany(ctx, tx, res.ShapePoints) },
		func() (int, error) { return storage.InsertMany(ctx, tx, res.Directions) },
		func() (int, error) { return storage.InsertMany(ctx, tx, res.Legs) },
		func() (int, error) { return storage.InsertMany(ctx, tx, res.Steps) },
		func() (int, error) { return storage.InsertMany(ctx, tx, res.Paths) },
		func() (int, error) { return storage.InsertMany(ctx, tx, res.Trips) },
		func() (int, error) { return storage.InsertMany(ctx, tx, res.TripStops) },
	}
	for _, step := range steps {
		if _, err := step(); err != nil {
			return err
		}
	}
	return nil
}
