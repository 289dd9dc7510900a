package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rtmap/internal/config"
	"rtmap/internal/importer"
	"rtmap/internal/routing"
	"rtmap/internal/server"
	"rtmap/internal/storage"
	"rtmap/internal/timetable"
)

// downloadTimeout bounds one archive download.
const downloadTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// CLI flags
	flag.IntVar(&cfg.Port, "port", cfg.Port, "HTTP server port")
	flag.StringVar(&cfg.HRDFDir, "hrdf-dir", cfg.HRDFDir, "Directory holding the HRDF files")
	flag.BoolVar(&cfg.Import, "import", cfg.Import, "Import the HRDF data, then exit")
	flag.StringVar(&cfg.BuildMode, "mode", cfg.BuildMode, "What to build: shapes or directions")
	flag.StringVar(&cfg.AgencyID, "agency", cfg.AgencyID, "Operator identifier to import")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	if err := cfg.Validate(); err != nil {
		logger.Error("bad configuration", "error", err)
		os.Exit(1)
	}
	mode, err := timetable.ParseBuildMode(cfg.BuildMode)
	if err != nil {
		logger.Error("bad configuration", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	opts := importer.Options{
		AgencyID:    cfg.AgencyID,
		Mode:        mode,
		Concurrency: cfg.RoutingConcurrency,
	}
	switch {
	case mode == timetable.BuildDirections:
		opts.Router = routing.NewClient(cfg.MapsBaseURL, cfg.MapsAPIKey, cfg.RoutingTimeout, logger)
	case cfg.MapsAPIKey != "":
		// shapes get road-snapped points when a key is available
		opts.Snapper = routing.NewClient(cfg.MapsBaseURL, cfg.MapsAPIKey, cfg.RoutingTimeout, logger).
			SetRoadsURL(cfg.MapsRoadsURL)
	}
	imp := importer.New(db, opts, logger)

	var downloader *importer.Downloader
	if cfg.HRDFURL != "" {
		downloader = importer.NewDownloader(cfg.HRDFURL, os.TempDir(), downloadTimeout, logger)
	}
	scheduler := importer.NewScheduler(imp, downloader, db, cfg.HRDFDir, cfg.Charset, cfg.RefreshInterval, logger)

	if cfg.Import {
		logger.Info("importing HRDF data", "dir", cfg.HRDFDir, "mode", mode, "agency", cfg.AgencyID)
		if err := scheduler.ImportNow(ctx); err != nil {
			logger.Error("HRDF import failed", "error", err)
			os.Exit(1)
		}
		return
	}

	srv := server.New(cfg, db, logger)

	// Import in the background on first run; the API answers 503 until done.
	go func() {
		if err := scheduler.EnsureData(ctx); err != nil {
			logger.Error("initial HRDF import failed", "error", err)
			return
		}
		srv.SetReady()
		scheduler.StartBackground(ctx)
	}()

	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shut down")
}
