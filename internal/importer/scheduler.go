package importer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"rtmap/internal/hrdf"
	"rtmap/internal/storage"
)

// Scheduler keeps the store populated: it imports on startup when the store
// is empty and, with a downloader, refreshes on a fixed interval.
type Scheduler struct {
	importer   *Importer
	downloader *Downloader // nil when the source directory is managed externally
	db         *storage.DB
	dir        string
	charset    string
	interval   time.Duration
	logger     *slog.Logger

	mu      sync.Mutex // one import at a time
	running bool
}

// NewScheduler creates a Scheduler reading HRDF files from dir.
func NewScheduler(imp *Importer, downloader *Downloader, db *storage.DB, dir, charset string, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		importer:   imp,
		downloader: downloader,
		db:         db,
		dir:        dir,
		charset:    charset,
		interval:   interval,
		logger:     logger,
	}
}

// ErrImportRunning is returned when an import is requested while one is
// in progress.
var ErrImportRunning = errors.New("import already running")

// EnsureData imports if the store is empty. Called on startup.
func (s *Scheduler) EnsureData(ctx context.Context) error {
	if s.db.HasData(ctx) {
		s.logger.Info("timetable data already present")
		return nil
	}
	s.logger.Info("no timetable data found, performing initial import")
	return s.ImportNow(ctx)
}

// ImportNow imports unconditionally, fetching the archive first when a
// downloader is configured.
func (s *Scheduler) ImportNow(ctx context.Context) error {
	if s.downloader != nil {
		return s.update(ctx)
	}
	_, err := s.Run(ctx, nil)
	return err
}

// Run imports the current contents of the source directory.
func (s *Scheduler) Run(ctx context.Context, meta map[string]string) (*Summary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrImportRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	return s.importer.Import(ctx, hrdf.NewSource(s.dir, s.charset, s.logger), meta)
}

// CheckAndUpdate imports a fresh archive if the remote one changed since
// the last import.
func (s *Scheduler) CheckAndUpdate(ctx context.Context) error {
	if s.downloader == nil {
		return nil
	}
	lastModified, _ := s.db.GetMetadata(ctx, MetaLastModified)
	etag, _ := s.db.GetMetadata(ctx, MetaETag)

	result, err := s.downloader.Check(ctx, lastModified, etag)
	if err != nil {
		return err
	}
	if !result.NeedsUpdate {
		return nil
	}
	return s.update(ctx)
}

// StartBackground runs CheckAndUpdate every interval until ctx is done.
func (s *Scheduler) StartBackground(ctx context.Context) {
	if s.downloader == nil || s.interval <= 0 {
		return
	}
	s.logger.Info("HRDF refresh scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := s.CheckAndUpdate(ctx); err != nil {
				s.logger.Error("background HRDF update failed", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("HRDF refresh scheduler stopped")
			return
		}
	}
}

// update performs a full download-unpack-import cycle.
func (s *Scheduler) update(ctx context.Context) error {
	archive, err := s.downloader.Download(ctx)
	if err != nil {
		return err
	}
	defer os.Remove(archive.Path)

	n, err := Unpack(archive.Path, s.dir)
	if err != nil {
		return err
	}
	s.logger.Info("HRDF archive unpacked", "files", n, "dir", s.dir)

	_, err = s.Run(ctx, map[string]string{
		MetaLastModified: archive.LastModified,
		MetaETag:         archive.ETag,
	})
	return err
}
