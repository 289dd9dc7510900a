package hrdf

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"rtmap/internal/model"
)

// Input file names of an HRDF export.
const (
	FileSchedule  = "FPLAN"
	FileCalendars = "BITFELD"
	FileLines     = "LINIE"
	FileStops     = "BFKOORD_WGS"
	FileValidity  = "ECKDATEN"
)

// Source is a directory holding an unpacked HRDF export.
type Source struct {
	dir     string
	charset string
	logger  *slog.Logger
}

// NewSource returns a Source over dir. charset is "utf-8" or "latin1".
func NewSource(dir, charset string, logger *slog.Logger) *Source {
	return &Source{dir: dir, charset: strings.ToLower(charset), logger: logger}
}

// Dir returns the source directory.
func (s *Source) Dir() string {
	return s.dir
}

type decodedFile struct {
	io.Reader
	f *os.File
}

func (d decodedFile) Close() error { return d.f.Close() }

// Open opens one input file, decoding it to UTF-8 when the source is latin1.
func (s *Source) Open(name string) (io.ReadCloser, error) {
	path := filepath.Join(s.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceUnavailableError{Name: name, Path: path, Err: err}
	}
	switch s.charset {
	case "latin1", "iso-8859-1":
		return decodedFile{Reader: charmap.ISO8859_1.NewDecoder().Reader(f), f: f}, nil
	default:
		return f, nil
	}
}

// Timetable is everything read from one source for one agency.
type Timetable struct {
	Information model.Information
	Journeys    []Journey
	Calendars   []model.Calendar
	Lines       []model.Line
	Stops       []model.Stop
	Stats       AssembleStats
}

// Load reads all input files. Only calendars and stops referenced by the
// retained journeys are kept.
func (s *Source) Load(agencyID string) (*Timetable, error) {
	tt := &Timetable{}

	err := s.read(FileValidity, func(r io.Reader) (err error) {
		tt.Information, err = ReadValidity(r)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.read(FileSchedule, func(r io.Reader) (err error) {
		tt.Journeys, tt.Stats, err = ReadJourneys(r, agencyID, s.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("journeys assembled",
		"read", tt.Stats.Read,
		"retained", tt.Stats.Retained,
		"dropped", tt.Stats.Dropped,
		"other_agency", tt.Stats.OtherAgency,
	)

	err = s.read(FileCalendars, func(r io.Reader) (err error) {
		tt.Calendars, err = ReadCalendars(r, CalendarIDs(tt.Journeys), s.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.read(FileLines, func(r io.Reader) (err error) {
		tt.Lines, err = ReadLines(r, s.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.read(FileStops, func(r io.Reader) (err error) {
		tt.Stops, err = ReadStops(r, StopIDs(tt.Journeys), s.logger)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("HRDF source read",
		"calendars", len(tt.Calendars),
		"lines", len(tt.Lines),
		"stops", len(tt.Stops),
	)
	return tt, nil
}

func (s *Source) read(name string, fn func(io.Reader) error) error {
	rc, err := s.Open(name)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := fn(rc); err != nil {
		return fmt.Errorf("parsing %s: %w", name, err)
	}
	return nil
}
