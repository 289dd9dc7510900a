package hrdf

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// DefaultCalendarID is used when a *A VE line is present but does not decode.
const DefaultCalendarID = 17

// Journey is one assembled FPLAN entry.
type Journey struct {
	Header   JourneyHeader
	Mode     ModeBlock
	Calendar CalendarRef
	Line     LineRef
	Bound    BoundBlock
	Stops    []StopTime
}

// StopIDs returns the journey's stop ids in order.
func (j *Journey) StopIDs() []int {
	ids := make([]int, len(j.Stops))
	for i, s := range j.Stops {
		ids[i] = s.StopID
	}
	return ids
}

// AssembleStats counts what the assembler saw.
type AssembleStats struct {
	Read          int // headers of the configured agency
	Retained      int
	Dropped       int // incomplete journeys
	OtherAgency   int
	BadHeaders    int
	BadStopLines  int
	BadBlockLines int
}

type lineKind int

const (
	kindStop lineKind = iota
	kindHeader
	kindMode
	kindCalendar
	kindLine
	kindBound
	kindIgnored
	kindOtherControl
)

var ignoredPrefixes = []string{"*A NF", "*A SM", "*A SD"}

func classify(line string) lineKind {
	if !strings.HasPrefix(line, "*") {
		return kindStop
	}
	switch {
	case strings.HasPrefix(line, "*Z"):
		return kindHeader
	case strings.HasPrefix(line, "*G"):
		return kindMode
	case strings.HasPrefix(line, "*A VE"):
		return kindCalendar
	case strings.HasPrefix(line, "*L"):
		return kindLine
	case strings.HasPrefix(line, "*R"):
		return kindBound
	}
	for _, p := range ignoredPrefixes {
		if strings.HasPrefix(line, p) {
			return kindIgnored
		}
	}
	return kindOtherControl
}

// accumulator collects the blocks of the journey being assembled. Each slot
// keeps the first block of its kind.
type accumulator struct {
	header   JourneyHeader
	mode     *ModeBlock
	calendar *CalendarRef
	line     *LineRef
	bound    *BoundBlock
	stops    []StopTime
}

func (a *accumulator) missing() []string {
	var m []string
	if a.mode == nil {
		m = append(m, "mode")
	}
	if a.calendar == nil {
		m = append(m, "calendar")
	}
	if a.line == nil {
		m = append(m, "line")
	}
	if a.bound == nil {
		m = append(m, "direction")
	}
	if len(a.stops) == 0 {
		m = append(m, "stops")
	}
	return m
}

func (a *accumulator) journey() Journey {
	return Journey{
		Header:   a.header,
		Mode:     *a.mode,
		Calendar: *a.calendar,
		Line:     *a.line,
		Bound:    *a.bound,
		Stops:    a.stops,
	}
}

// Assembler groups FPLAN lines into journeys of a single agency.
type Assembler struct {
	scanner  *bufio.Scanner
	agencyID string
	logger   *slog.Logger

	lineNo    int
	lookahead string
	pending   bool
	stats     AssembleStats
}

// NewAssembler reads FPLAN lines from r and keeps journeys of agencyID.
func NewAssembler(r io.Reader, agencyID string, logger *slog.Logger) *Assembler {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Assembler{scanner: sc, agencyID: agencyID, logger: logger}
}

// Stats returns the counters accumulated so far.
func (a *Assembler) Stats() AssembleStats {
	return a.stats
}

func (a *Assembler) next() (string, bool) {
	if a.pending {
		a.pending = false
		return a.lookahead, true
	}
	if !a.scanner.Scan() {
		return "", false
	}
	a.lineNo++
	return strings.TrimRight(a.scanner.Text(), "\r"), true
}

func (a *Assembler) unread(line string) {
	a.lookahead = line
	a.pending = true
}

// Next returns the next complete journey, or io.EOF after the last one.
func (a *Assembler) Next() (Journey, error) {
	for {
		line, ok := a.next()
		if !ok {
			if err := a.scanner.Err(); err != nil {
				return Journey{}, err
			}
			return Journey{}, io.EOF
		}
		if classify(line) != kindHeader {
			continue
		}

		header, err := Decode[JourneyHeader](line)
		if err != nil {
			a.stats.BadHeaders++
			a.logger.Debug("skipping journey header", "line", a.lineNo, "error", err)
			continue
		}
		if header.AgencyID != a.agencyID {
			a.stats.OtherAgency++
			continue
		}

		acc := accumulator{header: header}
		a.accumulate(&acc)
		a.stats.Read++

		if missing := acc.missing(); len(missing) > 0 {
			a.stats.Dropped++
			a.logger.Debug("dropping journey", "error", &IncompleteJourneyError{
				JourneyNumber: header.JourneyNumber,
				AgencyID:      header.AgencyID,
				Missing:       missing,
			})
			continue
		}
		a.stats.Retained++
		return acc.journey(), nil
	}
}

func (a *Assembler) accumulate(acc *accumulator) {
	for {
		line, ok := a.next()
		if !ok {
			return
		}
		switch classify(line) {
		case kindHeader, kindOtherControl:
			a.unread(line)
			return
		case kindIgnored:
		case kindMode:
			if acc.mode == nil {
				if b, err := Decode[ModeBlock](line); err == nil {
					acc.mode = &b
				} else {
					a.blockFailed(line, err)
				}
			}
		case kindCalendar:
			if acc.calendar == nil {
				b, err := Decode[CalendarRef](line)
				if err != nil {
					a.blockFailed(line, err)
					b = CalendarRef{CalendarID: DefaultCalendarID}
				}
				acc.calendar = &b
			}
		case kindLine:
			if acc.line == nil {
				if b, err := Decode[LineRef](line); err == nil {
					acc.line = &b
				} else {
					a.blockFailed(line, err)
				}
			}
		case kindBound:
			if acc.bound == nil {
				if b, err := Decode[BoundBlock](line); err == nil {
					acc.bound = &b
				} else {
					a.blockFailed(line, err)
				}
			}
		case kindStop:
			st, err := Decode[StopTime](line)
			if err != nil {
				a.stats.BadStopLines++
				a.logger.Debug("skipping stop line", "line", a.lineNo, "error", err)
				continue
			}
			acc.stops = append(acc.stops, st)
		}
	}
}

func (a *Assembler) blockFailed(line string, err error) {
	a.stats.BadBlockLines++
	var de *DecodeError
	if errors.As(err, &de) {
		a.logger.Debug("undecodable block", "line", a.lineNo, "prefix", line[:min(len(line), 5)], "field", de.Field, "text", de.Text)
	}
}

// ReadJourneys assembles every journey of agencyID from r.
func ReadJourneys(r io.Reader, agencyID string, logger *slog.Logger) ([]Journey, AssembleStats, error) {
	asm := NewAssembler(r, agencyID, logger)
	var journeys []Journey
	for {
		j, err := asm.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, asm.Stats(), err
		}
		journeys = append(journeys, j)
	}
	return journeys, asm.Stats(), nil
}

// CalendarIDs returns the distinct calendar ids referenced by journeys.
func CalendarIDs(journeys []Journey) map[int]bool {
	ids := make(map[int]bool)
	for i := range journeys {
		ids[journeys[i].Calendar.CalendarID] = true
	}
	return ids
}

// StopIDs returns the distinct stop ids served by journeys.
func StopIDs(journeys []Journey) map[int]bool {
	ids := make(map[int]bool)
	for i := range journeys {
		for _, s := range journeys[i].Stops {
			ids[s.StopID] = true
		}
	}
	return ids
}
