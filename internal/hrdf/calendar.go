package hrdf

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/rickb777/date"

	"rtmap/internal/model"
)

// leadingDays is the number of padding bits before the timetable start date.
const leadingDays = 2

// ExpandMask turns a hex day mask into a string of '0' and '1', four
// characters per hex digit, most significant bit first.
func ExpandMask(hex string) (string, error) {
	var b strings.Builder
	b.Grow(4 * len(hex))
	for i, r := range hex {
		n, err := strconv.ParseUint(string(r), 16, 8)
		if err != nil {
			return "", fmt.Errorf("hex digit %d (%q): %w", i, r, err)
		}
		fmt.Fprintf(&b, "%04b", n)
	}
	return b.String(), nil
}

// OperatesOn reports whether the expanded day string has the bit for day set.
// start is the first day of the timetable validity window.
func OperatesOn(days string, start, day date.Date) bool {
	i := int(day.Sub(start)) + leadingDays
	if i < 0 || i >= len(days) {
		return false
	}
	return days[i] == '1'
}

// ReadCalendars decodes the BITFELD records whose id is in ids.
func ReadCalendars(r io.Reader, ids map[int]bool, logger *slog.Logger) ([]model.Calendar, error) {
	sc := bufio.NewScanner(r)
	var calendars []model.Calendar
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := Decode[calendarRecord](line)
		if err != nil {
			logger.Debug("skipping calendar line", "line", lineNo, "error", err)
			continue
		}
		if !ids[rec.ID] {
			continue
		}
		days, err := ExpandMask(rec.Mask)
		if err != nil {
			logger.Debug("skipping calendar mask", "id", rec.ID, "error", &DecodeError{Field: "days", Text: rec.Mask, Err: err})
			continue
		}
		calendars = append(calendars, model.Calendar{ID: rec.ID, Days: days})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read calendars: %w", err)
	}
	return calendars, nil
}
