package hrdf

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"rtmap/internal/model"
)

// ReadStops decodes BFKOORD_WGS and keeps the stops whose id is in ids.
func ReadStops(r io.Reader, ids map[int]bool, logger *slog.Logger) ([]model.Stop, error) {
	sc := bufio.NewScanner(r)
	var stops []model.Stop
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "%") {
			continue
		}
		rec, err := Decode[coordinateRecord](line)
		if err != nil {
			logger.Debug("skipping coordinate line", "line", lineNo, "error", err)
			continue
		}
		if !ids[rec.ID] {
			continue
		}
		stops = append(stops, model.Stop{
			ID:        rec.ID,
			Name:      strings.TrimPrefix(rec.Name, "% "),
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read stops: %w", err)
	}
	return stops, nil
}
