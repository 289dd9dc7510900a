package hrdf

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"rtmap/internal/model"
)

// ReadLines groups LINIE records by line id. A line is emitted only when it
// has a name (N) record; its color type (F) and color (B) records are
// optional and may appear in any order after it. Output follows the order in
// which ids first appear.
func ReadLines(r io.Reader, logger *slog.Logger) ([]model.Line, error) {
	sc := bufio.NewScanner(r)
	lines := make(map[int]*model.Line)
	named := make(map[int]bool)
	var order []int

	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		key, err := Decode[lineKey](text)
		if err != nil {
			logger.Debug("skipping line record", "line", lineNo, "error", err)
			continue
		}
		l, ok := lines[key.ID]
		if !ok {
			l = &model.Line{ID: key.ID}
			lines[key.ID] = l
			order = append(order, key.ID)
		}

		switch At(text, 8) {
		case "N":
			rec, err := Decode[lineName](text)
			if err != nil {
				logger.Debug("skipping line name", "line", lineNo, "error", err)
				continue
			}
			l.Name = rec.Name
			named[key.ID] = true
		case "F":
			rec, err := Decode[lineColorType](text)
			if err != nil {
				continue
			}
			l.ColorType = rec.ColorType
		case "B":
			rec, err := Decode[lineColor](text)
			if err != nil {
				continue
			}
			l.Color = rec.Color
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lines: %w", err)
	}

	out := make([]model.Line, 0, len(named))
	for _, id := range order {
		if named[id] {
			out = append(out, *lines[id])
		}
	}
	return out, nil
}
