package hrdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rickb777/date"

	"rtmap/internal/model"
)

// ReadValidity reads the two corner dates of ECKDATEN (dd.mm.yyyy, one per
// line) into the Information entity.
func ReadValidity(r io.Reader) (model.Information, error) {
	sc := bufio.NewScanner(r)
	var dates []date.Date
	for sc.Scan() && len(dates) < 2 {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		text := columnsOf(line).slice(0, 10)
		t, err := time.Parse("02.01.2006", text)
		if err != nil {
			return model.Information{}, &DecodeError{Field: "corner_date", Text: text, Err: err}
		}
		dates = append(dates, date.NewAt(t))
	}
	if err := sc.Err(); err != nil {
		return model.Information{}, fmt.Errorf("read corner dates: %w", err)
	}
	if len(dates) < 2 {
		return model.Information{}, fmt.Errorf("read corner dates: want 2 dates, got %d", len(dates))
	}
	return model.Information{ID: 1, StartDate: dates[0], EndDate: dates[1]}, nil
}
