package hrdf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rickb777/date"
	"golang.org/x/text/encoding/charmap"

	"rtmap/internal/model"
)

func TestExpandMask(t *testing.T) {
	tests := []struct {
		mask    string
		want    string
		wantErr bool
	}{
		{"F0", "11110000", false},
		{"0", "0000", false},
		{"a5", "10100101", false},
		{"", "", false},
		{"FG", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.mask, func(t *testing.T) {
			got, err := ExpandMask(tt.mask)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExpandMask(%q) error = %v, wantErr %v", tt.mask, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExpandMask(%q) = %q, want %q", tt.mask, got, tt.want)
			}
		})
	}
}

func TestExpandMaskDeterministic(t *testing.T) {
	masks := []string{"FFFFFFFFFFFF", "0123456789ABCDEF", "C0000000000000000001"}
	for _, m := range masks {
		a, err := ExpandMask(m)
		if err != nil {
			t.Fatalf("ExpandMask(%q): %v", m, err)
		}
		b, _ := ExpandMask(m)
		if a != b {
			t.Errorf("ExpandMask(%q) not deterministic", m)
		}
		if len(a) != 4*len(m) {
			t.Errorf("len(ExpandMask(%q)) = %d, want %d", m, len(a), 4*len(m))
		}
	}
}

func TestOperatesOn(t *testing.T) {
	start := date.New(2024, 12, 15)
	// two padding days, then start (1), start+1 (0), start+2 (1)
	days := "00101"
	tests := []struct {
		day  date.Date
		want bool
	}{
		{start, true},
		{start.Add(1), false},
		{start.Add(2), true},
		{start.Add(3), false},
		{start.Add(-1), false},
		{start.Add(-3), false},
	}
	for _, tt := range tests {
		if got := OperatesOn(days, start, tt.day); got != tt.want {
			t.Errorf("OperatesOn(%q, %s) = %v, want %v", days, tt.day, got, tt.want)
		}
	}
}

func TestReadCalendars(t *testing.T) {
	in := strings.Join([]string{
		row(0, "000017", 7, "F0"),
		row(0, "000042", 7, "0F"),
		row(0, "000099", 7, "FF"),
		row(0, "000043", 7, "ZZ"),
	}, "\n")
	cals, err := ReadCalendars(strings.NewReader(in), map[int]bool{17: true, 42: true, 43: true}, discard)
	if err != nil {
		t.Fatalf("ReadCalendars: %v", err)
	}
	want := []model.Calendar{{ID: 17, Days: "11110000"}, {ID: 42, Days: "00001111"}}
	if len(cals) != len(want) {
		t.Fatalf("ReadCalendars = %+v, want %+v", cals, want)
	}
	for i := range want {
		if cals[i] != want[i] {
			t.Errorf("calendar %d = %+v, want %+v", i, cals[i], want[i])
		}
	}
}

func TestReadLines(t *testing.T) {
	in := strings.Join([]string{
		row(0, "0000012", 8, "N", 12, "12"),
		row(0, "0000012", 8, "F", 10, "255 255 255"),
		row(0, "0000012", 8, "B", 10, "204 0 0"),
		row(0, "0000013", 8, "N", 12, "D"),
		row(0, "0000014", 8, "B", 10, "000 000 000"),
		row(0, "0000015", 8, "N", 12, "E"),
		row(0, "0000015", 8, "F", 10, "000 000 000"),
		row(0, "0000013", 8, "F", 10, "010 020 030"),
	}, "\n")
	lines, err := ReadLines(strings.NewReader(in), discard)
	if err != nil {
		t.Fatalf("ReadLines: %v", err)
	}
	want := []model.Line{
		{ID: 12, Name: "12", ColorType: model.ColorLight, Color: "204 0 0"},
		{ID: 13, Name: "D", ColorType: model.ColorUnknown},
		{ID: 15, Name: "E", ColorType: model.ColorDark},
	}
	if len(lines) != len(want) {
		t.Fatalf("ReadLines = %+v, want %+v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, lines[i], want[i])
		}
	}
}

func TestReadStops(t *testing.T) {
	in := strings.Join([]string{
		"%  header comment",
		row(0, "8587387", 10, "6.142455", 20, "46.210204", 39, "% Genève, Cornavin"),
		row(0, "8592995", 10, "6.139087", 20, "46.183893", 39, "% Carouge"),
		row(0, "8500010", 10, "7.589563", 20, "47.547412", 39, "% Basel SBB"),
		row(0, "8500011", 10, "bad", 20, "47.0", 39, "% Broken"),
	}, "\n")
	stops, err := ReadStops(strings.NewReader(in), map[int]bool{8587387: true, 8592995: true, 8500011: true}, discard)
	if err != nil {
		t.Fatalf("ReadStops: %v", err)
	}
	if len(stops) != 2 {
		t.Fatalf("ReadStops = %+v, want 2 stops", stops)
	}
	want := model.Stop{ID: 8587387, Name: "Genève, Cornavin", Latitude: 46.210204, Longitude: 6.142455}
	if stops[0] != want {
		t.Errorf("stop = %+v, want %+v", stops[0], want)
	}
}

func TestReadValidity(t *testing.T) {
	info, err := ReadValidity(strings.NewReader("15.12.2024 Fahrplan\n13.12.2025\n"))
	if err != nil {
		t.Fatalf("ReadValidity: %v", err)
	}
	if info.StartDate != date.New(2024, 12, 15) || info.EndDate != date.New(2025, 12, 13) {
		t.Errorf("validity = %s..%s, want 2024-12-15..2025-12-13", info.StartDate, info.EndDate)
	}

	if _, err := ReadValidity(strings.NewReader("15.12.2024\n")); err == nil {
		t.Error("ReadValidity with one date: want error")
	}
	var de *DecodeError
	if _, err := ReadValidity(strings.NewReader("2024-12-15\n2025-12-13\n")); !errors.As(err, &de) {
		t.Errorf("ReadValidity(iso dates) error = %v, want *DecodeError", err)
	}
}

func writeSource(t *testing.T, dir string, latin1 bool) {
	t.Helper()
	files := map[string]string{
		FileValidity:  "15.12.2024\n13.12.2025\n",
		FileSchedule:  sampleFPLAN,
		FileCalendars: row(0, "000042", 7, "FFFF") + "\n" + row(0, "000017", 7, "F0F0") + "\n",
		FileLines:     row(0, "0000012", 8, "N", 12, "12") + "\n",
		FileStops: row(0, "8587387", 10, "6.142455", 20, "46.210204", 39, "% Genève, Cornavin") + "\n" +
			row(0, "8592995", 10, "6.139087", 20, "46.183893", 39, "% Carouge") + "\n",
	}
	for name, content := range files {
		data := []byte(content)
		if latin1 {
			var err error
			data, err = charmap.ISO8859_1.NewEncoder().Bytes(data)
			if err != nil {
				t.Fatalf("encode %s: %v", name, err)
			}
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSourceLoad(t *testing.T) {
	for _, latin1 := range []bool{false, true} {
		charset := "utf-8"
		if latin1 {
			charset = "latin1"
		}
		t.Run(charset, func(t *testing.T) {
			dir := t.TempDir()
			writeSource(t, dir, latin1)

			tt, err := NewSource(dir, charset, discard).Load(agency)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(tt.Journeys) != 3 {
				t.Errorf("journeys = %d, want 3", len(tt.Journeys))
			}
			if len(tt.Calendars) != 2 {
				t.Errorf("calendars = %d, want 2", len(tt.Calendars))
			}
			if len(tt.Stops) != 2 || tt.Stops[0].Name != "Genève, Cornavin" {
				t.Errorf("stops = %+v, want Genève first", tt.Stops)
			}
			if tt.Information.StartDate != date.New(2024, 12, 15) {
				t.Errorf("start date = %s", tt.Information.StartDate)
			}
		})
	}
}

func TestSourceMissingFile(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, false)
	if err := os.Remove(filepath.Join(dir, FileLines)); err != nil {
		t.Fatal(err)
	}

	_, err := NewSource(dir, "utf-8", discard).Load(agency)
	var se *SourceUnavailableError
	if !errors.As(err, &se) || se.Name != FileLines {
		t.Errorf("Load error = %v, want SourceUnavailableError for %s", err, FileLines)
	}
}
