package hrdf

import (
	"fmt"
	"strconv"
	"strings"

	"rtmap/internal/model"
)

// Column layouts of the HRDF record types read by the importer.

// JourneyHeader is a *Z line of FPLAN.
type JourneyHeader struct {
	JourneyNumber int    `hrdf:"journey_number,3,9"`
	AgencyID      string `hrdf:"agency_id,10,16"`
	OptionCount   int    `hrdf:"option_count,19,22,optional"`
}

// ModeBlock is a *G line: transport category over a section of the journey.
type ModeBlock struct {
	Mode          model.TransportMode `hrdf:"transport_mode,3,6,lenient"`
	OriginID      int                 `hrdf:"origin_id,7,14,optional"`
	DestinationID int                 `hrdf:"destination_id,15,22,optional"`
}

// CalendarRef is a *A VE line: the operating-day bitfield of the journey.
type CalendarRef struct {
	OriginID      int `hrdf:"origin_id,6,13,optional"`
	DestinationID int `hrdf:"destination_id,14,21,optional"`
	CalendarID    int `hrdf:"bit_field_number,22,28"`
}

// LineRef is a *L line.
type LineRef struct {
	LineID        int `hrdf:"line_number,4,11"`
	OriginID      int `hrdf:"origin_id,12,19,optional"`
	DestinationID int `hrdf:"destination_id,20,27,optional"`
}

// BoundBlock is a *R line carrying the outward/return flag.
type BoundBlock struct {
	Bound           model.Bound `hrdf:"direction,3,4"`
	DirectionNumber string      `hrdf:"direction_number,6,12"`
	OriginID        int         `hrdf:"origin_id,13,20,optional"`
	DestinationID   int         `hrdf:"destination_id,21,28,optional"`
}

// StopTime is a stop line of a journey. Arrival and Departure are the raw
// time texts and may be empty.
type StopTime struct {
	StopID    int    `hrdf:"stop_id,0,7"`
	Name      string `hrdf:"name,8,28"`
	Arrival   string `hrdf:"arrival,30,35"`
	Departure string `hrdf:"departure,37,42"`
}

// calendarRecord is a BITFELD line.
type calendarRecord struct {
	ID   int    `hrdf:"bit_field_number,0,6"`
	Mask string `hrdf:"days,7,99"`
}

// coordinateRecord is a BFKOORD_WGS line.
type coordinateRecord struct {
	ID        int     `hrdf:"stop_id,0,7"`
	Longitude float64 `hrdf:"longitude,10,18"`
	Latitude  float64 `hrdf:"latitude,20,29"`
	Name      string  `hrdf:"name,39,90"`
}

// LINIE lines share the id column; the record kind sits in column 8.
type lineKey struct {
	ID int `hrdf:"line_id,0,7"`
}

type lineName struct {
	Name string `hrdf:"name,12,22"`
}

type lineColorType struct {
	ColorType model.ColorType `hrdf:"color_type,10,21,lenient"`
}

type lineColor struct {
	Color string `hrdf:"color,10,21"`
}

// ParseTime converts an HRDF stop time such as "00815" into a Clock.
// Column 0 is a sign or the hundreds digit of the hour, hours sit in
// [1,3) and minutes in [3,5). Hours are not wrapped at 24.
func ParseTime(text string) (model.Clock, error) {
	if len(text) < 5 {
		text = strings.Repeat("0", 5-len(text)) + text
	}
	if len(text) != 5 {
		return 0, fmt.Errorf("time %q: want 5 characters", text)
	}
	hours, err := strconv.Atoi(text[1:3])
	if err != nil {
		return 0, fmt.Errorf("time %q: hours: %w", text, err)
	}
	minutes, err := strconv.Atoi(text[3:5])
	if err != nil {
		return 0, fmt.Errorf("time %q: minutes: %w", text, err)
	}
	if minutes > 59 {
		return 0, fmt.Errorf("time %q: minutes out of range", text)
	}
	if d := text[0]; d >= '1' && d <= '9' {
		hours += int(d-'0') * 100
	}
	return model.NewClock(hours, minutes, 0), nil
}
