package model

import "fmt"

// TransportMode is the vehicle category of a trip.
type TransportMode int

const (
	ModeUnknown TransportMode = iota
	ModeLift
	ModeBus
	ModeChairlift
	ModeRackRailroad
	ModeCableWay
	ModeUnderground
	ModeFunicular
	ModeShip
	ModeTramway
	ModeRail
)

var transportModeNames = [...]string{
	ModeUnknown:      "Unknown",
	ModeLift:         "Lift",
	ModeBus:          "Bus",
	ModeChairlift:    "Chairlift",
	ModeRackRailroad: "RackRailroad",
	ModeCableWay:     "CableWay",
	ModeUnderground:  "Underground",
	ModeFunicular:    "Funicular",
	ModeShip:         "Ship",
	ModeTramway:      "Tramway",
	ModeRail:         "Rail",
}

var transportModeTokens = map[string]TransportMode{
	"A": ModeLift,
	"B": ModeBus,
	"E": ModeChairlift,
	"H": ModeRackRailroad,
	"L": ModeCableWay,
	"M": ModeUnderground,
	"N": ModeFunicular,
	"S": ModeShip,
	"T": ModeTramway,
	"U": ModeUnknown,
	"Z": ModeRail,
}

func init() {
	for m, name := range transportModeNames {
		transportModeTokens[name] = TransportMode(m)
	}
}

// ParseTransportMode maps a one-letter HRDF code or a long name to a mode.
// Unrecognized tokens return ModeUnknown and an error.
func ParseTransportMode(s string) (TransportMode, error) {
	if m, ok := transportModeTokens[s]; ok {
		return m, nil
	}
	return ModeUnknown, fmt.Errorf("unknown transport mode %q", s)
}

func (m TransportMode) String() string {
	if m < 0 || int(m) >= len(transportModeNames) {
		return transportModeNames[ModeUnknown]
	}
	return transportModeNames[m]
}

func (m TransportMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *TransportMode) UnmarshalText(b []byte) error {
	v, err := ParseTransportMode(string(b))
	*m = v
	return err
}

// ColorType classifies a line color for contrast.
type ColorType int

const (
	ColorUnknown ColorType = iota
	ColorDark
	ColorLight
)

var colorTypeTokens = map[string]ColorType{
	"255 255 255": ColorLight,
	"000 000 000": ColorDark,
	"Light":       ColorLight,
	"Dark":        ColorDark,
	"Unknown":     ColorUnknown,
}

// ParseColorType maps an RGB triplet or a long name to a color class.
func ParseColorType(s string) (ColorType, error) {
	if c, ok := colorTypeTokens[s]; ok {
		return c, nil
	}
	return ColorUnknown, fmt.Errorf("unknown color type %q", s)
}

func (c ColorType) String() string {
	switch c {
	case ColorDark:
		return "Dark"
	case ColorLight:
		return "Light"
	default:
		return "Unknown"
	}
}

func (c ColorType) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *ColorType) UnmarshalText(b []byte) error {
	v, err := ParseColorType(string(b))
	*c = v
	return err
}

// Bound is the outward/return flag of a journey.
type Bound int

const (
	BoundInvalid Bound = iota
	BoundOutward
	BoundReturn
)

var boundTokens = map[string]Bound{
	"H":       BoundOutward,
	"R":       BoundReturn,
	"Outward": BoundOutward,
	"Return":  BoundReturn,
}

// ParseBound maps H/R (or the long names) to a Bound. There is no unknown
// variant: anything else is an error.
func ParseBound(s string) (Bound, error) {
	if b, ok := boundTokens[s]; ok {
		return b, nil
	}
	return BoundInvalid, fmt.Errorf("unknown direction flag %q", s)
}

func (b Bound) String() string {
	switch b {
	case BoundOutward:
		return "Outward"
	case BoundReturn:
		return "Return"
	default:
		return "Invalid"
	}
}

func (b Bound) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Bound) UnmarshalText(text []byte) error {
	v, err := ParseBound(string(text))
	*b = v
	return err
}
