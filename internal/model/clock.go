package model

import (
	"encoding/json"
	"fmt"
)

const secondsPerDay = 24 * 60 * 60

// Clock is a time of day in seconds since midnight of the service day.
// Values past 24h are kept as is and belong to the following calendar day.
type Clock int

// NewClock builds a Clock from hours, minutes and seconds.
func NewClock(h, m, s int) Clock {
	return Clock(h*3600 + m*60 + s)
}

// Add returns c shifted by the given number of seconds.
func (c Clock) Add(seconds int) Clock {
	return c + Clock(seconds)
}

// DayOffset reports how many days past the service day c falls on.
func (c Clock) DayOffset() int {
	if c < 0 {
		return 0
	}
	return int(c) / secondsPerDay
}

// String formats c as HH:MM:SS, with hours possibly above 23.
func (c Clock) String() string {
	s := int(c)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s%3600/60, s%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// ClockPtr is a convenience for optional clock fields.
func ClockPtr(c Clock) *Clock {
	return &c
}
