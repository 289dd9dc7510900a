package model

import (
	"github.com/rickb777/date"
)

// Value is a single column value handed to the store. The concrete types
// below are the only implementations.
type Value interface {
	columnValue()
}

// Int is an integer column.
type Int int64

// Real is a floating point column.
type Real float64

// Text is a string column.
type Text string

// Day is a calendar date column, stored as ISO 8601 text.
type Day date.Date

// Null is an absent value.
type Null struct{}

func (Int) columnValue()  {}
func (Real) columnValue() {}
func (Text) columnValue() {}
func (Day) columnValue()  {}
func (Null) columnValue() {}

// Arg converts v into a database/sql driver argument.
func Arg(v Value) any {
	switch v := v.(type) {
	case Int:
		return int64(v)
	case Real:
		return float64(v)
	case Text:
		return string(v)
	case Day:
		return date.Date(v).String()
	default:
		return nil
	}
}

// OptInt returns Null for the zero id and Int otherwise.
func OptInt(id int) Value {
	if id == 0 {
		return Null{}
	}
	return Int(id)
}

// OptClock returns Null for a nil clock and Int seconds otherwise.
func OptClock(c *Clock) Value {
	if c == nil {
		return Null{}
	}
	return Int(*c)
}

// Record is implemented by every entity persisted by the importer.
type Record interface {
	Table() string
	Columns() []string
	Values() []Value
}
