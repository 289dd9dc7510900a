package hrdf

import (
	"fmt"
	"strings"
)

// DecodeError reports a field that did not parse under its declared type.
type DecodeError struct {
	Field string
	Text  string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode field %s from %q: %v", e.Field, e.Text, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// IncompleteJourneyError describes a journey dropped for missing blocks.
type IncompleteJourneyError struct {
	JourneyNumber int
	AgencyID      string
	Missing       []string
}

func (e *IncompleteJourneyError) Error() string {
	return fmt.Sprintf("journey %d/%s incomplete: missing %s",
		e.JourneyNumber, e.AgencyID, strings.Join(e.Missing, ", "))
}

// SourceUnavailableError is returned when a required input file cannot be read.
type SourceUnavailableError struct {
	Name string
	Path string
	Err  error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable at %s: %v", e.Name, e.Path, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error { return e.Err }
