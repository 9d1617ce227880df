package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSeason is returned for unrecognized season names or values.
	ErrInvalidSeason = errors.New("invalid season")
	// ErrOutOfRange is returned for years outside the supported data range.
	ErrOutOfRange = errors.New("out of range")
	// ErrEmptySlice is returned when a season slice has no observations.
	ErrEmptySlice = errors.New("empty slice")
	// ErrInsufficientData is returned when a fit or test has fewer than 2 values.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDivisionByZero is returned when a score has a zero denominator.
	ErrDivisionByZero = errors.New("division by zero")
)

// StageError names the stage and the (field, season, year) triplet that failed.
// Zero-valued coordinates are omitted from the message.
type StageError struct {
	Stage  string
	Field  Field
	Season *Season
	Year   int
	Err    error
}

func (e *StageError) Error() string {
	var b strings.Builder
	b.WriteString(e.Stage)
	var parts []string
	if e.Field != "" {
		parts = append(parts, "field="+string(e.Field))
	}
	if e.Season != nil {
		parts = append(parts, "season="+e.Season.String())
	}
	if e.Year != 0 {
		parts = append(parts, fmt.Sprintf("year=%d", e.Year))
	}
	if len(parts) > 0 {
		b.WriteString(" [" + strings.Join(parts, " ") + "]")
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err with the failing stage and coordinates.
func NewStageError(stage string, f Field, s Season, year int, err error) error {
	return &StageError{Stage: stage, Field: f, Season: &s, Year: year, Err: err}
}
