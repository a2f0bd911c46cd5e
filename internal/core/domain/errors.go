package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors match these with errors.Is.
var (
	ErrParse            = errors.New("parse error")
	ErrInsufficientData = errors.New("insufficient data")
	ErrDegenerateScore  = errors.New("degenerate score")
	ErrIO               = errors.New("i/o failure")
)

// ParseError reports malformed spectrum input.
type ParseError struct {
	File   string
	Line   int // 1-based; 0 when not tied to a line
	Column string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "parse " + quoteName(e.File)
	if e.Line > 0 {
		msg += fmt.Sprintf(" line %d", e.Line)
	}
	if e.Column != "" {
		msg += " column " + e.Column
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is matches ErrParse.
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// InsufficientDataError reports a spectrum too short (or misaligned) for a window.
type InsufficientDataError struct {
	Window   string
	Required int
	Got      int
	Reason   string
}

func (e *InsufficientDataError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("insufficient data for %s: %s", e.Window, e.Reason)
	}
	return fmt.Sprintf("insufficient data for %s: need %d points, got %d", e.Window, e.Required, e.Got)
}

// Is matches ErrInsufficientData.
func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// DegenerateScoreError reports a zero weighted sum in the scorer.
type DegenerateScoreError struct {
	Metrics ErrorMetricSet
}

func (e *DegenerateScoreError) Error() string {
	return "score undefined: weighted error sum is zero"
}

// Is matches ErrDegenerateScore.
func (e *DegenerateScoreError) Is(target error) bool { return target == ErrDegenerateScore }

// IOFailure reports a storage or disk failure on a named object.
type IOFailure struct {
	Op   string
	Name string
	Err  error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, quoteName(e.Name), e.Err)
}

func (e *IOFailure) Unwrap() error { return e.Err }

// Is matches ErrIO.
func (e *IOFailure) Is(target error) bool { return target == ErrIO }

func quoteName(name string) string {
	if name == "" {
		return "<input>"
	}
	return fmt.Sprintf("%q", name)
}
