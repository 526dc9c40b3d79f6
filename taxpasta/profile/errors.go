package profile

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for pipeline failures.
var (
	ErrUnknownFormat         = errors.New("unknown profile format")
	ErrUnexpectedColumnCount = errors.New("unexpected column count")
	ErrHeaderNotFound        = errors.New("header line not found")
	ErrParserWarning         = errors.New("parser warning")
	ErrMissingColumn         = errors.New("missing column")
	ErrEmptyProfile          = errors.New("profile is empty")
)

// FormatError reports that the physical layout of a raw profile does not
// match what the producer's reader expects.
type FormatError struct {
	Format Format
	Source string
	Kind   error
	Detail string
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("%s profile %s: %v", e.Format, e.Source, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Kind
}

// Violation is one failed schema expectation.
type Violation struct {
	Column string
	Row    int // zero-based data row, -1 for column-level violations
	Value  string
	Reason string
}

func (v Violation) String() string {
	if v.Row < 0 {
		return fmt.Sprintf("column %q: %s", v.Column, v.Reason)
	}
	return fmt.Sprintf("column %q row %d value %q: %s", v.Column, v.Row, v.Value, v.Reason)
}

const maxReportedViolations = 10

// SchemaValidationError carries every violation found while validating a
// table, not just the first.
type SchemaValidationError struct {
	Schema     string
	Violations []Violation
}

func (e *SchemaValidationError) Error() string {
	n := len(e.Violations)
	shown := e.Violations
	if n > maxReportedViolations {
		shown = shown[:maxReportedViolations]
	}
	msgs := make([]string, len(shown))
	for i, v := range shown {
		msgs[i] = v.String()
	}
	msg := fmt.Sprintf("schema %s: %d violation(s): %s", e.Schema, n, strings.Join(msgs, "; "))
	if n > len(shown) {
		msg += fmt.Sprintf("; and %d more", n-len(shown))
	}
	return msg
}

// Is reports ErrMissingColumn when any violation concerns an absent column.
func (e *SchemaValidationError) Is(target error) bool {
	if target != ErrMissingColumn {
		return false
	}
	for _, v := range e.Violations {
		if v.Row < 0 && v.Reason == reasonMissingColumn {
			return true
		}
	}
	return false
}

// StandardisationError means a standardiser produced output that breaks the
// standard profile invariants. It points at an adapter defect.
type StandardisationError struct {
	Format Format
	Reason string
}

func (e *StandardisationError) Error() string {
	return fmt.Sprintf("standardise %s profile: %s", e.Format, e.Reason)
}

// IsPipelineError reports whether err is one of the three failure kinds a
// pipeline run may produce.
func IsPipelineError(err error) bool {
	var (
		fe *FormatError
		se *SchemaValidationError
		st *StandardisationError
	)
	return errors.As(err, &fe) || errors.As(err, &se) || errors.As(err, &st)
}

// ErrorKind names the failure kind of err for reports.
func ErrorKind(err error) string {
	var (
		fe *FormatError
		se *SchemaValidationError
		st *StandardisationError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fe):
		return "format"
	case errors.As(err, &se):
		return "schema"
	case errors.As(err, &st):
		return "standardisation"
	default:
		return "io"
	}
}
