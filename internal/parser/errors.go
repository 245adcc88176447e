package parser

import (
	"errors"
	"fmt"
	"strings"

	"segviz-srv/internal/models"
)

// ErrEmptyInput is wrapped in a LoadError when the upload has no header row.
var ErrEmptyInput = errors.New("CSV has no header row")

// LoadError means the input could not be parsed as a table at all.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "could not read CSV: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// MissingColumnError means a required column could not be found in the header.
type MissingColumnError struct {
	Field      models.Field
	Candidates []string
	Found      []string
	// Suggestion is the closest header name, if one was close enough.
	Suggestion string
}

func (e *MissingColumnError) Error() string {
	msg := fmt.Sprintf("no %s column (looked for %s); columns found: %s",
		e.Field, quoteAll(e.Candidates), quoteAll(e.Found))
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

func quoteAll(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	q := make([]string, len(items))
	for i, s := range items {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}
