package models

import (
	"errors"
	"fmt"
)

// ErrMissingColumn is returned when the catalog lacks a column the trend
// computation depends on.
var ErrMissingColumn = errors.New("catalog is missing a required column")

// ErrInvalidRequest wraps request validation failures of the search pipeline.
var ErrInvalidRequest = errors.New("invalid request")

// ValidationError describes a rejected input value.
type ValidationError struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"error"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %q", e.Reason, e.Value)
}
