package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both missing/soft-deleted entities and ownership
	// denials; the two are deliberately indistinguishable to callers.
	ErrNotFound  = errors.New("not found")
	ErrExpired   = errors.New("link expired")
	ErrSlugTaken = errors.New("slug already taken")
)

// ValidationError marks malformed input; handlers translate it to a 422.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
