package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingDocID        = errors.New("doc_id is required")
	ErrMissingTitle        = errors.New("title is required")
	ErrMissingHTML         = errors.New("html is required")
	ErrInvalidProposer     = errors.New("proposed_by must be internal or external")
	ErrInvalidChangeStatus = errors.New("status must be accepted, rejected or countered")
)

// Sentinel errors for entity lookups.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRoundNotFound   = errors.New("round not found")
	ErrChangeNotFound  = errors.New("change not found")
)

// ErrSessionClosed indicates a round import or resolution against a
// settled or abandoned session. This is the only hard rejection in the
// import pipeline.
var ErrSessionClosed = errors.New("session is closed to further rounds")

// ErrChangeResolved indicates an attempt to resolve a change that has
// already left pending.
var ErrChangeResolved = errors.New("change is already resolved")

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
