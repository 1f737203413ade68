package model

import "errors"

// Error kinds returned across the consolidation pipeline. Handlers translate
// these into the APIError envelope via ErrCode below.
var (
	// ErrInvalidInput marks malformed or missing claim fields in a request.
	ErrInvalidInput = errors.New("model: invalid input")
	// ErrInvalidSource marks a malformed source record, or a claim whose
	// sourceId has no corresponding entry in a stateless request's sources list.
	ErrInvalidSource = errors.New("model: invalid source")
	// ErrInvalidRating marks a rating vector of the wrong length for the
	// configured number of levels.
	ErrInvalidRating = errors.New("model: invalid rating")
	// ErrStore wraps a failure in the ReputationStore backend.
	ErrStore = errors.New("model: store error")
	// ErrNumeric marks a non-fatal numeric condition worth surfacing to the
	// caller (e.g. a confidence computation saturating at a boundary).
	ErrNumeric = errors.New("model: numeric warning")
	// ErrNotFound marks a lookup miss in a ReputationStore.
	ErrNotFound = errors.New("model: not found")
)

// ErrCode string constants used in the APIError envelope.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeInvalidSource = "INVALID_SOURCE"
	ErrCodeInvalidRating = "INVALID_RATING"
	ErrCodeStoreError    = "STORE_ERROR"
	ErrCodeNumeric       = "NUMERIC_WARNING"
	ErrCodeInternal      = "INTERNAL_ERROR"
)
