// Package common defines shared constants and sentinel errors used across
// the intake service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Sequencer errors: the caller tried to complete a step ahead of the
	// current progression, or to submit before the review step was reached.
	// Both are integration errors, not user-facing conditions.
	ErrorOutOfSequence    = errors.New("step out of sequence")
	ErrorReviewNotReached = errors.New("review step not reached")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
