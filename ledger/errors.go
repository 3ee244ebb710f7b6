/*
errors.go - Centralized error types for the coin engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these onto HTTP statuses; nothing below the Engine
  boundary ever panics on a business-rule violation.

ERROR CATEGORIES:
  1. Not-found errors  - Unknown challenge/game/user ids (client errors)
  2. Balance errors    - Debit would take the balance negative
  3. Storage errors    - Transient persistence failures, safe to retry

USAGE:
  if errors.Is(err, ledger.ErrInsufficientBalance) {
      // surface required vs. available to the caller
  }

SEE ALSO:
  - engine.go: Where these errors originate
  - api/handlers.go: HTTP status mapping
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrChallengeNotFound is returned when a challenge id is not in the catalog.
	ErrChallengeNotFound = errors.New("challenge not found")

	// ErrGameNotFound is returned when a game id is not in the catalog.
	ErrGameNotFound = errors.New("game not found")

	// ErrAccountNotFound is returned when a user id has no account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientBalance is returned when a debit would take the
	// balance below zero. The atomic check in ApplyDelta is authoritative.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidInput is returned for malformed requests (non-positive
	// spend amounts, empty ids). Rejected before any store access.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable wraps transient store failures. The whole
	// operation is safe to retry: commits are all-or-nothing.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a balance shortage with the amounts the
// caller needs to present a useful message.
type InsufficientBalanceError struct {
	UserID    UserID
	Requested Coins
	Available Coins
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// NotFoundError identifies which reference id was unknown.
type NotFoundError struct {
	Kind string // "challenge", "game", "account"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	switch e.Kind {
	case "challenge":
		return ErrChallengeNotFound
	case "game":
		return ErrGameNotFound
	default:
		return ErrAccountNotFound
	}
}

// StorageError wraps an underlying store failure so callers can distinguish
// "your request was invalid" from "try again".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return ErrStorageUnavailable
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrInvalidInput) ||
		IsNotFound(err)
}

// IsNotFound returns true if the error indicates a missing reference.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrChallengeNotFound) ||
		errors.Is(err, ErrGameNotFound) ||
		errors.Is(err, ErrAccountNotFound)
}
