package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Authorization Errors.

	// ErrUnauthorized indicates the caller lacks the privilege an operation requires.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrRateLimited indicates the caller made too many attempts in a short window.
	ErrRateLimited = errors.New("rate limited")

	// Issuance Errors.

	// ErrInsufficientBalance indicates the operator cannot pay for the requested licence.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidUnit indicates an unrecognised licence unit.
	ErrInvalidUnit = errors.New("invalid unit")

	// ErrInvalidAmount indicates a non-positive or malformed licence amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// Redemption Errors.

	// ErrTokenNotFound indicates the token was never issued.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenAlreadyRedeemed indicates the token existed but has been consumed.
	ErrTokenAlreadyRedeemed = errors.New("token already redeemed")

	// Store Errors.

	// ErrStoreCorrupt indicates a collection file could not be parsed.
	// It is recovered automatically and never returned to callers of the core.
	ErrStoreCorrupt = errors.New("store corrupt")

	// ErrStoreIO indicates a collection could not be read or written.
	// The operation did not take effect and may be retried.
	ErrStoreIO = errors.New("store i/o failure")

	// ErrUnrecovered indicates a failure part way through an operation whose
	// compensation also failed. Some of its effects persist and need an
	// administrator.
	ErrUnrecovered = errors.New("partial failure not rolled back")
)

// IsRejection reports whether err is a business rejection that should be
// shown to the caller verbatim, as opposed to an infrastructure failure.
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrInvalidUnit),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrTokenNotFound),
		errors.Is(err, ErrTokenAlreadyRedeemed),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAlreadyExists),
		errors.Is(err, ErrInvalidInput):
		return true
	default:
		return false
	}
}
