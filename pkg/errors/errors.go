// Package errors provides common domain error types for ietf2vcon.
//
// This package defines sentinel errors for expected absence conditions like
// "no transcript produced" that can be used across all packages. Using typed
// errors enables consistent handling with errors.Is() checks: library
// components return these sentinels instead of raising past their boundary,
// and only the CLI layer converts them to user-facing messages and exit codes.
package errors

import "errors"

// Domain errors - common sentinel errors for expected failure modes.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrNoTranscript indicates no transcript could be produced from any source.
	ErrNoTranscript = errors.New("no transcript produced")

	// ErrNoSegments indicates a transcript source yielded zero usable segments.
	ErrNoSegments = errors.New("no segments produced")

	// ErrValidation indicates invalid input or validation failure.
	ErrValidation = errors.New("validation error")

	// ErrUnavailable indicates an external collaborator is unreachable.
	ErrUnavailable = errors.New("service unavailable")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNoTranscript reports whether any error in err's chain is ErrNoTranscript.
func IsNoTranscript(err error) bool {
	return errors.Is(err, ErrNoTranscript)
}

// IsNoSegments reports whether any error in err's chain is ErrNoSegments.
func IsNoSegments(err error) bool {
	return errors.Is(err, ErrNoSegments)
}

// IsValidation reports whether any error in err's chain is ErrValidation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnavailable reports whether any error in err's chain is ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
