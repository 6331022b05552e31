package kernel

import (
	"errors"
	"fmt"
)

// RunError is a run-invalidating condition: a contract violation in the
// submitted inputs, detected by the kernel but attributable to the
// environment that constructed them. It is disjoint from lawful refusals,
// which are per-action ACTION_REFUSED outputs and never carry an error.
//
// A step that returns a RunError commits nothing; the prior state remains
// the authoritative state of the run.
type RunError struct {
	// Code identifies the violation category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// AuthorityID identifies the offending authority, when applicable.
	AuthorityID string

	// EventID identifies the offending input, when applicable.
	EventID string
}

// RunErrorCode categorizes run-invalidating conditions.
type RunErrorCode string

const (
	// ErrCodeDuplicateAuthority indicates an authority id was issued twice.
	ErrCodeDuplicateAuthority RunErrorCode = "DUPLICATE_AUTHORITY_ID"

	// ErrCodeEpochNotMonotonic indicates an epoch advance to a value at or
	// below the current epoch.
	ErrCodeEpochNotMonotonic RunErrorCode = "EPOCH_NOT_MONOTONIC"

	// ErrCodeMultipleEpochAdvance indicates more than one epoch advance in
	// a single step batch.
	ErrCodeMultipleEpochAdvance RunErrorCode = "MULTIPLE_EPOCH_ADVANCE"

	// ErrCodeMultipleDestruction indicates more than one destruction
	// authorization in a single step batch, or a second one after one
	// was already honored in this run.
	ErrCodeMultipleDestruction RunErrorCode = "MULTIPLE_DESTRUCTION_AUTHORIZATION"

	// ErrCodeUnknownPrior indicates a renewal or lineage reference to an
	// authority id that never existed.
	ErrCodeUnknownPrior RunErrorCode = "UNKNOWN_PRIOR_AUTHORITY"

	// ErrCodeVerificationFailed indicates the injected verification
	// primitive rejected an authorization claim.
	ErrCodeVerificationFailed RunErrorCode = "VERIFICATION_FAILED"

	// ErrCodeMalformedInput indicates a structurally invalid input: vector
	// bits beyond the defined range, non-finite expiry, an expiry at or
	// below the start epoch, or a non-canonical batch.
	ErrCodeMalformedInput RunErrorCode = "MALFORMED_INPUT"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	switch {
	case e.AuthorityID != "" && e.EventID != "":
		return fmt.Sprintf("%s: %s (authority=%s, event=%s)", e.Code, e.Message, e.AuthorityID, e.EventID)
	case e.AuthorityID != "":
		return fmt.Sprintf("%s: %s (authority=%s)", e.Code, e.Message, e.AuthorityID)
	case e.EventID != "":
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.EventID)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsRunError reports whether err is a run-invalidating condition.
// Uses errors.As to handle wrapped errors.
func IsRunError(err error) bool {
	var re *RunError
	return errors.As(err, &re)
}

// RunErrorCodeOf extracts the code from a (possibly wrapped) RunError.
// Returns an empty code for other errors.
func RunErrorCodeOf(err error) RunErrorCode {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func duplicateAuthorityError(id string) *RunError {
	return &RunError{
		Code:        ErrCodeDuplicateAuthority,
		Message:     "authority id was already issued in this run",
		AuthorityID: id,
	}
}

func epochError(current, proposed int64) *RunError {
	return &RunError{
		Code:    ErrCodeEpochNotMonotonic,
		Message: fmt.Sprintf("epoch advance to %d does not exceed current epoch %d", proposed, current),
	}
}

func unknownPriorError(id string) *RunError {
	return &RunError{
		Code:        ErrCodeUnknownPrior,
		Message:     "referenced prior authority never existed",
		AuthorityID: id,
	}
}

func verificationError(authorizerID string) *RunError {
	return &RunError{
		Code:    ErrCodeVerificationFailed,
		Message: fmt.Sprintf("authorization claim by %q rejected by verifier", authorizerID),
	}
}

func malformedInputError(msg string) *RunError {
	return &RunError{Code: ErrCodeMalformedInput, Message: msg}
}
