// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// TransientError marks a store or network failure worth retrying with
// backoff. Wrap the underlying error so callers can still unwrap it.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Transient wraps err as a TransientError. A nil err returns nil.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Op: op, Err: err}
}

// IsTransient reports whether any error in the chain is a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// ValidationError marks a malformed record. It is logged and the paper
// marked failed; it is never retried automatically.
type ValidationError struct {
	PaperID string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("paper %s: invalid %s: %s", e.PaperID, e.Field, e.Reason)
}

// IsValidation reports whether any error in the chain is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotReadyError reports an operation requested on a paper that has not
// reached the required stage. It is surfaced to the caller, not retried.
type NotReadyError struct {
	PaperID  string
	Status   PaperStatus
	Required PaperStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("paper %s is %s, requires %s", e.PaperID, e.Status, e.Required)
}

// IsNotReady reports whether any error in the chain is a NotReadyError.
func IsNotReady(err error) bool {
	var ne *NotReadyError
	return errors.As(err, &ne)
}
