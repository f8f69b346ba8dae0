// Package syncerr defines the error taxonomy shared by the sync engine.
//
// The orchestrator routes on these types: NetworkError backs off and
// retries; AuthError suspends scheduling until re-authentication;
// ValidationError permanently fails a single op; StorageError aborts the
// cycle without advancing the cursor. ConflictError is informational.
package syncerr

import (
	"errors"
	"fmt"
)

// NetworkError is a transport-level failure. Retryable via backoff;
// exhausting attempts surfaces a persistent failure notification.
type NetworkError struct {
	Err error
	Op  string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AuthError is fatal until credentials refresh.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// ValidationError marks an op the server rejected. Whether a rejection is
// permanent or transient travels on the wire as the rejection's reason kind.
type ValidationError struct {
	OpID   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("op %s rejected: %s", e.OpID, e.Reason)
}

// ConflictError is non-fatal: the resolver handled it automatically and the
// record is only surfaced when the discarded value needs user review.
type ConflictError struct {
	EntityID string
	Field    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s.%s", e.EntityID, e.Field)
}

// StorageError is a local durability failure, fatal to the current cycle.
type StorageError struct {
	Err error
	Op  string
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsRetryable reports whether the error should be retried with backoff.
func IsRetryable(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsAuth reports whether the error requires re-authentication.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Category returns the failure-reason category used by health reporting.
func Category(err error) string {
	var (
		netErr     *NetworkError
		authErr    *AuthError
		valErr     *ValidationError
		storageErr *StorageError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &valErr):
		return "validation"
	case errors.As(err, &storageErr):
		return "storage"
	default:
		return "unknown"
	}
}
