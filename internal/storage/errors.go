package storage

import "errors"

// Common storage errors
var (
	// ErrOpNotFound indicates that no operation exists with the given ID
	ErrOpNotFound = errors.New("operation not found")

	// ErrCursorNotFound indicates that no sync cursor has been saved yet
	ErrCursorNotFound = errors.New("sync cursor not found")

	// ErrTombstoneNotFound indicates that no tombstone exists for the entity
	ErrTombstoneNotFound = errors.New("tombstone not found")

	// ErrConflictNotFound indicates that conflict record was not found
	ErrConflictNotFound = errors.New("conflict record not found")

	// ErrSessionNotFound indicates that no sync session has been recorded
	ErrSessionNotFound = errors.New("sync session not found")

	// ErrStorageClosed indicates that storage is closed
	ErrStorageClosed = errors.New("storage is closed")
)
