// Package storage defines the typed persistence interfaces the sync engine
// consumes. Every method is guaranteed durable before returning; backends
// live in the boltdb and sqlite subpackages.
package storage

import (
	"context"
	"time"

	"github.com/finledger/finsync/internal/models"
)

//go:generate moq -out opstore_mock.go . OpStore

// OpStore persists the append-only operation journal.
type OpStore interface {
	// Append durably persists a new operation. The op is immutable once
	// written; only its applied/failed markers change afterwards.
	Append(ctx context.Context, op *models.Operation) error

	// GetOp retrieves an operation by ID.
	// Returns ErrOpNotFound if it doesn't exist.
	GetOp(ctx context.Context, id string) (*models.Operation, error)

	// Pending returns unsent ops in journal-append order, bounded by limit
	// (limit <= 0 means no bound). The read is a single consistent
	// snapshot; a concurrent append is never half-included.
	Pending(ctx context.Context, limit int) ([]*models.Operation, error)

	// PendingForEntity returns unsent ops for one entity in append order.
	PendingForEntity(ctx context.Context, entityType, entityID string) ([]*models.Operation, error)

	// MarkApplied marks an op as acknowledged. Idempotent: marking twice
	// is a no-op.
	MarkApplied(ctx context.Context, id string) error

	// MarkFailed marks an op as permanently rejected with a reason.
	MarkFailed(ctx context.Context, id, reason string) error

	// PendingCount returns the number of unsent ops.
	PendingCount(ctx context.Context) (int, error)

	// RequeueApplied clears the applied mark on every acknowledged op so
	// they upload again, and returns how many were requeued. Failed ops
	// stay failed.
	RequeueApplied(ctx context.Context) (int, error)

	// PurgeApplied removes acknowledged ops created before the given
	// instant and returns how many were removed.
	PurgeApplied(ctx context.Context, before time.Time) (int, error)
}

// CursorStore persists the per-account sync cursor.
type CursorStore interface {
	// SaveCursor durably stores the cursor.
	SaveCursor(ctx context.Context, cursor models.SyncCursor) error

	// LoadCursor retrieves the cursor.
	// Returns ErrCursorNotFound before the first successful sync.
	LoadCursor(ctx context.Context) (models.SyncCursor, error)
}

// TombstoneStore persists delete markers for their grace window.
type TombstoneStore interface {
	SaveTombstone(ctx context.Context, ts *models.Tombstone) error

	// GetTombstone returns the tombstone for an entity.
	// Returns ErrTombstoneNotFound if none is active.
	GetTombstone(ctx context.Context, entityID string) (*models.Tombstone, error)

	// DeleteTombstone removes a tombstone (resurrection).
	DeleteTombstone(ctx context.Context, entityID string) error

	// PurgeTombstones removes tombstones expired at the given instant and
	// returns how many were removed.
	PurgeTombstones(ctx context.Context, now time.Time) (int, error)
}

// ConflictStore persists conflict records until acknowledged.
type ConflictStore interface {
	SaveConflict(ctx context.Context, rec *models.ConflictRecord) error

	// PendingReview returns records awaiting user acknowledgment.
	PendingReview(ctx context.Context) ([]*models.ConflictRecord, error)

	// CountPendingReview returns the number of records awaiting review.
	CountPendingReview(ctx context.Context) (int, error)

	// AcknowledgeConflict clears a record after user review.
	// Returns ErrConflictNotFound if it doesn't exist.
	AcknowledgeConflict(ctx context.Context, id string) error
}

// SessionStore archives completed sync sessions for health metrics.
type SessionStore interface {
	SaveSession(ctx context.Context, session *models.SyncSession) error

	// RecentSessions returns up to n sessions, newest first.
	RecentSessions(ctx context.Context, n int) ([]*models.SyncSession, error)

	// LastSession returns the most recent session.
	// Returns ErrSessionNotFound if none has been recorded.
	LastSession(ctx context.Context) (*models.SyncSession, error)
}

// NotificationStore keeps the last N user-facing notifications, evicting
// oldest-first beyond the bound set at construction.
type NotificationStore interface {
	SaveNotification(ctx context.Context, note *models.Notification) error

	// RecentNotifications returns up to n notifications, newest first.
	RecentNotifications(ctx context.Context, n int) ([]*models.Notification, error)
}

// MetaStore persists small device-local metadata: the device identity and
// the journal clock high-water mark.
type MetaStore interface {
	SaveDeviceID(ctx context.Context, deviceID string) error

	// DeviceID returns the persisted device identity, or "" if none.
	DeviceID(ctx context.Context) (string, error)

	SaveClock(ctx context.Context, last int64) error

	// Clock returns the persisted clock high-water mark, or 0 if none.
	Clock(ctx context.Context) (int64, error)
}
