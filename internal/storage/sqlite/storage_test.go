package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	store, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func makeOp(id string, timestamp int64) *models.Operation {
	return &models.Operation{
		ID:            id,
		EntityType:    models.EntityTransaction,
		EntityID:      "tx-1",
		Kind:          models.OpUpsert,
		Timestamp:     timestamp,
		DeviceID:      "dev-1",
		Fields:        map[string]any{"amount": 10.5, "category": "food"},
		SchemaVersion: models.SchemaVersion,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestStorage_MigrationsApply(t *testing.T) {
	store := newTestStorage(t)
	require.NotNil(t, store.DB())

	var name string
	err := store.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='table' AND name='ops'").Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "ops", name)
}

func TestStorage_OpsRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	op := makeOp("op-1", 100)
	require.NoError(t, store.Append(ctx, op))

	got, err := store.GetOp(ctx, "op-1")
	require.NoError(t, err)
	assert.Equal(t, op.ID, got.ID)
	assert.Equal(t, op.Timestamp, got.Timestamp)
	assert.Equal(t, 10.5, got.Fields["amount"])
	assert.Equal(t, "food", got.Fields["category"])

	_, err = store.GetOp(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrOpNotFound)
}

func TestStorage_AppendIsIdempotentByID(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	op := makeOp("op-1", 100)
	require.NoError(t, store.Append(ctx, op))
	require.NoError(t, store.Append(ctx, op))

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStorage_PendingOrderAndMarks(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, makeOp("op-2", 200)))
	require.NoError(t, store.Append(ctx, makeOp("op-1", 100)))
	require.NoError(t, store.Append(ctx, makeOp("op-3", 300)))

	ops, err := store.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, "op-1", ops[0].ID)
	assert.Equal(t, "op-3", ops[2].ID)

	require.NoError(t, store.MarkApplied(ctx, "op-1"))
	require.NoError(t, store.MarkApplied(ctx, "op-1"), "marking twice is a no-op")
	require.NoError(t, store.MarkFailed(ctx, "op-2", "rejected"))

	ops, err = store.Pending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, "op-3", ops[0].ID)

	assert.ErrorIs(t, store.MarkApplied(ctx, "missing"), storage.ErrOpNotFound)
}

func TestStorage_RequeueApplied(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, makeOp("op-applied", 100)))
	require.NoError(t, store.Append(ctx, makeOp("op-failed", 200)))
	require.NoError(t, store.MarkApplied(ctx, "op-applied"))
	require.NoError(t, store.MarkFailed(ctx, "op-failed", "bad payload"))

	requeued, err := store.RequeueApplied(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, requeued)

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "failed ops are not requeued")
}

func TestStorage_PurgeApplied(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	old := makeOp("op-old", 100)
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	require.NoError(t, store.Append(ctx, old))
	require.NoError(t, store.MarkApplied(ctx, "op-old"))

	require.NoError(t, store.Append(ctx, makeOp("op-fresh", 200)))

	purged, err := store.PurgeApplied(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	count, err := store.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStorage_CursorAndMeta(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.LoadCursor(ctx)
	assert.ErrorIs(t, err, storage.ErrCursorNotFound)

	cursor := models.SyncCursor{ServerVersion: 7, LastSyncedAt: time.Now().UTC()}
	require.NoError(t, store.SaveCursor(ctx, cursor))
	require.NoError(t, store.SaveCursor(ctx, models.SyncCursor{ServerVersion: 8, LastSyncedAt: cursor.LastSyncedAt}))

	got, err := store.LoadCursor(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), got.ServerVersion, "cursor row is upserted, not duplicated")

	deviceID, err := store.DeviceID(ctx)
	require.NoError(t, err)
	assert.Empty(t, deviceID)

	require.NoError(t, store.SaveDeviceID(ctx, "dev-42"))
	deviceID, err = store.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dev-42", deviceID)

	require.NoError(t, store.SaveClock(ctx, 12345))
	last, err := store.Clock(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), last)
}

func TestStorage_TombstonesAndConflicts(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	ts := &models.Tombstone{
		EntityType:  models.EntityTransaction,
		EntityID:    "tx-1",
		DeviceID:    "dev-1",
		DeleteStamp: 100,
		DeletedAt:   now,
		ExpiresAt:   now.Add(-time.Minute),
	}
	require.NoError(t, store.SaveTombstone(ctx, ts))

	purged, err := store.PurgeTombstones(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	rec := &models.ConflictRecord{
		ID:         "tx-1:amount:10:dev-b",
		EntityType: models.EntityTransaction,
		EntityID:   "tx-1",
		Field:      "amount",
		Resolution: models.ResolutionPendingReview,
		DetectedAt: now,
		LocalOp:    makeOp("local-1", 10),
		RemoteOp:   makeOp("remote-1", 10),
	}
	require.NoError(t, store.SaveConflict(ctx, rec))

	review, err := store.PendingReview(ctx)
	require.NoError(t, err)
	require.Len(t, review, 1)
	require.NotNil(t, review[0].LocalOp)
	assert.Equal(t, "local-1", review[0].LocalOp.ID)

	require.NoError(t, store.AcknowledgeConflict(ctx, rec.ID))
	assert.ErrorIs(t, store.AcknowledgeConflict(ctx, rec.ID), storage.ErrConflictNotFound)
}

func TestStorage_SessionsAndNotifications(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 4; i++ {
		start := base.Add(time.Duration(i) * time.Minute)
		ended := start.Add(time.Second)
		require.NoError(t, store.SaveSession(ctx, &models.SyncSession{
			ID:        fmt.Sprintf("s-%d", i),
			Trigger:   models.TriggerManual,
			StartedAt: start,
			EndedAt:   &ended,
			Outcome:   models.OutcomeSuccess,
		}))
	}

	recent, err := store.RecentSessions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "s-3", recent[0].ID)

	last, err := store.LastSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "s-3", last.ID)

	for i := 0; i < 110; i++ {
		require.NoError(t, store.SaveNotification(ctx, &models.Notification{
			ID:        fmt.Sprintf("n-%d", i),
			Kind:      "sync_failed",
			Severity:  models.SeverityError,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	notes, err := store.RecentNotifications(ctx, 200)
	require.NoError(t, err)
	assert.Len(t, notes, 100, "notification history is bounded")
	assert.Equal(t, "n-109", notes[0].ID)
}
