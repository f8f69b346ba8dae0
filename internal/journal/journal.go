// Package journal implements the durable, append-only log of local
// mutations that feeds the sync engine.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finledger/finsync/internal/clock"
	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
	"github.com/finledger/finsync/internal/syncerr"
)

// Service is the Change Journal. Domain calculators append mutations; the
// orchestrator reads batches and marks them applied. Appending never
// triggers a sync by itself, it only makes the journal dirty for the
// scheduler to notice.
type Service struct {
	ops        storage.OpStore
	tombstones storage.TombstoneStore
	meta       storage.MetaStore
	clock      *clock.DeviceClock
	logger     *slog.Logger
	ttl        time.Duration
}

// NewService creates the journal over the given stores. ttl is the
// retention window for acknowledged ops and tombstones; zero means the
// default 30-day grace window.
func NewService(ops storage.OpStore, tombstones storage.TombstoneStore, meta storage.MetaStore, deviceClock *clock.DeviceClock, ttl time.Duration, logger *slog.Logger) *Service {
	if ttl <= 0 {
		ttl = models.DefaultTombstoneTTL
	}
	return &Service{
		ops:        ops,
		tombstones: tombstones,
		meta:       meta,
		clock:      deviceClock,
		ttl:        ttl,
		logger:     logger,
	}
}

// TombstoneTTL returns the configured grace window.
func (s *Service) TombstoneTTL() time.Duration { return s.ttl }

// DeviceID returns the journal's device identity.
func (s *Service) DeviceID() string { return s.clock.DeviceID() }

// Append validates and durably persists a new operation, stamping it with
// the next monotonic device timestamp. Returns the op ID.
func (s *Service) Append(ctx context.Context, op *models.Operation) (string, error) {
	if err := validate(op); err != nil {
		return "", err
	}

	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	op.DeviceID = s.clock.DeviceID()
	op.Timestamp = s.clock.Next()
	if op.SchemaVersion == 0 {
		op.SchemaVersion = models.SchemaVersion
	}
	op.CreatedAt = time.Now().UTC()
	op.AppliedLocally = false

	if err := s.ops.Append(ctx, op); err != nil {
		return "", &syncerr.StorageError{Op: "journal append", Err: err}
	}

	// Persist the clock high-water mark so restarts stay monotone. A
	// failure here is non-fatal: the op itself is already durable.
	if err := s.meta.SaveClock(ctx, s.clock.Last()); err != nil {
		s.logger.Warn("failed to persist clock high-water mark", "error", err)
	}

	s.logger.Debug("appended operation",
		"op_id", op.ID,
		"entity", op.EntityType,
		"entity_id", op.EntityID,
		"kind", op.Kind,
		"timestamp", op.Timestamp)

	return op.ID, nil
}

func validate(op *models.Operation) error {
	if op == nil {
		return fmt.Errorf("operation is nil")
	}
	if !models.KnownEntityTypes[op.EntityType] {
		return fmt.Errorf("unknown entity type %q", op.EntityType)
	}
	if op.EntityID == "" {
		return fmt.Errorf("entity ID is required")
	}
	switch op.Kind {
	case models.OpUpsert:
		if len(op.Fields) == 0 {
			return fmt.Errorf("upsert requires at least one field")
		}
	case models.OpDelete:
	default:
		return fmt.Errorf("unknown op kind %q", op.Kind)
	}
	return nil
}

// Since returns unsent ops in creation order, bounded by limit (<= 0 means
// unbounded). The read is a consistent snapshot and re-reading does not
// mutate state. Ops already acknowledged past the cursor are excluded by
// their applied marker.
func (s *Service) Since(ctx context.Context, _ models.SyncCursor, limit int) ([]*models.Operation, error) {
	ops, err := s.ops.Pending(ctx, limit)
	if err != nil {
		return nil, &syncerr.StorageError{Op: "journal read", Err: err}
	}
	return ops, nil
}

// PendingForEntity returns unsent ops for one entity in creation order.
func (s *Service) PendingForEntity(ctx context.Context, entityType, entityID string) ([]*models.Operation, error) {
	ops, err := s.ops.PendingForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, &syncerr.StorageError{Op: "journal read", Err: err}
	}
	return ops, nil
}

// MarkApplied marks an op as remotely acknowledged. Idempotent.
func (s *Service) MarkApplied(ctx context.Context, opID string) error {
	if err := s.ops.MarkApplied(ctx, opID); err != nil {
		return &syncerr.StorageError{Op: "mark applied", Err: err}
	}
	return nil
}

// MarkFailed marks an op as permanently rejected; it will not be retried.
func (s *Service) MarkFailed(ctx context.Context, opID, reason string) error {
	if err := s.ops.MarkFailed(ctx, opID, reason); err != nil {
		return &syncerr.StorageError{Op: "mark failed", Err: err}
	}
	s.logger.Warn("operation permanently rejected", "op_id", opID, "reason", reason)
	return nil
}

// RecordResolved writes a resolved op back into the journal with
// appliedLocally set, and advances the device clock past the remote
// timestamp so future local edits order after the merged state.
func (s *Service) RecordResolved(ctx context.Context, op *models.Operation) error {
	resolved := op.Clone()
	resolved.AppliedLocally = true
	if resolved.ID == "" {
		resolved.ID = uuid.New().String()
	}
	if resolved.CreatedAt.IsZero() {
		resolved.CreatedAt = time.Now().UTC()
	}

	if err := s.ops.Append(ctx, resolved); err != nil {
		return &syncerr.StorageError{Op: "record resolved", Err: err}
	}

	s.clock.Restore(op.Timestamp)
	return nil
}

// PendingCount returns the number of ops waiting to be synced.
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	count, err := s.ops.PendingCount(ctx)
	if err != nil {
		return 0, &syncerr.StorageError{Op: "pending count", Err: err}
	}
	return count, nil
}

// Dirty reports whether any local edits await upload.
func (s *Service) Dirty(ctx context.Context) (bool, error) {
	count, err := s.PendingCount(ctx)
	return count > 0, err
}

// RequeueAll puts every acknowledged op back into the pending set so the
// next cycle re-uploads the full journal. Used after a remote reset wipes
// the server copy.
func (s *Service) RequeueAll(ctx context.Context) (int, error) {
	requeued, err := s.ops.RequeueApplied(ctx)
	if err != nil {
		return 0, &syncerr.StorageError{Op: "requeue ops", Err: err}
	}
	if requeued > 0 {
		s.logger.Info("journal requeued for re-upload", "ops", requeued)
	}
	return requeued, nil
}

// GC removes acknowledged ops older than the retention window and purges
// expired tombstones. Returns (ops purged, tombstones purged).
func (s *Service) GC(ctx context.Context, now time.Time) (int, int, error) {
	opsPurged, err := s.ops.PurgeApplied(ctx, now.Add(-s.ttl))
	if err != nil {
		return 0, 0, &syncerr.StorageError{Op: "gc ops", Err: err}
	}
	tombstonesPurged, err := s.tombstones.PurgeTombstones(ctx, now)
	if err != nil {
		return opsPurged, 0, &syncerr.StorageError{Op: "gc tombstones", Err: err}
	}
	if opsPurged > 0 || tombstonesPurged > 0 {
		s.logger.Info("journal garbage collected",
			"ops_purged", opsPurged,
			"tombstones_purged", tombstonesPurged)
	}
	return opsPurged, tombstonesPurged, nil
}
