package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

// SaveTombstone stores a delete marker keyed by entity ID
func (s *Storage) SaveTombstone(ctx context.Context, ts *models.Tombstone) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tombstones (entity_id, entity_type, device_id, delete_stamp, deleted_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (entity_id) DO UPDATE SET
			entity_type = excluded.entity_type,
			device_id = excluded.device_id,
			delete_stamp = excluded.delete_stamp,
			deleted_at = excluded.deleted_at,
			expires_at = excluded.expires_at`,
		ts.EntityID, ts.EntityType, ts.DeviceID, ts.DeleteStamp, ts.DeletedAt, ts.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save tombstone: %w", err)
	}
	return nil
}

// GetTombstone returns the tombstone for an entity
func (s *Storage) GetTombstone(ctx context.Context, entityID string) (*models.Tombstone, error) {
	var ts models.Tombstone
	err := s.db.QueryRowContext(ctx, `
		SELECT entity_id, entity_type, device_id, delete_stamp, deleted_at, expires_at
		FROM tombstones WHERE entity_id = ?`, entityID).
		Scan(&ts.EntityID, &ts.EntityType, &ts.DeviceID, &ts.DeleteStamp, &ts.DeletedAt, &ts.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrTombstoneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tombstone: %w", err)
	}
	return &ts, nil
}

// DeleteTombstone removes a tombstone (resurrection)
func (s *Storage) DeleteTombstone(ctx context.Context, entityID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM tombstones WHERE entity_id = ?`, entityID)
	if err != nil {
		return fmt.Errorf("failed to delete tombstone: %w", err)
	}
	return nil
}

// PurgeTombstones removes tombstones whose grace window has passed
func (s *Storage) PurgeTombstones(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tombstones WHERE expires_at < ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tombstones: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check purge result: %w", err)
	}
	return int(affected), nil
}
