package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

// SaveCursor durably stores the sync cursor
func (s *Storage) SaveCursor(ctx context.Context, cursor models.SyncCursor) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_cursor (id, server_version, last_synced_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			server_version = excluded.server_version,
			last_synced_at = excluded.last_synced_at`,
		cursor.ServerVersion, cursor.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}

// LoadCursor retrieves the sync cursor
func (s *Storage) LoadCursor(ctx context.Context) (models.SyncCursor, error) {
	var cursor models.SyncCursor
	err := s.db.QueryRowContext(ctx,
		`SELECT server_version, last_synced_at FROM sync_cursor WHERE id = 1`).
		Scan(&cursor.ServerVersion, &cursor.LastSyncedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncCursor{}, storage.ErrCursorNotFound
	}
	if err != nil {
		return models.SyncCursor{}, fmt.Errorf("failed to load cursor: %w", err)
	}
	return cursor, nil
}

const (
	metaDeviceID = "device_id"
	metaClock    = "clock_high_water"
)

// SaveDeviceID persists the device identity
func (s *Storage) SaveDeviceID(ctx context.Context, deviceID string) error {
	return s.putMeta(ctx, metaDeviceID, deviceID)
}

// DeviceID returns the persisted device identity, or "" if none
func (s *Storage) DeviceID(ctx context.Context) (string, error) {
	return s.getMeta(ctx, metaDeviceID)
}

// SaveClock persists the journal clock high-water mark
func (s *Storage) SaveClock(ctx context.Context, last int64) error {
	return s.putMeta(ctx, metaClock, strconv.FormatInt(last, 10))
}

// Clock returns the persisted clock high-water mark, or 0 if none
func (s *Storage) Clock(ctx context.Context) (int64, error) {
	value, err := s.getMeta(ctx, metaClock)
	if err != nil || value == "" {
		return 0, err
	}
	last, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse clock value: %w", err)
	}
	return last, nil
}

func (s *Storage) putMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}
	return nil
}

func (s *Storage) getMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read metadata: %w", err)
	}
	return value, nil
}
