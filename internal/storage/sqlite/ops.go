package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

const opColumns = `id, entity_type, entity_id, kind, timestamp, device_id,
	schema_version, fields, applied, failed, fail_reason, created_at`

func scanOp(row interface{ Scan(...any) error }) (*models.Operation, error) {
	var (
		op     models.Operation
		fields sql.NullString
	)
	err := row.Scan(
		&op.ID, &op.EntityType, &op.EntityID, &op.Kind, &op.Timestamp,
		&op.DeviceID, &op.SchemaVersion, &fields, &op.AppliedLocally,
		&op.Failed, &op.FailReason, &op.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if fields.Valid && fields.String != "" {
		if err := json.Unmarshal([]byte(fields.String), &op.Fields); err != nil {
			return nil, fmt.Errorf("failed to decode op fields: %w", err)
		}
	}
	return &op, nil
}

// Append durably persists a new operation
func (s *Storage) Append(ctx context.Context, op *models.Operation) error {
	var fields any
	if op.Fields != nil {
		data, err := json.Marshal(op.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode op fields: %w", err)
		}
		fields = string(data)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO ops (`+opColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.EntityType, op.EntityID, op.Kind, op.Timestamp,
		op.DeviceID, op.SchemaVersion, fields, op.AppliedLocally,
		op.Failed, op.FailReason, op.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert operation: %w", err)
	}
	return nil
}

// GetOp retrieves an operation by ID
func (s *Storage) GetOp(ctx context.Context, id string) (*models.Operation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+opColumns+` FROM ops WHERE id = ?`, id)
	op, err := scanOp(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrOpNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return op, nil
}

// Pending returns unsent ops in journal order
func (s *Storage) Pending(ctx context.Context, limit int) ([]*models.Operation, error) {
	query := `SELECT ` + opColumns + ` FROM ops
		WHERE applied = 0 AND failed = 0
		ORDER BY timestamp, device_id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryOps(ctx, query, args...)
}

// PendingForEntity returns unsent ops for one entity in journal order
func (s *Storage) PendingForEntity(ctx context.Context, entityType, entityID string) ([]*models.Operation, error) {
	return s.queryOps(ctx, `SELECT `+opColumns+` FROM ops
		WHERE applied = 0 AND failed = 0 AND entity_type = ? AND entity_id = ?
		ORDER BY timestamp, device_id`, entityType, entityID)
}

func (s *Storage) queryOps(ctx context.Context, query string, args ...any) ([]*models.Operation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query operations: %w", err)
	}
	defer rows.Close()

	var ops []*models.Operation
	for rows.Next() {
		op, err := scanOp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return ops, nil
}

// MarkApplied marks an op as acknowledged; marking twice is a no-op
func (s *Storage) MarkApplied(ctx context.Context, id string) error {
	return s.updateOp(ctx, `UPDATE ops SET applied = 1 WHERE id = ?`, id)
}

// MarkFailed marks an op as permanently rejected
func (s *Storage) MarkFailed(ctx context.Context, id, reason string) error {
	return s.updateOp(ctx, `UPDATE ops SET failed = 1, fail_reason = ? WHERE id = ?`, reason, id)
}

func (s *Storage) updateOp(ctx context.Context, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update operation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return storage.ErrOpNotFound
	}
	return nil
}

// PendingCount returns the number of unsent ops
func (s *Storage) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ops WHERE applied = 0 AND failed = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending operations: %w", err)
	}
	return count, nil
}

// RequeueApplied clears the applied mark on every acknowledged op so the
// next cycle uploads them again. Used after a remote reset; failed ops stay
// failed.
func (s *Storage) RequeueApplied(ctx context.Context) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE ops SET applied = 0 WHERE applied = 1 AND failed = 0`)
	if err != nil {
		return 0, fmt.Errorf("failed to requeue operations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check requeue result: %w", err)
	}
	return int(affected), nil
}

// PurgeApplied removes acknowledged ops created before the given instant
func (s *Storage) PurgeApplied(ctx context.Context, before time.Time) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM ops WHERE applied = 1 AND created_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge operations: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check purge result: %w", err)
	}
	return int(affected), nil
}
