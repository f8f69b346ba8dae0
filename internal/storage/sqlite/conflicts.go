package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

// SaveConflict stores a conflict record keyed by its deterministic ID
func (s *Storage) SaveConflict(ctx context.Context, rec *models.ConflictRecord) error {
	localOp, err := marshalOp(rec.LocalOp)
	if err != nil {
		return err
	}
	remoteOp, err := marshalOp(rec.RemoteOp)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO conflicts
			(id, entity_type, entity_id, field, resolution, detected_at, local_op, remote_op)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EntityType, rec.EntityID, rec.Field, rec.Resolution,
		rec.DetectedAt, localOp, remoteOp,
	)
	if err != nil {
		return fmt.Errorf("failed to save conflict record: %w", err)
	}
	return nil
}

func marshalOp(op *models.Operation) (any, error) {
	if op == nil {
		return nil, nil
	}
	data, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conflict op: %w", err)
	}
	return string(data), nil
}

// PendingReview returns records awaiting user acknowledgment
func (s *Storage) PendingReview(ctx context.Context) ([]*models.ConflictRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entity_type, entity_id, field, resolution, detected_at, local_op, remote_op
		FROM conflicts WHERE resolution = ? ORDER BY detected_at`,
		models.ResolutionPendingReview,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts: %w", err)
	}
	defer rows.Close()

	var records []*models.ConflictRecord
	for rows.Next() {
		var (
			rec      models.ConflictRecord
			localOp  sql.NullString
			remoteOp sql.NullString
		)
		err := rows.Scan(&rec.ID, &rec.EntityType, &rec.EntityID, &rec.Field,
			&rec.Resolution, &rec.DetectedAt, &localOp, &remoteOp)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflict record: %w", err)
		}
		if rec.LocalOp, err = unmarshalOp(localOp); err != nil {
			return nil, err
		}
		if rec.RemoteOp, err = unmarshalOp(remoteOp); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return records, nil
}

func unmarshalOp(data sql.NullString) (*models.Operation, error) {
	if !data.Valid || data.String == "" {
		return nil, nil
	}
	var op models.Operation
	if err := json.Unmarshal([]byte(data.String), &op); err != nil {
		return nil, fmt.Errorf("failed to decode conflict op: %w", err)
	}
	return &op, nil
}

// CountPendingReview returns the number of records awaiting review
func (s *Storage) CountPendingReview(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conflicts WHERE resolution = ?`,
		models.ResolutionPendingReview).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conflicts: %w", err)
	}
	return count, nil
}

// AcknowledgeConflict clears a record after user review
func (s *Storage) AcknowledgeConflict(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM conflicts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to acknowledge conflict: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check acknowledge result: %w", err)
	}
	if affected == 0 {
		return storage.ErrConflictNotFound
	}
	return nil
}
