package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

// SaveConflict stores a conflict record keyed by its deterministic ID, so
// re-detecting the same conflict on a retried cycle overwrites in place.
func (s *Storage) SaveConflict(ctx context.Context, rec *models.ConflictRecord) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal conflict record: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConflicts).Put([]byte(rec.ID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save conflict record: %w", err)
	}

	return nil
}

// PendingReview returns records awaiting user acknowledgment
func (s *Storage) PendingReview(ctx context.Context) ([]*models.ConflictRecord, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var records []*models.ConflictRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketConflicts).ForEach(func(k, v []byte) error {
			var rec models.ConflictRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal conflict record: %w", err)
			}
			if rec.Resolution == models.ResolutionPendingReview {
				records = append(records, &rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read conflict records: %w", err)
	}

	return records, nil
}

// CountPendingReview returns the number of records awaiting review
func (s *Storage) CountPendingReview(ctx context.Context) (int, error) {
	records, err := s.PendingReview(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// AcknowledgeConflict clears a record after user review
func (s *Storage) AcknowledgeConflict(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketConflicts)
		if bucket.Get([]byte(id)) == nil {
			return storage.ErrConflictNotFound
		}
		return bucket.Delete([]byte(id))
	})
	if err == storage.ErrConflictNotFound {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to acknowledge conflict: %w", err)
	}

	return nil
}
