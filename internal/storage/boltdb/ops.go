package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

// opKey builds the journal-order key: zero-padded timestamp plus op ID, so
// a forward cursor walks ops in (timestamp, append) order.
func opKey(op *models.Operation) []byte {
	return []byte(fmt.Sprintf("%020d:%s", op.Timestamp, op.ID))
}

// Append durably persists a new operation
func (s *Storage) Append(ctx context.Context, op *models.Operation) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal operation: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		key := opKey(op)
		if err := tx.Bucket(bucketOps).Put(key, data); err != nil {
			return fmt.Errorf("failed to save operation: %w", err)
		}
		// Secondary index: op ID -> journal key, for lookups by ID.
		if err := tx.Bucket(bucketOpsIndex).Put([]byte(op.ID), key); err != nil {
			return fmt.Errorf("failed to index operation: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// GetOp retrieves an operation by ID
func (s *Storage) GetOp(ctx context.Context, id string) (*models.Operation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var op *models.Operation

	err := s.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketOpsIndex).Get([]byte(id))
		if key == nil {
			return storage.ErrOpNotFound
		}
		data := tx.Bucket(bucketOps).Get(key)
		if data == nil {
			return storage.ErrOpNotFound
		}
		op = &models.Operation{}
		if err := json.Unmarshal(data, op); err != nil {
			return fmt.Errorf("failed to unmarshal operation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return op, nil
}

// Pending returns unsent ops in journal order within a single snapshot
func (s *Storage) Pending(ctx context.Context, limit int) ([]*models.Operation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var ops []*models.Operation

	err := s.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketOps).Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			var op models.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation: %w", err)
			}
			if op.AppliedLocally || op.Failed {
				continue
			}
			ops = append(ops, &op)
			if limit > 0 && len(ops) >= limit {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read pending operations: %w", err)
	}

	return ops, nil
}

// PendingForEntity returns unsent ops for one entity in journal order
func (s *Storage) PendingForEntity(ctx context.Context, entityType, entityID string) ([]*models.Operation, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var ops []*models.Operation

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketOps).ForEach(func(k, v []byte) error {
			var op models.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation: %w", err)
			}
			if op.AppliedLocally || op.Failed {
				return nil
			}
			if op.EntityType == entityType && op.EntityID == entityID {
				ops = append(ops, &op)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read entity operations: %w", err)
	}

	return ops, nil
}

// MarkApplied marks an op as acknowledged; marking twice is a no-op
func (s *Storage) MarkApplied(ctx context.Context, id string) error {
	return s.updateOp(id, func(op *models.Operation) {
		op.AppliedLocally = true
	})
}

// MarkFailed marks an op as permanently rejected
func (s *Storage) MarkFailed(ctx context.Context, id, reason string) error {
	return s.updateOp(id, func(op *models.Operation) {
		op.Failed = true
		op.FailReason = reason
	})
}

func (s *Storage) updateOp(id string, mutate func(*models.Operation)) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		key := tx.Bucket(bucketOpsIndex).Get([]byte(id))
		if key == nil {
			return storage.ErrOpNotFound
		}
		bucket := tx.Bucket(bucketOps)
		data := bucket.Get(key)
		if data == nil {
			return storage.ErrOpNotFound
		}

		var op models.Operation
		if err := json.Unmarshal(data, &op); err != nil {
			return fmt.Errorf("failed to unmarshal operation: %w", err)
		}
		mutate(&op)

		updated, err := json.Marshal(&op)
		if err != nil {
			return fmt.Errorf("failed to marshal updated operation: %w", err)
		}
		return bucket.Put(key, updated)
	})
	if err == storage.ErrOpNotFound {
		return err
	}
	if err != nil {
		return fmt.Errorf("update transaction failed: %w", err)
	}

	return nil
}

// PendingCount returns the number of unsent ops
func (s *Storage) PendingCount(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	count := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketOps).ForEach(func(k, v []byte) error {
			var op models.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation: %w", err)
			}
			if !op.AppliedLocally && !op.Failed {
				count++
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count pending operations: %w", err)
	}

	return count, nil
}

// RequeueApplied clears the applied mark on every acknowledged op so the
// next cycle uploads them again. Used after a remote reset; failed ops stay
// failed.
func (s *Storage) RequeueApplied(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	requeued := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOps)

		type entry struct {
			key  []byte
			data []byte
		}
		var updates []entry
		err := bucket.ForEach(func(k, v []byte) error {
			var op models.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation: %w", err)
			}
			if !op.AppliedLocally || op.Failed {
				return nil
			}
			op.AppliedLocally = false
			data, err := json.Marshal(&op)
			if err != nil {
				return fmt.Errorf("failed to marshal updated operation: %w", err)
			}
			updates = append(updates, entry{key: append([]byte(nil), k...), data: data})
			return nil
		})
		if err != nil {
			return err
		}

		for _, u := range updates {
			if err := bucket.Put(u.key, u.data); err != nil {
				return fmt.Errorf("failed to save operation: %w", err)
			}
			requeued++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("requeue transaction failed: %w", err)
	}

	return requeued, nil
}

// PurgeApplied removes acknowledged ops created before the given instant
func (s *Storage) PurgeApplied(ctx context.Context, before time.Time) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	purged := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketOps)
		index := tx.Bucket(bucketOpsIndex)

		var keys [][]byte
		var ids []string
		err := bucket.ForEach(func(k, v []byte) error {
			var op models.Operation
			if err := json.Unmarshal(v, &op); err != nil {
				return fmt.Errorf("failed to unmarshal operation: %w", err)
			}
			if op.AppliedLocally && op.CreatedAt.Before(before) {
				keys = append(keys, append([]byte(nil), k...))
				ids = append(ids, op.ID)
			}
			return nil
		})
		if err != nil {
			return err
		}

		for i, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("failed to delete operation: %w", err)
			}
			if err := index.Delete([]byte(ids[i])); err != nil {
				return fmt.Errorf("failed to delete operation index: %w", err)
			}
			purged++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge transaction failed: %w", err)
	}

	return purged, nil
}
