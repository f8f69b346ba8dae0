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

// SaveTombstone stores a delete marker keyed by entity ID
func (s *Storage) SaveTombstone(ctx context.Context, ts *models.Tombstone) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("failed to marshal tombstone: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTombstones).Put([]byte(ts.EntityID), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save tombstone: %w", err)
	}

	return nil
}

// GetTombstone returns the tombstone for an entity
func (s *Storage) GetTombstone(ctx context.Context, entityID string) (*models.Tombstone, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var ts *models.Tombstone

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketTombstones).Get([]byte(entityID))
		if data == nil {
			return storage.ErrTombstoneNotFound
		}
		ts = &models.Tombstone{}
		return json.Unmarshal(data, ts)
	})
	if err != nil {
		return nil, err
	}

	return ts, nil
}

// DeleteTombstone removes a tombstone (resurrection)
func (s *Storage) DeleteTombstone(ctx context.Context, entityID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTombstones).Delete([]byte(entityID))
	})
	if err != nil {
		return fmt.Errorf("failed to delete tombstone: %w", err)
	}

	return nil
}

// PurgeTombstones removes tombstones whose grace window has passed
func (s *Storage) PurgeTombstones(ctx context.Context, now time.Time) (int, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	purged := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketTombstones)

		var expired [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			var ts models.Tombstone
			if err := json.Unmarshal(v, &ts); err != nil {
				return fmt.Errorf("failed to unmarshal tombstone: %w", err)
			}
			if ts.Expired(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return fmt.Errorf("failed to delete tombstone: %w", err)
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
