package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

var keyCursor = []byte("sync_cursor")

// SaveCursor durably stores the sync cursor
func (s *Storage) SaveCursor(ctx context.Context, cursor models.SyncCursor) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("failed to marshal cursor: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCursor).Put(keyCursor, data)
	})
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}

	return nil
}

// LoadCursor retrieves the sync cursor
func (s *Storage) LoadCursor(ctx context.Context) (models.SyncCursor, error) {
	if s.db == nil {
		return models.SyncCursor{}, storage.ErrStorageClosed
	}

	var cursor models.SyncCursor

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCursor).Get(keyCursor)
		if data == nil {
			return storage.ErrCursorNotFound
		}
		return json.Unmarshal(data, &cursor)
	})
	if err != nil {
		return models.SyncCursor{}, err
	}

	return cursor, nil
}
