package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

func notificationKey(note *models.Notification) []byte {
	return []byte(fmt.Sprintf("%020d:%s", note.CreatedAt.UnixMilli(), note.ID))
}

// SaveNotification stores a notification, evicting oldest entries beyond
// the configured bound.
func (s *Storage) SaveNotification(ctx context.Context, note *models.Notification) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketNotifications)
		if err := bucket.Put(notificationKey(note), data); err != nil {
			return fmt.Errorf("failed to save notification: %w", err)
		}

		// Oldest-first eviction beyond the cap.
		excess := bucket.Stats().KeyN + 1 - s.notificationCap
		cursor := bucket.Cursor()
		for k, _ := cursor.First(); k != nil && excess > 0; k, _ = cursor.Next() {
			if err := cursor.Delete(); err != nil {
				return fmt.Errorf("failed to evict notification: %w", err)
			}
			excess--
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("notification transaction failed: %w", err)
	}

	return nil
}

// RecentNotifications returns up to n notifications, newest first
func (s *Storage) RecentNotifications(ctx context.Context, n int) ([]*models.Notification, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var notes []*models.Notification

	err := s.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketNotifications).Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var note models.Notification
			if err := json.Unmarshal(v, &note); err != nil {
				return fmt.Errorf("failed to unmarshal notification: %w", err)
			}
			notes = append(notes, &note)
			if n > 0 && len(notes) >= n {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read notifications: %w", err)
	}

	return notes, nil
}
