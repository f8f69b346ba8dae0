// Package boltdb implements the storage interfaces on a single bbolt file,
// one bucket per record type. BoltDB transactions give the consistent
// snapshot the journal's batch reads require.
package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var (
	// BoltDB bucket names
	bucketOps           = []byte("ops")
	bucketOpsIndex      = []byte("ops_idx")
	bucketCursor        = []byte("cursor")
	bucketTombstones    = []byte("tombstones")
	bucketConflicts     = []byte("conflicts")
	bucketSessions      = []byte("sessions")
	bucketNotifications = []byte("notifications")
	bucketMeta          = []byte("meta")
)

// defaultNotificationCap bounds the notification history (oldest evicted).
const defaultNotificationCap = 100

// Storage represents BoltDB storage implementation for the sync engine
type Storage struct {
	db              *bbolt.DB
	notificationCap int
}

// New creates a new BoltDB storage instance
// dbPath is the path to the BoltDB database file
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	storage := &Storage{db: db, notificationCap: defaultNotificationCap}

	if err := storage.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return storage, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// SetNotificationCap overrides the bounded notification history size.
func (s *Storage) SetNotificationCap(n int) {
	if n > 0 {
		s.notificationCap = n
	}
}

func (s *Storage) initBuckets() error {
	buckets := [][]byte{
		bucketOps,
		bucketOpsIndex,
		bucketCursor,
		bucketTombstones,
		bucketConflicts,
		bucketSessions,
		bucketNotifications,
		bucketMeta,
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range buckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}
