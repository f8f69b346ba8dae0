package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

// sessionKey orders the archive by start time; the ID suffix keeps keys
// unique when two sessions share a millisecond.
func sessionKey(session *models.SyncSession) []byte {
	return []byte(fmt.Sprintf("%020d:%s", session.StartedAt.UnixMilli(), session.ID))
}

// SaveSession archives a sync session
func (s *Storage) SaveSession(ctx context.Context, session *models.SyncSession) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSessions).Put(sessionKey(session), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// RecentSessions returns up to n sessions, newest first
func (s *Storage) RecentSessions(ctx context.Context, n int) ([]*models.SyncSession, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var sessions []*models.SyncSession

	err := s.db.View(func(tx *bbolt.Tx) error {
		cursor := tx.Bucket(bucketSessions).Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			var session models.SyncSession
			if err := json.Unmarshal(v, &session); err != nil {
				return fmt.Errorf("failed to unmarshal session: %w", err)
			}
			sessions = append(sessions, &session)
			if n > 0 && len(sessions) >= n {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	return sessions, nil
}

// LastSession returns the most recent session
func (s *Storage) LastSession(ctx context.Context) (*models.SyncSession, error) {
	sessions, err := s.RecentSessions(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, storage.ErrSessionNotFound
	}
	return sessions[0], nil
}
