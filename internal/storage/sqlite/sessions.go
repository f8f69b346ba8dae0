package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

// SaveSession archives a sync session
func (s *Storage) SaveSession(ctx context.Context, session *models.SyncSession) error {
	var endedAt any
	if session.EndedAt != nil {
		endedAt = *session.EndedAt
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO sessions
			(id, trigger_kind, started_at, ended_at, outcome, failure_category,
			 ops_uploaded, ops_downloaded, conflicts_detected, bytes_transferred)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Trigger, session.StartedAt, endedAt,
		session.Outcome, session.FailureCategory, session.OpsUploaded,
		session.OpsDownloaded, session.ConflictsDetected, session.BytesTransferred,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// RecentSessions returns up to n sessions, newest first
func (s *Storage) RecentSessions(ctx context.Context, n int) ([]*models.SyncSession, error) {
	query := `
		SELECT id, trigger_kind, started_at, ended_at, outcome, failure_category,
			ops_uploaded, ops_downloaded, conflicts_detected, bytes_transferred
		FROM sessions ORDER BY started_at DESC`
	args := []any{}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.SyncSession
	for rows.Next() {
		var (
			session models.SyncSession
			endedAt sql.NullTime
		)
		err := rows.Scan(&session.ID, &session.Trigger, &session.StartedAt,
			&endedAt, &session.Outcome, &session.FailureCategory,
			&session.OpsUploaded, &session.OpsDownloaded,
			&session.ConflictsDetected, &session.BytesTransferred)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if endedAt.Valid {
			ended := endedAt.Time
			session.EndedAt = &ended
		}
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
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

// notificationCap bounds the notification history in the SQLite backend.
const notificationCap = 100

// SaveNotification stores a notification, evicting oldest beyond the bound
func (s *Storage) SaveNotification(ctx context.Context, note *models.Notification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO notifications (id, kind, title, body, severity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID, note.Kind, note.Title, note.Body, note.Severity, note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		DELETE FROM notifications WHERE id NOT IN (
			SELECT id FROM notifications ORDER BY created_at DESC LIMIT ?
		)`, notificationCap)
	if err != nil {
		return fmt.Errorf("failed to evict notifications: %w", err)
	}
	return nil
}

// RecentNotifications returns up to n notifications, newest first
func (s *Storage) RecentNotifications(ctx context.Context, n int) ([]*models.Notification, error) {
	query := `SELECT id, kind, title, body, severity, created_at
		FROM notifications ORDER BY created_at DESC`
	args := []any{}
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notes []*models.Notification
	for rows.Next() {
		var note models.Notification
		err := rows.Scan(&note.ID, &note.Kind, &note.Title, &note.Body,
			&note.Severity, &note.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notes = append(notes, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}
	return notes, nil
}
