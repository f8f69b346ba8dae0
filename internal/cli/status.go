package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finledger/finsync/internal/storage"
)

const timeRound = 10 * time.Millisecond

// RunStatus prints the local sync state: identity, cursor position,
// pending work and the last session.
func (a *App) RunStatus(ctx context.Context) error {
	fmt.Println("=== Sync Status ===")
	fmt.Printf("Device:  %s\n", a.Journal.DeviceID())
	fmt.Printf("Network: %s\n", a.Monitor.CurrentQuality())
	if skew := a.Clock.SkewMs(); skew != 0 {
		fmt.Printf("Clock:   %+dms vs server\n", skew)
	}

	cursor, err := a.Cursor.LoadCursor(ctx)
	switch {
	case errors.Is(err, storage.ErrCursorNotFound):
		fmt.Println("Cursor:  never synced")
	case err != nil:
		return fmt.Errorf("failed to load cursor: %w", err)
	default:
		fmt.Printf("Cursor:  server version %d, synced %s\n",
			cursor.ServerVersion, cursor.LastSyncedAt.Format(time.RFC3339))
	}

	pending, err := a.Journal.PendingCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending ops: %w", err)
	}
	fmt.Printf("Pending: %d ops\n", pending)

	last, err := a.Sessions.LastSession(ctx)
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to load last session: %w", err)
	}

	fmt.Printf("Last session: %s (%s, %s ago)\n",
		last.Outcome, last.Trigger, time.Since(last.StartedAt).Round(time.Second))
	return nil
}
