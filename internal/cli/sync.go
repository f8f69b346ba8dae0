package cli

import (
	"context"
	"fmt"
)

// RunSync runs one manual cycle. If a session is already in flight the
// call joins it and reports that session's outcome.
func (a *App) RunSync(ctx context.Context) error {
	session, err := a.Scheduler.SyncNow(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("Sync %s\n", session.Outcome)
	fmt.Printf("  Uploaded:   %d\n", session.OpsUploaded)
	fmt.Printf("  Downloaded: %d\n", session.OpsDownloaded)
	if session.ConflictsDetected > 0 {
		fmt.Printf("  Conflicts:  %d\n", session.ConflictsDetected)
	}
	fmt.Printf("  Duration:   %s\n", session.Duration().Round(timeRound))
	return nil
}
