package cli

import (
	"context"
	"fmt"
	"time"
)

// RunGC purges acknowledged ops past the tombstone grace window and
// expired tombstones.
func (a *App) RunGC(ctx context.Context) error {
	ops, tombstones, err := a.Journal.GC(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("gc failed: %w", err)
	}
	fmt.Printf("Purged %d ops and %d tombstones.\n", ops, tombstones)
	return nil
}

// RunReset discards server-side state and zeroes the local cursor so the
// next sync re-downloads everything. Requires --confirm.
func (a *App) RunReset(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "--confirm" {
		return fmt.Errorf("reset discards server state; re-run with --confirm")
	}
	if err := a.Orchestrator.Reset(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	fmt.Println("Server state reset. The next sync will re-download everything.")
	return nil
}
