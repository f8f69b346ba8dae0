package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finledger/finsync/internal/storage"
)

// RunConflicts lists conflicts awaiting review, or acknowledges one.
func (a *App) RunConflicts(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		return a.listConflicts(ctx)
	}

	switch args[0] {
	case "ack":
		if len(args) < 2 {
			return fmt.Errorf("missing conflict id. Usage: finsync conflicts ack <id>")
		}
		return a.ackConflict(ctx, args[1])
	default:
		return fmt.Errorf("unknown subcommand: %s. Use: list or ack", args[0])
	}
}

func (a *App) listConflicts(ctx context.Context) error {
	records, err := a.Conflicts.PendingReview(ctx)
	if err != nil {
		return fmt.Errorf("failed to load conflicts: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No conflicts awaiting review.")
		return nil
	}

	fmt.Printf("=== Conflicts Awaiting Review (%d) ===\n", len(records))
	for _, rec := range records {
		fmt.Printf("%s\n", rec.ID)
		fmt.Printf("  Entity:   %s/%s\n", rec.EntityType, rec.EntityID)
		fmt.Printf("  Field:    %s\n", rec.Field)
		fmt.Printf("  Detected: %s\n", rec.DetectedAt.Format(time.RFC3339))
	}
	return nil
}

func (a *App) ackConflict(ctx context.Context, id string) error {
	err := a.Conflicts.AcknowledgeConflict(ctx, id)
	switch {
	case errors.Is(err, storage.ErrConflictNotFound):
		return fmt.Errorf("no conflict with id %s", id)
	case err != nil:
		return fmt.Errorf("failed to acknowledge conflict: %w", err)
	}
	fmt.Printf("Conflict %s acknowledged.\n", id)
	return nil
}

// RunNotifications prints the recent notification history, newest first.
func (a *App) RunNotifications(ctx context.Context) error {
	notes, err := a.Notifications.RecentNotifications(ctx, 20)
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}
	if len(notes) == 0 {
		fmt.Println("No notifications.")
		return nil
	}

	for _, n := range notes {
		fmt.Printf("[%s] %s  %s\n", n.Severity, n.CreatedAt.Format("2006-01-02 15:04"), n.Title)
		if n.Body != "" {
			fmt.Printf("    %s\n", n.Body)
		}
	}
	return nil
}
