package cli

import (
	"context"
	"fmt"
	"time"
)

// RunHealth recomputes and prints the health metrics.
func (a *App) RunHealth(ctx context.Context) error {
	m, err := a.Health.Recompute(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute health: %w", err)
	}

	fmt.Println("=== Sync Health ===")
	fmt.Printf("Score:                %d/100\n", m.Score)
	fmt.Printf("Success rate:         %.0f%% over %d sessions\n", m.SuccessRate*100, m.SessionsObserved)
	fmt.Printf("Consecutive failures: %d\n", m.ConsecutiveFailures)
	fmt.Printf("Pending conflicts:    %d\n", m.PendingConflicts)
	if !m.LastSuccessfulSyncAt.IsZero() {
		fmt.Printf("Last success:         %s ago\n",
			time.Since(m.LastSuccessfulSyncAt).Round(time.Second))
	}
	if m.AverageDuration > 0 {
		fmt.Printf("Average duration:     %s\n", m.AverageDuration.Round(timeRound))
	}

	if p := a.Health.WarningProbability(ctx, m); p > 0.5 {
		fmt.Printf("Warning: sync reliability is degrading (%.0f%%)\n", p*100)
	}
	return nil
}
