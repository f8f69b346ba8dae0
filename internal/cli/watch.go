package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
)

// RunWatch runs the background scheduler and the connectivity probe loop
// until interrupted. Interrupt cancels the pending timer, not an in-flight
// session.
func (a *App) RunWatch(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	token := a.Monitor.Subscribe(a.Scheduler.OnQualityChange)
	defer a.Monitor.Unsubscribe(token)

	if a.Prober != nil {
		go a.Monitor.Run(ctx, a.Prober, a.ProbePeriod)
	}

	fmt.Println("Watching for changes; press Ctrl+C to stop.")
	a.Scheduler.Run(ctx)
	return nil
}
