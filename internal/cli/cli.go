// Package cli implements the finsync command surface on top of the wired
// engine services.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/finledger/finsync/internal/clock"
	"github.com/finledger/finsync/internal/health"
	"github.com/finledger/finsync/internal/journal"
	"github.com/finledger/finsync/internal/netmon"
	"github.com/finledger/finsync/internal/orchestrator"
	"github.com/finledger/finsync/internal/scheduler"
	"github.com/finledger/finsync/internal/storage"
)

// App holds the wired engine services the commands operate on.
type App struct {
	Journal       *journal.Service
	Clock         *clock.DeviceClock
	Scheduler     *scheduler.Scheduler
	Orchestrator  *orchestrator.Orchestrator
	Health        *health.Reporter
	Monitor       *netmon.Monitor
	Prober        netmon.Prober
	ProbePeriod   time.Duration
	Cursor        storage.CursorStore
	Conflicts     storage.ConflictStore
	Sessions      storage.SessionStore
	Notifications storage.NotificationStore
	Logger        *slog.Logger
}

// Run dispatches one command.
func (a *App) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "sync":
		return a.RunSync(ctx)
	case "status":
		return a.RunStatus(ctx)
	case "health":
		return a.RunHealth(ctx)
	case "conflicts":
		return a.RunConflicts(ctx, args)
	case "notifications":
		return a.RunNotifications(ctx)
	case "add":
		return a.RunAdd(ctx, args)
	case "delete":
		return a.RunDelete(ctx, args)
	case "gc":
		return a.RunGC(ctx)
	case "reset":
		return a.RunReset(ctx, args)
	case "watch":
		return a.RunWatch(ctx)
	default:
		PrintUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func PrintUsage() {
	fmt.Println(`Usage: finsync [flags] <command> [args]

Commands:
  sync                              Run a sync cycle now
  status                            Show cursor, pending ops and last session
  health                            Show the sync health score and metrics
  conflicts [list]                  List conflicts awaiting review
  conflicts ack <id>                Acknowledge a reviewed conflict
  notifications                     Show recent notifications
  add <type> <id> <field=value>...  Record an upsert for an entity
  delete <type> <id>                Record a delete for an entity
  gc                                Purge acknowledged ops and expired tombstones
  reset --confirm                   Discard server state and re-download everything
  watch                             Run the background scheduler until interrupted

Flags:
  -server   Server URL
  -db       Path to the local database
  -version  Show version information`)
}
