package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	syncapi "github.com/finledger/finsync/internal/api"
	"github.com/finledger/finsync/internal/blobseal"
	"github.com/finledger/finsync/internal/cli"
	"github.com/finledger/finsync/internal/clock"
	"github.com/finledger/finsync/internal/config"
	"github.com/finledger/finsync/internal/health"
	"github.com/finledger/finsync/internal/journal"
	"github.com/finledger/finsync/internal/netmon"
	"github.com/finledger/finsync/internal/orchestrator"
	"github.com/finledger/finsync/internal/scheduler"
	"github.com/finledger/finsync/internal/storage"
	"github.com/finledger/finsync/internal/storage/boltdb"
	"github.com/finledger/finsync/internal/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// engineStore is the full persistence surface a backend must provide.
type engineStore interface {
	storage.OpStore
	storage.CursorStore
	storage.TombstoneStore
	storage.ConflictStore
	storage.SessionStore
	storage.NotificationStore
	storage.MetaStore
	Close() error
}

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	serverURL := flag.String("server", "", "Server URL (overrides FINSYNC_SERVER_URL)")
	dbPath := flag.String("db", "", "Path to local database (overrides FINSYNC_STORAGE_PATH)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		cli.PrintUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(config.NewViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *dbPath != "" {
		cfg.StoragePath = *dbPath
	}
	if !cfg.SyncEnabled {
		fmt.Fprintln(os.Stderr, "Sync is disabled (sync.enabled=false)")
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	app, err := buildApp(ctx, cfg, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	if err := app.Run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.AppConfig) (engineStore, error) {
	if cfg.StorageBackend == config.BackendSQLite {
		return sqlite.New(ctx, cfg.StoragePath)
	}
	return boltdb.New(ctx, cfg.StoragePath)
}

// buildApp wires the engine: identity and clock first, then journal, then
// transport, then the coordinating services.
func buildApp(ctx context.Context, cfg config.AppConfig, store engineStore, logger *slog.Logger) (*cli.App, error) {
	deviceID, err := store.DeviceID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load device identity: %w", err)
	}
	if deviceID == "" {
		deviceID = uuid.New().String()
		if err := store.SaveDeviceID(ctx, deviceID); err != nil {
			return nil, fmt.Errorf("failed to save device identity: %w", err)
		}
		logger.Info("device identity created", "device_id", deviceID)
	}

	deviceClock := clock.New(deviceID)
	if last, err := store.Clock(ctx); err == nil && last > 0 {
		deviceClock.Restore(last)
	}

	sealer, err := newSealer(cfg)
	if err != nil {
		return nil, err
	}

	jrnl := journal.NewService(store, store, store, deviceClock, cfg.TombstoneTTL, logger)

	var tokens syncapi.TokenSource
	if cfg.ServerToken != "" {
		tokens = syncapi.StaticTokenSource(cfg.ServerToken)
	}
	client := syncapi.NewClient(cfg.ServerURL, tokens, sealer, logger)

	monitor := netmon.New(logger)

	orch := orchestrator.New(orchestrator.Deps{
		Logger:     logger,
		Journal:    jrnl,
		Client:     client,
		Sealer:     sealer,
		Cursor:     store,
		Tombstones: store,
		Conflicts:  store,
		Sessions:   store,
		Clock:      deviceClock,
		Samples:    monitor,
		Backoff: orchestrator.BackoffConfig{
			Base:        cfg.BackoffBase,
			Cap:         cfg.BackoffCap,
			MaxAttempts: cfg.BackoffAttempts,
		},
	})

	reporter := health.New(logger, store, store, store, monitor, health.Config{
		QuietHours: health.QuietHours{
			Start: cfg.QuietHoursStart,
			End:   cfg.QuietHoursEnd,
		},
		SuccessMode: health.SuccessMode(cfg.SuccessNotifications),
	})
	orch.OnSessionEnd(reporter.OnSessionEnd)

	sched := scheduler.New(logger, orch, monitor, jrnl, nil)

	return &cli.App{
		Journal:       jrnl,
		Clock:         deviceClock,
		Scheduler:     sched,
		Orchestrator:  orch,
		Health:        reporter,
		Monitor:       monitor,
		Prober:        syncapi.NewHTTPProber(cfg.ServerURL),
		ProbePeriod:   cfg.ProbePeriod,
		Cursor:        store,
		Conflicts:     store,
		Sessions:      store,
		Notifications: store,
		Logger:        logger,
	}, nil
}

func newSealer(cfg config.AppConfig) (blobseal.Sealer, error) {
	key, err := cfg.SealKey()
	if err != nil {
		return nil, err
	}
	if key == nil {
		return blobseal.Passthrough{}, nil
	}
	return blobseal.NewXChaCha(key)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func printVersion() {
	fmt.Printf("FinSync Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
