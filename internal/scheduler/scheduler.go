// Package scheduler owns the background sync timer. It maps the current
// network quality tier to a cadence policy and hands ready cycles to the
// orchestrator; it never performs I/O of its own.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/syncerr"
)

//go:generate moq -out syncer_mock.go . Syncer

// Syncer runs one sync cycle. The orchestrator's single-flight lock means
// concurrent calls join the in-flight session rather than starting another.
type Syncer interface {
	Sync(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error)
}

// QualitySource reports the smoothed network quality tier.
type QualitySource interface {
	CurrentQuality() models.NetworkQuality
}

// PendingCounter reports how many journal ops await upload.
type PendingCounter interface {
	PendingCount(ctx context.Context) (int, error)
}

// Scheduler is the Idle -> Scheduled -> Ready state machine. A fired timer
// becomes Ready only if policy allows it (foreground/background, pending
// work present, not auth-suspended); otherwise it re-schedules.
type Scheduler struct {
	logger   *slog.Logger
	syncer   Syncer
	quality  QualitySource
	pending  PendingCounter
	policies map[models.NetworkQuality]Policy

	kick     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}

	mu         sync.Mutex
	foreground bool
	suspended  bool
}

func New(logger *slog.Logger, syncer Syncer, quality QualitySource, pending PendingCounter, policies map[models.NetworkQuality]Policy) *Scheduler {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Scheduler{
		logger:     logger,
		syncer:     syncer,
		quality:    quality,
		pending:    pending,
		policies:   policies,
		kick:       make(chan struct{}, 1),
		stopped:    make(chan struct{}),
		foreground: true,
	}
}

// CurrentPolicy returns the policy for the current quality tier.
func (s *Scheduler) CurrentPolicy() Policy {
	pol, ok := s.policies[s.quality.CurrentQuality()]
	if !ok {
		pol = s.policies[models.QualityFair]
	}
	return pol
}

// Run blocks driving the timer loop until ctx is cancelled or Stop is
// called. Cancellation discards the pending timer, never an in-flight
// cycle (the orchestrator owns in-flight lifetime).
func (s *Scheduler) Run(ctx context.Context) {
	timer := time.NewTimer(s.CurrentPolicy().Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopped:
			s.logger.Info("scheduler stopped, queued ops remain pending")
			return
		case <-s.kick:
			resetTimer(timer, s.CurrentPolicy().Interval)
		case <-timer.C:
			s.fire(ctx)
			resetTimer(timer, s.CurrentPolicy().Interval)
		}
	}
}

// fire runs one scheduled attempt, applying the policy gates in order.
func (s *Scheduler) fire(ctx context.Context) {
	s.mu.Lock()
	suspended := s.suspended
	foreground := s.foreground
	s.mu.Unlock()

	if suspended {
		s.logger.Debug("scheduled sync skipped", "reason", "auth suspended")
		return
	}

	pol := s.CurrentPolicy()
	if !pol.BackgroundAllowed && !foreground {
		s.logger.Debug("scheduled sync skipped", "reason", "background disallowed by policy")
		return
	}

	n, err := s.pending.PendingCount(ctx)
	if err != nil {
		s.logger.Warn("pending count failed", "error", err)
	} else if n == 0 {
		s.logger.Debug("scheduled sync skipped", "reason", "nothing pending")
		return
	}

	trigger := models.TriggerScheduled
	if !foreground {
		trigger = models.TriggerBackground
	}

	// The loop ctx governs scheduling only. A cycle that already started
	// runs to completion even if the loop is being shut down; the client's
	// own request timeouts still bound it.
	syncCtx := context.WithoutCancel(ctx)
	if _, err := s.syncer.Sync(syncCtx, trigger, pol.MaxBatchSize); err != nil {
		if syncerr.IsAuth(err) {
			s.Suspend()
			s.logger.Warn("sync suspended until reauthentication", "error", err)
			return
		}
		s.logger.Warn("scheduled sync failed", "error", err)
	}
}

// SyncNow cancels the pending timer and runs a cycle immediately. If a
// session is already in flight the call attaches to it and returns its
// outcome. Manual syncs bypass the background and pending-work gates but
// not an auth suspension's cause: they will surface the same AuthError.
func (s *Scheduler) SyncNow(ctx context.Context) (*models.SyncSession, error) {
	select {
	case s.kick <- struct{}{}:
	default:
	}
	session, err := s.syncer.Sync(ctx, models.TriggerManual, s.CurrentPolicy().MaxBatchSize)
	if err != nil && syncerr.IsAuth(err) {
		s.Suspend()
	}
	return session, err
}

// SetAppState records foreground/background transitions. Returning to the
// foreground kicks the timer so a due sync is not left waiting out a long
// poor-tier interval.
func (s *Scheduler) SetAppState(foreground bool) {
	s.mu.Lock()
	changed := s.foreground != foreground
	s.foreground = foreground
	s.mu.Unlock()

	if changed && foreground {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
}

// OnQualityChange re-arms the timer with the new tier's interval. Wire it
// as a network monitor listener.
func (s *Scheduler) OnQualityChange(models.NetworkQuality) {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Suspend pauses scheduled syncs; used when a cycle fails with an auth
// error, since retrying cannot succeed until the user reauthenticates.
func (s *Scheduler) Suspend() {
	s.mu.Lock()
	s.suspended = true
	s.mu.Unlock()
}

// ResumeAfterAuth lifts an auth suspension and kicks the timer.
func (s *Scheduler) ResumeAfterAuth() {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Suspended reports whether scheduled syncs are paused.
func (s *Scheduler) Suspended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suspended
}

// Stop shuts the timer loop down permanently. Queued unsent ops stay in
// the journal untouched.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(d)
}
