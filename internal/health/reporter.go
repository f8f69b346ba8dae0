// Package health aggregates session outcomes into a 0-100 score, derived
// metrics, predictive warnings and user-facing notifications.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/storage"
)

const (
	// sessionWindow bounds how many recent sessions feed the metrics.
	sessionWindow = 20

	// warnThreshold is the predictive-warning probability above which a
	// pre-emptive notification is emitted.
	warnThreshold = 0.7

	// recurringCategoryRuns is how many consecutive failures with the same
	// category count as a recurring failure pattern.
	recurringCategoryRuns = 3
)

// SuccessMode controls whether successful syncs produce notifications.
type SuccessMode string

const (
	SuccessAlways        SuccessMode = "always"
	SuccessImportantOnly SuccessMode = "important_only"
	SuccessNever         SuccessMode = "never"
)

// QuietHours is a daily window during which only error notifications are
// emitted. Start == End disables the window; the window may wrap midnight.
type QuietHours struct {
	Start int // hour of day, 0-23
	End   int
}

// Contains reports whether t falls inside the window.
func (q QuietHours) Contains(t time.Time) bool {
	if q.Start == q.End {
		return false
	}
	h := t.Hour()
	if q.Start < q.End {
		return h >= q.Start && h < q.End
	}
	return h >= q.Start || h < q.End
}

// OnlineSource reports current reachability; the network monitor satisfies it.
type OnlineSource interface {
	Online() bool
}

// Config tunes notification emission.
type Config struct {
	QuietHours  QuietHours
	SuccessMode SuccessMode
}

// Reporter recomputes health after every closed session and decides what
// the user should hear about.
type Reporter struct {
	logger        *slog.Logger
	sessions      storage.SessionStore
	conflicts     storage.ConflictStore
	notifications storage.NotificationStore
	online        OnlineSource
	cfg           Config
	now           func() time.Time

	mu      sync.Mutex
	current models.HealthMetrics
}

func New(logger *slog.Logger, sessions storage.SessionStore, conflicts storage.ConflictStore, notifications storage.NotificationStore, online OnlineSource, cfg Config) *Reporter {
	if cfg.SuccessMode == "" {
		cfg.SuccessMode = SuccessImportantOnly
	}
	return &Reporter{
		logger:        logger,
		sessions:      sessions,
		conflicts:     conflicts,
		notifications: notifications,
		online:        online,
		cfg:           cfg,
		now:           time.Now,
	}
}

// Current returns the most recently computed metrics.
func (r *Reporter) Current() models.HealthMetrics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// OnSessionEnd is the orchestrator listener. Metric or notification
// failures are logged, never propagated: health reporting must not break
// the sync path.
func (r *Reporter) OnSessionEnd(session *models.SyncSession) {
	ctx := context.Background()
	metrics, err := r.Recompute(ctx)
	if err != nil {
		r.logger.Warn("health recompute failed", "error", err)
		return
	}
	r.notify(ctx, session, metrics)
}

// Recompute derives fresh metrics from the recent session history.
func (r *Reporter) Recompute(ctx context.Context) (models.HealthMetrics, error) {
	recent, err := r.sessions.RecentSessions(ctx, sessionWindow)
	if err != nil {
		return models.HealthMetrics{}, fmt.Errorf("load sessions: %w", err)
	}
	pendingConflicts, err := r.conflicts.CountPendingReview(ctx)
	if err != nil {
		return models.HealthMetrics{}, fmt.Errorf("count conflicts: %w", err)
	}

	m := models.HealthMetrics{
		ComputedAt:       r.now(),
		PendingConflicts: pendingConflicts,
		SessionsObserved: len(recent),
	}

	var successes int
	var totalDuration time.Duration
	streakBroken := false
	for _, s := range recent { // newest first
		if s.Outcome == models.OutcomeFailed {
			if !streakBroken {
				m.ConsecutiveFailures++
			}
		} else {
			streakBroken = true
			successes++
			totalDuration += s.Duration()
			if m.LastSuccessfulSyncAt.IsZero() && s.EndedAt != nil {
				m.LastSuccessfulSyncAt = *s.EndedAt
			}
		}
	}
	if len(recent) > 0 {
		m.SuccessRate = float64(successes) / float64(len(recent))
	} else {
		m.SuccessRate = 1
	}
	if successes > 0 {
		m.AverageDuration = totalDuration / time.Duration(successes)
	}
	m.Score = r.score(m)

	r.mu.Lock()
	r.current = m
	r.mu.Unlock()
	return m, nil
}

// score applies the weighted penalties and clamps to [0, 100].
func (r *Reporter) score(m models.HealthMetrics) int {
	score := 100

	switch {
	case m.SuccessRate < 0.90:
		score -= 20
	case m.SuccessRate < 0.95:
		score -= 10
	}

	switch {
	case m.PendingConflicts > 10:
		score -= 15
	case m.PendingConflicts > 5:
		score -= 5
	}

	if !m.LastSuccessfulSyncAt.IsZero() {
		hours := r.now().Sub(m.LastSuccessfulSyncAt).Hours()
		switch {
		case hours > 24:
			score -= 10
		case hours > 12:
			score -= 5
		}
	}

	if r.online != nil && !r.online.Online() {
		score -= 25
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// WarningProbability is the weighted chance that sync is about to degrade
// for the user: repeated failures, low success rate, a stale last success
// and a recurring failure category each contribute.
func (r *Reporter) WarningProbability(ctx context.Context, m models.HealthMetrics) float64 {
	p := 0.0

	failures := float64(m.ConsecutiveFailures) / 5
	if failures > 1 {
		failures = 1
	}
	p += 0.35 * failures

	p += 0.25 * (1 - m.SuccessRate)

	if !m.LastSuccessfulSyncAt.IsZero() {
		stale := r.now().Sub(m.LastSuccessfulSyncAt).Hours() / 48
		if stale > 1 {
			stale = 1
		}
		p += 0.2 * stale
	}

	if r.recurringFailureCategory(ctx) != "" {
		p += 0.2
	}
	return p
}

// recurringFailureCategory returns the shared category of the newest run of
// failures, or "" when the run is short or mixed.
func (r *Reporter) recurringFailureCategory(ctx context.Context) string {
	recent, err := r.sessions.RecentSessions(ctx, recurringCategoryRuns)
	if err != nil || len(recent) < recurringCategoryRuns {
		return ""
	}
	category := recent[0].FailureCategory
	for _, s := range recent {
		if s.Outcome != models.OutcomeFailed || s.FailureCategory != category {
			return ""
		}
	}
	return category
}

// notify emits the user-facing messages a closed session warrants.
func (r *Reporter) notify(ctx context.Context, session *models.SyncSession, m models.HealthMetrics) {
	switch session.Outcome {
	case models.OutcomeFailed:
		r.emit(ctx, models.Notification{
			Kind:     "sync_failed",
			Title:    "Sync failed",
			Body:     fmt.Sprintf("Synchronization failed (%s).", session.FailureCategory),
			Severity: models.SeverityError,
		})
	case models.OutcomePartial:
		r.emit(ctx, models.Notification{
			Kind:     "sync_partial",
			Title:    "Sync partially completed",
			Body:     "Some changes could not be synchronized and need attention.",
			Severity: models.SeverityWarning,
		})
	case models.OutcomeSuccess:
		r.notifySuccess(ctx, session)
	}

	if session.ConflictsDetected > 0 {
		r.emit(ctx, models.Notification{
			Kind:     "conflicts_detected",
			Title:    "Changes merged",
			Body:     fmt.Sprintf("%d conflicting edits were merged; some may need review.", session.ConflictsDetected),
			Severity: models.SeverityWarning,
		})
	}

	if p := r.WarningProbability(ctx, m); p > warnThreshold {
		r.emit(ctx, models.Notification{
			Kind:     "predictive_warning",
			Title:    "Sync may be degrading",
			Body:     "Recent sync attempts suggest your data may stop staying up to date.",
			Severity: models.SeverityWarning,
		})
	}
}

func (r *Reporter) notifySuccess(ctx context.Context, session *models.SyncSession) {
	switch r.cfg.SuccessMode {
	case SuccessNever:
		return
	case SuccessImportantOnly:
		// Plain successes are noise; only surface ones that moved data
		// after a rough patch.
		if session.ConflictsDetected == 0 {
			return
		}
	}
	r.emit(ctx, models.Notification{
		Kind:     "sync_succeeded",
		Title:    "Sync complete",
		Body:     fmt.Sprintf("Uploaded %d and downloaded %d changes.", session.OpsUploaded, session.OpsDownloaded),
		Severity: models.SeverityInfo,
	})
}

// emit persists a notification unless quiet hours suppress it. Errors are
// never suppressed.
func (r *Reporter) emit(ctx context.Context, n models.Notification) {
	now := r.now()
	if n.Severity != models.SeverityError && r.cfg.QuietHours.Contains(now) {
		r.logger.Debug("notification suppressed by quiet hours", "kind", n.Kind)
		return
	}
	n.ID = uuid.New().String()
	n.CreatedAt = now
	if err := r.notifications.SaveNotification(ctx, &n); err != nil {
		r.logger.Warn("notification not saved", "kind", n.Kind, "error", err)
	}
}
