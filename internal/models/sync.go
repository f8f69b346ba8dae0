package models

import "time"

// DefaultTombstoneTTL is the grace window during which a tombstone keeps
// dominating stale concurrent upserts for the deleted entity.
const DefaultTombstoneTTL = 30 * 24 * time.Hour

// SyncCursor marks how far this device has consumed the server op log.
// ServerVersion is monotonically increasing and mutated only by a
// successful, durably-applied download.
type SyncCursor struct {
	LastSyncedAt  time.Time `json:"last_synced_at"`
	ServerVersion int64     `json:"server_version"`
}

// Tombstone records that an entity was deleted, retained for a grace period
// to prevent resurrection by stale concurrent edits.
type Tombstone struct {
	DeletedAt   time.Time `json:"deleted_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	DeviceID    string    `json:"device_id"`
	DeleteStamp int64     `json:"delete_stamp"`
}

// NewTombstone builds a tombstone from the delete operation that caused it.
func NewTombstone(op *Operation, ttl time.Duration) *Tombstone {
	deletedAt := time.UnixMilli(op.Timestamp).UTC()
	return &Tombstone{
		EntityType:  op.EntityType,
		EntityID:    op.EntityID,
		DeviceID:    op.DeviceID,
		DeleteStamp: op.Timestamp,
		DeletedAt:   deletedAt,
		ExpiresAt:   deletedAt.Add(ttl),
	}
}

// Expired reports whether the grace window has passed at the given instant.
func (t *Tombstone) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Dominates reports whether the tombstone wins over the given upsert.
// The delete wins unless the upsert is strictly newer in the
// (timestamp, deviceID) order, in which case the entity resurrects.
func (t *Tombstone) Dominates(op *Operation) bool {
	if op.Timestamp != t.DeleteStamp {
		return t.DeleteStamp > op.Timestamp
	}
	return t.DeviceID > op.DeviceID
}

// ConflictResolution states how a detected conflict was handled.
type ConflictResolution string

const (
	// ResolutionApplied means strict timestamp ordering made the outcome
	// unambiguous; the record is informational only.
	ResolutionApplied ConflictResolution = "applied"
	// ResolutionPendingReview means the outcome was decided by the device
	// tie-break and should be surfaced to the user non-blockingly.
	ResolutionPendingReview ConflictResolution = "pending_review"
)

// ConflictRecord captures a field whose losing value differed from the value
// the other device believed was current.
type ConflictRecord struct {
	DetectedAt time.Time          `json:"detected_at"`
	LocalOp    *Operation         `json:"local_op"`
	RemoteOp   *Operation         `json:"remote_op"`
	ID         string             `json:"id"`
	EntityType string             `json:"entity_type"`
	EntityID   string             `json:"entity_id"`
	Field      string             `json:"field"`
	Resolution ConflictResolution `json:"resolution"`
}

// NetworkQuality is a connectivity tier; higher is better.
type NetworkQuality int

const (
	QualityPoor NetworkQuality = iota
	QualityFair
	QualityGood
	QualityExcellent
)

func (q NetworkQuality) String() string {
	switch q {
	case QualityPoor:
		return "poor"
	case QualityFair:
		return "fair"
	case QualityGood:
		return "good"
	case QualityExcellent:
		return "excellent"
	default:
		return "unknown"
	}
}

// NetworkQualitySample is one ephemeral connectivity measurement.
type NetworkQualitySample struct {
	MeasuredAt     time.Time      `json:"measured_at"`
	Quality        NetworkQuality `json:"quality"`
	LatencyMs      int64          `json:"latency_ms"`
	ThroughputKbps float64        `json:"throughput_kbps"`
}

// SessionOutcome is the terminal state of a sync session.
type SessionOutcome string

const (
	OutcomeSuccess SessionOutcome = "success"
	OutcomePartial SessionOutcome = "partial"
	OutcomeFailed  SessionOutcome = "failed"
)

// Session trigger sources.
const (
	TriggerManual     = "manual"
	TriggerScheduled  = "scheduled"
	TriggerBackground = "background"
)

// SyncSession records one sync cycle. At most one session has EndedAt == nil
// at any time; the orchestrator's single-flight lock enforces that.
type SyncSession struct {
	StartedAt         time.Time      `json:"started_at"`
	EndedAt           *time.Time     `json:"ended_at,omitempty"`
	ID                string         `json:"id"`
	Trigger           string         `json:"trigger"`
	Outcome           SessionOutcome `json:"outcome"`
	FailureCategory   string         `json:"failure_category,omitempty"`
	OpsUploaded       int            `json:"ops_uploaded"`
	OpsDownloaded     int            `json:"ops_downloaded"`
	ConflictsDetected int            `json:"conflicts_detected"`
	BytesTransferred  int64          `json:"bytes_transferred"`
}

// Duration returns the session length, or zero while it is still open.
func (s *SyncSession) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// HealthMetrics is the derived aggregate recomputed after every session.
type HealthMetrics struct {
	LastSuccessfulSyncAt time.Time     `json:"last_successful_sync_at"`
	ComputedAt           time.Time     `json:"computed_at"`
	AverageDuration      time.Duration `json:"average_duration"`
	SuccessRate          float64       `json:"success_rate"`
	Score                int           `json:"score"`
	ConsecutiveFailures  int           `json:"consecutive_failures"`
	PendingConflicts     int           `json:"pending_conflicts"`
	SessionsObserved     int           `json:"sessions_observed"`
}

// NotificationSeverity orders user-facing notifications by importance.
type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "info"
	SeverityWarning NotificationSeverity = "warning"
	SeverityError   NotificationSeverity = "error"
)

// Notification is a user-facing sync message kept in a bounded store.
type Notification struct {
	CreatedAt time.Time            `json:"created_at"`
	ID        string               `json:"id"`
	Kind      string               `json:"kind"`
	Title     string               `json:"title"`
	Body      string               `json:"body"`
	Severity  NotificationSeverity `json:"severity"`
}
