// Package orchestrator drives sync cycles: upload -> download -> resolve ->
// commit, with single-flight execution. A second trigger while a session is
// active attaches as a waiter and receives the in-flight outcome instead of
// starting duplicate I/O.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	syncapi "github.com/finledger/finsync/internal/api"
	"github.com/finledger/finsync/internal/blobseal"
	"github.com/finledger/finsync/internal/clock"
	"github.com/finledger/finsync/internal/journal"
	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/resolver"
	"github.com/finledger/finsync/internal/storage"
	"github.com/finledger/finsync/internal/syncerr"
	"github.com/finledger/finsync/pkg/api"
)

// BackoffConfig shapes the retry schedule for retryable network failures
// inside one cycle. Delays double per attempt, are capped, and jittered.
type BackoffConfig struct {
	Base        time.Duration
	Cap         time.Duration
	MaxAttempts uint64
}

// DefaultBackoff is the schedule used when config supplies nothing.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		Base:        2 * time.Second,
		Cap:         2 * time.Minute,
		MaxAttempts: 5,
	}
}

// SampleRecorder receives request latency measurements. The network monitor
// satisfies it.
type SampleRecorder interface {
	Record(s models.NetworkQualitySample)
}

// SessionListener is notified after every session closes.
type SessionListener func(session *models.SyncSession)

// flight is one in-progress cycle; waiters block on done.
type flight struct {
	session *models.SyncSession
	err     error
	done    chan struct{}
}

// Orchestrator owns the in-flight lock and the cycle state machine.
type Orchestrator struct {
	logger     *slog.Logger
	journal    *journal.Service
	client     syncapi.SyncAPI
	sealer     blobseal.Sealer
	cursor     storage.CursorStore
	tombstones storage.TombstoneStore
	conflicts  storage.ConflictStore
	sessions   storage.SessionStore
	clk        *clock.DeviceClock
	samples    SampleRecorder
	backoff    BackoffConfig
	now        func() time.Time

	mu        sync.Mutex
	inflight  *flight
	listeners []SessionListener
}

type Deps struct {
	Logger     *slog.Logger
	Journal    *journal.Service
	Client     syncapi.SyncAPI
	Sealer     blobseal.Sealer
	Cursor     storage.CursorStore
	Tombstones storage.TombstoneStore
	Conflicts  storage.ConflictStore
	Sessions   storage.SessionStore
	Clock      *clock.DeviceClock
	// Samples is optional; nil disables latency feedback.
	Samples SampleRecorder
	Backoff BackoffConfig
}

func New(d Deps) *Orchestrator {
	if d.Backoff.Base <= 0 {
		d.Backoff = DefaultBackoff()
	}
	return &Orchestrator{
		logger:     d.Logger,
		journal:    d.Journal,
		client:     d.Client,
		sealer:     d.Sealer,
		cursor:     d.Cursor,
		tombstones: d.Tombstones,
		conflicts:  d.Conflicts,
		sessions:   d.Sessions,
		clk:        d.Clock,
		samples:    d.Samples,
		backoff:    d.Backoff,
		now:        time.Now,
	}
}

// OnSessionEnd registers a listener invoked after each session closes.
// Register before the first Sync call; registration is not synchronized
// against in-flight cycles.
func (o *Orchestrator) OnSessionEnd(l SessionListener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
}

// InFlight reports whether a session is currently active.
func (o *Orchestrator) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inflight != nil
}

// Sync runs one cycle, or joins the in-flight one. Joiners get the
// in-flight session's outcome; their own trigger and batch size are
// discarded. A joiner whose ctx expires stops waiting, the cycle itself
// keeps running on the initiator's ctx.
func (o *Orchestrator) Sync(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
	o.mu.Lock()
	if f := o.inflight; f != nil {
		o.mu.Unlock()
		select {
		case <-f.done:
			return f.session, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	o.inflight = f
	o.mu.Unlock()

	session := &models.SyncSession{
		ID:        uuid.New().String(),
		Trigger:   trigger,
		StartedAt: o.now(),
	}
	o.logger.Info("sync started", "session_id", session.ID, "trigger", trigger)

	err := o.cycle(ctx, session, maxBatch)
	o.close(ctx, session, err)

	f.session, f.err = session, err
	o.mu.Lock()
	o.inflight = nil
	o.mu.Unlock()
	close(f.done)

	return session, err
}

// close finalizes the session record and notifies listeners.
func (o *Orchestrator) close(ctx context.Context, session *models.SyncSession, err error) {
	ended := o.now()
	session.EndedAt = &ended

	switch {
	case err != nil:
		session.Outcome = models.OutcomeFailed
		session.FailureCategory = syncerr.Category(err)
		o.logger.Error("sync failed",
			"session_id", session.ID,
			"category", session.FailureCategory,
			"error", err)
	case session.Outcome == "":
		session.Outcome = models.OutcomeSuccess
		o.logger.Info("sync finished",
			"session_id", session.ID,
			"uploaded", session.OpsUploaded,
			"downloaded", session.OpsDownloaded,
			"conflicts", session.ConflictsDetected,
			"duration", session.Duration())
	}

	if saveErr := o.sessions.SaveSession(ctx, session); saveErr != nil {
		o.logger.Warn("session record not saved", "error", saveErr)
	}

	o.mu.Lock()
	listeners := make([]SessionListener, len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.Unlock()
	for _, l := range listeners {
		l(session)
	}
}

// cycle is Uploading -> Downloading -> Resolving -> Committing. The cursor
// advances only at the very end; a crash after upload-ack is safe because
// uploads are idempotent by op ID.
func (o *Orchestrator) cycle(ctx context.Context, session *models.SyncSession, maxBatch int) error {
	cursor, err := o.loadCursor(ctx)
	if err != nil {
		return err
	}

	if err := o.upload(ctx, session, cursor, maxBatch); err != nil {
		return err
	}

	download, err := o.download(ctx, session, cursor)
	if err != nil {
		return err
	}

	if err := o.resolve(ctx, session, download.Ops); err != nil {
		return err
	}

	cursor.ServerVersion = download.ServerVersion
	cursor.LastSyncedAt = o.now()
	if err := o.cursor.SaveCursor(ctx, cursor); err != nil {
		return &syncerr.StorageError{Op: "save cursor", Err: err}
	}
	return nil
}

func (o *Orchestrator) loadCursor(ctx context.Context) (models.SyncCursor, error) {
	cursor, err := o.cursor.LoadCursor(ctx)
	switch {
	case errors.Is(err, storage.ErrCursorNotFound):
		return models.SyncCursor{}, nil
	case err != nil:
		return models.SyncCursor{}, &syncerr.StorageError{Op: "load cursor", Err: err}
	}
	return cursor, nil
}

func (o *Orchestrator) upload(ctx context.Context, session *models.SyncSession, cursor models.SyncCursor, maxBatch int) error {
	pending, err := o.journal.Since(ctx, cursor, maxBatch)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	req := api.UploadRequest{DeviceID: o.journal.DeviceID()}
	for _, op := range pending {
		wire, err := syncapi.EncodeOp(op, o.sealer)
		if err != nil {
			return fmt.Errorf("encode op %s: %w", op.ID, err)
		}
		session.BytesTransferred += int64(len(wire.Body))
		req.Ops = append(req.Ops, wire)
	}

	var resp *api.UploadResponse
	err = o.withBackoff(ctx, "upload", func(ctx context.Context) error {
		var err error
		resp, err = o.client.Upload(ctx, req)
		return err
	})
	if err != nil {
		return err
	}

	rejected := make(map[string]api.RejectedOp, len(resp.Rejected))
	for _, r := range resp.Rejected {
		rejected[r.ID] = r
	}

	for _, op := range pending {
		r, ok := rejected[op.ID]
		if !ok {
			if err := o.journal.MarkApplied(ctx, op.ID); err != nil {
				return err
			}
			session.OpsUploaded++
			continue
		}
		if r.ReasonKind == api.ReasonKindTransient {
			// Stays pending for the next cycle.
			o.logger.Warn("op deferred by server",
				"op_id", op.ID, "reason", r.Reason)
			session.Outcome = models.OutcomePartial
			continue
		}
		if err := o.journal.MarkFailed(ctx, op.ID, r.Reason); err != nil {
			return err
		}
		o.logger.Warn("op rejected by server",
			"op_id", op.ID, "reason", r.Reason)
		session.Outcome = models.OutcomePartial
	}
	return nil
}

func (o *Orchestrator) download(ctx context.Context, session *models.SyncSession, cursor models.SyncCursor) (*api.DownloadResponse, error) {
	var resp *api.DownloadResponse
	err := o.withBackoff(ctx, "download", func(ctx context.Context) error {
		var err error
		resp, err = o.client.Download(ctx, cursor.ServerVersion)
		return err
	})
	if err != nil {
		return nil, err
	}

	if resp.ServerTimeMs != 0 {
		o.clk.ObserveServerTime(resp.ServerTimeMs)
	}
	for _, wire := range resp.Ops {
		session.BytesTransferred += int64(len(wire.Body))
	}
	session.OpsDownloaded = len(resp.Ops)
	return resp, nil
}

// resolve merges downloaded ops with matching pending local ops and writes
// the outcome back into the journal as applied. Unknown entity types and
// newer schema versions are skipped with a warning, not fatal.
func (o *Orchestrator) resolve(ctx context.Context, session *models.SyncSession, wires []api.WireOp) error {
	type entityKey struct{ entityType, entityID string }

	grouped := make(map[entityKey][]*models.Operation)
	var order []entityKey
	for _, wire := range wires {
		if !models.KnownEntityTypes[wire.Entity] {
			o.logger.Warn("skipping op with unknown entity type",
				"op_id", wire.ID, "entity_type", wire.Entity)
			continue
		}
		if wire.SchemaVersion > models.SchemaVersion {
			o.logger.Warn("skipping op with newer schema version",
				"op_id", wire.ID, "schema_version", wire.SchemaVersion)
			continue
		}
		op, err := syncapi.DecodeOp(wire, o.sealer)
		if err != nil {
			return fmt.Errorf("decode op %s: %w", wire.ID, err)
		}
		key := entityKey{wire.Entity, wire.EntityID}
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], op)
	}

	for _, key := range order {
		if err := o.resolveEntity(ctx, session, key.entityType, key.entityID, grouped[key]); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) resolveEntity(ctx context.Context, session *models.SyncSession, entityType, entityID string, remote []*models.Operation) error {
	local, err := o.journal.PendingForEntity(ctx, entityType, entityID)
	if err != nil {
		return err
	}

	state := resolver.NewEntityState(entityType, entityID)
	ts, err := o.tombstones.GetTombstone(ctx, entityID)
	switch {
	case err == nil && ts.Expired(o.now()):
		// Past its grace window the delete no longer dominates; purge it
		// so stale upserts are not silently discarded.
		if err := o.tombstones.DeleteTombstone(ctx, entityID); err != nil {
			return &syncerr.StorageError{Op: "delete tombstone", Err: err}
		}
		o.logger.Debug("expired tombstone purged", "entity_id", entityID)
	case err == nil:
		state = resolver.StateFromTombstone(ts)
	case !errors.Is(err, storage.ErrTombstoneNotFound):
		return &syncerr.StorageError{Op: "load tombstone", Err: err}
	}

	ops := make([]*models.Operation, 0, len(local)+len(remote))
	ops = append(ops, local...)
	ops = append(ops, remote...)
	result := resolver.ResolveAll(state, ops, o.journal.TombstoneTTL())

	if err := o.journal.RecordResolved(ctx, result.Merged); err != nil {
		return err
	}

	if result.Tombstone != nil {
		if err := o.tombstones.SaveTombstone(ctx, result.Tombstone); err != nil {
			return &syncerr.StorageError{Op: "save tombstone", Err: err}
		}
	} else if result.ClearTombstone {
		if err := o.tombstones.DeleteTombstone(ctx, entityID); err != nil {
			return &syncerr.StorageError{Op: "delete tombstone", Err: err}
		}
	}

	for _, rec := range result.Conflicts {
		rec.DetectedAt = o.now()
		if err := o.conflicts.SaveConflict(ctx, rec); err != nil {
			return &syncerr.StorageError{Op: "save conflict", Err: err}
		}
	}
	session.ConflictsDetected += len(result.Conflicts)
	return nil
}

// withBackoff retries a network call on retryable failures only; auth,
// validation and storage errors surface immediately.
func (o *Orchestrator) withBackoff(ctx context.Context, phase string, fn func(ctx context.Context) error) error {
	b := retry.NewExponential(o.backoff.Base)
	b = retry.WithCappedDuration(o.backoff.Cap, b)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithMaxRetries(o.backoff.MaxAttempts, b)

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		start := o.now()
		err := fn(ctx)
		o.observe(start, err)
		if err == nil {
			return nil
		}
		if syncerr.IsRetryable(err) {
			o.logger.Warn("retryable failure",
				"phase", phase, "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
}

// observe feeds the request round-trip into the network monitor.
func (o *Orchestrator) observe(start time.Time, err error) {
	if o.samples == nil {
		return
	}
	var netErr *syncerr.NetworkError
	if errors.As(err, &netErr) {
		return // transport failures are reported via SetOnline by the probe loop
	}
	o.samples.Record(models.NetworkQualitySample{
		MeasuredAt: start,
		LatencyMs:  o.now().Sub(start).Milliseconds(),
	})
}

// Reset discards server-side state for this account, zeroes the local
// cursor and requeues the whole journal so the next cycle re-uploads it.
// Fails if a session is in flight.
func (o *Orchestrator) Reset(ctx context.Context) (err error) {
	o.mu.Lock()
	if o.inflight != nil {
		o.mu.Unlock()
		return errors.New("sync session in flight")
	}
	f := &flight{done: make(chan struct{})}
	o.inflight = f
	o.mu.Unlock()

	defer func() {
		f.err = err
		o.mu.Lock()
		o.inflight = nil
		o.mu.Unlock()
		close(f.done)
	}()

	if err := o.client.Reset(ctx); err != nil {
		return err
	}
	if err := o.cursor.SaveCursor(ctx, models.SyncCursor{}); err != nil {
		return &syncerr.StorageError{Op: "save cursor", Err: err}
	}
	requeued, err := o.journal.RequeueAll(ctx)
	if err != nil {
		return err
	}
	o.logger.Info("remote state reset", "ops_requeued", requeued)
	return nil
}
