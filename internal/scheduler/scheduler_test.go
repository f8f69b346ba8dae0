package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/finsync/internal/models"
	"github.com/finledger/finsync/internal/syncerr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type staticQuality struct {
	q models.NetworkQuality
}

func (s staticQuality) CurrentQuality() models.NetworkQuality { return s.q }

type staticPending struct {
	n int
}

func (s staticPending) PendingCount(ctx context.Context) (int, error) { return s.n, nil }

func okSession(trigger string) *models.SyncSession {
	return &models.SyncSession{ID: "s-1", Trigger: trigger, Outcome: models.OutcomeSuccess}
}

func TestDefaultPolicies(t *testing.T) {
	policies := DefaultPolicies()

	poor := policies[models.QualityPoor]
	excellent := policies[models.QualityExcellent]

	assert.False(t, poor.BackgroundAllowed, "poor connectivity disables background syncs")
	assert.True(t, excellent.BackgroundAllowed)
	assert.Greater(t, poor.Interval, excellent.Interval, "cadence tightens with quality")
	assert.Less(t, poor.MaxBatchSize, excellent.MaxBatchSize)

	// Interval must be monotonically non-increasing across tiers.
	assert.GreaterOrEqual(t, policies[models.QualityPoor].Interval, policies[models.QualityFair].Interval)
	assert.GreaterOrEqual(t, policies[models.QualityFair].Interval, policies[models.QualityGood].Interval)
	assert.GreaterOrEqual(t, policies[models.QualityGood].Interval, policies[models.QualityExcellent].Interval)
}

func TestScheduler_SyncNowUsesManualTrigger(t *testing.T) {
	syncer := &SyncerMock{
		SyncFunc: func(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
			return okSession(trigger), nil
		},
	}
	s := New(testLogger(), syncer, staticQuality{models.QualityExcellent}, staticPending{1}, nil)

	session, err := s.SyncNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.TriggerManual, session.Trigger)

	calls := syncer.SyncCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, DefaultPolicies()[models.QualityExcellent].MaxBatchSize, calls[0].MaxBatch)
}

func TestScheduler_AuthErrorSuspends(t *testing.T) {
	syncer := &SyncerMock{
		SyncFunc: func(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
			return nil, &syncerr.AuthError{Reason: "token revoked"}
		},
	}
	s := New(testLogger(), syncer, staticQuality{models.QualityGood}, staticPending{1}, nil)

	_, err := s.SyncNow(context.Background())
	require.Error(t, err)
	assert.True(t, s.Suspended())

	s.ResumeAfterAuth()
	assert.False(t, s.Suspended())
}

func TestScheduler_FireSkipsWhenSuspended(t *testing.T) {
	syncer := &SyncerMock{
		SyncFunc: func(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
			return okSession(trigger), nil
		},
	}
	s := New(testLogger(), syncer, staticQuality{models.QualityGood}, staticPending{1}, nil)
	s.Suspend()

	s.fire(context.Background())
	assert.Empty(t, syncer.SyncCalls())
}

func TestScheduler_PoorTierNeverSyncsInBackground(t *testing.T) {
	syncer := &SyncerMock{
		SyncFunc: func(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
			return okSession(trigger), nil
		},
	}
	s := New(testLogger(), syncer, staticQuality{models.QualityPoor}, staticPending{10}, nil)
	s.SetAppState(false)

	s.fire(context.Background())
	assert.Empty(t, syncer.SyncCalls(), "background fire on poor tier must re-schedule, not sync")

	s.SetAppState(true)
	s.fire(context.Background())
	assert.Len(t, syncer.SyncCalls(), 1, "foreground fire on poor tier syncs")
}

func TestScheduler_BackgroundFireUsesBackgroundTrigger(t *testing.T) {
	syncer := &SyncerMock{
		SyncFunc: func(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
			return okSession(trigger), nil
		},
	}
	s := New(testLogger(), syncer, staticQuality{models.QualityExcellent}, staticPending{3}, nil)
	s.SetAppState(false)

	s.fire(context.Background())

	calls := syncer.SyncCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, models.TriggerBackground, calls[0].Trigger)
}

func TestScheduler_FireSkipsWithNothingPending(t *testing.T) {
	syncer := &SyncerMock{
		SyncFunc: func(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
			return okSession(trigger), nil
		},
	}
	s := New(testLogger(), syncer, staticQuality{models.QualityGood}, staticPending{0}, nil)

	s.fire(context.Background())
	assert.Empty(t, syncer.SyncCalls())
}

func TestScheduler_StopEndsRunLoop(t *testing.T) {
	syncer := &SyncerMock{
		SyncFunc: func(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
			return okSession(trigger), nil
		},
	}
	s := New(testLogger(), syncer, staticQuality{models.QualityGood}, staticPending{0}, nil)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background())
		close(done)
	}()

	s.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}

	s.Stop() // second Stop is a no-op
}

func TestScheduler_ShutdownDoesNotAbortInFlightCycle(t *testing.T) {
	release := make(chan struct{})
	inFlight := make(chan context.Context, 1)
	syncer := &SyncerMock{
		SyncFunc: func(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
			inFlight <- ctx
			<-release
			return okSession(trigger), nil
		},
	}
	policies := DefaultPolicies()
	policies[models.QualityExcellent] = Policy{
		Interval:          5 * time.Millisecond,
		MaxBatchSize:      10,
		BackgroundAllowed: true,
	}
	s := New(testLogger(), syncer, staticQuality{models.QualityExcellent}, staticPending{1}, policies)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	var syncCtx context.Context
	select {
	case syncCtx = <-inFlight:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	cancel()
	select {
	case <-done:
		t.Fatal("Run returned while a cycle was still in flight")
	case <-time.After(50 * time.Millisecond):
	}
	assert.NoError(t, syncCtx.Err(), "shutdown discards the timer, not the running cycle")

	close(release)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the cycle finished")
	}
}

func TestScheduler_RunFiresOnShortInterval(t *testing.T) {
	syncer := &SyncerMock{
		SyncFunc: func(ctx context.Context, trigger string, maxBatch int) (*models.SyncSession, error) {
			return okSession(trigger), nil
		},
	}
	policies := DefaultPolicies()
	policies[models.QualityExcellent] = Policy{
		Interval:          5 * time.Millisecond,
		MaxBatchSize:      10,
		BackgroundAllowed: true,
	}
	s := New(testLogger(), syncer, staticQuality{models.QualityExcellent}, staticPending{1}, policies)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	require.Eventually(t, func() bool {
		return len(syncer.SyncCalls()) >= 2
	}, time.Second, time.Millisecond, "timer must keep re-arming after each fire")

	calls := syncer.SyncCalls()
	assert.Equal(t, models.TriggerScheduled, calls[0].Trigger)
}
