package netmon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/finsync/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sample(latencyMs int64) models.NetworkQualitySample {
	return models.NetworkQualitySample{
		MeasuredAt: time.Now(),
		LatencyMs:  latencyMs,
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		sample   models.NetworkQualitySample
		expected models.NetworkQuality
	}{
		{
			name:     "fast round trip is excellent",
			sample:   models.NetworkQualitySample{LatencyMs: 40},
			expected: models.QualityExcellent,
		},
		{
			name:     "moderate latency is good",
			sample:   models.NetworkQualitySample{LatencyMs: 200},
			expected: models.QualityGood,
		},
		{
			name:     "slow latency is fair",
			sample:   models.NetworkQualitySample{LatencyMs: 600},
			expected: models.QualityFair,
		},
		{
			name:     "very slow latency is poor",
			sample:   models.NetworkQualitySample{LatencyMs: 2000},
			expected: models.QualityPoor,
		},
		{
			name:     "weak throughput drags a fast link down",
			sample:   models.NetworkQualitySample{LatencyMs: 40, ThroughputKbps: 100},
			expected: models.QualityPoor,
		},
		{
			name:     "strong throughput does not mask bad latency",
			sample:   models.NetworkQualitySample{LatencyMs: 600, ThroughputKbps: 10000},
			expected: models.QualityFair,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classify(tt.sample))
		})
	}
}

func TestMonitor_HysteresisPreventsOscillation(t *testing.T) {
	m := New(testLogger(), WithSwitchCount(3))
	require.Equal(t, models.QualityGood, m.CurrentQuality())

	// Two poor samples are not enough to switch.
	m.Record(sample(2000))
	m.Record(sample(2000))
	assert.Equal(t, models.QualityGood, m.CurrentQuality())

	// The third consecutive one is.
	m.Record(sample(2000))
	assert.Equal(t, models.QualityPoor, m.CurrentQuality())
}

func TestMonitor_MixedSamplesResetTheCandidate(t *testing.T) {
	m := New(testLogger(), WithSwitchCount(3))

	m.Record(sample(2000)) // poor
	m.Record(sample(2000)) // poor
	m.Record(sample(200))  // good again, streak broken
	m.Record(sample(2000)) // poor
	m.Record(sample(2000)) // poor
	assert.Equal(t, models.QualityGood, m.CurrentQuality())
}

func TestMonitor_BoundarySamplesDoNotFlipTier(t *testing.T) {
	m := New(testLogger(), WithSwitchCount(3))
	require.Equal(t, models.QualityGood, m.CurrentQuality())

	// Sitting 1-10% past the good/fair boundary is noise, not a downgrade,
	// no matter how many samples agree.
	for i := 0; i < 10; i++ {
		m.Record(sample(310))
	}
	assert.Equal(t, models.QualityGood, m.CurrentQuality())

	// Well past the boundary the downgrade goes through.
	m.Record(sample(400))
	m.Record(sample(400))
	m.Record(sample(400))
	assert.Equal(t, models.QualityFair, m.CurrentQuality())
}

func TestMonitor_UpgradeNeedsMarginToo(t *testing.T) {
	m := New(testLogger(), WithSwitchCount(3))

	// Inside the excellent band but within the margin of its boundary.
	for i := 0; i < 10; i++ {
		m.Record(sample(95))
	}
	assert.Equal(t, models.QualityGood, m.CurrentQuality())

	m.Record(sample(80))
	m.Record(sample(80))
	m.Record(sample(80))
	assert.Equal(t, models.QualityExcellent, m.CurrentQuality())
}

func TestMonitor_SubscribeNotifiesOnChange(t *testing.T) {
	m := New(testLogger(), WithSwitchCount(1))

	var (
		mu   sync.Mutex
		seen []models.NetworkQuality
	)
	token := m.Subscribe(func(q models.NetworkQuality) {
		mu.Lock()
		seen = append(seen, q)
		mu.Unlock()
	})

	m.Record(sample(40))   // good -> excellent
	m.Record(sample(40))   // no change, no callback
	m.Record(sample(2000)) // excellent -> poor

	mu.Lock()
	assert.Equal(t, []models.NetworkQuality{models.QualityExcellent, models.QualityPoor}, seen)
	mu.Unlock()

	m.Unsubscribe(token)
	m.Record(sample(40))
	m.Record(sample(40))

	mu.Lock()
	assert.Len(t, seen, 2, "unsubscribed listener must not fire")
	mu.Unlock()
}

func TestMonitor_OfflineReadsAsPoor(t *testing.T) {
	m := New(testLogger())

	m.SetOnline(false)
	assert.Equal(t, models.QualityPoor, m.CurrentQuality())
	assert.False(t, m.Online())

	m.SetOnline(true)
	assert.Equal(t, models.QualityGood, m.CurrentQuality(), "smoothed tier survives a disconnect")
}

func TestMonitor_WindowIsBounded(t *testing.T) {
	m := New(testLogger(), WithWindowSize(5))

	for i := 0; i < 10; i++ {
		m.Record(sample(100))
	}
	assert.Len(t, m.Samples(), 5)
}

func TestMonitor_RunProbesUntilCancelled(t *testing.T) {
	m := New(testLogger(), WithSwitchCount(1))

	probeCount := 0
	prober := &ProberMock{
		ProbeFunc: func(ctx context.Context) (models.NetworkQualitySample, error) {
			probeCount++
			if probeCount == 1 {
				return models.NetworkQualitySample{}, errors.New("no route to host")
			}
			return sample(40), nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, prober, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(prober.ProbeCalls()) >= 2
	}, time.Second, time.Millisecond)

	cancel()
	<-done

	assert.True(t, m.Online(), "successful probe restores online state")
}
