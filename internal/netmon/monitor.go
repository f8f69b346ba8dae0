// Package netmon classifies connectivity into quality tiers from a rolling
// window of latency/throughput samples. Tier switches use hysteresis so a
// single outlier sample never flips the scheduler's cadence.
package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/finledger/finsync/internal/models"
)

const (
	defaultWindowSize  = 20
	defaultSwitchCount = 3
	defaultProbePeriod = 30 * time.Second
)

// Latency upper bounds per tier, milliseconds.
const (
	latencyExcellentMs = 100
	latencyGoodMs      = 300
	latencyFairMs      = 800
)

// Throughput lower bounds per tier, kbit/s. Zero means "no estimate" and
// the sample is classified by latency alone.
const (
	throughputExcellentKbps = 5000
	throughputGoodKbps      = 1000
	throughputFairKbps      = 200
)

//go:generate moq -out prober_mock.go . Prober

// Prober measures one connectivity sample against the sync endpoint.
type Prober interface {
	Probe(ctx context.Context) (models.NetworkQualitySample, error)
}

// Listener receives quality tier changes.
type Listener func(q models.NetworkQuality)

// Monitor maintains the rolling sample window and the current tier.
type Monitor struct {
	logger      *slog.Logger
	listeners   map[int]Listener
	window      []models.NetworkQualitySample
	windowSize  int
	switchCount int
	current     models.NetworkQuality
	// candidate tracks a prospective tier and how many consecutive samples
	// have agreed with it.
	candidate      models.NetworkQuality
	candidateCount int
	nextToken      int
	online         bool
	mu             sync.Mutex
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithWindowSize bounds the retained sample window.
func WithWindowSize(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.windowSize = n
		}
	}
}

// WithSwitchCount sets how many consecutive agreeing samples force a tier
// switch.
func WithSwitchCount(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.switchCount = n
		}
	}
}

func New(logger *slog.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		logger:      logger,
		listeners:   make(map[int]Listener),
		windowSize:  defaultWindowSize,
		switchCount: defaultSwitchCount,
		current:     models.QualityGood,
		candidate:   models.QualityGood,
		online:      true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// switchMargin is how far past a tier boundary a sample must sit before it
// counts toward a tier switch. Samples inside the margin band read as
// agreement with the current tier, so boundary noise cannot oscillate the
// cadence in slow runs of switchCount.
const switchMargin = 0.10

// classify maps one sample to a tier. When both latency and throughput are
// present the worse of the two wins.
func classify(s models.NetworkQualitySample) models.NetworkQuality {
	return classifyScaled(s, 1, 1)
}

// classifyScaled classifies with the latency bounds scaled by latScale and
// the throughput bounds by thrScale.
func classifyScaled(s models.NetworkQualitySample, latScale, thrScale float64) models.NetworkQuality {
	lat := models.QualityPoor
	latency := float64(s.LatencyMs)
	switch {
	case latency <= latencyExcellentMs*latScale:
		lat = models.QualityExcellent
	case latency <= latencyGoodMs*latScale:
		lat = models.QualityGood
	case latency <= latencyFairMs*latScale:
		lat = models.QualityFair
	}

	if s.ThroughputKbps <= 0 {
		return lat
	}

	thr := models.QualityPoor
	switch {
	case s.ThroughputKbps >= throughputExcellentKbps*thrScale:
		thr = models.QualityExcellent
	case s.ThroughputKbps >= throughputGoodKbps*thrScale:
		thr = models.QualityGood
	case s.ThroughputKbps >= throughputFairKbps*thrScale:
		thr = models.QualityFair
	}

	if thr < lat {
		return thr
	}
	return lat
}

// clearsMargin reports whether the sample sits past the boundary toward the
// proposed tier by the switch margin. An upgrade must still reach the
// proposed tier under tightened bounds; a downgrade must stay at or below
// it even under loosened bounds.
func clearsMargin(s models.NetworkQualitySample, current, proposed models.NetworkQuality) bool {
	if proposed > current {
		return classifyScaled(s, 1-switchMargin, 1+switchMargin) >= proposed
	}
	return classifyScaled(s, 1+switchMargin, 1-switchMargin) <= proposed
}

// Record feeds one sample into the window. Transport code calls this after
// every request; the probe loop calls it on its interval.
func (m *Monitor) Record(s models.NetworkQualitySample) {
	s.Quality = classify(s)

	m.mu.Lock()
	m.window = append(m.window, s)
	if len(m.window) > m.windowSize {
		m.window = m.window[len(m.window)-m.windowSize:]
	}

	changed := m.advanceLocked(s)
	current := m.current
	var notify []Listener
	if changed {
		for _, l := range m.listeners {
			notify = append(notify, l)
		}
	}
	m.mu.Unlock()

	if changed {
		m.logger.Info("network quality changed", "quality", current.String())
		for _, l := range notify {
			l(current)
		}
	}
}

// advanceLocked applies hysteresis: the tier switches only after switchCount
// consecutive samples classify to the same different tier AND each clears
// the boundary by the switch margin.
func (m *Monitor) advanceLocked(s models.NetworkQualitySample) bool {
	tier := s.Quality
	if tier == m.current || !clearsMargin(s, m.current, tier) {
		m.candidate = m.current
		m.candidateCount = 0
		return false
	}
	if tier == m.candidate {
		m.candidateCount++
	} else {
		m.candidate = tier
		m.candidateCount = 1
	}
	if m.candidateCount < m.switchCount {
		return false
	}
	m.current = tier
	m.candidateCount = 0
	return true
}

// CurrentQuality returns the smoothed tier. Offline always reads as poor.
func (m *Monitor) CurrentQuality() models.NetworkQuality {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.online {
		return models.QualityPoor
	}
	return m.current
}

// Online reports transport reachability as of the last observation.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connect/disconnect transport event. Going offline
// notifies listeners with QualityPoor immediately; hysteresis does not apply
// to hard disconnects.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	var notify []Listener
	for _, l := range m.listeners {
		notify = append(notify, l)
	}
	q := m.current
	if !online {
		q = models.QualityPoor
	}
	m.mu.Unlock()

	m.logger.Info("connectivity changed", "online", online)
	for _, l := range notify {
		l(q)
	}
}

// Subscribe registers a listener and returns a token for Unsubscribe.
// Listeners are invoked outside the monitor's lock; re-entrant calls into
// the monitor are safe.
func (m *Monitor) Subscribe(l Listener) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := m.nextToken
	m.nextToken++
	m.listeners[token] = l
	return token
}

func (m *Monitor) Unsubscribe(token int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, token)
}

// Samples returns a copy of the rolling window, oldest first.
func (m *Monitor) Samples() []models.NetworkQualitySample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.NetworkQualitySample, len(m.window))
	copy(out, m.window)
	return out
}

// Run drives the probe loop until ctx is cancelled. A probe error counts as
// a disconnect; a successful probe restores online and records its sample.
func (m *Monitor) Run(ctx context.Context, p Prober, period time.Duration) {
	if period <= 0 {
		period = defaultProbePeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample, err := p.Probe(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				m.logger.Warn("probe failed", "error", err)
				m.SetOnline(false)
				continue
			}
			m.SetOnline(true)
			m.Record(sample)
		}
	}
}
