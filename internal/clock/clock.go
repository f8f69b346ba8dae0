// Package clock provides the per-device timestamp source for journal ops.
package clock

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DeviceClock stamps operations with wall-clock Unix milliseconds clamped
// monotonically non-decreasing per device: if the wall clock steps backwards
// the counter keeps advancing by one instead. It also tracks observed drift
// against server time so excessive skew can be surfaced rather than
// silently trusted.
type DeviceClock struct {
	now      func() time.Time
	deviceID string
	last     int64
	skewMs   int64
	mu       sync.Mutex
}

// New creates a clock for the given device ID. An empty ID gets a fresh UUID.
func New(deviceID string) *DeviceClock {
	if deviceID == "" {
		deviceID = uuid.New().String()
	}
	return &DeviceClock{
		deviceID: deviceID,
		now:      time.Now,
	}
}

// NewWithNow creates a clock with an injected time source for tests.
func NewWithNow(deviceID string, now func() time.Time) *DeviceClock {
	c := New(deviceID)
	c.now = now
	return c
}

// DeviceID returns the stable identifier of this device.
func (c *DeviceClock) DeviceID() string { return c.deviceID }

// Next returns the next timestamp, strictly greater than any previously
// issued value when the wall clock has not advanced.
func (c *DeviceClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ts := c.now().UnixMilli()
	if ts <= c.last {
		ts = c.last + 1
	}
	c.last = ts
	return ts
}

// Restore sets the high-water mark after reloading persisted state, so
// timestamps stay monotone across restarts.
func (c *DeviceClock) Restore(last int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if last > c.last {
		c.last = last
	}
}

// Last returns the most recently issued timestamp.
func (c *DeviceClock) Last() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.last
}

// ObserveServerTime records drift between this device and the server, from
// a server-reported wall clock in Unix milliseconds.
func (c *DeviceClock) ObserveServerTime(serverMs int64) {
	if serverMs == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.skewMs = c.now().UnixMilli() - serverMs
}

// SkewMs returns the last observed local-minus-server drift in milliseconds.
func (c *DeviceClock) SkewMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.skewMs
}
