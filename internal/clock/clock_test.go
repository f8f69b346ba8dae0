package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_GeneratesDeviceID(t *testing.T) {
	c := New("")
	require.NotEmpty(t, c.DeviceID())

	c2 := New("dev-1")
	assert.Equal(t, "dev-1", c2.DeviceID())
}

func TestDeviceClock_NextFollowsWallClock(t *testing.T) {
	now := time.UnixMilli(1000)
	c := NewWithNow("dev-1", func() time.Time { return now })

	assert.Equal(t, int64(1000), c.Next())

	now = time.UnixMilli(5000)
	assert.Equal(t, int64(5000), c.Next())
}

func TestDeviceClock_NextIsMonotonic(t *testing.T) {
	// A wall clock stuck in the past must not produce duplicate or
	// regressing timestamps.
	now := time.UnixMilli(1000)
	c := NewWithNow("dev-1", func() time.Time { return now })

	first := c.Next()
	second := c.Next()
	assert.Greater(t, second, first)

	now = time.UnixMilli(500) // wall clock jumped backwards
	third := c.Next()
	assert.Greater(t, third, second)
}

func TestDeviceClock_Restore(t *testing.T) {
	now := time.UnixMilli(1000)
	c := NewWithNow("dev-1", func() time.Time { return now })

	c.Restore(9000)
	assert.Equal(t, int64(9001), c.Next(), "restored high-water mark outruns the wall clock")

	// Restoring backwards must not regress the clock.
	c.Restore(100)
	assert.Greater(t, c.Next(), int64(9001))
}

func TestDeviceClock_ObserveServerTime(t *testing.T) {
	now := time.UnixMilli(10_000)
	c := NewWithNow("dev-1", func() time.Time { return now })

	c.ObserveServerTime(13_000)
	assert.Equal(t, int64(-3000), c.SkewMs(), "device runs behind the server")

	c.ObserveServerTime(9000)
	assert.Equal(t, int64(1000), c.SkewMs(), "device runs ahead of the server")
}
