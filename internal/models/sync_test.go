package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTombstone(t *testing.T) {
	op := &Operation{
		EntityType: EntityAccount,
		EntityID:   "acc-1",
		Kind:       OpDelete,
		Timestamp:  1700000000000,
		DeviceID:   "dev-1",
	}

	ts := NewTombstone(op, DefaultTombstoneTTL)

	require.NotNil(t, ts)
	assert.Equal(t, "acc-1", ts.EntityID)
	assert.Equal(t, "dev-1", ts.DeviceID)
	assert.Equal(t, int64(1700000000000), ts.DeleteStamp)
	assert.Equal(t, ts.DeletedAt.Add(DefaultTombstoneTTL), ts.ExpiresAt)
}

func TestTombstone_Expired(t *testing.T) {
	now := time.Now()
	ts := &Tombstone{ExpiresAt: now}

	assert.False(t, ts.Expired(now.Add(-time.Hour)))
	assert.True(t, ts.Expired(now.Add(time.Hour)))
}

func TestTombstone_Dominates(t *testing.T) {
	ts := &Tombstone{DeleteStamp: 100, DeviceID: "dev-b"}

	tests := []struct {
		name     string
		op       *Operation
		expected bool
	}{
		{
			name:     "older upsert is dominated",
			op:       &Operation{Timestamp: 50, DeviceID: "dev-a"},
			expected: true,
		},
		{
			name:     "newer upsert wins",
			op:       &Operation{Timestamp: 150, DeviceID: "dev-a"},
			expected: false,
		},
		{
			name:     "equal timestamp falls back to device id",
			op:       &Operation{Timestamp: 100, DeviceID: "dev-a"},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ts.Dominates(tt.op))
		})
	}
}

func TestNetworkQuality_String(t *testing.T) {
	assert.Equal(t, "poor", QualityPoor.String())
	assert.Equal(t, "excellent", QualityExcellent.String())
	assert.True(t, QualityPoor < QualityFair)
	assert.True(t, QualityGood < QualityExcellent)
}

func TestSyncSession_Duration(t *testing.T) {
	start := time.Now()
	session := &SyncSession{StartedAt: start}

	assert.Zero(t, session.Duration(), "open session has no duration")

	ended := start.Add(3 * time.Second)
	session.EndedAt = &ended
	assert.Equal(t, 3*time.Second, session.Duration())
}
