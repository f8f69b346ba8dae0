package scheduler

import (
	"time"

	"github.com/finledger/finsync/internal/models"
)

// Policy is the sync cadence for one network quality tier.
type Policy struct {
	Interval          time.Duration
	MaxBatchSize      int
	BackgroundAllowed bool
}

// DefaultPolicies maps every tier to its cadence. Poor connectivity disables
// background syncs entirely and backs the interval far off; excellent runs
// at the minimum interval with the largest batch.
func DefaultPolicies() map[models.NetworkQuality]Policy {
	return map[models.NetworkQuality]Policy{
		models.QualityPoor: {
			Interval:          30 * time.Minute,
			MaxBatchSize:      20,
			BackgroundAllowed: false,
		},
		models.QualityFair: {
			Interval:          10 * time.Minute,
			MaxBatchSize:      50,
			BackgroundAllowed: true,
		},
		models.QualityGood: {
			Interval:          5 * time.Minute,
			MaxBatchSize:      100,
			BackgroundAllowed: true,
		},
		models.QualityExcellent: {
			Interval:          2 * time.Minute,
			MaxBatchSize:      200,
			BackgroundAllowed: true,
		},
	}
}
