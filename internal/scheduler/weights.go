package scheduler

import (
	"sync/atomic"

	"github.com/brightpath/aba-scheduler-api/internal/models"
)

// WeightStore holds the process-wide weight table as an atomically swapped
// immutable snapshot. A scheduling run takes one Snapshot reference at start
// and never observes a mid-run mutation; the tuning service publishes whole
// replacement tables via Swap.
type WeightStore struct {
	value atomic.Value
}

// NewWeightStore seeds the store, defaulting to the built-in table.
func NewWeightStore(initial *models.WeightTable) *WeightStore {
	if initial == nil {
		initial = models.DefaultWeightTable()
	}
	s := &WeightStore{}
	s.value.Store(initial)
	return s
}

// Snapshot returns the current immutable table. Safe for concurrent use.
func (s *WeightStore) Snapshot() *models.WeightTable {
	return s.value.Load().(*models.WeightTable)
}

// Swap publishes a replacement table. The version is bumped past the
// current snapshot so readers can tell tables apart.
func (s *WeightStore) Swap(next *models.WeightTable) {
	current := s.Snapshot()
	if next.Version <= current.Version {
		next.Version = current.Version + 1
	}
	s.value.Store(next)
}
