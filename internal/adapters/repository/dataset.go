// Package repository holds the current roster dataset and the upload history.
package repository

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/recruitstat/internal/domain/model"
	"github.com/okian/recruitstat/internal/domain/stats"
	"github.com/okian/recruitstat/pkg/metrics"
)

// Current is the dataset served by the statistics endpoints. It is never
// modified after it is stored.
type Current struct {
	ID          string
	Filename    string
	Description string
	UploadedAt  time.Time
	Enriched    model.EnrichedDataset
	Snapshot    stats.Snapshot
}

// DatasetStore holds at most one Current. Readers never block; writers are
// serialised so a replace and a clear cannot interleave.
type DatasetStore struct {
	mu      sync.Mutex
	current atomic.Pointer[Current]
}

// NewDatasetStore returns an empty store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{}
}

// Replace swaps in cur and returns the dataset it replaced, if any.
func (s *DatasetStore) Replace(cur *Current) (*Current, error) {
	if cur == nil {
		return nil, ErrNilDataset
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Swap(cur)
	metrics.UpdateDatasetRecords(len(cur.Enriched))
	return prev, nil
}

// Current returns the stored dataset or ErrNoDataset.
func (s *DatasetStore) Current() (*Current, error) {
	cur := s.current.Load()
	if cur == nil {
		return nil, ErrNoDataset
	}
	return cur, nil
}

// Clear drops the stored dataset and reports whether one was present.
func (s *DatasetStore) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Swap(nil)
	metrics.UpdateDatasetRecords(0)
	return prev != nil
}
