package store

import (
	"context"
	"sync"

	"cetrack/internal/benchmark/models"
)

// InMemorySnapshotStore holds materialized snapshots keyed by partition.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[models.SnapshotKey]*models.BenchmarkSnapshot
}

func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{snapshots: make(map[models.SnapshotKey]*models.BenchmarkSnapshot)}
}

// Upsert replaces any existing snapshot for the same key.
func (s *InMemorySnapshotStore) Upsert(_ context.Context, snapshot *models.BenchmarkSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snapshot
	if snapshot.Stats != nil {
		stats := *snapshot.Stats
		cp.Stats = &stats
	}
	s.snapshots[snapshot.Key()] = &cp
	return nil
}

// Find returns the snapshot for the key, or nil when none exists.
func (s *InMemorySnapshotStore) Find(_ context.Context, key models.SnapshotKey) (*models.BenchmarkSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[key]
	if !ok {
		return nil, nil
	}
	cp := *snap
	if snap.Stats != nil {
		stats := *snap.Stats
		cp.Stats = &stats
	}
	return &cp, nil
}
