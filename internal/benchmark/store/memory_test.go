package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cetrack/internal/benchmark/models"
	id "cetrack/pkg/domain"
)

func newSnapshot(period id.Period, jurisdiction id.Jurisdiction, peers int) *models.BenchmarkSnapshot {
	snap := &models.BenchmarkSnapshot{
		CredentialID: id.CredentialID(uuid.New()),
		Period:       period,
		Jurisdiction: jurisdiction,
		TotalPeers:   peers,
		GeneratedAt:  time.Now(),
	}
	if peers > 0 {
		snap.Stats = &models.CohortStats{AvgHours: 30, MedianHours: 30}
	}
	return snap
}

func TestFindMissingIsNil(t *testing.T) {
	store := NewInMemorySnapshotStore()
	got, err := store.Find(context.Background(), models.SnapshotKey{
		CredentialID: id.CredentialID(uuid.New()), Period: "2026-Q1",
	})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpsertReplacesSameKey(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySnapshotStore()
	snap := newSnapshot("2026-Q1", "CA", 5)
	require.NoError(t, store.Upsert(ctx, snap))

	snap.TotalPeers = 8
	snap.Stats.AvgHours = 42
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.Find(ctx, snap.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 8, got.TotalPeers)
	assert.Equal(t, 42.0, got.Stats.AvgHours)
}

func TestKeysArePartitionScoped(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySnapshotStore()
	ca := newSnapshot("2026-Q1", "CA", 3)
	all := *ca
	all.Jurisdiction = id.JurisdictionAll
	all.TotalPeers = 9
	require.NoError(t, store.Upsert(ctx, ca))
	require.NoError(t, store.Upsert(ctx, &all))

	gotCA, err := store.Find(ctx, ca.Key())
	require.NoError(t, err)
	assert.Equal(t, 3, gotCA.TotalPeers)

	gotAll, err := store.Find(ctx, all.Key())
	require.NoError(t, err)
	assert.Equal(t, 9, gotAll.TotalPeers)
}

func TestStatsAreDeepCopied(t *testing.T) {
	ctx := context.Background()
	store := NewInMemorySnapshotStore()
	snap := newSnapshot("2026-Q1", "CA", 5)
	require.NoError(t, store.Upsert(ctx, snap))

	got, err := store.Find(ctx, snap.Key())
	require.NoError(t, err)
	got.Stats.AvgHours = 999

	again, err := store.Find(ctx, snap.Key())
	require.NoError(t, err)
	assert.Equal(t, 30.0, again.Stats.AvgHours)
}
