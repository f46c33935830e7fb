package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"cetrack/internal/benchmark/models"
	id "cetrack/pkg/domain"
)

// PostgresSnapshotStore persists benchmark snapshots in PostgreSQL.
// The upsert relies on the storage layer's native atomicity; concurrent
// generations for the same key degrade to last-writer-wins, which the
// idempotent generation contract tolerates.
type PostgresSnapshotStore struct {
	db *sql.DB
}

func NewPostgresSnapshotStore(db *sql.DB) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db}
}

func (s *PostgresSnapshotStore) Upsert(ctx context.Context, snapshot *models.BenchmarkSnapshot) error {
	var (
		avg, med, p25, p75, p90, avgEthics, avgStructured sql.NullFloat64
	)
	if st := snapshot.Stats; st != nil {
		avg = sql.NullFloat64{Float64: st.AvgHours, Valid: true}
		med = sql.NullFloat64{Float64: st.MedianHours, Valid: true}
		p25 = sql.NullFloat64{Float64: st.P25, Valid: true}
		p75 = sql.NullFloat64{Float64: st.P75, Valid: true}
		p90 = sql.NullFloat64{Float64: st.P90, Valid: true}
		avgEthics = sql.NullFloat64{Float64: st.AvgEthicsHours, Valid: true}
		avgStructured = sql.NullFloat64{Float64: st.AvgStructuredHours, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO benchmark_snapshots
			(credential_id, period, jurisdiction, total_peers,
			 avg_hours, median_hours, p25, p75, p90, avg_ethics_hours, avg_structured_hours,
			 generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (credential_id, period, jurisdiction) DO UPDATE SET
			total_peers = EXCLUDED.total_peers,
			avg_hours = EXCLUDED.avg_hours,
			median_hours = EXCLUDED.median_hours,
			p25 = EXCLUDED.p25,
			p75 = EXCLUDED.p75,
			p90 = EXCLUDED.p90,
			avg_ethics_hours = EXCLUDED.avg_ethics_hours,
			avg_structured_hours = EXCLUDED.avg_structured_hours,
			generated_at = EXCLUDED.generated_at`,
		uuid.UUID(snapshot.CredentialID), snapshot.Period.String(), snapshot.Jurisdiction.String(),
		snapshot.TotalPeers, avg, med, p25, p75, p90, avgEthics, avgStructured,
		snapshot.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Find(ctx context.Context, key models.SnapshotKey) (*models.BenchmarkSnapshot, error) {
	var (
		snap                                              models.BenchmarkSnapshot
		rawCred                                           uuid.UUID
		period, jurisdiction                              string
		avg, med, p25, p75, p90, avgEthics, avgStructured sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT credential_id, period, jurisdiction, total_peers,
		       avg_hours, median_hours, p25, p75, p90, avg_ethics_hours, avg_structured_hours,
		       generated_at
		FROM benchmark_snapshots
		WHERE credential_id = $1 AND period = $2 AND jurisdiction = $3`,
		uuid.UUID(key.CredentialID), key.Period.String(), key.Jurisdiction.String(),
	).Scan(&rawCred, &period, &jurisdiction, &snap.TotalPeers,
		&avg, &med, &p25, &p75, &p90, &avgEthics, &avgStructured, &snap.GeneratedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	snap.CredentialID = id.CredentialID(rawCred)
	snap.Period = id.Period(period)
	snap.Jurisdiction = id.Jurisdiction(jurisdiction)
	if avg.Valid {
		snap.Stats = &models.CohortStats{
			AvgHours:           avg.Float64,
			MedianHours:        med.Float64,
			P25:                p25.Float64,
			P75:                p75.Float64,
			P90:                p90.Float64,
			AvgEthicsHours:     avgEthics.Float64,
			AvgStructuredHours: avgStructured.Float64,
		}
	}
	snap.GeneratedAt = snap.GeneratedAt.UTC()
	return &snap, nil
}
