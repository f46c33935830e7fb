package models

import (
	"time"

	id "cetrack/pkg/domain"
)

// CohortStats are the order statistics of a cohort's total-hours values plus
// the ethics/structured sub-means. Absent (nil on the snapshot) when the
// cohort is empty.
type CohortStats struct {
	AvgHours           float64 `json:"avg_hours"`
	MedianHours        float64 `json:"median_hours"`
	P25                float64 `json:"p25"`
	P75                float64 `json:"p75"`
	P90                float64 `json:"p90"`
	AvgEthicsHours     float64 `json:"avg_ethics_hours"`
	AvgStructuredHours float64 `json:"avg_structured_hours"`
}

// BenchmarkSnapshot is a materialized cohort summary for one
// (credential, period, jurisdiction) partition. Regenerating the same key
// replaces the previous snapshot; snapshots are versioned over period only.
//
// A zero-peer snapshot is "no data yet", not an error: it materializes with
// TotalPeers = 0 and nil Stats so callers can distinguish "never generated"
// from "generated over an empty cohort".
type BenchmarkSnapshot struct {
	CredentialID id.CredentialID `json:"credential_id"`
	Period       id.Period       `json:"period"`
	Jurisdiction id.Jurisdiction `json:"jurisdiction"`
	TotalPeers   int             `json:"total_peers"`
	Stats        *CohortStats    `json:"stats,omitempty"`
	GeneratedAt  time.Time       `json:"generated_at"`
}

// SnapshotKey is the upsert key.
type SnapshotKey struct {
	CredentialID id.CredentialID
	Period       id.Period
	Jurisdiction id.Jurisdiction
}

func (s *BenchmarkSnapshot) Key() SnapshotKey {
	return SnapshotKey{CredentialID: s.CredentialID, Period: s.Period, Jurisdiction: s.Jurisdiction}
}

// UserBenchmark is one member's standing within their cohort. Percentile
// ranks are tie-inclusive: a user tied with the cohort maximum scores 100.
type UserBenchmark struct {
	CredentialName       string  `json:"credential_name"`
	Jurisdiction         string  `json:"jurisdiction"`
	UserHours            float64 `json:"user_hours"`
	Percentile           int     `json:"percentile"`
	EthicsPercentile     int     `json:"ethics_percentile"`
	StructuredPercentile int     `json:"structured_percentile"`
	AvgHours             float64 `json:"avg_hours"`
	MedianHours          float64 `json:"median_hours"`
	P25                  float64 `json:"p25"`
	P75                  float64 `json:"p75"`
	P90                  float64 `json:"p90"`
	AvgEthicsHours       float64 `json:"avg_ethics_hours"`
	AvgStructuredHours   float64 `json:"avg_structured_hours"`
	TotalPeers           int     `json:"total_peers"`
	// Message advises on statistically unreliable cohorts. The numbers are
	// still reported; triage decisions need them even at low confidence.
	Message string `json:"message,omitempty"`
}
