package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	benchmetrics "cetrack/internal/benchmark/metrics"
	"cetrack/internal/benchmark/models"
	membermodels "cetrack/internal/member/models"
	rulemodels "cetrack/internal/rules/models"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
	"cetrack/pkg/platform/audit"
	"cetrack/pkg/platform/sentinel"
	"cetrack/pkg/requestcontext"
)

// MinCohortSize is the cohort size below which statistics are reported with
// a low-confidence advisory. Numbers are never withheld; policy choice per
// product, tune here.
const MinCohortSize = 5

// lowConfidenceMessage is the advisory attached to small-cohort benchmarks.
const lowConfidenceMessage = "Fewer than 5 peers in this cohort; comparisons may not be statistically meaningful."

// CredentialReader supplies credential names for benchmark output.
type CredentialReader interface {
	FindByID(ctx context.Context, credentialID id.CredentialID) (*rulemodels.Credential, error)
}

// MemberReader supplies cohort membership rows.
type MemberReader interface {
	ListByCredential(ctx context.Context, credentialID id.CredentialID, jurisdiction id.Jurisdiction) ([]*membermodels.UserCredential, error)
	FindByUserAndCredential(ctx context.Context, userID id.UserID, credentialID id.CredentialID) (*membermodels.UserCredential, error)
}

// SnapshotStore persists materialized cohort summaries. Upsert replaces any
// existing snapshot for the same (credential, period, jurisdiction) key.
// Find returns nil when no snapshot exists for the key.
type SnapshotStore interface {
	Upsert(ctx context.Context, snapshot *models.BenchmarkSnapshot) error
	Find(ctx context.Context, key models.SnapshotKey) (*models.BenchmarkSnapshot, error)
}

// AuditPublisher records snapshot generation for the compliance trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service materializes cohort snapshots and reports a member's standing
// within their cohort.
type Service struct {
	credentials CredentialReader
	members     MemberReader
	snapshots   SnapshotStore
	logger      *slog.Logger
	metrics     *benchmetrics.Metrics
	auditor     AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *benchmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func New(credentials CredentialReader, members MemberReader, snapshots SnapshotStore, opts ...Option) *Service {
	s := &Service{
		credentials: credentials,
		members:     members,
		snapshots:   snapshots,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateSnapshot materializes the cohort summary for one partition key and
// upserts it, replacing any prior snapshot for the key. An empty cohort
// still materializes (TotalPeers = 0, nil stats): callers must treat it as
// "no data yet", not an error.
//
// Re-running with unchanged underlying rows yields identical statistics, so
// concurrent generations for the same key are last-writer-wins safe.
func (s *Service) GenerateSnapshot(ctx context.Context, credentialID id.CredentialID, period id.Period, jurisdiction id.Jurisdiction) (*models.BenchmarkSnapshot, error) {
	start := time.Now()
	if credentialID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "credential_id is required")
	}
	if period.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "period is required")
	}
	if _, err := s.credentials.FindByID(ctx, credentialID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}

	cohort, err := s.members.ListByCredential(ctx, credentialID, jurisdiction)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load cohort")
	}

	snapshot := &models.BenchmarkSnapshot{
		CredentialID: credentialID,
		Period:       period,
		Jurisdiction: jurisdiction,
		TotalPeers:   len(cohort),
		Stats:        cohortStats(cohort),
		GeneratedAt:  requestcontext.Now(ctx),
	}

	if err := s.snapshots.Upsert(ctx, snapshot); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store snapshot")
	}

	if s.auditor != nil {
		event := audit.Event{
			Action:   string(audit.EventSnapshotGenerated),
			EntityID: credentialID.String(),
			Detail:   fmt.Sprintf("period=%s jurisdiction=%s peers=%d", period, jurisdiction.Label(), snapshot.TotalPeers),
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "failed to record snapshot audit event", "error", err)
		}
	}

	s.logger.InfoContext(ctx, "benchmark snapshot generated",
		"credential_id", credentialID,
		"period", period,
		"jurisdiction", jurisdiction.Label(),
		"total_peers", snapshot.TotalPeers,
	)
	if s.metrics != nil {
		s.metrics.ObserveSnapshotGenerated(start)
	}
	return snapshot, nil
}

// GetUserBenchmark reports the user's percentile standing for a credential
// against the materialized snapshot for the period, falling back to the ALL
// jurisdiction aggregate when no jurisdiction-specific snapshot exists.
// Percentile ranks are computed live against the current cohort so a user
// always sees their own latest hours reflected.
//
// Returns (nil, nil) when the user does not hold the credential: nothing to
// benchmark is not an error, and callers omit such entries from listings.
func (s *Service) GetUserBenchmark(ctx context.Context, userID id.UserID, credentialID id.CredentialID, period id.Period) (*models.UserBenchmark, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}
	if credentialID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "credential_id is required")
	}
	if period.IsZero() {
		period = PeriodOf(requestcontext.Now(ctx))
	}

	uc, err := s.members.FindByUserAndCredential(ctx, userID, credentialID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user credential")
	}
	if uc == nil {
		return nil, nil
	}

	credential, err := s.credentials.FindByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}

	scope := uc.Jurisdiction
	snapshot, err := s.snapshots.Find(ctx, models.SnapshotKey{
		CredentialID: credentialID, Period: period, Jurisdiction: scope,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load snapshot")
	}
	if snapshot == nil && !scope.IsAll() {
		scope = id.JurisdictionAll
		snapshot, err = s.snapshots.Find(ctx, models.SnapshotKey{
			CredentialID: credentialID, Period: period, Jurisdiction: scope,
		})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load snapshot")
		}
	}

	cohort, err := s.members.ListByCredential(ctx, credentialID, scope)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load cohort")
	}

	totals := make([]float64, 0, len(cohort))
	ethics := make([]float64, 0, len(cohort))
	structured := make([]float64, 0, len(cohort))
	for _, peer := range cohort {
		totals = append(totals, peer.TotalHours)
		ethics = append(ethics, peer.EthicsHours)
		structured = append(structured, peer.StructuredHours)
	}

	benchmark := &models.UserBenchmark{
		CredentialName:       credential.Name,
		Jurisdiction:         scope.Label(),
		UserHours:            uc.TotalHours,
		Percentile:           percentileRank(totals, uc.TotalHours),
		EthicsPercentile:     percentileRank(ethics, uc.EthicsHours),
		StructuredPercentile: percentileRank(structured, uc.StructuredHours),
		TotalPeers:           len(cohort),
	}

	// Snapshot aggregates when materialized; otherwise computed live so the
	// read never fails just because the batch has not run for this period.
	if snapshot != nil {
		benchmark.TotalPeers = snapshot.TotalPeers
		if snapshot.Stats != nil {
			applyStats(benchmark, snapshot.Stats)
		}
	} else if stats := cohortStats(cohort); stats != nil {
		applyStats(benchmark, stats)
	}

	if benchmark.TotalPeers < MinCohortSize {
		benchmark.Message = lowConfidenceMessage
	}

	if s.metrics != nil {
		s.metrics.IncrementBenchmarkLookups()
	}
	return benchmark, nil
}

func applyStats(b *models.UserBenchmark, stats *models.CohortStats) {
	b.AvgHours = stats.AvgHours
	b.MedianHours = stats.MedianHours
	b.P25 = stats.P25
	b.P75 = stats.P75
	b.P90 = stats.P90
	b.AvgEthicsHours = stats.AvgEthicsHours
	b.AvgStructuredHours = stats.AvgStructuredHours
}

// cohortStats computes the snapshot statistics for a cohort, nil when empty.
func cohortStats(cohort []*membermodels.UserCredential) *models.CohortStats {
	if len(cohort) == 0 {
		return nil
	}
	totals := make([]float64, 0, len(cohort))
	ethics := make([]float64, 0, len(cohort))
	structured := make([]float64, 0, len(cohort))
	for _, uc := range cohort {
		totals = append(totals, uc.TotalHours)
		ethics = append(ethics, uc.EthicsHours)
		structured = append(structured, uc.StructuredHours)
	}
	sorted := sortedCopy(totals)
	return &models.CohortStats{
		AvgHours:           mean(totals),
		MedianHours:        median(sorted),
		P25:                percentile(sorted, 25),
		P75:                percentile(sorted, 75),
		P90:                percentile(sorted, 90),
		AvgEthicsHours:     mean(ethics),
		AvgStructuredHours: mean(structured),
	}
}

// PeriodOf maps a point in time to the default calendar-quarter period label
// (e.g. "2026-Q1"). The engine otherwise treats periods as opaque.
func PeriodOf(t time.Time) id.Period {
	t = t.UTC()
	quarter := (int(t.Month())-1)/3 + 1
	return id.Period(fmt.Sprintf("%d-Q%d", t.Year(), quarter))
}
