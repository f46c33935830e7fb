// Package batch materializes benchmark snapshots for every
// credential × jurisdiction partition in one run.
//
// Partition keys are independent: failures are collected per key and never
// abort sibling keys, and concurrency is bounded so a large credential
// catalog cannot overwhelm the persistence layer.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	benchmetrics "cetrack/internal/benchmark/metrics"
	"cetrack/internal/benchmark/models"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
	"cetrack/pkg/platform/audit"
	"cetrack/pkg/requestcontext"
)

// SnapshotGenerator is the slice of the benchmark service the runner needs.
type SnapshotGenerator interface {
	GenerateSnapshot(ctx context.Context, credentialID id.CredentialID, period id.Period, jurisdiction id.Jurisdiction) (*models.BenchmarkSnapshot, error)
}

// CredentialLister enumerates the credentials to snapshot.
type CredentialLister interface {
	ListIDs(ctx context.Context) ([]id.CredentialID, error)
}

// JurisdictionLister enumerates the jurisdictions with enrollments per
// credential.
type JurisdictionLister interface {
	ListCredentialJurisdictions(ctx context.Context, credentialID id.CredentialID) ([]id.Jurisdiction, error)
}

// AuditPublisher records completed batch runs.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// KeyFailure is one partition key that failed during a run.
type KeyFailure struct {
	CredentialID id.CredentialID `json:"credential_id"`
	Jurisdiction string          `json:"jurisdiction"`
	Err          string          `json:"error"`
}

// Report summarizes one batch run. A run with failures is still a completed
// run; callers inspect Failures rather than receiving an error.
type Report struct {
	Period    id.Period    `json:"period"`
	Generated int          `json:"generated"`
	Skipped   int          `json:"skipped"`
	Failures  []KeyFailure `json:"failures,omitempty"`
	Duration  time.Duration `json:"-"`
}

// Runner fans snapshot generation out over partition keys.
type Runner struct {
	generator     SnapshotGenerator
	credentials   CredentialLister
	jurisdictions JurisdictionLister
	locker        Locker
	logger        *slog.Logger
	metrics       *benchmetrics.Metrics
	auditor       AuditPublisher
	concurrency   int
	lockTTL       time.Duration
}

type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

func WithMetrics(m *benchmetrics.Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(r *Runner) { r.auditor = p }
}

// WithLocker installs a cross-process lock (see Locker).
func WithLocker(l Locker) Option {
	return func(r *Runner) { r.locker = l }
}

// WithConcurrency bounds the number of partition keys generated in parallel.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

func New(generator SnapshotGenerator, credentials CredentialLister, jurisdictions JurisdictionLister, opts ...Option) *Runner {
	r := &Runner{
		generator:     generator,
		credentials:   credentials,
		jurisdictions: jurisdictions,
		locker:        noopLocker{},
		logger:        slog.Default(),
		concurrency:   4,
		lockTTL:       time.Minute,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type partitionKey struct {
	credentialID id.CredentialID
	jurisdiction id.Jurisdiction
}

func (k partitionKey) String() string {
	return k.credentialID.String() + ":" + k.jurisdiction.Label()
}

// Run generates one snapshot per credential × jurisdiction pair (plus the
// ALL aggregate per credential) for the period. Keys whose lock is held by
// another run are skipped; keys that fail are reported, not fatal. One
// consistent request time is injected for the whole run so every snapshot
// in it carries the same GeneratedAt.
func (r *Runner) Run(ctx context.Context, period id.Period) (*Report, error) {
	start := time.Now()
	if period.IsZero() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "period is required")
	}
	ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))

	credentialIDs, err := r.credentials.ListIDs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list credentials")
	}

	var keys []partitionKey
	for _, credentialID := range credentialIDs {
		keys = append(keys, partitionKey{credentialID: credentialID, jurisdiction: id.JurisdictionAll})
		jurisdictions, err := r.jurisdictions.ListCredentialJurisdictions(ctx, credentialID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list jurisdictions")
		}
		for _, j := range jurisdictions {
			if j.IsAll() {
				continue
			}
			keys = append(keys, partitionKey{credentialID: credentialID, jurisdiction: j})
		}
	}

	report := &Report{Period: period}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for _, key := range keys {
		g.Go(func() error {
			held, err := r.locker.TryAcquire(gctx, string(period)+":"+key.String(), r.lockTTL)
			if err != nil {
				r.record(report, &mu, key, fmt.Errorf("acquire lock: %w", err))
				return nil
			}
			if !held {
				mu.Lock()
				report.Skipped++
				mu.Unlock()
				return nil
			}
			defer func() {
				_ = r.locker.Release(gctx, string(period)+":"+key.String())
			}()

			if _, err := r.generator.GenerateSnapshot(gctx, key.credentialID, period, key.jurisdiction); err != nil {
				r.record(report, &mu, key, err)
				return nil
			}
			mu.Lock()
			report.Generated++
			mu.Unlock()
			return nil
		})
	}
	// Worker funcs never return errors; Wait only propagates ctx cancellation.
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "batch run interrupted")
	}

	report.Duration = time.Since(start)
	r.logger.InfoContext(ctx, "snapshot batch run completed",
		"period", period,
		"generated", report.Generated,
		"skipped", report.Skipped,
		"failed", len(report.Failures),
		"duration", report.Duration,
	)
	if r.auditor != nil {
		event := audit.Event{
			Action:   string(audit.EventSnapshotBatchRun),
			EntityID: string(period),
			Detail:   fmt.Sprintf("generated=%d skipped=%d failed=%d", report.Generated, report.Skipped, len(report.Failures)),
		}
		if err := r.auditor.Emit(ctx, event); err != nil {
			r.logger.ErrorContext(ctx, "failed to record batch audit event", "error", err)
		}
	}
	return report, nil
}

func (r *Runner) record(report *Report, mu *sync.Mutex, key partitionKey, err error) {
	r.logger.ErrorContext(context.Background(), "snapshot generation failed",
		"credential_id", key.credentialID,
		"jurisdiction", key.jurisdiction.Label(),
		"error", err,
	)
	if r.metrics != nil {
		r.metrics.IncrementBatchFailures()
	}
	mu.Lock()
	report.Failures = append(report.Failures, KeyFailure{
		CredentialID: key.credentialID,
		Jurisdiction: key.jurisdiction.Label(),
		Err:          err.Error(),
	})
	mu.Unlock()
}
