package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cetrack/internal/benchmark/models"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
)

// =============================================================================
// Batch Runner Test Suite
// =============================================================================
// The runner's contract is isolation: one partition key failing or being
// locked must not affect its siblings, and the report must account for every
// key. Fakes stand in for the service and stores; the lock fake simulates a
// concurrent run holding keys.

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []string
	failFor map[id.CredentialID]error
}

func (f *fakeGenerator) GenerateSnapshot(_ context.Context, credentialID id.CredentialID, period id.Period, jurisdiction id.Jurisdiction) (*models.BenchmarkSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, credentialID.String()+":"+jurisdiction.Label())
	if err, ok := f.failFor[credentialID]; ok {
		return nil, err
	}
	return &models.BenchmarkSnapshot{
		CredentialID: credentialID, Period: period, Jurisdiction: jurisdiction,
	}, nil
}

type fakeCatalog struct {
	credentials   []id.CredentialID
	jurisdictions map[id.CredentialID][]id.Jurisdiction
}

func (f *fakeCatalog) ListIDs(context.Context) ([]id.CredentialID, error) {
	return f.credentials, nil
}

func (f *fakeCatalog) ListCredentialJurisdictions(_ context.Context, credentialID id.CredentialID) ([]id.Jurisdiction, error) {
	return f.jurisdictions[credentialID], nil
}

type heldLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *heldLocker) TryAcquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return false, nil
	}
	return true, nil
}

func (l *heldLocker) Release(context.Context, string) error { return nil }

type BatchRunnerSuite struct {
	suite.Suite
	generator *fakeGenerator
	catalog   *fakeCatalog
}

func TestBatchRunnerSuite(t *testing.T) {
	suite.Run(t, new(BatchRunnerSuite))
}

func (s *BatchRunnerSuite) SetupTest() {
	s.generator = &fakeGenerator{failFor: make(map[id.CredentialID]error)}
	s.catalog = &fakeCatalog{jurisdictions: make(map[id.CredentialID][]id.Jurisdiction)}
}

func (s *BatchRunnerSuite) addCredential(jurisdictions ...id.Jurisdiction) id.CredentialID {
	credentialID := id.CredentialID(uuid.New())
	s.catalog.credentials = append(s.catalog.credentials, credentialID)
	s.catalog.jurisdictions[credentialID] = jurisdictions
	return credentialID
}

func (s *BatchRunnerSuite) newRunner(opts ...Option) *Runner {
	return New(s.generator, s.catalog, s.catalog, opts...)
}

// =============================================================================
// Run Tests
// =============================================================================

func (s *BatchRunnerSuite) TestRun() {
	ctx := context.Background()

	s.Run("generates one key per credential plus jurisdictions", func() {
		s.SetupTest()
		s.addCredential("CA", "NY")
		s.addCredential()

		report, err := s.newRunner().Run(ctx, "2026-Q1")
		s.Require().NoError(err)
		// cred1: ALL + CA + NY, cred2: ALL
		s.Equal(4, report.Generated)
		s.Empty(report.Failures)
		s.Zero(report.Skipped)
		s.Len(s.generator.calls, 4)
	})

	s.Run("missing period is rejected", func() {
		s.SetupTest()
		_, err := s.newRunner().Run(ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("one failing key does not abort its siblings", func() {
		s.SetupTest()
		bad := s.addCredential("CA")
		s.addCredential("CA")
		s.generator.failFor[bad] = errors.New("store unavailable")

		report, err := s.newRunner().Run(ctx, "2026-Q1")
		s.Require().NoError(err)
		s.Equal(2, report.Generated)
		s.Len(report.Failures, 2) // ALL and CA for the failing credential
		for _, f := range report.Failures {
			s.Equal(bad, f.CredentialID)
			s.Contains(f.Err, "store unavailable")
		}
	})

	s.Run("keys locked by another run are skipped, not failed", func() {
		s.SetupTest()
		credentialID := s.addCredential("CA")
		locker := &heldLocker{held: map[string]bool{
			"2026-Q1:" + credentialID.String() + ":CA": true,
		}}

		report, err := s.newRunner(WithLocker(locker)).Run(ctx, "2026-Q1")
		s.Require().NoError(err)
		s.Equal(1, report.Generated) // the ALL key
		s.Equal(1, report.Skipped)
		s.Empty(report.Failures)
	})

	s.Run("empty catalog completes with an empty report", func() {
		s.SetupTest()
		report, err := s.newRunner().Run(ctx, "2026-Q1")
		s.Require().NoError(err)
		s.Zero(report.Generated)
		s.Zero(report.Skipped)
		s.Empty(report.Failures)
	})

	s.Run("bounded concurrency still covers every key", func() {
		s.SetupTest()
		for i := 0; i < 10; i++ {
			s.addCredential("CA", "NY", "TX")
		}

		report, err := s.newRunner(WithConcurrency(2)).Run(ctx, "2026-Q1")
		s.Require().NoError(err)
		s.Equal(40, report.Generated)
	})
}
