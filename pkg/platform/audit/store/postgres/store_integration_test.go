//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	audit "cetrack/pkg/platform/audit"
	"cetrack/pkg/platform/audit/store/postgres"
	"cetrack/pkg/testutil/containers"
)

type PostgresAuditSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *postgres.Store
}

func TestPostgresAuditSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAuditSuite))
}

func (s *PostgresAuditSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.pg = mgr.GetPostgres(s.T())
	s.store = postgres.New(s.pg.DB)
}

func (s *PostgresAuditSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(context.Background(), "audit_events"))
}

func (s *PostgresAuditSuite) TestAppendAndListByEntity() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	for i := 0; i < 3; i++ {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Action:    string(audit.EventSnapshotGenerated),
			EntityID:  "credential-1",
			Detail:    "period=2026-Q1",
			RequestID: "req-1",
		}))
	}
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		Timestamp: base,
		Action:    string(audit.EventRulePackPublished),
		EntityID:  "pack-1",
	}))

	events, err := s.store.ListByEntity(ctx, "credential-1")
	s.Require().NoError(err)
	s.Require().Len(events, 3)
	s.Equal(string(audit.EventSnapshotGenerated), events[0].Action)
	s.Equal("req-1", events[0].RequestID)

	other, err := s.store.ListByEntity(ctx, "pack-1")
	s.Require().NoError(err)
	s.Len(other, 1)
}

func (s *PostgresAuditSuite) TestListUnknownEntityIsEmpty() {
	events, err := s.store.ListByEntity(context.Background(), "nothing")
	s.Require().NoError(err)
	s.Empty(events)
}
