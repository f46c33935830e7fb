//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cetrack/internal/rules/models"
	"cetrack/internal/rules/store"
	id "cetrack/pkg/domain"
	"cetrack/pkg/platform/sentinel"
	"cetrack/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres    *containers.PostgresContainer
	credentials *store.PostgresCredentialStore
	packs       *store.PostgresRulePackStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.credentials = store.NewPostgresCredentialStore(s.postgres.DB)
	s.packs = store.NewPostgresRulePackStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order
	err := s.postgres.TruncateTables(ctx, "rule_packs", "credentials")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newCredential() *models.Credential {
	c := &models.Credential{
		ID:   id.CredentialID(uuid.New()),
		Name: "Certified Example Planner",
		Defaults: models.RuleSet{
			HoursRequired:    30,
			EthicsHours:      2,
			CycleLengthYears: 1,
			CategoryRules:    map[string]float64{"ethics": 2},
		},
	}
	s.Require().NoError(s.credentials.Create(context.Background(), c))
	return c
}

func (s *PostgresStoreSuite) newPack(credentialID id.CredentialID, version int, from time.Time, to *time.Time) *models.RulePack {
	pack := &models.RulePack{
		ID:            id.RulePackID(uuid.New()),
		CredentialID:  credentialID,
		Name:          "cycle rules",
		Version:       version,
		EffectiveFrom: from,
		EffectiveTo:   to,
		Rules:         models.RuleSet{HoursRequired: 40, CycleLengthYears: 1},
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.packs.Create(context.Background(), pack))
	return pack
}

func (s *PostgresStoreSuite) TestCredentialRoundTrip() {
	ctx := context.Background()
	created := s.newCredential()

	got, err := s.credentials.FindByID(ctx, created.ID)
	s.Require().NoError(err)
	s.Equal(created.Name, got.Name)
	s.Equal(created.Defaults, got.Defaults)
}

func (s *PostgresStoreSuite) TestCredentialNotFound() {
	_, err := s.credentials.FindByID(context.Background(), id.CredentialID(uuid.New()))
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestListIDs() {
	ctx := context.Background()
	a := s.newCredential()
	b := s.newCredential()

	ids, err := s.credentials.ListIDs(ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]id.CredentialID{a.ID, b.ID}, ids)
}

func (s *PostgresStoreSuite) TestListByCredentialFiltersByStart() {
	ctx := context.Background()
	cred := s.newCredential()
	early := s.newPack(cred.ID, 1, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	s.newPack(cred.ID, 2, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), nil)

	packs, err := s.packs.ListByCredential(ctx, cred.ID, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Require().Len(packs, 1)
	s.Equal(early.ID, packs[0].ID)
	s.Equal(early.EffectiveFrom, packs[0].EffectiveFrom)
	s.Nil(packs[0].EffectiveTo)
	s.Equal(40.0, packs[0].Rules.HoursRequired)
}

func (s *PostgresStoreSuite) TestCloseEffectiveTo() {
	ctx := context.Background()
	cred := s.newCredential()
	pack := s.newPack(cred.ID, 1, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	closeAt := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.packs.CloseEffectiveTo(ctx, pack.ID, closeAt))

	packs, err := s.packs.ListByCredential(ctx, cred.ID, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Require().Len(packs, 1)
	s.Require().NotNil(packs[0].EffectiveTo)
	s.Equal(closeAt, *packs[0].EffectiveTo)
}

func (s *PostgresStoreSuite) TestCloseEffectiveToMissingPack() {
	err := s.packs.CloseEffectiveTo(context.Background(), id.RulePackID(uuid.New()), time.Now())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestSameDayVersionsOrderDescending() {
	ctx := context.Background()
	cred := s.newCredential()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.newPack(cred.ID, 1, start, nil)
	s.newPack(cred.ID, 2, start, nil)

	packs, err := s.packs.ListByCredential(ctx, cred.ID, start)
	s.Require().NoError(err)
	s.Require().Len(packs, 2)
	s.Equal(2, packs[0].Version)
}
