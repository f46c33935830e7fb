package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"cetrack/internal/rules/models"
	"cetrack/internal/rules/store"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
)

// =============================================================================
// Rules Service Test Suite
// =============================================================================
// Resolution is pure date arithmetic over the pack timeline and publication
// is the only write path that mutates it, so both are exercised here against
// the in-memory stores rather than through HTTP.

type RulesServiceSuite struct {
	suite.Suite
	credentials *store.InMemoryCredentialStore
	packs       *store.InMemoryRulePackStore
	service     *Service
}

func TestRulesServiceSuite(t *testing.T) {
	suite.Run(t, new(RulesServiceSuite))
}

func (s *RulesServiceSuite) SetupTest() {
	s.credentials = store.NewInMemoryCredentialStore()
	s.packs = store.NewInMemoryRulePackStore()
	s.service = New(s.credentials, s.packs)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *RulesServiceSuite) newCredential(hours float64) *models.Credential {
	c := &models.Credential{
		ID:   id.CredentialID(uuid.New()),
		Name: "Certified Example Planner",
		Defaults: models.RuleSet{
			HoursRequired:    hours,
			EthicsHours:      2,
			CycleLengthYears: 1,
		},
	}
	s.Require().NoError(s.credentials.Create(context.Background(), c))
	return c
}

func (s *RulesServiceSuite) publish(credentialID id.CredentialID, from time.Time, to *time.Time, hours float64) *models.RulePack {
	pack, err := s.service.PublishPack(context.Background(), &models.RulePack{
		CredentialID:  credentialID,
		Name:          "pack",
		EffectiveFrom: from,
		EffectiveTo:   to,
		Rules:         models.RuleSet{HoursRequired: hours, CycleLengthYears: 1},
	})
	s.Require().NoError(err)
	return pack
}

// =============================================================================
// Resolve Tests
// =============================================================================

func (s *RulesServiceSuite) TestResolve() {
	ctx := context.Background()

	s.Run("missing credential returns not found", func() {
		_, err := s.service.Resolve(ctx, id.CredentialID(uuid.New()), date(2026, 3, 1))
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("nil credential id is rejected", func() {
		_, err := s.service.Resolve(ctx, id.CredentialID{}, date(2026, 3, 1))
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("no packs falls back to credential defaults", func() {
		cred := s.newCredential(30)

		resolved, err := s.service.Resolve(ctx, cred.ID, date(2026, 3, 1))
		s.Require().NoError(err)
		s.Equal(models.SourceCredentialDefaults, resolved.Source)
		s.Equal(30.0, resolved.Rules.HoursRequired)
		s.Nil(resolved.PackID)
		s.Zero(resolved.Version)
	})

	s.Run("date inside a pack window resolves to that pack", func() {
		cred := s.newCredential(30)
		to := date(2026, 12, 31)
		pack := s.publish(cred.ID, date(2026, 1, 1), &to, 40)

		resolved, err := s.service.Resolve(ctx, cred.ID, date(2026, 6, 15))
		s.Require().NoError(err)
		s.Equal(models.SourceRulePack, resolved.Source)
		s.Equal(40.0, resolved.Rules.HoursRequired)
		s.Require().NotNil(resolved.PackID)
		s.Equal(pack.ID, *resolved.PackID)
	})

	s.Run("window bounds are inclusive on both ends", func() {
		cred := s.newCredential(30)
		to := date(2026, 6, 30)
		s.publish(cred.ID, date(2026, 1, 1), &to, 40)

		first, err := s.service.Resolve(ctx, cred.ID, date(2026, 1, 1))
		s.Require().NoError(err)
		s.Equal(models.SourceRulePack, first.Source)

		last, err := s.service.Resolve(ctx, cred.ID, date(2026, 6, 30))
		s.Require().NoError(err)
		s.Equal(models.SourceRulePack, last.Source)

		after, err := s.service.Resolve(ctx, cred.ID, date(2026, 7, 1))
		s.Require().NoError(err)
		s.Equal(models.SourceCredentialDefaults, after.Source)
	})

	s.Run("date before every pack uses defaults", func() {
		cred := s.newCredential(30)
		s.publish(cred.ID, date(2026, 6, 1), nil, 40)

		resolved, err := s.service.Resolve(ctx, cred.ID, date(2026, 1, 1))
		s.Require().NoError(err)
		s.Equal(models.SourceCredentialDefaults, resolved.Source)
	})

	s.Run("overlapping windows resolve to the latest start", func() {
		cred := s.newCredential(30)

		// Publishing the second pack closes the first the day before, but an
		// explicit overlapping window can still be constructed directly.
		openEnd := date(2027, 12, 31)
		s.Require().NoError(s.packs.Create(ctx, &models.RulePack{
			ID: id.RulePackID(uuid.New()), CredentialID: cred.ID, Name: "older",
			Version: 1, EffectiveFrom: date(2026, 1, 1), EffectiveTo: &openEnd,
			Rules: models.RuleSet{HoursRequired: 35, CycleLengthYears: 1},
		}))
		s.Require().NoError(s.packs.Create(ctx, &models.RulePack{
			ID: id.RulePackID(uuid.New()), CredentialID: cred.ID, Name: "newer",
			Version: 2, EffectiveFrom: date(2026, 6, 1), EffectiveTo: &openEnd,
			Rules: models.RuleSet{HoursRequired: 45, CycleLengthYears: 1},
		}))

		resolved, err := s.service.Resolve(ctx, cred.ID, date(2026, 7, 1))
		s.Require().NoError(err)
		s.Equal(45.0, resolved.Rules.HoursRequired)
	})

	s.Run("same-day starts break the tie by version", func() {
		cred := s.newCredential(30)
		start := date(2026, 1, 1)
		s.Require().NoError(s.packs.Create(ctx, &models.RulePack{
			ID: id.RulePackID(uuid.New()), CredentialID: cred.ID, Name: "v1",
			Version: 1, EffectiveFrom: start,
			Rules: models.RuleSet{HoursRequired: 35, CycleLengthYears: 1},
		}))
		s.Require().NoError(s.packs.Create(ctx, &models.RulePack{
			ID: id.RulePackID(uuid.New()), CredentialID: cred.ID, Name: "v2",
			Version: 2, EffectiveFrom: start,
			Rules: models.RuleSet{HoursRequired: 45, CycleLengthYears: 1},
		}))

		resolved, err := s.service.Resolve(ctx, cred.ID, date(2026, 2, 1))
		s.Require().NoError(err)
		s.Equal(2, resolved.Version)
		s.Equal(45.0, resolved.Rules.HoursRequired)
	})

	s.Run("time-of-day is ignored in the target date", func() {
		cred := s.newCredential(30)
		to := date(2026, 6, 30)
		s.publish(cred.ID, date(2026, 1, 1), &to, 40)

		resolved, err := s.service.Resolve(ctx, cred.ID,
			time.Date(2026, 6, 30, 23, 59, 59, 0, time.UTC))
		s.Require().NoError(err)
		s.Equal(models.SourceRulePack, resolved.Source)
	})
}

// =============================================================================
// PublishPack Tests
// =============================================================================

func (s *RulesServiceSuite) TestPublishPack() {
	ctx := context.Background()

	s.Run("first pack gets version 1", func() {
		cred := s.newCredential(30)
		pack := s.publish(cred.ID, date(2026, 1, 1), nil, 40)
		s.Equal(1, pack.Version)
		s.False(pack.ID.IsNil())
	})

	s.Run("publishing closes the open predecessor the day before", func() {
		cred := s.newCredential(30)
		first := s.publish(cred.ID, date(2026, 1, 1), nil, 40)
		second := s.publish(cred.ID, date(2026, 7, 1), nil, 50)
		s.Equal(2, second.Version)

		packs, err := s.service.ListPacks(ctx, cred.ID)
		s.Require().NoError(err)
		s.Require().Len(packs, 2)
		s.Equal(first.ID, packs[0].ID)
		s.Require().NotNil(packs[0].EffectiveTo)
		s.Equal(date(2026, 6, 30), *packs[0].EffectiveTo)
		s.Nil(packs[1].EffectiveTo)
	})

	s.Run("new pack starting before the open pack is a conflict", func() {
		cred := s.newCredential(30)
		s.publish(cred.ID, date(2026, 6, 1), nil, 40)

		_, err := s.service.PublishPack(ctx, &models.RulePack{
			CredentialID:  cred.ID,
			Name:          "early",
			EffectiveFrom: date(2026, 1, 1),
			Rules:         models.RuleSet{HoursRequired: 50, CycleLengthYears: 1},
		})
		s.Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown credential is rejected", func() {
		_, err := s.service.PublishPack(ctx, &models.RulePack{
			CredentialID:  id.CredentialID(uuid.New()),
			Name:          "orphan",
			EffectiveFrom: date(2026, 1, 1),
			Rules:         models.RuleSet{HoursRequired: 50, CycleLengthYears: 1},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("invalid window is rejected", func() {
		cred := s.newCredential(30)
		to := date(2025, 1, 1)
		_, err := s.service.PublishPack(ctx, &models.RulePack{
			CredentialID:  cred.ID,
			Name:          "backwards",
			EffectiveFrom: date(2026, 1, 1),
			EffectiveTo:   &to,
			Rules:         models.RuleSet{HoursRequired: 50, CycleLengthYears: 1},
		})
		s.Error(err)
	})

	s.Run("resolution follows the transition date", func() {
		cred := s.newCredential(30)
		s.publish(cred.ID, date(2026, 1, 1), nil, 40)
		s.publish(cred.ID, date(2026, 7, 1), nil, 50)

		before, err := s.service.Resolve(ctx, cred.ID, date(2026, 6, 30))
		s.Require().NoError(err)
		s.Equal(40.0, before.Rules.HoursRequired)

		after, err := s.service.Resolve(ctx, cred.ID, date(2026, 7, 1))
		s.Require().NoError(err)
		s.Equal(50.0, after.Rules.HoursRequired)
	})
}
