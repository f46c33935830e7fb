package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	rulemetrics "cetrack/internal/rules/metrics"
	"cetrack/internal/rules/models"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
	"cetrack/pkg/platform/audit"
	"cetrack/pkg/platform/sentinel"
	"cetrack/pkg/requestcontext"
)

// CredentialStore provides credential definitions and their default rules.
type CredentialStore interface {
	FindByID(ctx context.Context, credentialID id.CredentialID) (*models.Credential, error)
	Create(ctx context.Context, credential *models.Credential) error
	ListIDs(ctx context.Context) ([]id.CredentialID, error)
}

// RulePackStore provides versioned rule packs. ListByCredential returns packs
// with EffectiveFrom <= startedBy; pass a far-future bound to list everything.
type RulePackStore interface {
	ListByCredential(ctx context.Context, credentialID id.CredentialID, startedBy time.Time) ([]*models.RulePack, error)
	Create(ctx context.Context, pack *models.RulePack) error
	CloseEffectiveTo(ctx context.Context, packID id.RulePackID, effectiveTo time.Time) error
}

// AuditPublisher records pack lifecycle events for the compliance trail.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service resolves the rules in force for a credential on a date and manages
// the rule-pack publishing lifecycle.
type Service struct {
	credentials CredentialStore
	packs       RulePackStore
	logger      *slog.Logger
	metrics     *rulemetrics.Metrics
	auditor     AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *rulemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func New(credentials CredentialStore, packs RulePackStore, opts ...Option) *Service {
	s := &Service{
		credentials: credentials,
		packs:       packs,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the single rule set in force for the credential on the
// target date. A zero targetDate means "now" (request-scoped clock).
//
// Candidates are packs whose window has started by the target date, ordered
// most recently started first; the first one whose window still covers the
// date wins. Picking the latest start first keeps resolution well-defined
// even when an older pack's window was left open incorrectly: it degrades to
// "most recent start that still covers the date" instead of failing.
//
// A credential with zero packs is not an error; the credential's built-in
// defaults apply and the result carries no pack identity.
func (s *Service) Resolve(ctx context.Context, credentialID id.CredentialID, targetDate time.Time) (*models.ResolvedRules, error) {
	if credentialID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "credential_id is required")
	}
	if targetDate.IsZero() {
		targetDate = requestcontext.Now(ctx)
	}
	target := models.DateOnly(targetDate)

	credential, err := s.credentials.FindByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}

	candidates, err := s.packs.ListByCredential(ctx, credentialID, target)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rule packs")
	}

	// Most recently started first; version breaks same-day starts so two
	// packs published effective the same date resolve deterministically.
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].EffectiveFrom.Equal(candidates[j].EffectiveFrom) {
			return candidates[i].EffectiveFrom.After(candidates[j].EffectiveFrom)
		}
		return candidates[i].Version > candidates[j].Version
	})

	for _, pack := range candidates {
		if !pack.Covers(target) {
			continue
		}
		if s.metrics != nil {
			s.metrics.IncrementResolved(string(models.SourceRulePack))
		}
		packID := pack.ID
		from := pack.EffectiveFrom
		return &models.ResolvedRules{
			Source:        models.SourceRulePack,
			Rules:         pack.Rules,
			Version:       pack.Version,
			PackID:        &packID,
			PackName:      pack.Name,
			EffectiveFrom: &from,
			EffectiveTo:   pack.EffectiveTo,
		}, nil
	}

	if s.metrics != nil {
		s.metrics.IncrementResolved(string(models.SourceCredentialDefaults))
	}
	return &models.ResolvedRules{
		Source: models.SourceCredentialDefaults,
		Rules:  credential.Defaults,
	}, nil
}

// PublishPack publishes a new rule pack for a credential, assigning the next
// version and closing the currently open pack's window the day before the
// new pack takes effect. The closed predecessor is otherwise untouched:
// packs are immutable once published and never deleted.
func (s *Service) PublishPack(ctx context.Context, pack *models.RulePack) (*models.RulePack, error) {
	if pack == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "rule pack is required")
	}
	pack.EffectiveFrom = models.DateOnly(pack.EffectiveFrom)
	if pack.EffectiveTo != nil {
		to := models.DateOnly(*pack.EffectiveTo)
		pack.EffectiveTo = &to
	}
	if err := pack.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.credentials.FindByID(ctx, pack.CredentialID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}

	existing, err := s.packs.ListByCredential(ctx, pack.CredentialID, farFuture)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rule packs")
	}

	maxVersion := 0
	var open *models.RulePack
	for _, p := range existing {
		if p.Version > maxVersion {
			maxVersion = p.Version
		}
		if p.EffectiveTo == nil {
			open = p
		}
	}

	if open != nil {
		supersededAt := pack.EffectiveFrom.AddDate(0, 0, -1)
		if supersededAt.Before(open.EffectiveFrom) {
			return nil, dErrors.New(dErrors.CodeConflict, "new pack starts before the open pack it supersedes")
		}
		if err := s.packs.CloseEffectiveTo(ctx, open.ID, supersededAt); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to supersede open rule pack")
		}
		s.emitAudit(ctx, audit.Event{
			Action:   string(audit.EventRulePackSuperseded),
			EntityID: open.ID.String(),
			Detail:   fmt.Sprintf("effective_to=%s", supersededAt.Format("2006-01-02")),
		})
	}

	pack.ID = id.RulePackID(uuid.New())
	pack.Version = maxVersion + 1
	pack.CreatedAt = requestcontext.Now(ctx)
	if err := s.packs.Create(ctx, pack); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create rule pack")
	}

	s.logger.InfoContext(ctx, "rule pack published",
		"credential_id", pack.CredentialID,
		"pack_id", pack.ID,
		"version", pack.Version,
	)
	if s.metrics != nil {
		s.metrics.IncrementPublished()
	}
	s.emitAudit(ctx, audit.Event{
		Action:   string(audit.EventRulePackPublished),
		EntityID: pack.ID.String(),
		Detail:   fmt.Sprintf("credential_id=%s version=%d effective_from=%s", pack.CredentialID, pack.Version, pack.EffectiveFrom.Format("2006-01-02")),
	})
	return pack, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to record rule pack audit event", "error", err)
	}
}

// ListPacks returns every pack published for a credential, oldest start first.
func (s *Service) ListPacks(ctx context.Context, credentialID id.CredentialID) ([]*models.RulePack, error) {
	if credentialID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "credential_id is required")
	}
	packs, err := s.packs.ListByCredential(ctx, credentialID, farFuture)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load rule packs")
	}
	sort.Slice(packs, func(i, j int) bool {
		return packs[i].EffectiveFrom.Before(packs[j].EffectiveFrom)
	})
	return packs, nil
}

var farFuture = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
