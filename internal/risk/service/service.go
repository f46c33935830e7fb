package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	membermodels "cetrack/internal/member/models"
	riskmetrics "cetrack/internal/risk/metrics"
	"cetrack/internal/risk/models"
	"cetrack/internal/risk/policy"
	rulemodels "cetrack/internal/rules/models"
	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
	"cetrack/pkg/platform/sentinel"
	"cetrack/pkg/requestcontext"
)

// RuleResolver supplies the hours requirement in force for a credential on
// the scoring date. Wired to the rules service.
type RuleResolver interface {
	Resolve(ctx context.Context, credentialID id.CredentialID, targetDate time.Time) (*rulemodels.ResolvedRules, error)
}

// CredentialReader supplies credential names for roster output.
type CredentialReader interface {
	FindByID(ctx context.Context, credentialID id.CredentialID) (*rulemodels.Credential, error)
}

// MemberReader supplies the enrollment rows a score is computed from.
type MemberReader interface {
	ListByFirm(ctx context.Context, firmID id.FirmID) ([]*membermodels.UserCredential, error)
}

// Service derives member risk profiles. Profiles are pure functions of the
// current rows plus the scoring policy; nothing here is cached or persisted.
type Service struct {
	resolver    RuleResolver
	credentials CredentialReader
	members     MemberReader
	policy      policy.Policy
	logger      *slog.Logger
	metrics     *riskmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *riskmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPolicy overrides the default scoring policy.
func WithPolicy(p policy.Policy) Option {
	return func(s *Service) { s.policy = p }
}

func New(resolver RuleResolver, credentials CredentialReader, members MemberReader, opts ...Option) (*Service, error) {
	s := &Service{
		resolver:    resolver,
		credentials: credentials,
		members:     members,
		policy:      policy.DefaultPolicy(),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid risk policy")
	}
	return s, nil
}

// ScoreFirm computes a risk profile for every scoreable member of the firm.
// Members whose credentials all lack deadline information are omitted, not
// given an artificial score: callers filter them out of ranked views rather
// than mislead triage. Ordering is the caller's concern.
func (s *Service) ScoreFirm(ctx context.Context, firmID id.FirmID) ([]*models.MemberRiskProfile, error) {
	start := time.Now()
	if firmID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "firm_id is required")
	}

	rows, err := s.members.ListByFirm(ctx, firmID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load firm members")
	}

	byUser := make(map[id.UserID][]*membermodels.UserCredential)
	var order []id.UserID
	for _, row := range rows {
		if _, seen := byUser[row.UserID]; !seen {
			order = append(order, row.UserID)
		}
		byUser[row.UserID] = append(byUser[row.UserID], row)
	}

	profiles := make([]*models.MemberRiskProfile, 0, len(order))
	for _, userID := range order {
		profile, err := s.ScoreMember(ctx, userID, byUser[userID])
		if err != nil {
			return nil, err
		}
		if profile == nil {
			continue
		}
		profiles = append(profiles, profile)
	}

	if s.metrics != nil {
		s.metrics.ObserveFirmScored(start, len(profiles))
	}
	return profiles, nil
}

// ScoreMember derives one member's profile from their enrollment rows.
// Returns nil when no credential is scoreable (no deadline anywhere).
func (s *Service) ScoreMember(ctx context.Context, userID id.UserID, rows []*membermodels.UserCredential) (*models.MemberRiskProfile, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user_id is required")
	}
	now := requestcontext.Now(ctx)

	var (
		statuses     []models.CredentialStatus
		worst        *models.CredentialStatus
		lastActivity *time.Time
	)
	for _, row := range rows {
		if row.LastActivityAt != nil && (lastActivity == nil || row.LastActivityAt.After(*lastActivity)) {
			t := *row.LastActivityAt
			lastActivity = &t
		}
		// No deadline means onboarding never finished for this credential;
		// skip it instead of fabricating "0 days remaining".
		if row.RenewalDeadline == nil {
			continue
		}

		status, err := s.scoreCredential(ctx, row, now)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
		if worst == nil || status.RiskScore > worst.RiskScore {
			worst = &statuses[len(statuses)-1]
		}
	}

	if worst == nil {
		return nil, nil
	}

	return &models.MemberRiskProfile{
		UserID:             userID,
		RiskScore:          worst.RiskScore,
		RiskLevel:          worst.RiskLevel,
		CompletionPct:      worst.CompletionPct,
		DaysUntilDeadline:  worst.DaysUntilDeadline,
		LastActivityDate:   lastActivity,
		CredentialStatuses: statuses,
	}, nil
}

func (s *Service) scoreCredential(ctx context.Context, row *membermodels.UserCredential, now time.Time) (*models.CredentialStatus, error) {
	resolved, err := s.resolver.Resolve(ctx, row.CredentialID, now)
	if err != nil {
		return nil, err
	}
	credential, err := s.credentials.FindByID(ctx, row.CredentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}

	required := resolved.Rules.HoursRequired
	days := daysUntil(now, *row.RenewalDeadline)

	hoursFactor := s.hoursFactor(required, row.TotalHours)
	deadlineFactor := s.deadlineFactor(days)
	activityFactor := s.activityFactor(now, row.LastActivityAt)

	p := s.policy
	weighted := (p.HoursWeight*hoursFactor + p.DeadlineWeight*deadlineFactor + p.ActivityWeight*activityFactor) / p.WeightSum()
	score := int(math.Round(100 * weighted))

	completionPct := 100.0
	if required > 0 {
		completionPct = math.Min(100, row.TotalHours/required*100)
	}

	return &models.CredentialStatus{
		CredentialID:      row.CredentialID,
		CredentialName:    credential.Name,
		Jurisdiction:      row.Jurisdiction.Label(),
		RiskScore:         score,
		RiskLevel:         p.LevelFor(score),
		CompletionPct:     completionPct,
		DaysUntilDeadline: days,
		HoursCompleted:    row.TotalHours,
		HoursRequired:     required,
	}, nil
}

// hoursFactor is the unfinished share of the requirement, clamped to [0,1].
// A zero requirement means nothing is owed: factor 0.
func (s *Service) hoursFactor(required, completed float64) float64 {
	if required <= 0 {
		return 0
	}
	return clamp01((required - completed) / required)
}

// deadlineFactor scales inversely with days remaining: past due is maximum
// pressure, at or beyond the horizon is none, linear in between.
func (s *Service) deadlineFactor(daysRemaining int) float64 {
	horizon := s.policy.DeadlineHorizonDays
	if daysRemaining < 0 {
		return 1
	}
	if daysRemaining >= horizon {
		return 0
	}
	return 1 - float64(daysRemaining)/float64(horizon)
}

// activityFactor rises with staleness: activity today is 0, no recorded
// activity (or activity older than the window) saturates at 1.
func (s *Service) activityFactor(now time.Time, lastActivity *time.Time) float64 {
	if lastActivity == nil {
		return 1
	}
	window := s.policy.ActivityStalenessDays
	stale := daysUntil(*lastActivity, now)
	if stale < 0 {
		return 0
	}
	if stale >= window {
		return 1
	}
	return float64(stale) / float64(window)
}

func daysUntil(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
