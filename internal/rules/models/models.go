package models

import (
	"time"

	id "cetrack/pkg/domain"
	dErrors "cetrack/pkg/domain-errors"
)

// RuleSet is the decoded requirement payload every resolution returns,
// regardless of whether it came from a pack or the credential defaults.
// Callers never branch on source to get usable numbers.
type RuleSet struct {
	HoursRequired    float64            `json:"hours_required"`
	EthicsHours      float64            `json:"ethics_hours"`
	StructuredHours  float64            `json:"structured_hours"`
	CycleLengthYears int                `json:"cycle_length_years"`
	CategoryRules    map[string]float64 `json:"category_rules,omitempty"`
}

// Credential is the base entity a RulePack versions. Defaults apply when no
// pack covers the queried date.
type Credential struct {
	ID       id.CredentialID `json:"id"`
	Name     string          `json:"name"`
	Defaults RuleSet         `json:"defaults"`
}

// RulePack is a versioned, time-bounded rule set for one credential.
//
// Invariants:
//   - Version is monotonic per credential
//   - EffectiveFrom/EffectiveTo are inclusive calendar dates (UTC midnight);
//     a nil EffectiveTo means open-ended
//   - Immutable once published, except closing EffectiveTo when superseded
//   - Never physically deleted: historical resolution must stay reproducible
//
// Overlapping windows are tolerated as malformed data; the resolver's
// latest-start-wins tie-break keeps resolution well-defined (see resolver).
type RulePack struct {
	ID            id.RulePackID   `json:"id"`
	CredentialID  id.CredentialID `json:"credential_id"`
	Name          string          `json:"name"`
	Version       int             `json:"version"`
	EffectiveFrom time.Time       `json:"effective_from"`
	EffectiveTo   *time.Time      `json:"effective_to,omitempty"`
	Rules         RuleSet         `json:"rules"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Covers reports whether the pack's window contains the target date.
// Both bounds are inclusive.
func (p *RulePack) Covers(target time.Time) bool {
	if p.EffectiveFrom.After(target) {
		return false
	}
	return p.EffectiveTo == nil || !p.EffectiveTo.Before(target)
}

// Validate enforces construction invariants for a pack about to be published.
func (p *RulePack) Validate() error {
	if p.CredentialID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "credential_id is required")
	}
	if p.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "rule pack name is required")
	}
	if p.EffectiveFrom.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "effective_from is required")
	}
	if p.EffectiveTo != nil && p.EffectiveTo.Before(p.EffectiveFrom) {
		return dErrors.New(dErrors.CodeInvariantViolation, "effective_to precedes effective_from")
	}
	if p.Rules.HoursRequired < 0 || p.Rules.EthicsHours < 0 || p.Rules.StructuredHours < 0 {
		return dErrors.New(dErrors.CodeBadRequest, "rule hours must be non-negative")
	}
	return nil
}

// ResolvedSource tags where a resolution's rules came from.
type ResolvedSource string

const (
	SourceRulePack           ResolvedSource = "rule_pack"
	SourceCredentialDefaults ResolvedSource = "credential_defaults"
)

// ResolvedRules is the resolver's output: the rule payload in force on the
// target date plus the identity of the pack that supplied it, if any.
// Pack identity fields are empty when Source is credential_defaults.
type ResolvedRules struct {
	Source        ResolvedSource `json:"source"`
	Rules         RuleSet        `json:"rules"`
	Version       int            `json:"version,omitempty"`
	PackID        *id.RulePackID `json:"pack_id,omitempty"`
	PackName      string         `json:"pack_name,omitempty"`
	EffectiveFrom *time.Time     `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time     `json:"effective_to,omitempty"`
}

// DateOnly normalizes a timestamp to its UTC calendar date. All effective
// window comparisons happen at this granularity.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
