package models

import (
	"time"

	id "cetrack/pkg/domain"
)

// RiskLevel is the categorical bucketing of a risk score. Band boundaries
// are inclusive on the lower end (see policy.LevelFor).
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// CredentialStatus is one credential's contribution to a member's risk.
type CredentialStatus struct {
	CredentialID      id.CredentialID `json:"credential_id"`
	CredentialName    string          `json:"credential_name"`
	Jurisdiction      string          `json:"jurisdiction"`
	RiskScore         int             `json:"risk_score"`
	RiskLevel         RiskLevel       `json:"risk_level"`
	CompletionPct     float64         `json:"completion_pct"`
	DaysUntilDeadline int             `json:"days_until_deadline"`
	HoursCompleted    float64         `json:"hours_completed"`
	HoursRequired     float64         `json:"hours_required"`
}

// MemberRiskProfile is derived, never persisted: it is recomputed from
// current data on every request because a stale score would mislead triage.
//
// The member-level score is the maximum of the per-credential scores (the
// worst-compliance credential drives overall risk); CompletionPct and
// DaysUntilDeadline come from that worst credential, while
// LastActivityDate is the member's most recent activity across all
// credentials.
type MemberRiskProfile struct {
	UserID             id.UserID          `json:"user_id"`
	RiskScore          int                `json:"risk_score"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	CompletionPct      float64            `json:"completion_pct"`
	DaysUntilDeadline  int                `json:"days_until_deadline"`
	LastActivityDate   *time.Time         `json:"last_activity_date,omitempty"`
	CredentialStatuses []CredentialStatus `json:"credential_statuses"`
}
