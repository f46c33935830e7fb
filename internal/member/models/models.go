package models

import (
	"time"

	id "cetrack/pkg/domain"
)

// UserCredential is a holder's enrollment in a credential within a
// jurisdiction, carrying the hours accumulated in the current cycle.
// One row per (user, credential, jurisdiction); many-to-one with the
// credential definition.
//
// RenewalDeadline and LastActivityAt are nullable on purpose: absence is a
// fact the risk engine must see (a member who never completed onboarding has
// no deadline), never a zero value to fabricate numbers from.
type UserCredential struct {
	UserID          id.UserID       `json:"user_id"`
	CredentialID    id.CredentialID `json:"credential_id"`
	FirmID          id.FirmID       `json:"firm_id"`
	Jurisdiction    id.Jurisdiction `json:"jurisdiction"`
	TotalHours      float64         `json:"total_hours"`
	EthicsHours     float64         `json:"ethics_hours"`
	StructuredHours float64         `json:"structured_hours"`
	RenewalDeadline *time.Time      `json:"renewal_deadline,omitempty"`
	LastActivityAt  *time.Time      `json:"last_activity_at,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Key identifies a row's natural key.
type Key struct {
	UserID       id.UserID
	CredentialID id.CredentialID
	Jurisdiction id.Jurisdiction
}

func (uc *UserCredential) Key() Key {
	return Key{UserID: uc.UserID, CredentialID: uc.CredentialID, Jurisdiction: uc.Jurisdiction}
}
