package domain

import (
	"github.com/google/uuid"
)

// Typed IDs prevent accidental cross-entity mixups (passing a user ID where
// a credential ID is expected fails to compile). Construct from uuid.UUID at
// trust boundaries; direct casting bypasses nothing since the underlying
// type carries no further invariants.

// UserID identifies a credential holder.
type UserID uuid.UUID

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// CredentialID identifies a credential definition.
type CredentialID uuid.UUID

func (id CredentialID) String() string { return uuid.UUID(id).String() }
func (id CredentialID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// RulePackID identifies one published version of a credential's rules.
type RulePackID uuid.UUID

func (id RulePackID) String() string { return uuid.UUID(id).String() }
func (id RulePackID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// FirmID identifies the organization a member belongs to.
type FirmID uuid.UUID

func (id FirmID) String() string { return uuid.UUID(id).String() }
func (id FirmID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseUserID validates and returns a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(u), nil
}

// ParseCredentialID validates and returns a CredentialID.
func ParseCredentialID(s string) (CredentialID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CredentialID{}, err
	}
	return CredentialID(u), nil
}

// ParseFirmID validates and returns a FirmID.
func ParseFirmID(s string) (FirmID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return FirmID{}, err
	}
	return FirmID(u), nil
}
