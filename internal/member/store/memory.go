package store

import (
	"context"
	"sync"

	"cetrack/internal/member/models"
	id "cetrack/pkg/domain"
)

// InMemoryUserCredentialStore holds enrollment rows for tests and
// single-process deployments.
type InMemoryUserCredentialStore struct {
	mu   sync.RWMutex
	rows map[models.Key]*models.UserCredential
}

func NewInMemoryUserCredentialStore() *InMemoryUserCredentialStore {
	return &InMemoryUserCredentialStore{rows: make(map[models.Key]*models.UserCredential)}
}

// Upsert inserts or replaces a row by its natural key.
func (s *InMemoryUserCredentialStore) Upsert(_ context.Context, uc *models.UserCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *uc
	s.rows[uc.Key()] = &cp
	return nil
}

// ListByCredential returns every enrollment for the credential, optionally
// scoped to a jurisdiction. The ALL key matches every jurisdiction.
func (s *InMemoryUserCredentialStore) ListByCredential(_ context.Context, credentialID id.CredentialID, jurisdiction id.Jurisdiction) ([]*models.UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserCredential
	for _, row := range s.rows {
		if row.CredentialID != credentialID {
			continue
		}
		if !jurisdiction.IsAll() && row.Jurisdiction != jurisdiction {
			continue
		}
		cp := *row
		out = append(out, &cp)
	}
	return out, nil
}

// FindByUserAndCredential returns the user's enrollment for a credential, or
// nil when the user does not hold it.
func (s *InMemoryUserCredentialStore) FindByUserAndCredential(_ context.Context, userID id.UserID, credentialID id.CredentialID) (*models.UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, row := range s.rows {
		if row.UserID == userID && row.CredentialID == credentialID {
			cp := *row
			return &cp, nil
		}
	}
	return nil, nil
}

// ListCredentialJurisdictions returns the distinct jurisdictions with at
// least one enrollment for the credential.
func (s *InMemoryUserCredentialStore) ListCredentialJurisdictions(_ context.Context, credentialID id.CredentialID) ([]id.Jurisdiction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[id.Jurisdiction]struct{})
	var out []id.Jurisdiction
	for _, row := range s.rows {
		if row.CredentialID != credentialID {
			continue
		}
		if _, ok := seen[row.Jurisdiction]; ok {
			continue
		}
		seen[row.Jurisdiction] = struct{}{}
		out = append(out, row.Jurisdiction)
	}
	return out, nil
}

// ListByFirm returns every enrollment held by the firm's members.
func (s *InMemoryUserCredentialStore) ListByFirm(_ context.Context, firmID id.FirmID) ([]*models.UserCredential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserCredential
	for _, row := range s.rows {
		if row.FirmID != firmID {
			continue
		}
		cp := *row
		out = append(out, &cp)
	}
	return out, nil
}
