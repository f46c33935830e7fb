package store

import (
	"context"
	"sync"
	"time"

	"cetrack/internal/rules/models"
	id "cetrack/pkg/domain"
	"cetrack/pkg/platform/sentinel"
)

// InMemoryCredentialStore holds credential definitions for tests and
// single-process deployments.
type InMemoryCredentialStore struct {
	mu          sync.RWMutex
	credentials map[id.CredentialID]*models.Credential
}

func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{credentials: make(map[id.CredentialID]*models.Credential)}
}

func (s *InMemoryCredentialStore) FindByID(_ context.Context, credentialID id.CredentialID) (*models.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.credentials[credentialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryCredentialStore) Create(_ context.Context, credential *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.credentials[credential.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *credential
	s.credentials[credential.ID] = &cp
	return nil
}

func (s *InMemoryCredentialStore) ListIDs(_ context.Context) ([]id.CredentialID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]id.CredentialID, 0, len(s.credentials))
	for credentialID := range s.credentials {
		ids = append(ids, credentialID)
	}
	return ids, nil
}

// InMemoryRulePackStore holds published rule packs keyed by credential.
type InMemoryRulePackStore struct {
	mu    sync.RWMutex
	packs map[id.CredentialID][]*models.RulePack
}

func NewInMemoryRulePackStore() *InMemoryRulePackStore {
	return &InMemoryRulePackStore{packs: make(map[id.CredentialID][]*models.RulePack)}
}

func (s *InMemoryRulePackStore) ListByCredential(_ context.Context, credentialID id.CredentialID, startedBy time.Time) ([]*models.RulePack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RulePack
	for _, p := range s.packs[credentialID] {
		if p.EffectiveFrom.After(startedBy) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryRulePackStore) Create(_ context.Context, pack *models.RulePack) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *pack
	s.packs[pack.CredentialID] = append(s.packs[pack.CredentialID], &cp)
	return nil
}

func (s *InMemoryRulePackStore) CloseEffectiveTo(_ context.Context, packID id.RulePackID, effectiveTo time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, packs := range s.packs {
		for _, p := range packs {
			if p.ID == packID {
				to := effectiveTo
				p.EffectiveTo = &to
				return nil
			}
		}
	}
	return sentinel.ErrNotFound
}
