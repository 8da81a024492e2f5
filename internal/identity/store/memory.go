package store

import (
	"context"
	"sync"
	"time"

	"xup/internal/identity/models"
	id "xup/pkg/domain"
	"xup/pkg/platform/sentinel"
)

// InMemory keeps credentials in process. Expired records are evicted lazily
// on insert and by DeleteExpired.
type InMemory struct {
	mu           sync.Mutex
	byID         map[id.CredentialID]*models.Credential
	byIdentifier map[models.Identifier]id.CredentialID
	byCode       map[string]id.CredentialID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:         make(map[id.CredentialID]*models.Credential),
		byIdentifier: make(map[models.Identifier]id.CredentialID),
		byCode:       make(map[string]id.CredentialID),
	}
}

func (s *InMemory) CreateIfAbsent(_ context.Context, c *models.Credential, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byIdentifier[c.Identifier]; ok {
		if !s.byID[existingID].IsExpired(now) {
			return ErrIdentifierTaken
		}
		s.remove(existingID)
	}
	if existingID, ok := s.byCode[c.Code]; ok {
		if !s.byID[existingID].IsExpired(now) {
			return ErrCodeTaken
		}
		s.remove(existingID)
	}

	stored := *c
	s.byID[c.ID] = &stored
	s.byIdentifier[c.Identifier] = c.ID
	s.byCode[c.Code] = c.ID
	return nil
}

func (s *InMemory) FindByCode(_ context.Context, code string, now time.Time) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credentialID, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.live(credentialID, now)
}

func (s *InMemory) FindByIdentifier(_ context.Context, identifier models.Identifier, now time.Time) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credentialID, ok := s.byIdentifier[identifier]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.live(credentialID, now)
}

// DeleteExpired removes every record expired at now and reports how many.
func (s *InMemory) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for credentialID, c := range s.byID {
		if c.IsExpired(now) {
			s.remove(credentialID)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored records, live or not.
func (s *InMemory) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

func (s *InMemory) Ping(context.Context) error { return nil }

func (s *InMemory) live(credentialID id.CredentialID, now time.Time) (*models.Credential, error) {
	c := s.byID[credentialID]
	if c.IsExpired(now) {
		return nil, sentinel.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *InMemory) remove(credentialID id.CredentialID) {
	c, ok := s.byID[credentialID]
	if !ok {
		return
	}
	delete(s.byID, credentialID)
	if s.byIdentifier[c.Identifier] == credentialID {
		delete(s.byIdentifier, c.Identifier)
	}
	if s.byCode[c.Code] == credentialID {
		delete(s.byCode, c.Code)
	}
}
