package store

import (
	"context"
	"sync"

	"xup/internal/company/models"
	id "xup/pkg/domain"
	"xup/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded company store for tests and single-process runs.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.CompanyID]*models.Company
	byBUID  map[id.BUID]id.CompanyID
	byEmail map[string]id.CompanyID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.CompanyID]*models.Company),
		byBUID:  make(map[id.BUID]id.CompanyID),
		byEmail: make(map[string]id.CompanyID),
	}
}

// CreateIfAbsent inserts c unless its buid or email is already registered.
func (s *InMemory) CreateIfAbsent(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byBUID[c.BUID]; ok {
		return ErrBUIDTaken
	}
	if _, ok := s.byEmail[emailKey(c.Email)]; ok {
		return ErrEmailTaken
	}
	stored := *c
	s.byID[c.ID] = &stored
	s.byBUID[c.BUID] = c.ID
	s.byEmail[emailKey(c.Email)] = c.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, companyID id.CompanyID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyOf(companyID)
}

func (s *InMemory) FindByBUID(_ context.Context, buid id.BUID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	companyID, ok := s.byBUID[buid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.copyOf(companyID)
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	companyID, ok := s.byEmail[emailKey(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.copyOf(companyID)
}

// FindByTelegramChatID returns the oldest company bound to chatID.
func (s *InMemory) FindByTelegramChatID(_ context.Context, chatID string) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Company
	for _, c := range s.byID {
		if chatID == "" || c.TelegramChatID != chatID {
			continue
		}
		if found == nil || c.CreatedAt.Before(found.CreatedAt) {
			found = c
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	out := *found
	return &out, nil
}

// Update replaces the stored record. The buid index is left alone since buid is immutable.
func (s *InMemory) Update(_ context.Context, c *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	oldKey, newKey := emailKey(existing.Email), emailKey(c.Email)
	if oldKey != newKey {
		if _, taken := s.byEmail[newKey]; taken {
			return ErrEmailTaken
		}
		delete(s.byEmail, oldKey)
		s.byEmail[newKey] = c.ID
	}
	stored := *c
	stored.BUID = existing.BUID
	stored.CreatedAt = existing.CreatedAt
	s.byID[c.ID] = &stored
	return nil
}

func (s *InMemory) Delete(_ context.Context, companyID id.CompanyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byID[companyID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, companyID)
	delete(s.byBUID, c.BUID)
	delete(s.byEmail, emailKey(c.Email))
	return nil
}

// Ping always succeeds.
func (s *InMemory) Ping(context.Context) error { return nil }

func (s *InMemory) copyOf(companyID id.CompanyID) (*models.Company, error) {
	c, ok := s.byID[companyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *c
	return &out, nil
}
