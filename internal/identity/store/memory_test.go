package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"xup/internal/identity/models"
	id "xup/pkg/domain"
	"xup/pkg/platform/sentinel"
)

type CredentialStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestCredentialStoreSuite(t *testing.T) {
	suite.Run(t, new(CredentialStoreSuite))
}

func (s *CredentialStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
}

func (s *CredentialStoreSuite) credential(identifier models.Identifier, code string, createdAt time.Time) *models.Credential {
	c, err := models.NewCredential(identifier, id.NewBUID(), "token-"+code, code, createdAt, createdAt.Add(time.Hour))
	s.Require().NoError(err)
	return c
}

func (s *CredentialStoreSuite) TestCreateAndFind() {
	c := s.credential(models.EmailIdentifier("a@x.com"), "Code01", s.now)
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, c, s.now))

	byCode, err := s.store.FindByCode(s.ctx, "Code01", s.now)
	s.Require().NoError(err)
	s.Equal(c.BUID, byCode.BUID)

	byIdentifier, err := s.store.FindByIdentifier(s.ctx, models.EmailIdentifier("a@x.com"), s.now)
	s.Require().NoError(err)
	s.Equal(c.ID, byIdentifier.ID)

	_, err = s.store.FindByIdentifier(s.ctx, models.ChatIdentifier("a@x.com"), s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *CredentialStoreSuite) TestLiveIdentifierIsExclusive() {
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, s.credential(models.ChatIdentifier("42"), "Code01", s.now), s.now))

	err := s.store.CreateIfAbsent(s.ctx, s.credential(models.ChatIdentifier("42"), "Code02", s.now), s.now)
	s.ErrorIs(err, ErrIdentifierTaken)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *CredentialStoreSuite) TestLiveCodeIsExclusive() {
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, s.credential(models.ChatIdentifier("1"), "Code01", s.now), s.now))

	err := s.store.CreateIfAbsent(s.ctx, s.credential(models.ChatIdentifier("2"), "Code01", s.now), s.now)
	s.ErrorIs(err, ErrCodeTaken)
	s.Equal(1, s.store.Len())
}

func (s *CredentialStoreSuite) TestExpiredRecordsAreReplaced() {
	old := s.credential(models.EmailIdentifier("a@x.com"), "Code01", s.now.Add(-2*time.Hour))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, old, old.CreatedAt))

	_, err := s.store.FindByCode(s.ctx, "Code01", s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	fresh := s.credential(models.EmailIdentifier("a@x.com"), "Code01", s.now)
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, fresh, s.now))

	found, err := s.store.FindByIdentifier(s.ctx, models.EmailIdentifier("a@x.com"), s.now)
	s.Require().NoError(err)
	s.Equal(fresh.ID, found.ID)
	s.Equal(1, s.store.Len())
}

func (s *CredentialStoreSuite) TestDeleteExpired() {
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, s.credential(models.ChatIdentifier("1"), "Code01", s.now.Add(-3*time.Hour)), s.now.Add(-3*time.Hour)))
	s.Require().NoError(s.store.CreateIfAbsent(s.ctx, s.credential(models.ChatIdentifier("2"), "Code02", s.now), s.now))

	removed, err := s.store.DeleteExpired(s.ctx, s.now)
	s.Require().NoError(err)
	s.Equal(1, removed)
	s.Equal(1, s.store.Len())

	_, err = s.store.FindByCode(s.ctx, "Code02", s.now)
	s.NoError(err)
}
