//go:build integration

package store_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"xup/internal/company/models"
	"xup/internal/company/store"
	id "xup/pkg/domain"
	"xup/pkg/platform/sentinel"
	"xup/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "companies"))
}

func newTestCompany(email string) *models.Company {
	c, err := models.NewCompany(id.NewCompanyID(), id.NewBUID(), models.Profile{
		ProjectName: "Project " + uuid.NewString()[:8],
		Email:       email,
		ProjectURL:  "https://example.com",
	}, time.Now().UTC().Truncate(time.Microsecond))
	if err != nil {
		panic(err)
	}
	return c
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	c := newTestCompany("rt@example.com")
	c.FirstName = "Ada"
	c.TelegramChatID = "chat-9"
	s.Require().NoError(s.store.CreateIfAbsent(ctx, c))

	found, err := s.store.FindByBUID(ctx, c.BUID)
	s.Require().NoError(err)
	s.Equal(c.ID, found.ID)
	s.Equal("Ada", found.FirstName)
	s.Equal(1, found.TeamSize)
	s.False(found.TelegramAuthStatus)
	s.True(c.CreatedAt.Equal(found.CreatedAt))

	byChat, err := s.store.FindByTelegramChatID(ctx, "chat-9")
	s.Require().NoError(err)
	s.Equal(c.ID, byChat.ID)

	byEmail, err := s.store.FindByEmail(ctx, "RT@EXAMPLE.COM")
	s.Require().NoError(err)
	s.Equal(c.ID, byEmail.ID)
}

// TestConcurrentSameBUID verifies exactly one insert wins for a contested buid.
func (s *PostgresStoreSuite) TestConcurrentSameBUID() {
	ctx := context.Background()
	buid := id.NewBUID()
	const goroutines = 30

	var wg sync.WaitGroup
	var successes, conflicts atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newTestCompany(uuid.NewString() + "@example.com")
			c.BUID = buid
			err := s.store.CreateIfAbsent(ctx, c)
			if err == nil {
				successes.Add(1)
			} else if errors.Is(err, store.ErrBUIDTaken) {
				conflicts.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(goroutines-1), conflicts.Load())
}

func (s *PostgresStoreSuite) TestEmailUniquenessIgnoresCase() {
	ctx := context.Background()
	s.Require().NoError(s.store.CreateIfAbsent(ctx, newTestCompany("case@example.com")))

	err := s.store.CreateIfAbsent(ctx, newTestCompany(strings.ToUpper("case@example.com")))
	s.ErrorIs(err, store.ErrEmailTaken)
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestUpdateAndDelete() {
	ctx := context.Background()
	c := newTestCompany("upd@example.com")
	s.Require().NoError(s.store.CreateIfAbsent(ctx, c))

	c.TelegramAuth = "abc123"
	c.TelegramAuthStatus = true
	c.TelegramAuthCallbackURL = "https://cb.example.com"
	c.UpdatedAt = c.UpdatedAt.Add(time.Minute)
	s.Require().NoError(s.store.Update(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.True(found.TelegramAuthStatus)
	s.Equal("abc123", found.TelegramAuth)

	s.ErrorIs(s.store.Update(ctx, newTestCompany("ghost@example.com")), sentinel.ErrNotFound)

	s.Require().NoError(s.store.Delete(ctx, c.ID))
	_, err = s.store.FindByID(ctx, c.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, c.ID), sentinel.ErrNotFound)
}
