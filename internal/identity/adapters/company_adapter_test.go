package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xup/internal/company/models"
	"xup/internal/company/service"
	"xup/internal/company/store"
	id "xup/pkg/domain"
	"xup/pkg/platform/sentinel"
)

func TestCompanyRegistryAdapter(t *testing.T) {
	ctx := context.Background()
	companies := service.New(store.NewInMemory())
	created, err := companies.Create(ctx, service.CreateCompany{Profile: models.Profile{
		ProjectName:    "P",
		Email:          "a@x.com",
		ProjectURL:     "https://p.example.com",
		TelegramChatID: "777",
	}})
	require.NoError(t, err)

	adapter := NewCompanyRegistryAdapter(companies)

	ref, err := adapter.FindByEmail(ctx, "A@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.BUID, ref.BUID)
	assert.Equal(t, "P", ref.ProjectName)

	ref, err = adapter.FindByTelegramChatID(ctx, "777")
	require.NoError(t, err)
	assert.Equal(t, "777", ref.TelegramChatID)

	_, err = adapter.FindByBUID(ctx, id.NewBUID())
	assert.True(t, errors.Is(err, sentinel.ErrNotFound))
}
