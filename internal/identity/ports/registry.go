package ports

import (
	"context"

	id "xup/pkg/domain"
)

// CompanyRegistry is the identity broker's view of the company registry.
// Lookups that match nothing return sentinel.ErrNotFound.
type CompanyRegistry interface {
	FindByEmail(ctx context.Context, email string) (*CompanyRef, error)
	FindByTelegramChatID(ctx context.Context, chatID string) (*CompanyRef, error)
	FindByBUID(ctx context.Context, buid id.BUID) (*CompanyRef, error)
}

// CompanyRef carries the company fields the broker reports or checks.
type CompanyRef struct {
	BUID           id.BUID
	ProjectName    string
	Email          string
	TelegramChatID string
}
