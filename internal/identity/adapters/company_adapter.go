package adapters

import (
	"context"

	companyModels "xup/internal/company/models"
	"xup/internal/identity/ports"
	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
	"xup/pkg/platform/sentinel"
)

// CompanyLookup is the subset of the company service the broker reads.
type CompanyLookup interface {
	GetByEmail(ctx context.Context, addr string) (*companyModels.Company, error)
	GetByTelegramChatID(ctx context.Context, chatID string) (*companyModels.Company, error)
	GetByBUID(ctx context.Context, buid id.BUID) (*companyModels.Company, error)
}

// CompanyRegistryAdapter adapts the company service to ports.CompanyRegistry.
type CompanyRegistryAdapter struct {
	companies CompanyLookup
}

func NewCompanyRegistryAdapter(companies CompanyLookup) *CompanyRegistryAdapter {
	return &CompanyRegistryAdapter{companies: companies}
}

func (a *CompanyRegistryAdapter) FindByEmail(ctx context.Context, email string) (*ports.CompanyRef, error) {
	return mapCompany(a.companies.GetByEmail(ctx, email))
}

func (a *CompanyRegistryAdapter) FindByTelegramChatID(ctx context.Context, chatID string) (*ports.CompanyRef, error) {
	return mapCompany(a.companies.GetByTelegramChatID(ctx, chatID))
}

func (a *CompanyRegistryAdapter) FindByBUID(ctx context.Context, buid id.BUID) (*ports.CompanyRef, error) {
	return mapCompany(a.companies.GetByBUID(ctx, buid))
}

func mapCompany(c *companyModels.Company, err error) (*ports.CompanyRef, error) {
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return &ports.CompanyRef{
		BUID:           c.BUID,
		ProjectName:    c.ProjectName,
		Email:          c.Email,
		TelegramChatID: c.TelegramChatID,
	}, nil
}
