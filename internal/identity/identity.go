// Package identity brokers provisional credentials for companies that may not
// have registered yet.
package identity

import (
	"log/slog"

	"xup/internal/identity/adapters"
	"xup/internal/identity/handler"
	"xup/internal/identity/models"
	"xup/internal/identity/service"
	"xup/internal/identity/token"
)

type (
	Credential   = models.Credential
	Issued       = models.Issued
	Verification = models.Verification
	Service      = service.Service
	Handler      = handler.Handler
)

// NewService builds the broker over st, resolving companies through lookup.
func NewService(st service.Store, lookup adapters.CompanyLookup, signingKey, issuer string, opts ...service.Option) *Service {
	return service.New(st, adapters.NewCompanyRegistryAdapter(lookup), token.NewService(signingKey, issuer), opts...)
}

func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
