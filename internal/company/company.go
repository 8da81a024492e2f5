package company

import (
	"log/slog"

	"xup/internal/company/handler"
	"xup/internal/company/models"
	"xup/internal/company/service"
)

// Company is the durable registration record.
type Company = models.Company

// Service owns the company registry.
type Service = service.Service

// Handler wires HTTP endpoints to the registry.
type Handler = handler.Handler

// NewService constructs the registry over st.
func NewService(st service.Store, opts ...service.Option) *Service {
	return service.New(st, opts...)
}

// NewHandler constructs the HTTP handler for the company resource.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
