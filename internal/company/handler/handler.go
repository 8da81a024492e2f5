package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"xup/internal/company/models"
	"xup/internal/company/service"
	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
	"xup/pkg/platform/httputil"
	"xup/pkg/requestcontext"
)

// Service defines the registry operations the handler exposes.
type Service interface {
	Create(ctx context.Context, req service.CreateCompany) (*models.Company, error)
	Get(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	GetByBUID(ctx context.Context, buid id.BUID) (*models.Company, error)
	GetByEmail(ctx context.Context, addr string) (*models.Company, error)
	Update(ctx context.Context, companyID id.CompanyID, u models.Update) (*models.Company, error)
	UpdateTelegramAuth(ctx context.Context, companyID id.CompanyID, u models.TelegramAuthUpdate) (*models.Company, error)
	Delete(ctx context.Context, companyID id.CompanyID) error
	LinkTelegramAuth(ctx context.Context, buid id.BUID, callbackURL string) (*models.TelegramLink, error)
}

// Handler serves the company resource.
type Handler struct {
	companies Service
	logger    *slog.Logger
}

func New(companies Service, logger *slog.Logger) *Handler {
	return &Handler{companies: companies, logger: logger}
}

type companyResponse struct {
	Message string          `json:"message"`
	Company *models.Company `json:"company"`
}

type linkResponse struct {
	Message string  `json:"message"`
	BUID    id.BUID `json:"buid"`
	AuthURL string  `json:"auth_url"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register mounts the company routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/company", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Post("/lookup", h.handleLookup)
		r.Post("/telegram-auth/link", h.handleLinkTelegramAuth)
		r.Get("/{id}", h.handleGet)
		r.Put("/{id}", h.handleUpdate)
		r.Put("/{id}/telegram-auth", h.handleUpdateTelegramAuth)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateCompanyRequest
	if !h.decode(w, r, &req) {
		return
	}
	create := service.CreateCompany{Profile: req.Profile()}
	if req.BUID != "" {
		buid, err := id.ParseBUID(req.BUID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		create.BUID = &buid
	}

	c, err := h.companies.Create(r.Context(), create)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, companyResponse{Message: "company created successfully", Company: c})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	c, err := h.companies.Get(r.Context(), companyID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, companyResponse{Message: "company found", Company: c})
}

func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		c   *models.Company
		err error
	)
	if req.BUID != "" {
		buid, _ := id.ParseBUID(req.BUID)
		c, err = h.companies.GetByBUID(r.Context(), buid)
	} else {
		c, err = h.companies.GetByEmail(r.Context(), req.Email)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, companyResponse{Message: "company found", Company: c})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	var req UpdateCompanyRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.companies.Update(r.Context(), companyID, req.Update())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, companyResponse{Message: "company updated successfully", Company: c})
}

func (h *Handler) handleUpdateTelegramAuth(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	var req UpdateTelegramAuthRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.companies.UpdateTelegramAuth(r.Context(), companyID, req.Update())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, companyResponse{Message: "telegram auth updated successfully", Company: c})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	companyID, ok := h.companyID(w, r)
	if !ok {
		return
	}
	if err := h.companies.Delete(r.Context(), companyID); err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, messageResponse{Message: "company deleted successfully"})
}

func (h *Handler) handleLinkTelegramAuth(w http.ResponseWriter, r *http.Request) {
	var req LinkTelegramAuthRequest
	if !h.decode(w, r, &req) {
		return
	}
	buid, _ := id.ParseBUID(req.BUID)
	link, err := h.companies.LinkTelegramAuth(r.Context(), buid, req.CallbackURL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, linkResponse{
		Message: "telegram auth link created",
		BUID:    link.BUID,
		AuthURL: link.AuthURL,
	})
}

type validatable interface {
	Normalize()
	Validate() error
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req validatable) bool {
	if err := httputil.DecodeJSON(r, req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid company request",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return false
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	return true
}

func (h *Handler) companyID(w http.ResponseWriter, r *http.Request) (id.CompanyID, bool) {
	companyID, err := id.ParseCompanyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid company id"))
		return id.CompanyID{}, false
	}
	return companyID, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "company request failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
