package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"xup/internal/identity/models"
	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
	"xup/pkg/platform/httputil"
	"xup/pkg/requestcontext"
)

const (
	msgIssued   = "credential issued"
	msgFound    = "company already exists"
	msgNotFound = "no company yet, complete registration"
)

// Service defines the broker operations the handler exposes.
type Service interface {
	EstablishByEmail(ctx context.Context, addr string) (*models.Issued, error)
	EstablishByChatID(ctx context.Context, chatID string) (*models.Issued, error)
	VerifyToken(ctx context.Context, token string) (*models.Verification, error)
	VerifyCode(ctx context.Context, code string) (*models.Verification, error)
}

// Handler serves the provisional credential resource.
type Handler struct {
	broker Service
	logger *slog.Logger
}

func New(broker Service, logger *slog.Logger) *Handler {
	return &Handler{broker: broker, logger: logger}
}

// EstablishResponse has the same shape whether or not a company matched.
// The buid is only disclosed by verification.
type EstablishResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token,omitempty"`
	OTP       string    `json:"otp,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyResponse struct {
	Message     string  `json:"message"`
	Found       bool    `json:"found"`
	BUID        id.BUID `json:"buid"`
	ProjectName string  `json:"projectName,omitempty"`
	Email       string  `json:"email,omitempty"`
}

// Register mounts the provisional credential routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/tempcomp", func(r chi.Router) {
		r.Post("/email", h.handleEstablishByEmail)
		r.Post("/chat", h.handleEstablishByChat)
		r.Post("/verify", h.handleVerify)
	})
}

func (h *Handler) handleEstablishByEmail(w http.ResponseWriter, r *http.Request) {
	var req EstablishByEmailRequest
	if !h.decode(w, r, &req) {
		return
	}
	issued, err := h.broker.EstablishByEmail(r.Context(), req.Email)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, EstablishResponse{
		Message:   msgIssued,
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	})
}

func (h *Handler) handleEstablishByChat(w http.ResponseWriter, r *http.Request) {
	var req EstablishByChatRequest
	if !h.decode(w, r, &req) {
		return
	}
	issued, err := h.broker.EstablishByChatID(r.Context(), req.ChatID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, EstablishResponse{
		Message:   msgIssued,
		OTP:       issued.Code,
		ExpiresAt: issued.ExpiresAt,
	})
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		v   *models.Verification
		err error
	)
	if req.Token != "" {
		v, err = h.broker.VerifyToken(r.Context(), req.Token)
	} else {
		v, err = h.broker.VerifyCode(r.Context(), req.OTP)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if !v.Found {
		httputil.WriteJSON(w, http.StatusOK, VerifyResponse{Message: msgNotFound, BUID: v.BUID})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, VerifyResponse{
		Message:     msgFound,
		Found:       true,
		BUID:        v.BUID,
		ProjectName: v.ProjectName,
		Email:       v.Email,
	})
}

type validatable interface {
	Normalize()
	Validate() error
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req validatable) bool {
	if err := httputil.DecodeJSON(r, req); err != nil {
		h.logger.WarnContext(r.Context(), "invalid credential request",
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

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "credential request failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}
