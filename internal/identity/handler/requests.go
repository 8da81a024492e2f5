package handler

import (
	"strings"

	"xup/internal/identity/models"
	dErrors "xup/pkg/domain-errors"
	"xup/pkg/email"
	"xup/pkg/platform/secrets"
)

const maxTokenLength = 4096

type EstablishByEmailRequest struct {
	Email string `json:"email"`
}

func (r *EstablishByEmailRequest) Normalize() {
	if r == nil {
		return
	}
	r.Email = email.Normalize(r.Email)
}

func (r *EstablishByEmailRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Email) > email.MaxLength {
		return dErrors.New(dErrors.CodeValidation, "email must be 255 characters or less")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	return nil
}

type EstablishByChatRequest struct {
	ChatID string `json:"chatId"`
}

func (r *EstablishByChatRequest) Normalize() {
	if r == nil {
		return
	}
	r.ChatID = strings.TrimSpace(r.ChatID)
}

func (r *EstablishByChatRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.ChatID) > models.MaxChatIDLength {
		return dErrors.New(dErrors.CodeValidation, "chatId must be 64 characters or less")
	}
	if r.ChatID == "" {
		return dErrors.New(dErrors.CodeValidation, "chatId is required")
	}
	return nil
}

// VerifyRequest carries exactly one of a signed token or a one-time code.
type VerifyRequest struct {
	Token string `json:"token,omitempty"`
	OTP   string `json:"otp,omitempty"`
}

func (r *VerifyRequest) Normalize() {
	if r == nil {
		return
	}
	r.Token = strings.TrimSpace(r.Token)
	r.OTP = strings.TrimSpace(r.OTP)
}

func (r *VerifyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.Token) > maxTokenLength {
		return dErrors.New(dErrors.CodeValidation, "token is too long")
	}
	if (r.Token == "") == (r.OTP == "") {
		return dErrors.New(dErrors.CodeValidation, "exactly one of token or otp is required")
	}
	if r.OTP != "" && !secrets.IsCode(r.OTP) {
		return dErrors.New(dErrors.CodeValidation, "otp must be 6 alphanumeric characters")
	}
	return nil
}
