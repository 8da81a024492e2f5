package handler

import (
	"strings"

	"github.com/asaskevich/govalidator"

	"xup/internal/company/models"
	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
	"xup/pkg/email"
)

const (
	maxNameLength   = 100
	maxURLLength    = 2048
	maxChatIDLength = 64
	maxAuthLength   = 255
)

type CreateCompanyRequest struct {
	BUID           string `json:"buid,omitempty"`
	ProjectName    string `json:"projectName"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Email          string `json:"email"`
	TeamSize       *int   `json:"teamSize,omitempty"`
	ProjectURL     string `json:"projectUrl"`
	TelegramChatID string `json:"telegramChatId,omitempty"`
}

func (r *CreateCompanyRequest) Normalize() {
	if r == nil {
		return
	}
	r.BUID = strings.TrimSpace(r.BUID)
	r.ProjectName = strings.TrimSpace(r.ProjectName)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = email.Normalize(r.Email)
	r.ProjectURL = strings.TrimSpace(r.ProjectURL)
	r.TelegramChatID = strings.TrimSpace(r.TelegramChatID)
}

// Follows validation order: Size -> Required -> Syntax -> Semantic.
func (r *CreateCompanyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}

	if len(r.ProjectName) > models.MaxProjectNameLength {
		return dErrors.New(dErrors.CodeValidation, "projectName must be 128 characters or less")
	}
	if len(r.FirstName) > maxNameLength || len(r.LastName) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "names must be 100 characters or less")
	}
	if len(r.ProjectURL) > maxURLLength {
		return dErrors.New(dErrors.CodeValidation, "projectUrl is too long")
	}
	if len(r.TelegramChatID) > maxChatIDLength {
		return dErrors.New(dErrors.CodeValidation, "telegramChatId must be 64 characters or less")
	}

	if r.ProjectName == "" {
		return dErrors.New(dErrors.CodeValidation, "projectName is required")
	}
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.ProjectURL == "" {
		return dErrors.New(dErrors.CodeValidation, "projectUrl is required")
	}

	if !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if !govalidator.IsURL(r.ProjectURL) {
		return dErrors.New(dErrors.CodeValidation, "projectUrl must be a valid URL")
	}
	if r.BUID != "" {
		if _, err := id.ParseBUID(r.BUID); err != nil {
			return dErrors.New(dErrors.CodeValidation, "buid must be a valid UUID")
		}
	}

	if r.TeamSize != nil && *r.TeamSize < 1 {
		return dErrors.New(dErrors.CodeValidation, "teamSize must be at least 1")
	}
	return nil
}

// Profile converts the request into the model input. Call after Validate.
func (r *CreateCompanyRequest) Profile() models.Profile {
	p := models.Profile{
		ProjectName:    r.ProjectName,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		ProjectURL:     r.ProjectURL,
		TelegramChatID: r.TelegramChatID,
	}
	if r.TeamSize != nil {
		p.TeamSize = *r.TeamSize
	}
	return p
}

// LookupRequest selects a company by exactly one of buid or email.
type LookupRequest struct {
	BUID  string `json:"buid,omitempty"`
	Email string `json:"email,omitempty"`
}

func (r *LookupRequest) Normalize() {
	if r == nil {
		return
	}
	r.BUID = strings.TrimSpace(r.BUID)
	r.Email = email.Normalize(r.Email)
}

func (r *LookupRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if (r.BUID == "") == (r.Email == "") {
		return dErrors.New(dErrors.CodeValidation, "exactly one of buid or email is required")
	}
	if r.BUID != "" {
		if _, err := id.ParseBUID(r.BUID); err != nil {
			return dErrors.New(dErrors.CodeValidation, "buid must be a valid UUID")
		}
	}
	if r.Email != "" && !email.IsValid(r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	return nil
}

// UpdateCompanyRequest is a partial update. The buid is not accepted.
type UpdateCompanyRequest struct {
	ProjectName    *string `json:"projectName,omitempty"`
	FirstName      *string `json:"firstName,omitempty"`
	LastName       *string `json:"lastName,omitempty"`
	Email          *string `json:"email,omitempty"`
	TeamSize       *int    `json:"teamSize,omitempty"`
	ProjectURL     *string `json:"projectUrl,omitempty"`
	TelegramChatID *string `json:"telegramChatId,omitempty"`
}

func (r *UpdateCompanyRequest) Normalize() {
	if r == nil {
		return
	}
	trim(r.ProjectName)
	trim(r.FirstName)
	trim(r.LastName)
	trim(r.ProjectURL)
	trim(r.TelegramChatID)
	if r.Email != nil {
		*r.Email = email.Normalize(*r.Email)
	}
}

func (r *UpdateCompanyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.ProjectName != nil && len(*r.ProjectName) > models.MaxProjectNameLength {
		return dErrors.New(dErrors.CodeValidation, "projectName must be 128 characters or less")
	}
	if r.TelegramChatID != nil && len(*r.TelegramChatID) > maxChatIDLength {
		return dErrors.New(dErrors.CodeValidation, "telegramChatId must be 64 characters or less")
	}
	if r.ProjectName != nil && *r.ProjectName == "" {
		return dErrors.New(dErrors.CodeValidation, "projectName cannot be empty")
	}
	if r.Email != nil && !email.IsValid(*r.Email) {
		return dErrors.New(dErrors.CodeValidation, "email must be a valid address")
	}
	if r.ProjectURL != nil && !govalidator.IsURL(*r.ProjectURL) {
		return dErrors.New(dErrors.CodeValidation, "projectUrl must be a valid URL")
	}
	if r.TeamSize != nil && *r.TeamSize < 1 {
		return dErrors.New(dErrors.CodeValidation, "teamSize must be at least 1")
	}
	return nil
}

func (r *UpdateCompanyRequest) Update() models.Update {
	return models.Update{
		ProjectName:    r.ProjectName,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		TeamSize:       r.TeamSize,
		ProjectURL:     r.ProjectURL,
		TelegramChatID: r.TelegramChatID,
	}
}

type UpdateTelegramAuthRequest struct {
	TelegramAuth            *string `json:"telegramAuth,omitempty"`
	TelegramAuthStatus      *bool   `json:"telegramAuthStatus,omitempty"`
	TelegramAuthCallbackURL *string `json:"telegramAuthCallbackUrl,omitempty"`
}

func (r *UpdateTelegramAuthRequest) Normalize() {
	if r == nil {
		return
	}
	trim(r.TelegramAuth)
	trim(r.TelegramAuthCallbackURL)
}

func (r *UpdateTelegramAuthRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.TelegramAuth != nil && len(*r.TelegramAuth) > maxAuthLength {
		return dErrors.New(dErrors.CodeValidation, "telegramAuth must be 255 characters or less")
	}
	if r.TelegramAuthCallbackURL != nil && *r.TelegramAuthCallbackURL != "" &&
		!govalidator.IsURL(*r.TelegramAuthCallbackURL) {
		return dErrors.New(dErrors.CodeValidation, "telegramAuthCallbackUrl must be a valid URL")
	}
	return nil
}

func (r *UpdateTelegramAuthRequest) Update() models.TelegramAuthUpdate {
	return models.TelegramAuthUpdate{
		TelegramAuth:            r.TelegramAuth,
		TelegramAuthStatus:      r.TelegramAuthStatus,
		TelegramAuthCallbackURL: r.TelegramAuthCallbackURL,
	}
}

type LinkTelegramAuthRequest struct {
	BUID        string `json:"buid"`
	CallbackURL string `json:"callbackUrl"`
}

func (r *LinkTelegramAuthRequest) Normalize() {
	if r == nil {
		return
	}
	r.BUID = strings.TrimSpace(r.BUID)
	r.CallbackURL = strings.TrimSpace(r.CallbackURL)
}

func (r *LinkTelegramAuthRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if len(r.CallbackURL) > maxURLLength {
		return dErrors.New(dErrors.CodeValidation, "callbackUrl is too long")
	}
	if r.BUID == "" || r.CallbackURL == "" {
		return dErrors.New(dErrors.CodeValidation, "buid and callbackUrl are required")
	}
	if _, err := id.ParseBUID(r.BUID); err != nil {
		return dErrors.New(dErrors.CodeValidation, "buid must be a valid UUID")
	}
	if !govalidator.IsURL(r.CallbackURL) {
		return dErrors.New(dErrors.CodeValidation, "callbackUrl must be a valid URL")
	}
	return nil
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
