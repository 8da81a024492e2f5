package models

import (
	"time"

	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
)

const (
	MaxProjectNameLength = 128
	DefaultTeamSize      = 1
)

// LinkState is the external-auth linkage state derived from TelegramAuthStatus.
type LinkState string

const (
	LinkUnlinked      LinkState = "unlinked"
	LinkLinkRequested LinkState = "link_requested"
)

// Company is the durable registration record for a project.
//
// Invariants:
//   - BUID is set at construction and never changes
//   - ProjectName is non-empty and at most 128 characters
//   - Email and ProjectURL are non-empty
//   - TeamSize is at least 1
//
// The telegram linkage moves Unlinked -> LinkRequested when a link is
// requested. Confirmation happens outside this service and is recorded, if at
// all, through an explicit telegram auth update.
type Company struct {
	ID                      id.CompanyID `json:"id"`
	BUID                    id.BUID      `json:"buid"`
	ProjectName             string       `json:"projectName"`
	FirstName               string       `json:"firstName,omitempty"`
	LastName                string       `json:"lastName,omitempty"`
	Email                   string       `json:"email"`
	TeamSize                int          `json:"teamSize"`
	ProjectURL              string       `json:"projectUrl"`
	TelegramChatID          string       `json:"telegramChatId,omitempty"`
	TelegramAuth            string       `json:"telegramAuth,omitempty"`
	TelegramAuthStatus      bool         `json:"telegramAuthStatus"`
	TelegramAuthCallbackURL string       `json:"telegramAuthCallbackUrl,omitempty"`
	CreatedAt               time.Time    `json:"createdAt"`
	UpdatedAt               time.Time    `json:"updatedAt"`
}

// Profile carries the caller-supplied fields of a new company.
type Profile struct {
	ProjectName    string
	FirstName      string
	LastName       string
	Email          string
	TeamSize       int
	ProjectURL     string
	TelegramChatID string
}

// NewCompany builds a company with defaults applied and invariants checked.
// A zero TeamSize defaults to 1.
func NewCompany(companyID id.CompanyID, buid id.BUID, p Profile, now time.Time) (*Company, error) {
	if buid.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "buid is required")
	}
	if p.TeamSize == 0 {
		p.TeamSize = DefaultTeamSize
	}
	c := &Company{
		ID:             companyID,
		BUID:           buid,
		ProjectName:    p.ProjectName,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Email:          p.Email,
		TeamSize:       p.TeamSize,
		ProjectURL:     p.ProjectURL,
		TelegramChatID: p.TelegramChatID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the mutable-field invariants.
func (c *Company) Validate() error {
	switch {
	case c.ProjectName == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "projectName is required")
	case len(c.ProjectName) > MaxProjectNameLength:
		return dErrors.New(dErrors.CodeInvariantViolation, "projectName must be 128 characters or less")
	case c.Email == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "email is required")
	case c.ProjectURL == "":
		return dErrors.New(dErrors.CodeInvariantViolation, "projectUrl is required")
	case c.TeamSize < 1:
		return dErrors.New(dErrors.CodeInvariantViolation, "teamSize must be at least 1")
	}
	return nil
}

// LinkState reports the telegram linkage state.
func (c *Company) LinkState() LinkState {
	if c.TelegramAuthStatus {
		return LinkLinkRequested
	}
	return LinkUnlinked
}

// RequestTelegramLink records a fresh linkage code and callback. Repeating it
// while a link is pending replaces the code.
func (c *Company) RequestTelegramLink(code, callbackURL string, now time.Time) error {
	if code == "" || callbackURL == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "linkage code and callback are required")
	}
	c.TelegramAuth = code
	c.TelegramAuthStatus = true
	c.TelegramAuthCallbackURL = callbackURL
	c.UpdatedAt = now
	return nil
}

// Update is a partial profile change. Nil fields are left untouched.
type Update struct {
	ProjectName    *string
	FirstName      *string
	LastName       *string
	Email          *string
	TeamSize       *int
	ProjectURL     *string
	TelegramChatID *string
}

// IsEmpty reports whether no field is set.
func (u Update) IsEmpty() bool {
	return u.ProjectName == nil && u.FirstName == nil && u.LastName == nil && u.Email == nil &&
		u.TeamSize == nil && u.ProjectURL == nil && u.TelegramChatID == nil
}

// Apply merges u into c and re-checks invariants. BUID is never touched.
func (c *Company) Apply(u Update, now time.Time) error {
	next := *c
	if u.ProjectName != nil {
		next.ProjectName = *u.ProjectName
	}
	if u.FirstName != nil {
		next.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		next.LastName = *u.LastName
	}
	if u.Email != nil {
		next.Email = *u.Email
	}
	if u.TeamSize != nil {
		next.TeamSize = *u.TeamSize
	}
	if u.ProjectURL != nil {
		next.ProjectURL = *u.ProjectURL
	}
	if u.TelegramChatID != nil {
		next.TelegramChatID = *u.TelegramChatID
	}
	if err := next.Validate(); err != nil {
		return err
	}
	next.UpdatedAt = now
	*c = next
	return nil
}

// TelegramAuthUpdate is an explicit change of the linkage fields.
type TelegramAuthUpdate struct {
	TelegramAuth            *string
	TelegramAuthStatus      *bool
	TelegramAuthCallbackURL *string
}

// IsEmpty reports whether no field is set.
func (u TelegramAuthUpdate) IsEmpty() bool {
	return u.TelegramAuth == nil && u.TelegramAuthStatus == nil && u.TelegramAuthCallbackURL == nil
}

// ApplyTelegramAuth merges the linkage fields.
func (c *Company) ApplyTelegramAuth(u TelegramAuthUpdate, now time.Time) {
	if u.TelegramAuth != nil {
		c.TelegramAuth = *u.TelegramAuth
	}
	if u.TelegramAuthStatus != nil {
		c.TelegramAuthStatus = *u.TelegramAuthStatus
	}
	if u.TelegramAuthCallbackURL != nil {
		c.TelegramAuthCallbackURL = *u.TelegramAuthCallbackURL
	}
	c.UpdatedAt = now
}

// TelegramLink is the result of a link request.
type TelegramLink struct {
	BUID    id.BUID
	AuthURL string
	Code    string
}
