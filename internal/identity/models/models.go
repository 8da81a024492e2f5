package models

import (
	"time"

	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
	"xup/pkg/platform/secrets"
)

// MaxChatIDLength bounds chat identifiers.
const MaxChatIDLength = 64

// DefaultTTL is the lifetime of a provisional credential.
const DefaultTTL = time.Hour

// Channel names the kind of external identifier a credential is keyed to.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
)

// Identifier is the external key of a provisional credential. Exactly one
// channel is set.
type Identifier struct {
	Channel Channel
	Value   string
}

func EmailIdentifier(addr string) Identifier { return Identifier{Channel: ChannelEmail, Value: addr} }
func ChatIdentifier(chatID string) Identifier { return Identifier{Channel: ChannelChat, Value: chatID} }

// Email returns the value when the identifier is an email, else "".
func (i Identifier) Email() string {
	if i.Channel == ChannelEmail {
		return i.Value
	}
	return ""
}

// ChatID returns the value when the identifier is a chat id, else "".
func (i Identifier) ChatID() string {
	if i.Channel == ChannelChat {
		return i.Value
	}
	return ""
}

func (i Identifier) IsValid() bool {
	return (i.Channel == ChannelEmail || i.Channel == ChannelChat) && i.Value != ""
}

// Credential is a provisional record binding an identifier to a buid with a
// signed token and a one-time code.
//
// Invariants:
//   - Identifier is set
//   - BUID is not nil
//   - Token is non-empty
//   - Code is 6 alphanumeric characters
//   - ExpiresAt is after CreatedAt
type Credential struct {
	ID         id.CredentialID
	Identifier Identifier
	BUID       id.BUID
	Token      string
	Code       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

func NewCredential(identifier Identifier, buid id.BUID, token, code string, createdAt, expiresAt time.Time) (*Credential, error) {
	switch {
	case !identifier.IsValid():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "identifier is required")
	case buid.IsNil():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "buid is required")
	case token == "":
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "token is required")
	case !secrets.IsCode(code):
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "code must be 6 alphanumeric characters")
	case !expiresAt.After(createdAt):
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "expiry must be after creation")
	}
	return &Credential{
		ID:         id.NewCredentialID(),
		Identifier: identifier,
		BUID:       buid,
		Token:      token,
		Code:       code,
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
	}, nil
}

// IsExpired reports whether the credential is no longer live at now.
func (c *Credential) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// Issued is what an establish call hands back. Only the channel's credential
// form is exposed to callers.
type Issued struct {
	Channel   Channel
	BUID      id.BUID
	Token     string
	Code      string
	ExpiresAt time.Time
}

// Verification is the outcome of a successful credential check.
type Verification struct {
	Found       bool
	BUID        id.BUID
	ProjectName string
	Email       string
}
