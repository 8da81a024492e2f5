// Package domain holds typed identifiers shared across modules.
//
// Each identifier wraps a UUID so a company id can never be passed where a
// buid is expected. Parse functions are the trust boundary for ids arriving
// from requests and reject empty, malformed and nil values.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "xup/pkg/domain-errors"
)

type (
	// CompanyID is the internal store identifier of a company record.
	CompanyID uuid.UUID
	// BUID is the stable business identifier shared with clients.
	BUID uuid.UUID
	// CredentialID identifies a provisional credential record.
	CredentialID uuid.UUID
)

func NewCompanyID() CompanyID       { return CompanyID(uuid.New()) }
func NewBUID() BUID                 { return BUID(uuid.New()) }
func NewCredentialID() CredentialID { return CredentialID(uuid.New()) }

func (id CompanyID) String() string    { return uuid.UUID(id).String() }
func (id BUID) String() string         { return uuid.UUID(id).String() }
func (id CredentialID) String() string { return uuid.UUID(id).String() }

func (id CompanyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id BUID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id CompanyID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id BUID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }

func (id *CompanyID) UnmarshalText(b []byte) error {
	parsed, err := ParseCompanyID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *BUID) UnmarshalText(b []byte) error {
	parsed, err := ParseBUID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s, "company id")
	return CompanyID(u), err
}

func ParseBUID(s string) (BUID, error) {
	u, err := parseUUID(s, "buid")
	return BUID(u), err
}

func ParseCredentialID(s string) (CredentialID, error) {
	u, err := parseUUID(s, "credential id")
	return CredentialID(u), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" cannot be nil")
	}
	return u, nil
}
