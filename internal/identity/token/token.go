package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"xup/internal/identity/models"
	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
)

// Claims carries the identifier and buid a provisional credential binds.
type Claims struct {
	Email  string `json:"email,omitempty"`
	ChatID string `json:"chat_id,omitempty"`
	BUID   string `json:"buid"`
	jwt.RegisteredClaims
}

// Identifier returns the external identifier embedded in the claims.
func (c *Claims) Identifier() models.Identifier {
	if c.ChatID != "" {
		return models.ChatIdentifier(c.ChatID)
	}
	return models.EmailIdentifier(c.Email)
}

// Service signs and validates HS256 provisional tokens.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// Issue signs a token for identifier and buid that expires at expiresAt.
func (s *Service) Issue(identifier models.Identifier, buid id.BUID, issuedAt, expiresAt time.Time) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:  identifier.Email(),
		ChatID: identifier.ChatID(),
		BUID:   buid.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    s.issuer,
			Subject:   buid.String(),
			ID:        uuid.NewString(),
		},
	})

	signed, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// Validate checks signature, issuer and expiry as of now and returns the
// decoded claims. Every failure is an invalid credential.
func (s *Service) Validate(tokenString string, now time.Time) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid or expired credential")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidCredential, "invalid or expired credential")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid or expired credential")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid or expired credential")
	}
	if claims.Email == "" && claims.ChatID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidCredential, "invalid or expired credential")
	}
	return claims, nil
}

// ParseBUID decodes the buid claim.
func (c *Claims) ParseBUID() (id.BUID, error) {
	buid, err := id.ParseBUID(c.BUID)
	if err != nil {
		return id.BUID{}, dErrors.New(dErrors.CodeInvalidCredential, "invalid or expired credential")
	}
	return buid, nil
}
