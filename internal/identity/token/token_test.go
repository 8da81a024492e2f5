package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xup/internal/identity/models"
	id "xup/pkg/domain"
	dErrors "xup/pkg/domain-errors"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewService("test-secret", "xup")
	now := time.Now().Truncate(time.Second)
	buid := id.NewBUID()

	t.Run("email token round trips", func(t *testing.T) {
		signed, err := svc.Issue(models.EmailIdentifier("a@x.com"), buid, now, now.Add(time.Hour))
		require.NoError(t, err)

		claims, err := svc.Validate(signed, now.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", claims.Email)
		assert.Empty(t, claims.ChatID)
		assert.Equal(t, models.ChannelEmail, claims.Identifier().Channel)

		parsed, err := claims.ParseBUID()
		require.NoError(t, err)
		assert.Equal(t, buid, parsed)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("chat token carries chat id", func(t *testing.T) {
		signed, err := svc.Issue(models.ChatIdentifier("42"), buid, now, now.Add(time.Hour))
		require.NoError(t, err)

		claims, err := svc.Validate(signed, now)
		require.NoError(t, err)
		assert.Equal(t, "42", claims.ChatID)
		assert.Equal(t, models.ChatIdentifier("42"), claims.Identifier())
	})

	t.Run("expired token is an invalid credential", func(t *testing.T) {
		signed, err := svc.Issue(models.EmailIdentifier("a@x.com"), buid, now, now.Add(time.Hour))
		require.NoError(t, err)

		_, err = svc.Validate(signed, now.Add(2*time.Hour))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCredential))
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		other := NewService("other-secret", "xup")
		signed, err := other.Issue(models.EmailIdentifier("a@x.com"), buid, now, now.Add(time.Hour))
		require.NoError(t, err)

		_, err = svc.Validate(signed, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCredential))
	})

	t.Run("wrong issuer is rejected", func(t *testing.T) {
		other := NewService("test-secret", "someone-else")
		signed, err := other.Issue(models.EmailIdentifier("a@x.com"), buid, now, now.Add(time.Hour))
		require.NoError(t, err)

		_, err = svc.Validate(signed, now)
		assert.Error(t, err)
	})

	t.Run("non-HMAC algorithm is rejected", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			Email: "a@x.com",
			BUID:  buid.String(),
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "xup",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.Validate(signed, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCredential))
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := svc.Validate("not-a-token", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidCredential))
	})
}
