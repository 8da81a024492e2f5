package config

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("fails without signing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		cfg, err := Load()
		require.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("applies defaults", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("PORT", "")
		t.Setenv("ALLOWED_ORIGIN", "")
		t.Setenv("STORE_DRIVER", "")
		t.Setenv("REDIS_URL", "")
		t.Setenv("KAFKA_BROKERS", "")
		t.Setenv("CREDENTIAL_TTL", "")
		t.Setenv("TELEGRAM_AUTH_BASE_URL", "")
		t.Setenv("TRUSTED_PROXIES", "")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":5000", cfg.Server.Addr)
		assert.Equal(t, "*", cfg.Server.AllowedOrigin)
		assert.Equal(t, DriverPostgres, cfg.Store.Driver)
		assert.Empty(t, cfg.Redis.URL)
		assert.Empty(t, cfg.Kafka.Brokers)
		assert.Equal(t, time.Hour, cfg.CredentialTTL)
		assert.Equal(t, 100, cfg.RateLimit.Requests)
		assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
		assert.Equal(t, "https://xup.app", cfg.TelegramAuthBaseURL)
		assert.Empty(t, cfg.Server.TrustedProxies)
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("PORT", "8081")
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
		t.Setenv("CREDENTIAL_TTL", "30m")
		t.Setenv("TELEGRAM_AUTH_BASE_URL", "https://auth.example.com/")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, ":8081", cfg.Server.Addr)
		assert.Equal(t, DriverMemory, cfg.Store.Driver)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
		assert.Equal(t, 30*time.Minute, cfg.CredentialTTL)
		assert.Equal(t, "https://auth.example.com", cfg.TelegramAuthBaseURL)
	})

	t.Run("parses trusted proxies", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10 ,::1")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, []netip.Prefix{
			netip.MustParsePrefix("10.0.0.0/8"),
			netip.MustParsePrefix("192.168.1.10/32"),
			netip.MustParsePrefix("::1/128"),
		}, cfg.Server.TrustedProxies)
	})

	t.Run("rejects malformed trusted proxy", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8,not-an-ip")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TRUSTED_PROXIES")
	})

	t.Run("rejects unknown store driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("STORE_DRIVER", "mongo")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "STORE_DRIVER")
	})
}
