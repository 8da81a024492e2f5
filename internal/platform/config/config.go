package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is read from the environment once at startup and treated as immutable.
type Config struct {
	Server    Server
	JWT       JWT
	Store     Store
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimit

	CredentialTTL       time.Duration
	SweepInterval       time.Duration
	TelegramAuthBaseURL string
	LogLevel            string
}

// Server captures HTTP server level configuration.
// TrustedProxies lists the peers whose forwarding headers are believed.
type Server struct {
	Addr           string
	AllowedOrigin  string
	TrustedProxies []netip.Prefix
}

// JWT configures provisional credential signing.
type JWT struct {
	Secret string
	Issuer string
}

// Store selects and addresses the durable store.
type Store struct {
	Driver      string
	DatabaseURL string
	AutoMigrate bool
}

// RedisConfig addresses the optional credential cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig addresses the optional audit sink. No brokers disables it.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// RateLimit bounds requests per client IP over Window.
type RateLimit struct {
	Requests int
	Window   time.Duration
}

// Load builds a Config from environment variables.
// JWT_SECRET has no default; Load fails when it is unset.
func Load() (*Config, error) {
	var missing []string

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg := &Config{
		Server: Server{
			Addr:          ":" + getEnvString("PORT", "5000"),
			AllowedOrigin: getEnvString("ALLOWED_ORIGIN", "*"),
		},
		JWT: JWT{
			Secret: secret,
			Issuer: getEnvString("JWT_ISSUER", "xup"),
		},
		Store: Store{
			Driver:      strings.ToLower(getEnvString("STORE_DRIVER", DriverPostgres)),
			DatabaseURL: getEnvString("DATABASE_URL", "postgres://localhost:5432/xup?sslmode=disable"),
			AutoMigrate: getEnvBool("AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnvString("KAFKA_AUDIT_TOPIC", "xup.audit"),
		},
		RateLimit: RateLimit{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
		CredentialTTL:       getEnvDuration("CREDENTIAL_TTL", time.Hour),
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		TelegramAuthBaseURL: strings.TrimRight(getEnvString("TELEGRAM_AUTH_BASE_URL", "https://xup.app"), "/"),
		LogLevel:            getEnvString("LOG_LEVEL", "info"),
	}

	proxies, err := parseTrustedProxies(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return nil, err
	}
	cfg.Server.TrustedProxies = proxies

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Store.Driver != DriverPostgres && c.Store.Driver != DriverMemory {
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Store.Driver))
	}
	if c.CredentialTTL <= 0 {
		errs = append(errs, errors.New("CREDENTIAL_TTL must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL must be positive"))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate limit requests and window must be positive"))
	}
	return errors.Join(errs...)
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTrustedProxies accepts a comma list of addresses and CIDR ranges.
// A bare address is treated as a single-host range.
func parseTrustedProxies(v string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, entry := range splitList(v) {
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			out = append(out, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: invalid address or range %q", entry)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
