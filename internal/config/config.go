package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	AuthJWTSecret string
	AuthIssuer    string
	AuthAudience  string
	AuthClockSkew time.Duration

	StripeSecretKey string
	StripeBaseURL   string
	CurrencyCode    string

	CartTTL          time.Duration
	CartSyncDebounce time.Duration
	AttemptTTL       time.Duration
	IdempotencyTTL   time.Duration
	CatalogCacheTTL  time.Duration

	PaymentRateLimitWindow time.Duration
	PaymentRateLimitMax    int64

	OutboundTimeout    time.Duration
	RetryBase          time.Duration
	RetryMaxAttempts   int
	RetryJitterPercent float64
	CircuitMinRequests int
	CircuitFailureRate float64
	CircuitOpenFor     time.Duration

	WorkerConcurrency int

	MetricsNamespace   string
	ObsLogFormat       string
	ObsLogLevel        string
	ObsTracingEnabled  bool
	ObsTracingEndpoint string
	ObsSamplingRatio   float64

	EmailEnabled bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AuthJWTSecret: k.String("AUTH_JWT_SECRET"),
		AuthIssuer:    strings.TrimSpace(k.String("AUTH_ISSUER")),
		AuthAudience:  strings.TrimSpace(k.String("AUTH_AUDIENCE")),
		AuthClockSkew: parseDuration(k.String("AUTH_CLOCK_SKEW"), "30s"),

		StripeSecretKey: k.String("STRIPE_SECRET_KEY"),
		StripeBaseURL:   strings.TrimSpace(k.String("STRIPE_BASE_URL")),
		CurrencyCode:    strings.ToLower(valueOrDefault(k.String("CURRENCY_CODE"), "gbp")),

		CartTTL:          parseDuration(k.String("CART_TTL"), "168h"),
		CartSyncDebounce: parseDuration(k.String("CART_SYNC_DEBOUNCE"), "1s"),
		AttemptTTL:       parseDuration(k.String("CHECKOUT_ATTEMPT_TTL"), "24h"),
		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		CatalogCacheTTL:  parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),

		PaymentRateLimitWindow: parseDuration(k.String("PAYMENT_RATE_LIMIT_WINDOW"), "1m"),
		PaymentRateLimitMax:    parseInt64(k.String("PAYMENT_RATE_LIMIT_MAX"), 20),

		OutboundTimeout:    parseDuration(k.String("OUTBOUND_TIMEOUT"), "10s"),
		RetryBase:          parseDuration(k.String("RETRY_BASE"), "200ms"),
		RetryMaxAttempts:   parseInt(k.String("RETRY_MAX_ATTEMPTS"), 3),
		RetryJitterPercent: parseFloat(k.String("RETRY_JITTER_PERCENT"), 0.2),
		CircuitMinRequests: parseInt(k.String("CIRCUIT_MIN_REQUESTS"), 10),
		CircuitFailureRate: parseFloat(k.String("CIRCUIT_FAILURE_RATE"), 0.5),
		CircuitOpenFor:     parseDuration(k.String("CIRCUIT_OPEN_FOR"), "30s"),

		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 10),

		MetricsNamespace:   valueOrDefault(k.String("METRICS_NAMESPACE"), "craverscorner"),
		ObsLogFormat:       valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		ObsLogLevel:        valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		ObsTracingEnabled:  parseBool(k.String("OBS_TRACING_ENABLED")),
		ObsTracingEndpoint: strings.TrimSpace(k.String("OBS_TRACING_ENDPOINT")),
		ObsSamplingRatio:   parseFloat(k.String("OBS_SAMPLING_RATIO"), 1),

		EmailEnabled: parseBool(k.String("EMAIL_ENABLED")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.AuthJWTSecret == "" {
		return nil, errors.New("AUTH_JWT_SECRET is required")
	}
	if cfg.StripeSecretKey == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseInt(value string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return v
}

func parseInt64(value string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return v
}

// MustLoad behaves like Load but panics on error. Useful for command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
