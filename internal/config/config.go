package config

import (
	"fmt"
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
	LogLevel           string
	LogFormat          string
	RedisURL           string
	CORSAllowedOrigins []string

	StripeSecretKey      string
	RazorpayKeyID        string
	RazorpayKeySecret    string
	WiseAPIToken         string
	WiseProfile          string
	FlutterwaveSecretKey string
	DisabledGateways     []string

	DispatchTimeout     time.Duration
	IdempotencyTTL      time.Duration
	RateLimitWindow     time.Duration
	RateLimitMax        int
	BreakerMinRequests  int
	BreakerFailureRatio float64
	BreakerOpenFor      time.Duration

	OTLPEndpoint     string
	TraceSampleRatio float64
	MaxBodyBytes     int64
}

// Load reads configuration from environment variables and optional .env files.
// Redis and gateway credentials are optional: a gateway without credentials
// stays visible in the capability table but cannot be dispatched to.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		StripeSecretKey:      k.String("STRIPE_SECRET_KEY"),
		RazorpayKeyID:        k.String("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:    k.String("RAZORPAY_KEY_SECRET"),
		WiseAPIToken:         k.String("WISE_API_TOKEN"),
		WiseProfile:          k.String("WISE_PROFILE"),
		FlutterwaveSecretKey: k.String("FLUTTERWAVE_SECRET_KEY"),
		DisabledGateways:     splitAndTrim(strings.ToLower(k.String("GATEWAY_DISABLED"))),

		DispatchTimeout:     parseDuration(k.String("DISPATCH_TIMEOUT"), "10s"),
		IdempotencyTTL:      parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		RateLimitWindow:     parseDuration(k.String("RATE_LIMIT_WINDOW"), "1m"),
		RateLimitMax:        int(k.Int64("RATE_LIMIT_MAX")),
		BreakerMinRequests:  int(k.Int64("BREAKER_MIN_REQUESTS")),
		BreakerFailureRatio: k.Float64("BREAKER_FAILURE_RATIO"),
		BreakerOpenFor:      parseDuration(k.String("BREAKER_OPEN_FOR"), "30s"),

		OTLPEndpoint:     k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TraceSampleRatio: k.Float64("TRACE_SAMPLE_RATIO"),
		MaxBodyBytes:     k.Int64("MAX_BODY_BYTES"),
	}

	if cfg.RateLimitMax <= 0 {
		cfg.RateLimitMax = 120
	}
	if cfg.BreakerMinRequests <= 0 {
		cfg.BreakerMinRequests = 10
	}
	if cfg.BreakerFailureRatio <= 0 || cfg.BreakerFailureRatio > 1 {
		cfg.BreakerFailureRatio = 0.5
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
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

// GatewayDisabled reports whether ops turned the gateway off via env.
func (c *Config) GatewayDisabled(id string) bool {
	for _, disabled := range c.DisabledGateways {
		if disabled == strings.ToLower(id) {
			return true
		}
	}
	return false
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
