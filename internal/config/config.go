// Package config loads and validates process configuration from the
// environment, grounded on the teacher's internal/config/config.go:
// typed getEnv* helpers, a fail-fast ValidateConfig called right after
// LoadConfig, same naming conventions for the HTTP/CORS/rate-limit knobs
// this system shares with the teacher's server.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = "8080"

	DefaultMaxUploadBytes = 10 << 20 // 10MB; checked by ValidateConfig, not applied by the HTTP router

	DefaultHTTPClientTimeout = 30 * time.Second

	DefaultRateLimit       = 60
	DefaultRateLimitWindow = time.Minute
	DefaultTrustedProxies  = "127.0.0.1,::1"

	DefaultOpenAIModel      = "gpt-4o-mini"
	DefaultAIRequestTimeout = 30 * time.Second
	DefaultAIMaxRetries     = 2
	DefaultAIRetryBaseDelay = time.Second

	DefaultCreditStoreBackend = "file"
	DefaultCreditStorePath    = ".data/credits.json"
)

// Config is the process-wide, immutable configuration loaded once at
// startup. Safe to share across goroutines without synchronization.
type Config struct {
	Host        string
	Port        string
	CORSOrigins []string

	MaxUploadBytes int64

	HTTPClientTimeout time.Duration

	RateLimit       int
	RateLimitWindow time.Duration
	TrustedProxies  []string

	// OpenAI-backed synonym suggester (optional; suggester is unavailable
	// when OpenAIAPIKey is empty).
	OpenAIAPIKey     string
	OpenAIModel      string
	AIRequestTimeout time.Duration
	AIMaxRetries     int
	AIRetryBaseDelay time.Duration

	// Google Sheets ingestion (optional; returns unsupported_source when
	// GoogleSheetsAPIKey is empty).
	GoogleSheetsAPIKey string

	// Credit/key store (optional external collaborator; see spec.md §6).
	CreditStoreEnabled bool
	CreditStoreBackend string // "file" or "sqlite"
	CreditStorePath    string
	AdminToken         string
}

// LoadConfig reads configuration from the environment, applying defaults
// for anything unset.
func LoadConfig() *Config {
	corsOrigins := getEnv("CORS_ORIGINS", "http://localhost:3000")
	openAIAPIKey := getEnv("OPENAI_API_KEY", "")

	return &Config{
		Host:        getEnv("HOST", DefaultHost),
		Port:        getEnv("PORT", DefaultPort),
		CORSOrigins: splitCSV(corsOrigins),

		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),

		HTTPClientTimeout: getEnvDuration("HTTP_CLIENT_TIMEOUT", DefaultHTTPClientTimeout),

		RateLimit:       getEnvInt("RATE_LIMIT", DefaultRateLimit),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", DefaultRateLimitWindow),
		TrustedProxies:  splitCSV(getEnv("TRUSTED_PROXIES", DefaultTrustedProxies)),

		OpenAIAPIKey:     openAIAPIKey,
		OpenAIModel:      getEnv("OPENAI_MODEL", DefaultOpenAIModel),
		AIRequestTimeout: getEnvDuration("AI_REQUEST_TIMEOUT", DefaultAIRequestTimeout),
		AIMaxRetries:     getEnvInt("AI_MAX_RETRIES", DefaultAIMaxRetries),
		AIRetryBaseDelay: getEnvDuration("AI_RETRY_BASE_DELAY", DefaultAIRetryBaseDelay),

		GoogleSheetsAPIKey: getEnv("GOOGLE_SHEETS_API_KEY", ""),

		CreditStoreEnabled: getEnvBool("CREDIT_STORE_ENABLED", false),
		CreditStoreBackend: getEnv("CREDIT_STORE_BACKEND", DefaultCreditStoreBackend),
		CreditStorePath:    getEnv("CREDIT_STORE_PATH", DefaultCreditStorePath),
		AdminToken:         getEnv("ADMIN_TOKEN", ""),
	}
}

// ValidateConfig checks config values and returns an error on failure.
// Call after LoadConfig to fail fast on invalid configuration.
func ValidateConfig(cfg *Config) error {
	if cfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.Port != "" {
		if _, err := strconv.Atoi(cfg.Port); err != nil {
			return fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
		}
	}
	if len(cfg.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS must have at least one origin")
	}
	for _, origin := range cfg.CORSOrigins {
		if origin == "*" {
			continue
		}
		if origin == "" || (!strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://")) {
			return fmt.Errorf("CORS_ORIGINS entry %q must be \"*\" or a valid http(s) URL", origin)
		}
	}
	if cfg.RateLimit <= 0 {
		return fmt.Errorf("RATE_LIMIT must be positive")
	}
	if len(cfg.TrustedProxies) == 0 {
		return fmt.Errorf("TRUSTED_PROXIES must have at least one entry")
	}
	for _, proxy := range cfg.TrustedProxies {
		if proxy == "" {
			return fmt.Errorf("TRUSTED_PROXIES must not contain empty entries")
		}
		if net.ParseIP(proxy) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(proxy); err == nil {
			continue
		}
		return fmt.Errorf("TRUSTED_PROXIES entry %q must be a valid IP or CIDR", proxy)
	}
	if cfg.CreditStoreEnabled && cfg.CreditStoreBackend != "file" && cfg.CreditStoreBackend != "sqlite" {
		return fmt.Errorf("CREDIT_STORE_BACKEND must be \"file\" or \"sqlite\", got %q", cfg.CreditStoreBackend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var items []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
