package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend constants
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string

	// GitHub OAuth (authorization-code flow)
	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURI  string
	GitHubScopes       []string

	// GitHub OAuth (device flow)
	GitHubDeviceClientID string

	// GitHub endpoints (overridable for testing against scripted servers)
	GitHubBaseURL    string // authorize / token / device endpoints
	GitHubAPIBaseURL string // REST API

	// Session token settings
	JWTSecret          string
	JWTAlgorithm       string // HS256, HS384 or HS512
	JWTExpirationHours int

	// Token-at-rest encryption
	EncryptionSecret string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string

	// Outbound HTTP timeouts
	OAuthTimeout     time.Duration // identity/token-exchange calls
	GitHubAPITimeout time.Duration // bulk data calls

	// GitHub data-plane retry policy (network errors and 5xx only)
	GitHubMaxRetries int
	GitHubRetryDelay time.Duration

	// Cache (OAuth state tracking + repository-listing cache)
	CacheType     string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StateTTL      time.Duration
	RepoCacheTTL  time.Duration

	// Rate limiting on auth endpoints
	RateLimitEnabled           bool
	RateLimitRequestsPerMinute int

	// Metrics
	MetricsEnabled bool
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "brandai.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":5001"),
		BaseURL:    getEnv("BASE_URL", "http://localhost:5001"),

		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubRedirectURI:  getEnv("GITHUB_REDIRECT_URI", ""),
		GitHubScopes: getEnvSlice(
			"GITHUB_SCOPES",
			[]string{"repo", "read:org", "read:user"},
		),

		GitHubDeviceClientID: getEnv("GITHUB_DEVICE_CLIENT_ID", ""),

		GitHubBaseURL:    getEnv("GITHUB_BASE_URL", "https://github.com"),
		GitHubAPIBaseURL: getEnv("GITHUB_API_BASE_URL", "https://api.github.com"),

		JWTSecret:          getEnv("JWT_SECRET_KEY", ""),
		JWTAlgorithm:       getEnv("JWT_ALGORITHM", "HS256"),
		JWTExpirationHours: getEnvInt("JWT_EXPIRATION_HOURS", 24),

		EncryptionSecret: getEnv("ENCRYPTION_KEY", ""),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		OAuthTimeout:     getEnvDuration("OAUTH_TIMEOUT", 10*time.Second),
		GitHubAPITimeout: getEnvDuration("GITHUB_API_TIMEOUT", 30*time.Second),

		GitHubMaxRetries: getEnvInt("GITHUB_MAX_RETRIES", 2),
		GitHubRetryDelay: getEnvDuration("GITHUB_RETRY_DELAY", 1*time.Second),

		CacheType:     getEnv("CACHE_TYPE", CacheTypeMemory),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		StateTTL:      getEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
		RepoCacheTTL:  getEnvDuration("REPO_CACHE_TTL", 2*time.Minute),

		RateLimitEnabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}
}

// JWTExpiration returns the configured session lifetime as a duration.
func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}

// Validate checks settings that must be coherent at startup. Missing GitHub
// or JWT secrets are not fatal here: the affected operations fail with a
// configuration error instead, so the rest of the service stays usable.
func (c *Config) Validate() error {
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.DatabaseDriver)
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required for driver %s", c.DatabaseDriver)
	}
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT algorithm: %s", c.JWTAlgorithm)
	}
	if c.JWTExpirationHours <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be positive")
	}
	if c.CacheType != CacheTypeMemory && c.CacheType != CacheTypeRedis {
		return fmt.Errorf("unsupported cache type: %s", c.CacheType)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var parts []string
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}
