// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"relocation_quiz_backend/platform/apperr"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetPublicRateLimitPerMinute() int
}

// AdminAuthConfig provides JWT validation settings for the admin API.
type AdminAuthConfig interface {
	GetAdminJWTSecret() string
	IsAdminAPIEnabled() bool
}

// SubmissionConfig provides per-form throttling windows and the
// persistence deadline for the submission pipeline.
type SubmissionConfig interface {
	GetContactRateWindow() time.Duration
	GetLeadMagnetRateWindow() time.Duration
	GetQuizRateWindow() time.Duration
	GetSubmissionTimeout() time.Duration
}

// SavingsConfig provides the location of the bracket table file.
type SavingsConfig interface {
	GetBracketConfigPath() string
}

// SchedulerConfig provides Redis/asynq settings for background jobs.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetRateLimitRetention() time.Duration
	GetRateLimitPruneSchedule() string
}

// MinIOConfig provides settings for the lead-magnet guide storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetLeadMagnetBucket() string
	GetLeadMagnetObject() string
	GetLeadMagnetURLTTL() time.Duration
	IsMinIOEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                      string
	HTTPAddr                 string
	DatabaseURL              string
	CORSAllowAll             bool
	CORSOrigins              []string
	CORSAllowCreds           bool
	PublicRateLimitPerMinute int
	AdminJWTSecret           string
	BracketConfigPath        string
	ContactRateWindow        time.Duration
	LeadMagnetRateWindow     time.Duration
	QuizRateWindow           time.Duration
	SubmissionTimeout        time.Duration
	RedisURL                 string
	RedisTLSInsecure         bool
	AsynqQueueName           string
	AsynqConcurrency         int
	RateLimitRetention       time.Duration
	RateLimitPruneSchedule   string
	MinIOEndpoint            string
	MinIOAccessKey           string
	MinIOSecretKey           string
	MinIOUseSSL              bool
	LeadMagnetBucket         string
	LeadMagnetObject         string
	LeadMagnetURLTTL         time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string              { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool            { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string         { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool          { return c.CORSAllowCreds }
func (c *Config) GetPublicRateLimitPerMinute() int { return c.PublicRateLimitPerMinute }

// AdminAuthConfig implementation
func (c *Config) GetAdminJWTSecret() string { return c.AdminJWTSecret }
func (c *Config) IsAdminAPIEnabled() bool   { return c.AdminJWTSecret != "" }

// SubmissionConfig implementation
func (c *Config) GetContactRateWindow() time.Duration    { return c.ContactRateWindow }
func (c *Config) GetLeadMagnetRateWindow() time.Duration { return c.LeadMagnetRateWindow }
func (c *Config) GetQuizRateWindow() time.Duration       { return c.QuizRateWindow }
func (c *Config) GetSubmissionTimeout() time.Duration    { return c.SubmissionTimeout }

// SavingsConfig implementation
func (c *Config) GetBracketConfigPath() string { return c.BracketConfigPath }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                  { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool            { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string            { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int             { return c.AsynqConcurrency }
func (c *Config) GetRateLimitRetention() time.Duration { return c.RateLimitRetention }
func (c *Config) GetRateLimitPruneSchedule() string    { return c.RateLimitPruneSchedule }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string           { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string          { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string          { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool               { return c.MinIOUseSSL }
func (c *Config) GetLeadMagnetBucket() string        { return c.LeadMagnetBucket }
func (c *Config) GetLeadMagnetObject() string        { return c.LeadMagnetObject }
func (c *Config) GetLeadMagnetURLTTL() time.Duration { return c.LeadMagnetURLTTL }
func (c *Config) IsMinIOEnabled() bool {
	return c.MinIOEndpoint != "" && c.LeadMagnetBucket != "" && c.LeadMagnetObject != ""
}

// Load reads configuration from environment variables. Malformed or
// inconsistent values are reported as a configuration error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4321"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	var env envParser
	cfg := &Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPAddr:                 getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		CORSAllowAll:             corsAllowAll,
		CORSOrigins:              corsOrigins,
		CORSAllowCreds:           strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		PublicRateLimitPerMinute: env.int("PUBLIC_RATE_LIMIT_PER_MINUTE", "30"),
		AdminJWTSecret:           getEnv("ADMIN_JWT_SECRET", ""),
		BracketConfigPath:        getEnv("BRACKET_CONFIG_PATH", ""),
		ContactRateWindow:        env.duration("RATE_LIMIT_WINDOW_CONTACT", "300s"),
		LeadMagnetRateWindow:     env.duration("RATE_LIMIT_WINDOW_LEAD_MAGNET", "120s"),
		QuizRateWindow:           env.duration("RATE_LIMIT_WINDOW_QUIZ", "180s"),
		SubmissionTimeout:        env.duration("SUBMISSION_TIMEOUT", "10s"),
		MinIOEndpoint:            getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:           getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:           getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:              strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		LeadMagnetBucket:         getEnv("LEAD_MAGNET_BUCKET", "lead-magnets"),
		LeadMagnetObject:         getEnv("LEAD_MAGNET_OBJECT", ""),
		LeadMagnetURLTTL:         env.duration("LEAD_MAGNET_URL_TTL", "24h"),
	}
	cfg.loadScheduler(&env)

	if err := env.err("config.Load"); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadScheduler reads only the settings needed to enqueue background tasks.
// It does not require a database or HTTP configuration.
func LoadScheduler() (*Config, error) {
	_ = godotenv.Load()

	var env envParser
	cfg := &Config{Env: getEnv("APP_ENV", "development")}
	cfg.loadScheduler(&env)

	if err := env.err("config.LoadScheduler"); err != nil {
		return nil, err
	}
	if cfg.RedisURL == "" {
		return nil, configError("config.LoadScheduler", "REDIS_URL is required")
	}
	if cfg.RateLimitRetention <= 0 {
		return nil, configError("config.LoadScheduler", "RATE_LIMIT_RETENTION must be a positive duration")
	}
	return cfg, nil
}

func (c *Config) loadScheduler(env *envParser) {
	c.RedisURL = getEnv("REDIS_URL", "")
	c.RedisTLSInsecure = strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true")
	c.AsynqQueueName = getEnv("ASYNQ_QUEUE", "default")
	c.AsynqConcurrency = env.int("ASYNQ_CONCURRENCY", "2")
	c.RateLimitRetention = env.duration("RATE_LIMIT_RETENTION", "168h")
	c.RateLimitPruneSchedule = getEnv("RATE_LIMIT_PRUNE_SCHEDULE", "@every 1h")
}

func (c *Config) validate() error {
	const op = "config.validate"
	if c.DatabaseURL == "" {
		return configError(op, "DATABASE_URL is required")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return configError(op, "CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if c.PublicRateLimitPerMinute < 1 {
		return configError(op, "PUBLIC_RATE_LIMIT_PER_MINUTE must be at least 1")
	}
	windows := map[string]time.Duration{
		"RATE_LIMIT_WINDOW_CONTACT":     c.ContactRateWindow,
		"RATE_LIMIT_WINDOW_LEAD_MAGNET": c.LeadMagnetRateWindow,
		"RATE_LIMIT_WINDOW_QUIZ":        c.QuizRateWindow,
	}
	for key, window := range windows {
		if window <= 0 {
			return configError(op, key+" must be a positive duration")
		}
		if c.RateLimitRetention > 0 && window > c.RateLimitRetention {
			return configError(op, key+" cannot exceed RATE_LIMIT_RETENTION")
		}
	}
	if c.SubmissionTimeout <= 0 {
		return configError(op, "SUBMISSION_TIMEOUT must be a positive duration")
	}
	if c.RateLimitRetention <= 0 {
		return configError(op, "RATE_LIMIT_RETENTION must be a positive duration")
	}
	return nil
}

func configError(op, message string) error {
	return apperr.Configuration(message).WithOp(op)
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// envParser reads typed values and remembers every key that failed to parse.
type envParser struct {
	invalid []string
}

func (p *envParser) duration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		p.invalid = append(p.invalid, fmt.Sprintf("%s=%q is not a duration", key, raw))
		return 0
	}
	return d
}

func (p *envParser) int(key, fallback string) int {
	raw := getEnv(key, fallback)
	result, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.invalid = append(p.invalid, fmt.Sprintf("%s=%q is not an integer", key, raw))
		return 0
	}
	return result
}

func (p *envParser) err(op string) error {
	if len(p.invalid) == 0 {
		return nil
	}
	return configError(op, "invalid environment: "+strings.Join(p.invalid, "; "))
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
