package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/benvon/smart-planner/internal/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	ServerPort  string
	BaseURL     string
	FrontendURL string

	OpenAIKey         string
	AIModel           string
	AIBaseURL         string
	AIRequestTimeout  time.Duration
	AIBreakerFailures int
	AIBreakerCooldown time.Duration

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURI  string
	OIDCJWKSURL      string

	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	DLQRetention     time.Duration

	EnableHSTS      bool
	CORSOrigins     []string
	RateLimit       string // ulule formatted, e.g. "120-M"
	LogFormat       string // json or console
	WorkerDebugMode bool
	ServerDebugMode bool
	OTELEnabled     bool
	OTELEndpoint    string
	OTELSampleRatio float64

	Planner Planner
}

// Planner holds scheduling defaults. It can be overlaid from a YAML file
// named by PLANNER_CONFIG_FILE and then from PLANNER_* variables.
type Planner struct {
	DayStart           string          `yaml:"day_start"`
	AutoGroup          bool            `yaml:"auto_group"`
	FallbackCategory   models.Category `yaml:"fallback_category"`
	FallbackDuration   models.Duration `yaml:"fallback_duration"`
	TimelineCacheTTL   time.Duration   `yaml:"timeline_cache_ttl"`
	ClassifyMaxRetries int             `yaml:"classify_max_retries"`
}

// DefaultPlanner returns the built-in planner settings
func DefaultPlanner() Planner {
	return Planner{
		DayStart:           "09:00",
		AutoGroup:          true,
		FallbackCategory:   models.CategoryLight,
		FallbackDuration:   models.Duration30,
		TimelineCacheTTL:   10 * time.Minute,
		ClassifyMaxRetries: 3,
	}
}

// Load loads configuration from a .env file, if present, and environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		BaseURL:           getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:3000"),
		OpenAIKey:         getEnv("OPENAI_API_KEY", ""),
		AIModel:           getEnv("AI_MODEL", ""),
		AIBaseURL:         getEnv("AI_BASE_URL", ""),
		AIRequestTimeout:  getEnvDuration("AI_REQUEST_TIMEOUT", 20*time.Second),
		AIBreakerFailures: getEnvInt("AI_BREAKER_FAILURES", 5),
		AIBreakerCooldown: getEnvDuration("AI_BREAKER_COOLDOWN", 30*time.Second),
		OIDCIssuer:        getEnv("OIDC_ISSUER", ""),
		OIDCClientID:      getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret:  getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURI:   getEnv("OIDC_REDIRECT_URI", ""),
		OIDCJWKSURL:       getEnv("OIDC_JWKS_URL", ""),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:       getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch:  getEnvInt("RABBITMQ_PREFETCH", 1),
		DLQRetention:      getEnvDuration("DLQ_RETENTION", 7*24*time.Hour),
		EnableHSTS:        getEnvBool("ENABLE_HSTS", false),
		CORSOrigins:       getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RateLimit:         getEnv("RATE_LIMIT", "120-M"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		WorkerDebugMode:   getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:   getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:       getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:      getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSampleRatio:   getEnvFloat("OTEL_SAMPLE_RATIO", 1),
		Planner:           DefaultPlanner(),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if path := getEnv("PLANNER_CONFIG_FILE", ""); path != "" {
		p, err := LoadPlannerFile(path, cfg.Planner)
		if err != nil {
			return nil, err
		}
		cfg.Planner = p
	}
	cfg.Planner = plannerFromEnv(cfg.Planner)

	if err := cfg.Planner.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RequireQueue reports an error when no RabbitMQ URL is configured
func (c *Config) RequireQueue() error {
	if c.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL is required for task classification")
	}
	return nil
}

// OIDC returns the identity provider settings
func (c *Config) OIDC() models.OIDCConfig {
	return models.OIDCConfig{
		Issuer:       c.OIDCIssuer,
		ClientID:     c.OIDCClientID,
		ClientSecret: c.OIDCClientSecret,
		RedirectURI:  c.OIDCRedirectURI,
		JWKSURL:      c.OIDCJWKSURL,
	}
}

// LoadPlannerFile overlays the YAML file at path onto base
func LoadPlannerFile(path string, base Planner) (Planner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read planner config: %w", err)
	}
	p := base
	if err := yaml.Unmarshal(data, &p); err != nil {
		return base, fmt.Errorf("failed to parse planner config: %w", err)
	}
	return p, nil
}

func plannerFromEnv(p Planner) Planner {
	p.DayStart = getEnv("PLANNER_DAY_START", p.DayStart)
	p.AutoGroup = getEnvBool("PLANNER_AUTO_GROUP", p.AutoGroup)
	p.FallbackCategory = models.Category(getEnv("PLANNER_FALLBACK_CATEGORY", string(p.FallbackCategory)))
	p.FallbackDuration = models.Duration(getEnvInt("PLANNER_FALLBACK_DURATION", int(p.FallbackDuration)))
	p.TimelineCacheTTL = getEnvDuration("PLANNER_TIMELINE_CACHE_TTL", p.TimelineCacheTTL)
	p.ClassifyMaxRetries = getEnvInt("PLANNER_CLASSIFY_MAX_RETRIES", p.ClassifyMaxRetries)
	return p
}

// Validate checks that planner defaults are usable
func (p Planner) Validate() error {
	var errs []error
	if _, err := time.Parse("15:04", p.DayStart); err != nil {
		errs = append(errs, fmt.Errorf("invalid day start %q: expected HH:MM", p.DayStart))
	}
	if !p.FallbackCategory.Valid() {
		errs = append(errs, fmt.Errorf("invalid fallback category %q", p.FallbackCategory))
	}
	if !p.FallbackDuration.Valid() {
		errs = append(errs, fmt.Errorf("invalid fallback duration %d", p.FallbackDuration))
	}
	if p.TimelineCacheTTL < 0 {
		errs = append(errs, fmt.Errorf("timeline cache ttl must not be negative"))
	}
	if p.ClassifyMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("classify max retries must not be negative"))
	}
	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
