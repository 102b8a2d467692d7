package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Football-Data API
	FootballDataToken         string        `envconfig:"FOOTBALL_DATA_TOKEN" required:"true"`
	FootballDataBaseURL       string        `envconfig:"FOOTBALL_DATA_BASE_URL" default:"https://api.football-data.org/v4"`
	FootballDataCompetitionID string        `envconfig:"FOOTBALL_DATA_COMPETITION_ID" default:"2013"`
	FootballDataTimeout       time.Duration `envconfig:"FOOTBALL_DATA_TIMEOUT" default:"30s"`
	FootballDataMaxRetries    int           `envconfig:"FOOTBALL_DATA_MAX_RETRIES" default:"0"`
	DefaultExternalLink       string        `envconfig:"DEFAULT_EXTERNAL_LINK" default:"https://g1.globo.com/futebol/brasileirao-serie-a/"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"bolao"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"bolao_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`
	AutoMigrate      bool   `envconfig:"AUTO_MIGRATE" default:"true"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Caching TTL (in seconds)
	CacheTTLCompetition int `envconfig:"CACHE_TTL_COMPETITION" default:"600"` // 10 minutes

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`

	// Access control
	AdminToken  string `envconfig:"ADMIN_TOKEN" default:""`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:""`

	// SubmissionTokenBypass skips submission token validation entirely.
	// Only accepted outside production.
	SubmissionTokenBypass bool `envconfig:"SUBMISSION_TOKEN_BYPASS" default:"false"`

	// Scheduler
	EnableScheduler    bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	SyncFinishedCron   string `envconfig:"SYNC_FINISHED_CRON" default:"*/30 * * * *"`
	FixtureRefreshCron string `envconfig:"FIXTURE_REFRESH_CRON" default:"0 9 * * *"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
	EnablePprof   bool `envconfig:"ENABLE_PPROF" default:"false"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if in development mode
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.FootballDataToken == "" {
		return fmt.Errorf("FOOTBALL_DATA_TOKEN is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.IsProduction() && c.SubmissionTokenBypass {
		return fmt.Errorf("SUBMISSION_TOKEN_BYPASS cannot be enabled in production")
	}

	if c.IsProduction() && strings.TrimSpace(c.AdminToken) == "" {
		return fmt.Errorf("ADMIN_TOKEN is required in production")
	}

	if c.FootballDataMaxRetries < 0 {
		return fmt.Errorf("FOOTBALL_DATA_MAX_RETRIES must not be negative")
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// CompetitionCacheTTL returns how long provider competition metadata stays cached
func (c *Config) CompetitionCacheTTL() time.Duration {
	return time.Duration(c.CacheTTLCompetition) * time.Second
}

// AllowedOrigins splits CORS_ORIGINS into a list. An empty value allows every origin.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
