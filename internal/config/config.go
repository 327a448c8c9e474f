package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"SERVER_PORT"`
		Mode            string `yaml:"mode" env:"SERVER_MODE"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	JWT struct {
		Secret                 string `yaml:"secret" env:"JWT_SECRET"`
		AccessTokenExpiration  string `yaml:"access_token_expiration" env:"JWT_ACCESS_TOKEN_EXPIRATION"`
		RefreshTokenExpiration string `yaml:"refresh_token_expiration" env:"JWT_REFRESH_TOKEN_EXPIRATION"`
		Issuer                 string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Redis struct {
		URL            string `yaml:"url" env:"REDIS_URL"`
		UnreadCountTTL string `yaml:"unread_count_ttl" env:"REDIS_UNREAD_COUNT_TTL"`
	} `yaml:"redis"`

	// Risk holds the at-risk evaluation policy. A zero BulkCooldown means any
	// existing notification suppresses a new one during a course-wide scan.
	Risk struct {
		Threshold         float64 `yaml:"threshold" env:"RISK_THRESHOLD"`
		SingleCooldown    string  `yaml:"single_cooldown" env:"RISK_SINGLE_COOLDOWN"`
		BulkCooldown      string  `yaml:"bulk_cooldown" env:"RISK_BULK_COOLDOWN"`
		EvaluationTimeout string  `yaml:"evaluation_timeout" env:"RISK_EVALUATION_TIMEOUT"`
	} `yaml:"risk"`

	Scheduler struct {
		Enabled      bool   `yaml:"enabled" env:"SCHEDULER_ENABLED"`
		AtRiskSweep  string `yaml:"at_risk_sweep" env:"SCHEDULER_AT_RISK_SWEEP"`
		TokenCleanup string `yaml:"token_cleanup" env:"SCHEDULER_TOKEN_CLEANUP"`
		JobTimeout   string `yaml:"job_timeout" env:"SCHEDULER_JOB_TIMEOUT"`
	} `yaml:"scheduler"`

	Seed struct {
		Enabled bool `yaml:"enabled" env:"SEED_ENABLED"`
	} `yaml:"seed"`
}

// LoadConfig loads configuration from a .env file, a YAML file and environment variables,
// in increasing order of precedence
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	config := &Config{}
	setDefaults(config)

	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.ShutdownTimeout = "15s"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "acadtrack"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 2
	config.Database.MaxOpenConns = 10
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	config.JWT.AccessTokenExpiration = "1h"
	config.JWT.RefreshTokenExpiration = "720h"
	config.JWT.Issuer = "acadtrack"

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.UnreadCountTTL = "5m"

	config.Risk.Threshold = 75
	config.Risk.SingleCooldown = "168h"
	config.Risk.BulkCooldown = "0s"
	config.Risk.EvaluationTimeout = "30s"

	config.Scheduler.Enabled = false
	config.Scheduler.AtRiskSweep = "0 0 2 * * *"
	config.Scheduler.TokenCleanup = "0 30 3 * * *"
	config.Scheduler.JobTimeout = "30m"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if config.Risk.Threshold <= 0 || config.Risk.Threshold > 100 {
		return fmt.Errorf("risk threshold must be in (0, 100], got %v", config.Risk.Threshold)
	}

	durations := map[string]string{
		"JWT access token expiration":  config.JWT.AccessTokenExpiration,
		"JWT refresh token expiration": config.JWT.RefreshTokenExpiration,
		"database conn max lifetime":   config.Database.ConnMaxLifetime,
		"server shutdown timeout":      config.Server.ShutdownTimeout,
		"risk single cooldown":         config.Risk.SingleCooldown,
		"risk bulk cooldown":           config.Risk.BulkCooldown,
		"risk evaluation timeout":      config.Risk.EvaluationTimeout,
		"redis unread count ttl":       config.Redis.UnreadCountTTL,
		"scheduler job timeout":        config.Scheduler.JobTimeout,
	}
	for name, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
