package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds every setting of the panel. Values come from .env, then the environment,
// then command line flags.
type Config struct {
	AppEnv         string
	HTTPAddr       string
	DBDriver       string
	BadgerPath     string
	DatabaseURL    string
	PublicDiskRoot string
	PublicURL      string
	MaxUploadMB    int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	SessionSecret  string
	CORSOrigins    []string
	PerPage        int
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		AppEnv:         "local",
		HTTPAddr:       ":8080",
		DBDriver:       "badger",
		BadgerPath:     "data/badger",
		PublicDiskRoot: "storage/app/public",
		PublicURL:      "/storage",
		MaxUploadMB:    12,
		SessionSecret:  "change-me-in-production",
		CORSOrigins:    []string{"*"},
		PerPage:        10,
	}
}

// Load reads files (default ".env") with godotenv and overlays the environment on Default.
// Missing env files are ignored.
func Load(files ...string) (*Config, error) {
	cfg, err := Read(files...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Read is Load without Validate, for callers that apply overrides first.
func Read(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)
	return parseEnv(os.Getenv)
}

// FromEnv builds and validates a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg, err := parseEnv(getenv)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseEnv(getenv func(string) string) (*Config, error) {
	cfg := Default()

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be a number: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("APP_ENV", &cfg.AppEnv)
	str("HTTP_ADDR", &cfg.HTTPAddr)
	str("DB_DRIVER", &cfg.DBDriver)
	str("BADGER_PATH", &cfg.BadgerPath)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("PUBLIC_DISK_ROOT", &cfg.PublicDiskRoot)
	str("PUBLIC_URL", &cfg.PublicURL)
	str("REDIS_ADDR", &cfg.RedisAddr)
	str("REDIS_PASSWORD", &cfg.RedisPassword)
	str("SESSION_SECRET", &cfg.SessionSecret)
	if v := strings.TrimSpace(getenv("CORS_ALLOWED_ORIGINS")); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	for key, dst := range map[string]*int{
		"MAX_UPLOAD_MB": &cfg.MaxUploadMB,
		"REDIS_DB":      &cfg.RedisDB,
		"PER_PAGE":      &cfg.PerPage,
	} {
		if err := num(key, dst); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate checks combinations that cannot work.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "badger":
	case "sqlite", "postgres", "mysql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s driver", c.DBDriver)
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if c.PerPage <= 0 {
		return fmt.Errorf("PER_PAGE must be positive")
	}
	return nil
}

// DSN returns what the storage driver opens: the badger directory or the database URL.
func (c *Config) DSN() string {
	if c.DBDriver == "badger" {
		return c.BadgerPath
	}
	return c.DatabaseURL
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// IsLocal reports whether the panel runs in a development environment.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local" || c.AppEnv == "development" || c.AppEnv == "testing"
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
