/*
Package config loads process configuration from the environment.

SOURCES (later wins):
  1. Defaults below
  2. .env file in the working directory, if present (godotenv)
  3. Process environment

KEYS:
  PORT               HTTP port                          (8080)
  OWNER_KEY          Budget owner scope                 (default)
  ALLOCATION_POLICY  fixed_split|capped_percent|auto_accrual (auto_accrual)
  DISTRIBUTION_LIMIT Cap for capped_percent             (2)
  LOCAL_BACKEND      memory|sqlite|redis                (sqlite)
  REMOTE_BACKEND     none|postgres|redis                (none)
  SQLITE_DB_PATH     SQLite file                        (./data/budget.db)
  DATABASE_URL       PostgreSQL URL
  REDIS_URL          Redis address or URL               (localhost:6379)
  REDIS_PREFIX       Redis key prefix                   (budget)
  SAVE_DEBOUNCE      Debounce window for saves          (750ms)
  SEED_FILE          Default budget (yaml, toml, json)
  LOG_LEVEL          debug|info|warn|error              (info)
  LOG_FORMAT         text|json                          (text)
  CORS_ORIGINS       Comma-separated allowed origins    (http://localhost:5173)
  LOCALE             BCP 47 tag for amount formatting   (de)
*/
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// Backend names.
const (
	BackendNone     = "none"
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	// HTTP Server
	Port        string
	CORSOrigins []string

	// Budget
	OwnerKey          string
	AllocationPolicy  string
	DistributionLimit int
	SeedFile          string
	Locale            string

	// Storage
	LocalBackend  string
	RemoteBackend string
	SQLiteDBPath  string
	DatabaseURL   string
	RedisURL      string
	RedisPrefix   string
	SaveDebounce  time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads .env (when present) and the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment only.
func FromEnv() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		OwnerKey:          getEnv("OWNER_KEY", "default"),
		AllocationPolicy:  getEnv("ALLOCATION_POLICY", "auto_accrual"),
		DistributionLimit: getEnvInt("DISTRIBUTION_LIMIT", 2),
		SeedFile:          getEnv("SEED_FILE", ""),
		Locale:            getEnv("LOCALE", "de"),

		LocalBackend:  getEnv("LOCAL_BACKEND", BackendSQLite),
		RemoteBackend: getEnv("REMOTE_BACKEND", BackendNone),
		SQLiteDBPath:  getEnv("SQLITE_DB_PATH", "./data/budget.db"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPrefix:   getEnv("REDIS_PREFIX", "budget"),
		SaveDebounce:  getEnvDuration("SAVE_DEBOUNCE", 750*time.Millisecond),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if strings.TrimSpace(c.OwnerKey) == "" {
		errors = append(errors, "owner key cannot be empty")
	}

	validPolicies := []string{"fixed_split", "capped_percent", "auto_accrual"}
	if !contains(validPolicies, c.AllocationPolicy) {
		errors = append(errors, fmt.Sprintf("invalid allocation policy '%s': must be one of %v", c.AllocationPolicy, validPolicies))
	}
	if c.DistributionLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid distribution limit %d: must be at least 1", c.DistributionLimit))
	}

	validLocal := []string{BackendMemory, BackendSQLite, BackendRedis}
	if !contains(validLocal, c.LocalBackend) {
		errors = append(errors, fmt.Sprintf("invalid local backend '%s': must be one of %v", c.LocalBackend, validLocal))
	}
	validRemote := []string{BackendNone, BackendPostgres, BackendRedis}
	if !contains(validRemote, c.RemoteBackend) {
		errors = append(errors, fmt.Sprintf("invalid remote backend '%s': must be one of %v", c.RemoteBackend, validRemote))
	}
	if c.LocalBackend == BackendRedis && c.RemoteBackend == BackendRedis {
		errors = append(errors, "local and remote backend cannot both be redis")
	}

	if c.LocalBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" && c.SQLiteDBPath != ":memory:" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}
	if c.RemoteBackend == BackendPostgres && c.DatabaseURL == "" {
		errors = append(errors, "DATABASE_URL is required when using postgres remote backend")
	}
	if (c.LocalBackend == BackendRedis || c.RemoteBackend == BackendRedis) && c.RedisURL == "" {
		errors = append(errors, "REDIS_URL is required when using redis backend")
	}

	if c.SaveDebounce < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid save debounce %v: must be at least 100ms", c.SaveDebounce))
	} else if c.SaveDebounce > 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid save debounce %v: must be at most 10s", c.SaveDebounce))
	}

	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("seed file not readable: %s", c.SeedFile))
		}
	}

	if _, err := language.Parse(c.Locale); err != nil {
		errors = append(errors, fmt.Sprintf("invalid locale '%s': %v", c.Locale, err))
	}

	validFormats := []string{"text", "json"}
	if !contains(validFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validFormats))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// LanguageTag returns the parsed locale, falling back to German.
func (c *Config) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.German
	}
	return tag
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
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
