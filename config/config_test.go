package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func validConfig(t *testing.T) Config {
	return Config{
		Port:              "8080",
		OwnerKey:          "alice",
		AllocationPolicy:  "capped_percent",
		DistributionLimit: 2,
		Locale:            "de",
		LocalBackend:      BackendSQLite,
		RemoteBackend:     BackendNone,
		SQLiteDBPath:      filepath.Join(t.TempDir(), "budget.db"),
		SaveDebounce:      750 * time.Millisecond,
		LogFormat:         "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		errorString string
	}{
		{name: "valid config"},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "unknown policy",
			mutate:      func(c *Config) { c.AllocationPolicy = "envelopes" },
			errorString: "invalid allocation policy 'envelopes'",
		},
		{
			name:        "postgres without url",
			mutate:      func(c *Config) { c.RemoteBackend = BackendPostgres },
			errorString: "DATABASE_URL is required",
		},
		{
			name: "redis on both sides",
			mutate: func(c *Config) {
				c.LocalBackend = BackendRedis
				c.RemoteBackend = BackendRedis
				c.RedisURL = "localhost:6379"
			},
			errorString: "cannot both be redis",
		},
		{
			name:        "debounce too short",
			mutate:      func(c *Config) { c.SaveDebounce = 10 * time.Millisecond },
			errorString: "must be at least 100ms",
		},
		{
			name:        "missing seed file",
			mutate:      func(c *Config) { c.SeedFile = "/definitely/not/here.yaml" },
			errorString: "seed file not readable",
		},
		{
			name:        "bad log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			errorString: "invalid log format 'xml'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			err := cfg.Validate()
			if tt.errorString == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Port = "0"
	cfg.OwnerKey = " "

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port 0")
	assert.Contains(t, err.Error(), "owner key cannot be empty")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ALLOCATION_POLICY", "fixed_split")
	t.Setenv("SAVE_DEBOUNCE", "2s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DISTRIBUTION_LIMIT", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "fixed_split", cfg.AllocationPolicy)
	assert.Equal(t, 2*time.Second, cfg.SaveDebounce)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 2, cfg.DistributionLimit, "falls back to default")
	assert.Equal(t, BackendSQLite, cfg.LocalBackend)
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OWNER_KEY=from-dotenv\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	// godotenv never overrides variables that are already set
	t.Setenv("OWNER_KEY", "")
	os.Unsetenv("OWNER_KEY")

	cfg := Load()
	t.Cleanup(func() { os.Unsetenv("OWNER_KEY") })

	assert.Equal(t, "from-dotenv", cfg.OwnerKey)
}

func TestLanguageTag(t *testing.T) {
	cfg := validConfig(t)
	cfg.Locale = "en-US"
	assert.Equal(t, "en-US", cfg.LanguageTag().String())

	cfg.Locale = "???"
	assert.Equal(t, language.German, cfg.LanguageTag())
}
