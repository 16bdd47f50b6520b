package config

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		envVars     map[string]string
		expectError bool
		errorMsg    string
	}{
		{
			name:    "minimal config uses defaults",
			envVars: map[string]string{"JWT_SECRET": "s3cret"},
		},
		{
			name: "all keys",
			envVars: map[string]string{
				"PORT":                        "9090",
				"DATABASE_URL":                "postgres://u:p@db:5432/shop?sslmode=disable",
				"JWT_SECRET":                  "s3cret",
				"JWT_TTL_MINUTES":             "15",
				"GO_ENV":                      "prod",
				"LOG_LEVEL":                   "debug",
				"LOG_FORMAT":                  "console",
				"REDIS_ADDR":                  "localhost:6379",
				"PROMOTION_CACHE_TTL_SECONDS": "30",
				"BCRYPT_COST":                 "10",
			},
		},
		{
			name:        "missing JWT secret",
			envVars:     map[string]string{},
			expectError: true,
			errorMsg:    "JWT_SECRET is required",
		},
		{
			name:        "port not a number",
			envVars:     map[string]string{"JWT_SECRET": "s", "POSTGRES_PORT": "abc"},
			expectError: true,
			errorMsg:    "POSTGRES_PORT must be number",
		},
		{
			name:        "invalid log level",
			envVars:     map[string]string{"JWT_SECRET": "s", "LOG_LEVEL": "loud"},
			expectError: true,
			errorMsg:    "invalid LOG_LEVEL",
		},
		{
			name:        "invalid log format",
			envVars:     map[string]string{"JWT_SECRET": "s", "LOG_FORMAT": "xml"},
			expectError: true,
			errorMsg:    "invalid LOG_FORMAT",
		},
		{
			name:        "bcrypt cost out of range",
			envVars:     map[string]string{"JWT_SECRET": "s", "BCRYPT_COST": "2"},
			expectError: true,
			errorMsg:    "invalid BCRYPT_COST",
		},
	}

	keys := []string{
		"PORT", "DATABASE_URL", "POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_DB", "POSTGRES_HOST",
		"POSTGRES_PORT", "POSTGRES_SSLMODE", "JWT_SECRET", "JWT_TTL_MINUTES", "GO_ENV", "LOG_LEVEL",
		"LOG_FORMAT", "REDIS_ADDR", "PROMOTION_CACHE_TTL_SECONDS", "BCRYPT_COST", "ADMIN_EMAIL", "ADMIN_PASSWORD",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range keys {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s3cret", cfg.JWTSecret)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "POSTGRES_HOST", "POSTGRES_PORT", "JWT_TTL_MINUTES", "REDIS_ADDR", "PROMOTION_CACHE_TTL_SECONDS", "BCRYPT_COST", "LOG_LEVEL", "LOG_FORMAT", "GO_ENV"} {
		t.Setenv(k, "")
	}
	t.Setenv("JWT_SECRET", "s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, time.Minute, cfg.PromotionCacheTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "", cfg.RedisAddr)
	assert.Equal(t, "dev", cfg.GoEnv)
	assert.Contains(t, cfg.DSN(), "host=localhost port=5432")
}

func TestDSN_PrefersDatabaseURL(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://x", PostgresHost: "ignored"}
	assert.Equal(t, "postgres://x", cfg.DSN())
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(Config{LogLevel: "warn", LogFormat: "json", GoEnv: "test"}, &buf)

	logger.Info().Msg("dropped")
	logger.Warn().Str("k", "v").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "v", line["k"])
	assert.Equal(t, "test", line["env"])
}
