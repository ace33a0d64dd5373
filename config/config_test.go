package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestEnv(t *testing.T) {
	t.Setenv("ENV", "test")
	t.Setenv("CI", "")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfig(t *testing.T) {
	setTestEnv(t)
	t.Setenv("DB_NAME", "foodgram_test")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("PUBLIC_BASE_URL", "https://foodgram.example.com/")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://foodgram.example.com")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "postgres", cfg.DBUser)
	assert.Equal(t, "foodgram_test", cfg.DBName)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "https://foodgram.example.com", cfg.PublicBaseURL)
	assert.Equal(t, []string{"http://localhost:3000", "https://foodgram.example.com"}, cfg.CORSOrigins)
}

func TestLoadConfigWithDefaults(t *testing.T) {
	setTestEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "foodgram", cfg.DBName)
	assert.Equal(t, "disable", cfg.DBSSLMode)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "local", cfg.StorageBackend)
	assert.Equal(t, 6, cfg.DefaultPageSize)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadConfigMissingSecret(t *testing.T) {
	setTestEnv(t)
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestGetEnvironment(t *testing.T) {
	tests := []struct {
		env, ci      string
		want         Environment
		read, strict bool
	}{
		{"production", "", Production, true, true},
		{"test", "", Test, false, false},
		{"", "", Development, true, false},
		{"staging", "", Development, true, false},
		{"production", "true", CI, false, false},
	}
	for _, tt := range tests {
		t.Setenv("ENV", tt.env)
		t.Setenv("CI", tt.ci)

		got := GetEnvironment()
		assert.Equal(t, tt.want, got)
		read, strict := got.SecretsMode()
		assert.Equal(t, tt.read, read, got.String())
		assert.Equal(t, tt.strict, strict, got.String())
	}
}

func TestLoadSecrets(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-file\n"), 0o600))

	cfg := &Config{JWTSecret: "from-env", DBUser: "env-user"}
	require.NoError(t, loadSecrets(cfg, false))
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, "env-user", cfg.DBUser)

	assert.Error(t, loadSecrets(cfg, true), "production requires every secret file")
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ServerPort:      "8080",
			JWTSecret:       "secret",
			JWTTTL:          time.Hour,
			DBDriver:        "sqlite",
			DBName:          "foodgram.db",
			StorageBackend:  "local",
			MediaDir:        "./media",
			DefaultPageSize: 6,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"postgres without host", func(c *Config) { c.DBDriver = "postgres"; c.DBUser = "u" }, "DB_HOST"},
		{"s3 without bucket", func(c *Config) { c.StorageBackend = "s3" }, "S3_BUCKET_NAME"},
		{"zero page size", func(c *Config) { c.DefaultPageSize = 0 }, "PAGE_SIZE"},
		{"non-positive ttl", func(c *Config) { c.JWTTTL = 0 }, "JWT_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
