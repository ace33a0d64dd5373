package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort    string
	ServerHost    string
	PublicBaseURL string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string
	CacheTTL      time.Duration

	// JWT configuration
	JWTSecret string
	JWTTTL    time.Duration

	// Media storage configuration
	StorageBackend string
	S3Bucket       string
	S3Region       string
	S3Endpoint     string
	MediaDir       string
	MediaURLPrefix string

	// API behaviour
	DefaultPageSize int
	LogLevel        string
	CORSOrigins     []string
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	if env == Development {
		// A missing .env file is fine, the environment may already be populated.
		_ = godotenv.Load()
	}

	v := newViper()
	loadFromEnv(v, cfg)

	if read, strict := env.SecretsMode(); read {
		if err := loadSecrets(cfg, strict); err != nil {
			return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
		}
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "foodgram")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "10m")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("STORAGE_BACKEND", "local")
	v.SetDefault("MEDIA_DIR", "./media")
	v.SetDefault("MEDIA_URL_PREFIX", "/media")
	v.SetDefault("PAGE_SIZE", 6)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	return v
}

func loadFromEnv(v *viper.Viper, cfg *Config) {
	cfg.ServerPort = v.GetString("SERVER_PORT")
	cfg.ServerHost = v.GetString("SERVER_HOST")
	cfg.PublicBaseURL = strings.TrimSuffix(v.GetString("PUBLIC_BASE_URL"), "/")

	cfg.DBDriver = v.GetString("DB_DRIVER")
	cfg.DBHost = v.GetString("DB_HOST")
	cfg.DBPort = v.GetString("DB_PORT")
	cfg.DBUser = v.GetString("DB_USER")
	cfg.DBPassword = v.GetString("DB_PASSWORD")
	cfg.DBName = v.GetString("DB_NAME")
	cfg.DBSSLMode = v.GetString("DB_SSL_MODE")

	cfg.RedisHost = v.GetString("REDIS_HOST")
	cfg.RedisPort = v.GetString("REDIS_PORT")
	cfg.RedisPassword = v.GetString("REDIS_PASSWORD")
	cfg.RedisDB = v.GetInt("REDIS_DB")
	cfg.RedisURL = v.GetString("REDIS_URL")
	cfg.CacheTTL = v.GetDuration("CACHE_TTL")

	cfg.JWTSecret = v.GetString("JWT_SECRET")
	cfg.JWTTTL = v.GetDuration("JWT_TTL")

	cfg.StorageBackend = strings.ToLower(v.GetString("STORAGE_BACKEND"))
	cfg.S3Bucket = v.GetString("S3_BUCKET_NAME")
	cfg.S3Region = v.GetString("AWS_REGION")
	cfg.S3Endpoint = v.GetString("S3_ENDPOINT")
	cfg.MediaDir = v.GetString("MEDIA_DIR")
	cfg.MediaURLPrefix = v.GetString("MEDIA_URL_PREFIX")

	cfg.DefaultPageSize = v.GetInt("PAGE_SIZE")
	cfg.LogLevel = v.GetString("LOG_LEVEL")
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
}

// loadSecrets overrides sensitive values with Docker secrets. In production the
// secret files are mandatory, in development they only override what is present.
func loadSecrets(cfg *Config, strict bool) error {
	secrets := map[string]*string{
		"db_user":        &cfg.DBUser,
		"db_password":    &cfg.DBPassword,
		"jwt_secret":     &cfg.JWTSecret,
		"redis_password": &cfg.RedisPassword,
	}

	for name, target := range secrets {
		value, err := readSecret(name)
		if err != nil {
			if strict {
				return fmt.Errorf("failed to read secret %s: %w", name, err)
			}
			continue
		}
		*target = value
	}

	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(secretsDir(), name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func secretsDir() string {
	if dir := os.Getenv("SECRETS_DIR"); dir != "" {
		return dir
	}
	return "/run/secrets"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}
