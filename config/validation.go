package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks if the configuration meets the requirements for the current environment
func ValidateConfig(cfg *Config) error {
	var problems []ValidationError

	if cfg.ServerPort == "" {
		problems = append(problems, ValidationError{"SERVER_PORT", "is required"})
	}
	if cfg.JWTSecret == "" {
		problems = append(problems, ValidationError{"JWT_SECRET", "is required"})
	}
	if cfg.JWTTTL <= 0 {
		problems = append(problems, ValidationError{"JWT_TTL", "must be positive"})
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			problems = append(problems, ValidationError{"DB_HOST", "is required"})
		}
		if cfg.DBUser == "" {
			problems = append(problems, ValidationError{"DB_USER", "is required"})
		}
		if cfg.DBName == "" {
			problems = append(problems, ValidationError{"DB_NAME", "is required"})
		}
		if GetEnvironment() == Production && cfg.DBPassword == "" {
			problems = append(problems, ValidationError{"db_password", "secret is required in production"})
		}
	case "sqlite":
		if cfg.DBName == "" {
			problems = append(problems, ValidationError{"DB_NAME", "is required"})
		}
	default:
		problems = append(problems, ValidationError{"DB_DRIVER", "must be postgres or sqlite"})
	}

	switch cfg.StorageBackend {
	case "s3":
		if cfg.S3Bucket == "" {
			problems = append(problems, ValidationError{"S3_BUCKET_NAME", "is required for the s3 storage backend"})
		}
	case "local":
		if cfg.MediaDir == "" {
			problems = append(problems, ValidationError{"MEDIA_DIR", "is required for the local storage backend"})
		}
	default:
		problems = append(problems, ValidationError{"STORAGE_BACKEND", "must be s3 or local"})
	}

	if cfg.DefaultPageSize < 1 {
		problems = append(problems, ValidationError{"PAGE_SIZE", "must be at least 1"})
	}

	if len(problems) == 0 {
		return nil
	}

	lines := make([]string, len(problems))
	for i, p := range problems {
		lines[i] = p.Error()
	}
	return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
}
