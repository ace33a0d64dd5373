package config

import (
	"os"
)

// Environment is the runtime environment selected through ENV.
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment reads ENV, falling back to development. CI=true overrides
// ENV so pipelines never read local secret files.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch env := Environment(os.Getenv("ENV")); env {
	case Production, Test:
		return env
	default:
		return Development
	}
}

func (e Environment) String() string {
	return string(e)
}

// SecretsMode reports whether secret files are consulted, and whether a
// missing secret is fatal.
func (e Environment) SecretsMode() (read, strict bool) {
	switch e {
	case Development:
		return true, false
	case Production:
		return true, true
	default:
		return false, false
	}
}
