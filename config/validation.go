package config

import (
	"fmt"
	"strconv"
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

// ValidateConfig checks that the configuration is internally consistent
func ValidateConfig(cfg *Config) error {
	var errs []string

	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		errs = append(errs, ValidationError{Field: "SERVER_PORT", Message: "must be a number"}.Error())
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: "must be postgres or sqlite"}.Error())
	}

	if cfg.DBDriver == "postgres" {
		if cfg.DBHost == "" || cfg.DBPort == "" || cfg.DBName == "" {
			errs = append(errs, ValidationError{Field: "DB_HOST/DB_PORT/DB_NAME", Message: "required for postgres"}.Error())
		}
	} else if cfg.DBPath == "" {
		errs = append(errs, ValidationError{Field: "DB_PATH", Message: "required for sqlite"}.Error())
	}

	if cfg.ScoreThreshold < 0 || cfg.ScoreThreshold > 100 {
		errs = append(errs, ValidationError{Field: "SCORE_THRESHOLD", Message: "must be between 0 and 100"}.Error())
	}

	if cfg.EvalTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "EVAL_TIMEOUT_SECONDS", Message: "must be positive"}.Error())
	}

	// Production requires real upstream credentials; development and test can run
	// against local mock endpoints without keys.
	if IsProduction() {
		if cfg.EvalAPIKey == "" {
			errs = append(errs, ValidationError{Field: "EVAL_API_KEY", Message: "required in production"}.Error())
		}
		if cfg.ProjectionAPIKey == "" {
			errs = append(errs, ValidationError{Field: "PROJECTION_API_KEY", Message: "required in production"}.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}
