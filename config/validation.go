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

// requiredSecrets lists the values that must be provided explicitly in each environment.
// Development and test run with generated or empty values.
var requiredSecrets = map[Environment][]string{
	CI:         {"JWT_SECRET"},
	Production: {"JWT_SECRET", "DB_PASSWORD"},
}

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs []string

	for _, key := range requiredSecrets[cfg.Environment] {
		if secretValue(cfg, key) == "" {
			errs = append(errs, ValidationError{Field: key, Message: "required in " + string(cfg.Environment)}.Error())
		}
	}

	switch cfg.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, ValidationError{Field: "DB_DRIVER", Message: fmt.Sprintf("unsupported driver %q", cfg.DBDriver)}.Error())
	}

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{Field: "SERVER_PORT", Message: "must not be empty"}.Error())
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, ValidationError{Field: "TOKEN_TTL_HOURS", Message: "must be positive"}.Error())
	}
	if cfg.RecipeCreateLimit <= 0 {
		errs = append(errs, ValidationError{Field: "RECIPE_CREATE_LIMIT", Message: "must be positive"}.Error())
	}
	if cfg.RecipeModifyLimit <= 0 {
		errs = append(errs, ValidationError{Field: "RECIPE_MODIFY_LIMIT", Message: "must be positive"}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}
	return nil
}

func secretValue(cfg *Config, key string) string {
	switch key {
	case "JWT_SECRET":
		return cfg.JWTSecret
	case "DB_PASSWORD":
		return cfg.DBPassword
	}
	return ""
}
