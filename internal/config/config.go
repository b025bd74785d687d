// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/pricofy/translation-desk/internal/apperrors"
)

// RoleLookupPolicy decides what happens when the role store cannot be read.
type RoleLookupPolicy string

const (
	// RoleLookupFailOpen falls back to the baseline "user" role.
	RoleLookupFailOpen RoleLookupPolicy = "fail-open"
	// RoleLookupFailClosed surfaces the lookup failure to the caller.
	RoleLookupFailClosed RoleLookupPolicy = "fail-closed"
)

// Config holds all configuration for the translation desk.
// It is loaded once per process and passed to constructors.
type Config struct {
	Environment string `env:"ENVIRONMENT" env-default:"dev"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	Store       StoreConfig
	Auth        AuthConfig
	Translation TranslationConfig
	Server      ServerConfig

	// FunctionName is set by the Lambda runtime and used for warmup self-invocation.
	FunctionName string `env:"AWS_LAMBDA_FUNCTION_NAME" env-default:""`
}

// StoreConfig holds the REST data store settings.
type StoreConfig struct {
	URL        string        `env:"SUPABASE_URL" env-default:""`
	ServiceKey string        `env:"SUPABASE_SERVICE_ROLE_KEY" env-default:""` // Secret
	Timeout    time.Duration `env:"STORE_TIMEOUT" env-default:"30s"`
}

// AuthConfig holds identity provider and role settings.
type AuthConfig struct {
	// APIKey is sent as the apikey header when verifying user tokens.
	// Falls back to the store service key when empty.
	APIKey           string           `env:"SUPABASE_AUTH_API_KEY" env-default:""`
	RoleLookupPolicy RoleLookupPolicy `env:"ROLE_LOOKUP_POLICY" env-default:"fail-open"`
	UserPageSize     int              `env:"ADMIN_USER_PAGE_SIZE" env-default:"200"`
	UserMaxPages     int              `env:"ADMIN_USER_MAX_PAGES" env-default:"1"`
}

// TranslationConfig holds the LLM translation settings.
type TranslationConfig struct {
	APIKey         string        `env:"OPENAI_API_KEY" env-default:""` // Secret
	BaseURL        string        `env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model          string        `env:"TRANSLATION_MODEL" env-default:"gpt-4o-mini"`
	Temperature    float32       `env:"TRANSLATION_TEMPERATURE" env-default:"0.2"`
	Delay          time.Duration `env:"TRANSLATION_DELAY" env-default:"120ms"`
	MaxInputTokens int           `env:"TRANSLATION_MAX_TOKENS" env-default:"3000"`
}

// ServerConfig holds the local HTTP server settings.
type ServerConfig struct {
	Addr string `env:"HTTP_ADDR" env-default:":8080"`
}

// Load reads configuration from environment variables.
// Missing secrets are not an error here: handlers that need them report
// ConfigurationMissing before making any external call.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) normalize() error {
	c.Store.URL = strings.TrimSuffix(c.Store.URL, "/")
	if c.Auth.APIKey == "" {
		c.Auth.APIKey = c.Store.ServiceKey
	}

	switch c.Auth.RoleLookupPolicy {
	case RoleLookupFailOpen, RoleLookupFailClosed:
	default:
		return fmt.Errorf("ROLE_LOOKUP_POLICY must be %q or %q, got %q",
			RoleLookupFailOpen, RoleLookupFailClosed, c.Auth.RoleLookupPolicy)
	}

	if c.Auth.UserPageSize <= 0 {
		return fmt.Errorf("ADMIN_USER_PAGE_SIZE must be positive")
	}
	if c.Auth.UserMaxPages <= 0 {
		return fmt.Errorf("ADMIN_USER_MAX_PAGES must be positive")
	}
	return nil
}

// IsLocal reports whether the process runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Environment == "local" || c.Environment == "dev"
}

// RequireStore checks the settings every store-backed handler needs.
func (c *Config) RequireStore() error {
	var missing []string
	if c.Store.URL == "" {
		missing = append(missing, "SUPABASE_URL")
	}
	if c.Store.ServiceKey == "" {
		missing = append(missing, "SUPABASE_SERVICE_ROLE_KEY")
	}
	if len(missing) > 0 {
		return apperrors.ConfigurationMissing("Missing Supabase env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

// RequireTranslation checks the settings the translate handler needs.
func (c *Config) RequireTranslation() error {
	if c.Translation.APIKey == "" {
		return apperrors.ConfigurationMissing("Server missing OPENAI_API_KEY")
	}
	return nil
}
