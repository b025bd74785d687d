// Package logging builds the zap logger and redacts credentials from text
// that is about to be logged.
package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RedactedText replaces sensitive values.
const RedactedText = "[REDACTED]"

// MaxBodyLogLength caps upstream bodies written to the log.
const MaxBodyLogLength = 500

var (
	bearerPattern = regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-_.=]+`)
	jwtPattern    = regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]*`)
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|key)=[A-Za-z0-9\-_.]{8,}`)
	skKeyPattern  = regexp.MustCompile(`sk-[A-Za-z0-9\-_]{8,}`)
)

// New creates a logger for env at the given level.
// Local environments get a console logger, everything else JSON.
func New(env, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if env == "local" || env == "dev" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Sampling = nil
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Sanitize removes bearer tokens, JWTs and API keys from s and truncates it.
// Use this before logging upstream bodies or errors.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}

	sanitized := bearerPattern.ReplaceAllString(s, "Bearer "+RedactedText)
	sanitized = jwtPattern.ReplaceAllString(sanitized, RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = skKeyPattern.ReplaceAllString(sanitized, RedactedText)

	return Truncate(sanitized, MaxBodyLogLength)
}

// SanitizeError is Sanitize for errors.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return Sanitize(err.Error())
}

// Truncate shortens s to maxLen bytes and appends an ellipsis when cut.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
