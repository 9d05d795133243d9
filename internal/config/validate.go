package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Hub.Port < 0 || cfg.Hub.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "hub.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Hub.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Hub.Bind != "" && !slices.Contains(validBinds, cfg.Hub.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "hub.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Hub.Bind),
		})
	}

	if cfg.Hub.Bind == "custom" && cfg.Hub.CustomBindHost == "" {
		issues = append(issues, ValidationIssue{
			Path:    "hub.customBindHost",
			Message: "required when hub.bind is \"custom\"",
		})
	}

	if cfg.Languages.Doctor == cfg.Languages.Patient {
		issues = append(issues, ValidationIssue{
			Path:    "languages",
			Message: fmt.Sprintf("doctor and patient share language %q; nothing to translate", cfg.Languages.Doctor),
		})
	}

	if cfg.Translator.Endpoint == "" {
		issues = append(issues, ValidationIssue{
			Path:    "translator.endpoint",
			Message: "endpoint is required",
		})
	}

	if cfg.Translator.TimeoutMs < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "translator.timeoutMs",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Translator.TimeoutMs),
		})
	}

	validBackends := []string{"sqlite", "memory", "none"}
	if cfg.Store.Backend != "" && !slices.Contains(validBackends, cfg.Store.Backend) {
		issues = append(issues, ValidationIssue{
			Path:    "store.backend",
			Message: fmt.Sprintf("must be one of %v, got %q", validBackends, cfg.Store.Backend),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
