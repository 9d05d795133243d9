package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so API keys can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Translator.APIKey = expandEnvVars(cfg.Translator.APIKey)
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Hub.Port == 0 {
		cfg.Hub.Port = 18920
	}
	if cfg.Hub.Bind == "" {
		cfg.Hub.Bind = "loopback"
	}
	if cfg.Languages.Doctor == "" {
		cfg.Languages.Doctor = "en"
	}
	if cfg.Languages.Patient == "" {
		cfg.Languages.Patient = "hi"
	}
	if cfg.Languages.Names == nil {
		cfg.Languages.Names = map[string]string{"en": "English", "hi": "Hindi"}
	}
	if cfg.Translator.Endpoint == "" {
		cfg.Translator.Endpoint = "http://localhost:5000/translate"
	}
	if cfg.Translator.TimeoutMs == 0 {
		cfg.Translator.TimeoutMs = 8000
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "sqlite"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// applyEnvOverrides reads MEDBRIDGE_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("MEDBRIDGE_HUB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Hub.Port = port
		}
	}
	if v := os.Getenv("MEDBRIDGE_HUB_BIND"); v != "" {
		cfg.Hub.Bind = v
	}
	if v := os.Getenv("MEDBRIDGE_TRANSLATOR_ENDPOINT"); v != "" {
		cfg.Translator.Endpoint = v
	}
	if v := os.Getenv("MEDBRIDGE_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("MEDBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
}
