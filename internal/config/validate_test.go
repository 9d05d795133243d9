package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	issues := Validate(&cfg)
	assert.Empty(t, issues)
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Defaults()

	cfg.Hub.Port = -1
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "hub.port")

	cfg.Hub.Port = 70000
	issues = Validate(&cfg)
	assert.NotEmpty(t, issues)
}

func TestValidate_ValidPort(t *testing.T) {
	cfg := Defaults()
	cfg.Hub.Port = 0
	assert.Empty(t, Validate(&cfg))

	cfg.Hub.Port = 65535
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_InvalidBind(t *testing.T) {
	cfg := Defaults()
	cfg.Hub.Bind = "invalid"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "hub.bind")
}

func TestValidate_ValidBinds(t *testing.T) {
	for _, bind := range []string{"loopback", "lan", ""} {
		cfg := Defaults()
		cfg.Hub.Bind = bind
		assert.Empty(t, Validate(&cfg), "bind %q should be valid", bind)
	}
}

func TestValidate_CustomBindRequiresHost(t *testing.T) {
	cfg := Defaults()
	cfg.Hub.Bind = "custom"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "hub.customBindHost")

	cfg.Hub.CustomBindHost = "10.0.0.5"
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_SharedRoleLanguage(t *testing.T) {
	cfg := Defaults()
	cfg.Languages.Patient = "en"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "languages")
}

func TestValidate_MissingTranslatorEndpoint(t *testing.T) {
	cfg := Defaults()
	cfg.Translator.Endpoint = ""
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "translator.endpoint")
}

func TestValidate_NegativeTimeout(t *testing.T) {
	cfg := Defaults()
	cfg.Translator.TimeoutMs = -1
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "translator.timeoutMs")
}

func TestValidate_InvalidStoreBackend(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Backend = "postgres"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "store.backend")
}

func TestValidate_ValidStoreBackends(t *testing.T) {
	for _, backend := range []string{"sqlite", "memory", "none", ""} {
		cfg := Defaults()
		cfg.Store.Backend = backend
		assert.Empty(t, Validate(&cfg), "backend %q should be valid", backend)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := Defaults()
	cfg.Logging.Level = "verbose"
	issues := Validate(&cfg)
	assert.NotEmpty(t, issues)
	assert.Contains(t, issues[0].Path, "logging.level")
}

func TestValidate_ValidLogLevels(t *testing.T) {
	for _, level := range []string{"silent", "fatal", "error", "warn", "info", "debug", "trace", ""} {
		cfg := Defaults()
		cfg.Logging.Level = level
		assert.Empty(t, Validate(&cfg), "log level %q should be valid", level)
	}
}
