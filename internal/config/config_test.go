package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 18920, cfg.Hub.Port)
	assert.Equal(t, "loopback", cfg.Hub.Bind)
	assert.Equal(t, "en", cfg.Languages.Doctor)
	assert.Equal(t, "hi", cfg.Languages.Patient)
	assert.Equal(t, "English", cfg.Languages.Names["en"])
	assert.Equal(t, "Hindi", cfg.Languages.Names["hi"])
	assert.Equal(t, "http://localhost:5000/translate", cfg.Translator.Endpoint)
	assert.Equal(t, 8000, cfg.Translator.TimeoutMs)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	// Should return defaults
	assert.Equal(t, 18920, cfg.Hub.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadValidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	yaml := `
hub:
  port: 9999
  bind: lan
languages:
  doctor: en
  patient: es
  names:
    en: English
    es: Spanish
translator:
  endpoint: http://translate.internal:5000/translate
  timeoutMs: 3000
  fallbackEndpoints:
    - http://backup-a:5000/translate
    - http://backup-b:5000/translate
store:
  backend: memory
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Hub.Port)
	assert.Equal(t, "lan", cfg.Hub.Bind)
	assert.Equal(t, "es", cfg.Languages.Patient)
	assert.Equal(t, "Spanish", cfg.Languages.Names["es"])
	assert.Equal(t, "http://translate.internal:5000/translate", cfg.Translator.Endpoint)
	assert.Equal(t, 3000, cfg.Translator.TimeoutMs)
	assert.Equal(t, []string{"http://backup-a:5000/translate", "http://backup-b:5000/translate"}, cfg.Translator.FallbackEndpoints)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadPartialYAMLKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hub:\n  port: 7777\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Hub.Port)
	assert.Equal(t, "loopback", cfg.Hub.Bind)
	assert.Equal(t, "en", cfg.Languages.Doctor)
	assert.Equal(t, "hi", cfg.Languages.Patient)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{invalid yaml"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MEDBRIDGE_HUB_PORT", "12345")
	t.Setenv("MEDBRIDGE_HUB_BIND", "lan")
	t.Setenv("MEDBRIDGE_TRANSLATOR_ENDPOINT", "http://override:5000/translate")
	t.Setenv("MEDBRIDGE_STORE_BACKEND", "none")
	t.Setenv("MEDBRIDGE_LOG_LEVEL", "TRACE")

	cfg, err := Load("/nonexistent/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.Hub.Port)
	assert.Equal(t, "lan", cfg.Hub.Bind)
	assert.Equal(t, "http://override:5000/translate", cfg.Translator.Endpoint)
	assert.Equal(t, "none", cfg.Store.Backend)
	assert.Equal(t, "trace", cfg.Logging.Level)
}

func TestLoadExpandsAPIKey(t *testing.T) {
	t.Setenv("TRANSLATE_KEY", "sk-live-123")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("translator:\n  apiKey: ${TRANSLATE_KEY}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-live-123", cfg.Translator.APIKey)
}

func TestExpandEnvVarsUnsetLeftAlone(t *testing.T) {
	assert.Equal(t, "${MEDBRIDGE_DEFINITELY_UNSET_VAR}", expandEnvVars("${MEDBRIDGE_DEFINITELY_UNSET_VAR}"))
}
