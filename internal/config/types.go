package config

// Config is the root configuration for medbridge.
type Config struct {
	Hub        HubConfig        `yaml:"hub,omitempty"`
	Languages  LanguagesConfig  `yaml:"languages,omitempty"`
	Translator TranslatorConfig `yaml:"translator,omitempty"`
	Store      StoreConfig      `yaml:"store,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// HubConfig controls the hub HTTP/WebSocket server.
type HubConfig struct {
	Port           int      `yaml:"port,omitempty"`
	Bind           string   `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string   `yaml:"customBindHost,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// LanguagesConfig is the static role→language table plus display names for
// the /api/languages endpoint.
type LanguagesConfig struct {
	Doctor  string            `yaml:"doctor,omitempty"`
	Patient string            `yaml:"patient,omitempty"`
	Names   map[string]string `yaml:"names,omitempty"` // iso code → display name
}

// TranslatorConfig configures the external translation service.
type TranslatorConfig struct {
	Endpoint          string   `yaml:"endpoint,omitempty"`
	APIKey            string   `yaml:"apiKey,omitempty"`
	FallbackEndpoints []string `yaml:"fallbackEndpoints,omitempty"`
	TimeoutMs         int      `yaml:"timeoutMs,omitempty"`
}

// StoreConfig selects the transcript archive backend.
type StoreConfig struct {
	Backend string `yaml:"backend,omitempty"` // "sqlite" | "memory" | "none"
	Path    string `yaml:"path,omitempty"`    // sqlite file, defaults under data dir
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"`
}
