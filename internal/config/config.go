package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied. The role language
// table defaults to English for the doctor and Hindi for the patient.
func Defaults() Config {
	return Config{
		Hub: HubConfig{
			Port: 18920,
			Bind: "loopback",
		},
		Languages: LanguagesConfig{
			Doctor:  "en",
			Patient: "hi",
			Names: map[string]string{
				"en": "English",
				"hi": "Hindi",
			},
		},
		Translator: TranslatorConfig{
			Endpoint:  "http://localhost:5000/translate",
			TimeoutMs: 8000,
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
