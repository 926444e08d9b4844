package config

import "time"

// DefaultConfig returns the configuration folio starts with when no config
// file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: "8080",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			DSN:  "", // resolved to <home>/folio.db at startup
		},
		Storage: StorageConfig{
			Root:    "", // resolved to <home>/files at startup
			BaseURL: "http://localhost:8080",
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Interval: time.Minute,
		},
		Generation: GenerationConfig{
			NumChapters:  5,
			BaseLanguage: "pt",
		},
		LLMProviders: map[string]LLMProviderConfig{
			"openrouter": {
				Type:      "openrouter",
				Model:     "openai/gpt-4o",
				APIKey:    "${OPENROUTER_API_KEY}",
				RateLimit: 150,
				Enabled:   true,
			},
		},
		ImageProviders: map[string]ImageProviderConfig{
			"openai": {
				Type:    "openai",
				Model:   "dall-e-3",
				APIKey:  "${OPENAI_API_KEY}",
				Enabled: true,
			},
		},
	}
}
