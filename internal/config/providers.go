package config

import "github.com/jackzampolin/folio/internal/providers"

// ToProviderRegistryConfig converts the provider sections into the registry's
// config form, resolving ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	out := providers.RegistryConfig{
		LLMProviders:   make(map[string]providers.LLMProviderConfig),
		ImageProviders: make(map[string]providers.ImageProviderConfig),
	}
	for name, p := range c.LLMProviders {
		out.LLMProviders[name] = providers.LLMProviderConfig{
			Type:      p.Type,
			Model:     p.Model,
			APIKey:    ResolveEnvVars(p.APIKey),
			RateLimit: p.RateLimit,
			Enabled:   p.Enabled,
		}
	}
	for name, p := range c.ImageProviders {
		out.ImageProviders[name] = providers.ImageProviderConfig{
			Type:    p.Type,
			Model:   p.Model,
			APIKey:  ResolveEnvVars(p.APIKey),
			Enabled: p.Enabled,
		}
	}
	return out
}
