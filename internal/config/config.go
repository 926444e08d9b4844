// Package config handles loading, defaulting, and hot-reloading of folio
// configuration via viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// Config is the full folio configuration tree.
type Config struct {
	Server         ServerConfig                   `mapstructure:"server" yaml:"server"`
	Database       DatabaseConfig                 `mapstructure:"database" yaml:"database"`
	Storage        StorageConfig                  `mapstructure:"storage" yaml:"storage"`
	Scheduler      SchedulerConfig                `mapstructure:"scheduler" yaml:"scheduler"`
	Generation     GenerationConfig               `mapstructure:"generation" yaml:"generation"`
	LLMProviders   map[string]LLMProviderConfig   `mapstructure:"llm_providers" yaml:"llm_providers"`
	ImageProviders map[string]ImageProviderConfig `mapstructure:"image_providers" yaml:"image_providers"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
}

// DatabaseConfig selects the relational backend.
// Type is one of "sqlite", "mysql", "postgres". For sqlite, DSN is the file
// path (empty means <home>/folio.db).
type DatabaseConfig struct {
	Type string `mapstructure:"type" yaml:"type"`
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

// StorageConfig holds artifact storage settings.
// Root is the local directory artifacts are written to (empty means
// <home>/files). BaseURL is the public URL prefix returned for uploads.
type StorageConfig struct {
	Root    string `mapstructure:"root" yaml:"root"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// SchedulerConfig holds the recurring-generation worker settings.
type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// GenerationConfig holds defaults for ebook generation.
type GenerationConfig struct {
	NumChapters  int    `mapstructure:"num_chapters" yaml:"num_chapters"`
	BaseLanguage string `mapstructure:"base_language" yaml:"base_language"`
}

// LLMProviderConfig configures one chat-completion provider.
// APIKey supports ${ENV_VAR} references.
type LLMProviderConfig struct {
	Type      string `mapstructure:"type" yaml:"type"`
	Model     string `mapstructure:"model" yaml:"model"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key"`
	RateLimit int    `mapstructure:"rate_limit" yaml:"rate_limit"`
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
}

// ImageProviderConfig configures one image-generation provider.
type ImageProviderConfig struct {
	Type    string `mapstructure:"type" yaml:"type"`
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
}

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("server", defaults.Server)
	viper.SetDefault("database", defaults.Database)
	viper.SetDefault("storage", defaults.Storage)
	viper.SetDefault("scheduler", defaults.Scheduler)
	viper.SetDefault("generation", defaults.Generation)
	viper.SetDefault("llm_providers", defaults.LLMProviders)
	viper.SetDefault("image_providers", defaults.ImageProviders)

	// Environment variables with FOLIO_ prefix
	viper.SetEnvPrefix("FOLIO")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.folio")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Folio configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENROUTER_API_KEY=xxx OPENAI_API_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
