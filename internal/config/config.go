// Package config holds all redline configuration, loaded from a YAML
// file with environment-variable overrides for secrets.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all redline configuration.
type Config struct {
	// HTTP façade
	Server ServerConfig `yaml:"server"`

	// LLM provider
	LLM LLMConfig `yaml:"llm"`

	// Remote file store
	Store StoreConfig `yaml:"store"`

	// Conversation history
	Session SessionConfig `yaml:"session"`

	// Deployment status polling
	Deploy DeployConfig `yaml:"deploy"`

	// Debug logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP façade.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
	// File listing cache TTL, e.g. "30s"
	ListCacheTTL string `yaml:"list_cache_ttl"`
}

// LLMConfig configures the model provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

// StoreConfig configures the GitHub-backed remote store.
type StoreConfig struct {
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
	Branch  string `yaml:"branch"`
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// SessionConfig configures conversation history storage.
type SessionConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// DeployConfig configures the Pages build-status poller.
type DeployConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Interval string `yaml:"interval"` // e.g. "15s"
}

// LoggingConfig configures the categorized debug logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`
	JSONFormat bool            `yaml:"json_format"`
	Categories map[string]bool `yaml:"categories"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			StaticDir:    "web",
			ListCacheTTL: "30s",
		},
		LLM: LLMConfig{
			Provider: "gemini",
		},
		Store: StoreConfig{
			Branch: "main",
		},
		Session: SessionConfig{
			DatabasePath: filepath.Join(".redline", "sessions.db"),
		},
		Deploy: DeployConfig{
			Enabled:  true,
			Interval: "15s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, falling back to defaults when
// the file does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides lets secrets and per-deployment values come from
// the environment instead of the config file.
func (c *Config) applyEnvOverrides() {
	overrideString(&c.Store.Token, "REDLINE_GITHUB_TOKEN")
	overrideString(&c.Store.Owner, "REDLINE_GITHUB_OWNER")
	overrideString(&c.Store.Repo, "REDLINE_GITHUB_REPO")
	overrideString(&c.Store.Branch, "REDLINE_GITHUB_BRANCH")
	overrideString(&c.LLM.APIKey, "REDLINE_LLM_API_KEY")
	overrideString(&c.LLM.Provider, "REDLINE_LLM_PROVIDER")
	overrideString(&c.LLM.Model, "REDLINE_LLM_MODEL")
	overrideString(&c.Server.Addr, "REDLINE_ADDR")
}

func overrideString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// Validate checks the fields every command needs before touching the
// network.
func (c *Config) Validate() error {
	if c.Store.Owner == "" || c.Store.Repo == "" {
		return fmt.Errorf("store.owner and store.repo are required (or REDLINE_GITHUB_OWNER/REDLINE_GITHUB_REPO)")
	}
	return nil
}
