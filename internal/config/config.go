// Package config handles agorad configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./agora.yaml, ~/.config/agora/config.yaml, /etc/agora/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"agora.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "agora", "config.yaml"))
	}

	paths = append(paths, "/etc/agora/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all agorad configuration.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Model     ModelConfig     `yaml:"model"`
	Store     StoreConfig     `yaml:"store"`
	Discourse DiscourseConfig `yaml:"discourse"`
	LogLevel  string          `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// ModelConfig selects the text-generation backend.
//
// Provider is one of "openai" or "ollama". When the selected provider's
// credentials are absent, the engine runs in degraded mode: every reply is
// drawn from the canned fallback pool instead of a live model.
type ModelConfig struct {
	Provider string       `yaml:"provider"`
	Name     string       `yaml:"name"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Ollama   OllamaConfig `yaml:"ollama"`
}

// OpenAIConfig defines OpenAI API settings.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// OllamaConfig defines Ollama connection settings.
type OllamaConfig struct {
	URL string `yaml:"url"`
}

// StoreConfig defines message persistence settings.
type StoreConfig struct {
	// Path is the SQLite database file. Empty selects an in-memory store,
	// which loses all conversations on restart (demo use only).
	Path string `yaml:"path"`
	// MaxHistory caps how many turns a single history load returns.
	// Zero means no cap.
	MaxHistory int `yaml:"max_history"`
}

// DiscourseConfig defines session-level defaults applied when a discussion's
// own settings leave them unset.
type DiscourseConfig struct {
	MaxTurns int    `yaml:"max_turns"` // default 15
	Locale   string `yaml:"locale"`    // default "ko"
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8080},
		Model: ModelConfig{
			Provider: "openai",
			Name:     "gpt-5-mini",
			Ollama:   OllamaConfig{URL: "http://localhost:11434"},
		},
		Store: StoreConfig{Path: "agora.db"},
		Discourse: DiscourseConfig{
			MaxTurns: 15,
			Locale:   "ko",
		},
	}
}
