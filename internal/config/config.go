// Package config handles Haven configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all configuration
type Config struct {
	// Paths
	DataDir string `json:"data_dir"`

	// Server
	Server ServerConfig `json:"server"`

	// Services
	Gemini GeminiConfig `json:"gemini"`

	// Chat behavior
	Chat ChatConfig `json:"chat"`

	// Auth
	Auth AuthConfig `json:"auth"`

	// Features
	Features FeatureConfig `json:"features"`
}

// ServerConfig for HTTP server
type ServerConfig struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// GeminiConfig for the Gemini completion API
type GeminiConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

// ChatConfig tunes conversation behavior
type ChatConfig struct {
	// HistoryWindow is the number of prior messages included in each prompt
	HistoryWindow int `json:"history_window"`
	// AnalyzeAfterMessages triggers profile analysis once a conversation has
	// accumulated this many stored messages
	AnalyzeAfterMessages int `json:"analyze_after_messages"`
	// InactivityMinutes is how long a conversation sits idle before the
	// background sweep analyzes it
	InactivityMinutes int `json:"inactivity_minutes"`
}

// AuthConfig for session tokens
type AuthConfig struct {
	JWTSecret     string `json:"jwt_secret"`
	TokenTTLHours int    `json:"token_ttl_hours"`
}

// FeatureConfig for feature flags
type FeatureConfig struct {
	EnableAnalysis bool `json:"enable_analysis"`
	EnableAuth     bool `json:"enable_auth"`
	DebugMode      bool `json:"debug_mode"`
}

// Default returns default configuration
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir: filepath.Join(home, ".haven"),
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Gemini: GeminiConfig{
			APIKey:  os.Getenv("GEMINI_API_KEY"),
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.0-flash",
		},
		Chat: ChatConfig{
			HistoryWindow:        10,
			AnalyzeAfterMessages: 10,
			InactivityMinutes:    30,
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("HAVEN_JWT_SECRET"),
			TokenTTLHours: 24 * 30,
		},
		Features: FeatureConfig{
			EnableAnalysis: true,
			EnableAuth:     true,
			DebugMode:      false,
		},
	}
}

// Load loads config from file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = filepath.Join(cfg.DataDir, "config.json")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Secrets from env always win over file contents
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.Gemini.APIKey = apiKey
	}
	if secret := os.Getenv("HAVEN_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	return cfg, nil
}

// Save saves config to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = filepath.Join(c.DataDir, "config.json")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	// Don't save secrets to file
	safeCfg := *c
	safeCfg.Gemini.APIKey = ""
	safeCfg.Auth.JWTSecret = ""

	data, err := json.MarshalIndent(safeCfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
