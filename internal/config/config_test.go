package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if filepath.Base(cfg.DataDir) != ".haven" {
		t.Errorf("DataDir should end with .haven, got %q", filepath.Base(cfg.DataDir))
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "localhost")
	}

	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("Gemini.Model = %q, want %q", cfg.Gemini.Model, "gemini-2.0-flash")
	}
	if cfg.Gemini.BaseURL != "https://generativelanguage.googleapis.com" {
		t.Errorf("Gemini.BaseURL = %q", cfg.Gemini.BaseURL)
	}

	if cfg.Chat.HistoryWindow != 10 {
		t.Errorf("Chat.HistoryWindow = %d, want 10", cfg.Chat.HistoryWindow)
	}
	if cfg.Chat.AnalyzeAfterMessages != 10 {
		t.Errorf("Chat.AnalyzeAfterMessages = %d, want 10", cfg.Chat.AnalyzeAfterMessages)
	}
	if cfg.Chat.InactivityMinutes != 30 {
		t.Errorf("Chat.InactivityMinutes = %d, want 30", cfg.Chat.InactivityMinutes)
	}

	if !cfg.Features.EnableAnalysis {
		t.Error("Features.EnableAnalysis should be true by default")
	}
	if !cfg.Features.EnableAuth {
		t.Error("Features.EnableAuth should be true by default")
	}
	if cfg.Features.DebugMode {
		t.Error("Features.DebugMode should be false by default")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want the default", cfg.Server.Port)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"server": {"port": 9090, "host": "0.0.0.0"}, "chat": {"history_window": 4}}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Chat.HistoryWindow != 4 {
		t.Errorf("Chat.HistoryWindow = %d, want 4", cfg.Chat.HistoryWindow)
	}
	// Untouched sections keep defaults
	if cfg.Gemini.Model != "gemini-2.0-flash" {
		t.Errorf("Gemini.Model = %q, want the default", cfg.Gemini.Model)
	}
}

func TestSave_StripsSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.Gemini.APIKey = "super-secret"
	cfg.Auth.JWTSecret = "even-more-secret"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("saved config is not valid JSON: %v", err)
	}
	if saved.Gemini.APIKey != "" {
		t.Error("Save() should not write the API key to disk")
	}
	if saved.Auth.JWTSecret != "" {
		t.Error("Save() should not write the JWT secret to disk")
	}

	// In-memory config keeps its secrets
	if cfg.Gemini.APIKey != "super-secret" {
		t.Error("Save() should not mutate the config")
	}
}

func TestLoad_EnvSecretsWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"gemini": {"api_key": "from-file"}}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("HAVEN_JWT_SECRET", "jwt-from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gemini.APIKey != "from-env" {
		t.Errorf("Gemini.APIKey = %q, env should win", cfg.Gemini.APIKey)
	}
	if cfg.Auth.JWTSecret != "jwt-from-env" {
		t.Errorf("Auth.JWTSecret = %q, env should win", cfg.Auth.JWTSecret)
	}
}
