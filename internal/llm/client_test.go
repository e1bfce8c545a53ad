package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BaseURL != "https://generativelanguage.googleapis.com" {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, "https://generativelanguage.googleapis.com")
	}
	if cfg.Model != "gemini-2.0-flash" {
		t.Errorf("Model = %q, want %q", cfg.Model, "gemini-2.0-flash")
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, 60*time.Second)
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantURL   string
		wantModel string
	}{
		{
			name:      "default values",
			cfg:       Config{APIKey: "test-key"},
			wantURL:   "https://generativelanguage.googleapis.com",
			wantModel: "gemini-2.0-flash",
		},
		{
			name: "custom values",
			cfg: Config{
				APIKey:  "test-key",
				BaseURL: "https://custom.api.com",
				Model:   "gemini-1.5-pro",
			},
			wantURL:   "https://custom.api.com",
			wantModel: "gemini-1.5-pro",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.cfg)
			if client.baseURL != tt.wantURL {
				t.Errorf("baseURL = %q, want %q", client.baseURL, tt.wantURL)
			}
			if client.model != tt.wantModel {
				t.Errorf("model = %q, want %q", client.model, tt.wantModel)
			}
		})
	}
}

func TestClient_IsConfigured(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
		want   bool
	}{
		{"with API key", "test-key", true},
		{"without API key", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(Config{APIKey: tt.apiKey})
			if got := client.IsConfigured(); got != tt.want {
				t.Errorf("IsConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}

func responseWithText(text string) Response {
	var resp Response
	resp.Candidates = []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	}{
		{Content: Content{Role: "model", Parts: []Part{{Text: text}}}, FinishReason: "STOP"},
	}
	return resp
}

func TestClient_Complete(t *testing.T) {
	tests := []struct {
		name           string
		responseStatus int
		responseBody   interface{}
		wantErr        bool
		wantText       string
	}{
		{
			name:           "successful response",
			responseStatus: http.StatusOK,
			responseBody:   responseWithText("Hello, how are you feeling today?"),
			wantText:       "Hello, how are you feeling today?",
		},
		{
			name:           "server error",
			responseStatus: http.StatusInternalServerError,
			responseBody:   map[string]string{"error": "internal"},
			wantErr:        true,
		},
		{
			name:           "rate limited",
			responseStatus: http.StatusTooManyRequests,
			responseBody:   map[string]string{"error": "quota exceeded"},
			wantErr:        true,
		},
		{
			name:           "empty candidates",
			responseStatus: http.StatusOK,
			responseBody:   Response{},
			wantErr:        true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != "POST" {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if !strings.Contains(r.URL.Path, ":generateContent") {
					t.Errorf("path = %s, want generateContent endpoint", r.URL.Path)
				}
				if r.URL.Query().Get("key") != "test-key" {
					t.Error("API key missing from query")
				}

				var req Request
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("decode request: %v", err)
				}
				if len(req.Contents) == 0 || len(req.Contents[0].Parts) == 0 {
					t.Error("request should carry the prompt text")
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.responseStatus)
				json.NewEncoder(w).Encode(tt.responseBody)
			}))
			defer server.Close()

			client := NewClient(Config{
				APIKey:  "test-key",
				BaseURL: server.URL,
			})

			got, err := client.Complete(context.Background(), "How do I cope with stress?")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Complete() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.wantText && !tt.wantErr {
				t.Errorf("Complete() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestResponse_Text_MultiPart(t *testing.T) {
	var resp Response
	resp.Candidates = []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	}{
		{Content: Content{Parts: []Part{{Text: "first "}, {Text: "second"}}}},
	}

	if got := resp.Text(); got != "first second" {
		t.Errorf("Text() = %q, want %q", got, "first second")
	}
}
