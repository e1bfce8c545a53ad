// Package llm provides the Gemini completion client for Haven.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Client handles Gemini API calls
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// Config for the completion client
type Config struct {
	APIKey  string // Gemini API key
	BaseURL string // API base URL
	Model   string // Model to use
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	apiKey := os.Getenv("GEMINI_API_KEY")
	return Config{
		APIKey:  apiKey,
		BaseURL: "https://generativelanguage.googleapis.com",
		Model:   "gemini-2.0-flash",
		Timeout: 60 * time.Second,
	}
}

// NewClient creates a new completion client
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Part is one text fragment of a content block
type Part struct {
	Text string `json:"text"`
}

// Content is a generateContent content block
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Request is the generateContent request structure
type Request struct {
	Contents []Content `json:"contents"`
}

// Response is the generateContent response structure
type Response struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

// Complete sends a single-prompt completion request and returns the reply text
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := Request{
		Contents: []Content{
			{Parts: []Part{{Text: prompt}}},
		},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(respBody))
	}

	var llmResp Response
	if err := json.Unmarshal(respBody, &llmResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := llmResp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response")
	}

	return text, nil
}

// Text extracts the first candidate's concatenated text
func (r *Response) Text() string {
	if len(r.Candidates) == 0 {
		return ""
	}

	var out string
	for _, p := range r.Candidates[0].Content.Parts {
		out += p.Text
	}
	return out
}

// IsConfigured checks if API key is set
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}
