/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kiosk-assistant/internal/embedding"
)

// ErrNotConfigured is returned when a generation is requested from a client
// without the credentials its provider needs
var ErrNotConfigured = errors.New("LLM client not configured")

// DefaultTimeout bounds a single generation request
const DefaultTimeout = 15 * time.Second

// Default endpoints per provider
const (
	GeminiBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	OpenAIBaseURL    = "https://api.openai.com/v1"
	AnthropicBaseURL = "https://api.anthropic.com/v1"
	OllamaBaseURL    = "http://localhost:11434"
)

// Request is a grounded generation request
type Request struct {
	SystemPrompt string
	Context      string
	Query        string
}

// UserMessage renders the context block and question as a single message
func (r Request) UserMessage() string {
	return fmt.Sprintf("Contexto relevante dos documentos:\n%s\n\nPergunta do utilizador: %s", r.Context, r.Query)
}

// Generator produces text for a grounded request
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Config holds the settings for a generation client
type Config struct {
	Provider    string // "gemini", "openai", "anthropic" or "ollama"
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client handles interactions with text generation APIs
type Client struct {
	provider    string
	apiKey      string
	baseURL     string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
}

var defaultModels = map[string]string{
	"gemini":    "gemini-1.5-flash",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-latest",
	"ollama":    "llama3.2",
}

var defaultURLs = map[string]string{
	"gemini":    GeminiBaseURL,
	"openai":    OpenAIBaseURL,
	"anthropic": AnthropicBaseURL,
	"ollama":    OllamaBaseURL,
}

// NewClient creates a new generation client with the specified provider
func NewClient(cfg Config) (*Client, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = "gemini"
	}
	if _, ok := defaultModels[provider]; !ok {
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: gemini, openai, anthropic, ollama)", cfg.Provider)
	}

	c := &Client{
		provider:    provider,
		apiKey:      cfg.APIKey,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
	if c.baseURL == "" {
		c.baseURL = defaultURLs[provider]
	}
	if c.model == "" {
		c.model = defaultModels[provider]
	}
	if c.maxTokens <= 0 {
		c.maxTokens = 400
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c.httpClient = &http.Client{Timeout: timeout}

	return c, nil
}

// IsConfigured returns whether the client is properly configured
func (c *Client) IsConfigured() bool {
	switch c.provider {
	case "ollama":
		return c.baseURL != "" && c.model != ""
	default:
		return c.apiKey != ""
	}
}

// ProviderName returns the configured provider
func (c *Client) ProviderName() string {
	return c.provider
}

// ModelName returns the configured model
func (c *Client) ModelName() string {
	return c.model
}

// Generate sends the request to the configured provider and returns the
// cleaned answer text. Requests are not retried.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	startTime := time.Now()
	var (
		text  string
		usage tokenUsage
		err   error
	)

	switch c.provider {
	case "gemini":
		text, usage, err = c.generateWithGemini(ctx, req)
	case "openai":
		text, usage, err = c.generateWithOpenAI(ctx, req)
	case "anthropic":
		text, usage, err = c.generateWithAnthropic(ctx, req)
	case "ollama":
		text, usage, err = c.generateWithOllama(ctx, req)
	}

	if err == nil {
		text = cleanAnswer(text)
		if text == "" {
			err = errors.New("no content in response")
		}
	}

	embedding.LogLLMCall(c.provider, c.model, "generate", usage.input, usage.output, time.Since(startTime), err)
	if err != nil {
		return "", err
	}
	return text, nil
}

type tokenUsage struct {
	input  int
	output int
}

// postJSON sends body to url and decodes a 200 response into out
func (c *Client) postJSON(ctx context.Context, url string, headers map[string]string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 300))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// cleanAnswer strips markdown fences and wrapping quotes some models add
func cleanAnswer(input string) string {
	input = strings.TrimSpace(input)

	if after, found := strings.CutPrefix(input, "```"); found {
		input = strings.TrimSuffix(after, "```")
		input = strings.TrimSpace(input)
	}

	if strings.HasPrefix(input, "Resposta:") {
		input = strings.TrimSpace(strings.TrimPrefix(input, "Resposta:"))
	}

	if len(input) >= 2 && input[0] == '"' && input[len(input)-1] == '"' {
		input = strings.TrimSpace(input[1 : len(input)-1])
	}

	return input
}

// truncate shortens s to maxLen characters, never splitting a UTF-8 sequence
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
