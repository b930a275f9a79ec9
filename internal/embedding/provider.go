/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package embedding

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout bounds a single embedding request. Requests are never
// retried; a timeout is treated like any other failure.
const DefaultTimeout = 15 * time.Second

// Provider defines the interface for embedding generation
type Provider interface {
	// Embed generates an embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float64, error)

	// Dimensions returns the number of dimensions in the embedding vector,
	// or 0 when the model is unknown until first use
	Dimensions() int

	// ModelName returns the name of the model being used
	ModelName() string

	// ProviderName returns the name of the provider (e.g., "gemini", "openai")
	ProviderName() string
}

// Config holds configuration for embedding providers
type Config struct {
	Provider string // "gemini", "openai", "voyage" or "ollama"
	Model    string // Model name (provider-specific)

	GeminiAPIKey string
	OpenAIAPIKey string
	VoyageAPIKey string
	OllamaURL    string

	// BaseURL overrides the provider's default API endpoint
	BaseURL string

	Timeout time.Duration
}

// NewProvider creates a new embedding provider based on configuration
func NewProvider(cfg Config) (Provider, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var (
		p   Provider
		err error
	)

	switch cfg.Provider {
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("Gemini API key is required when provider is 'gemini'")
		}
		var gp *GeminiProvider
		gp, err = NewGeminiProvider(cfg.GeminiAPIKey, cfg.Model, timeout)
		if err == nil && cfg.BaseURL != "" {
			gp.baseURL = cfg.BaseURL
		}
		p = gp

	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required when provider is 'openai'")
		}
		var op *OpenAIProvider
		op, err = NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.Model, timeout)
		if err == nil && cfg.BaseURL != "" {
			op.baseURL = cfg.BaseURL
		}
		p = op

	case "voyage":
		if cfg.VoyageAPIKey == "" {
			return nil, fmt.Errorf("Voyage AI API key is required when provider is 'voyage'")
		}
		var vp *VoyageProvider
		vp, err = NewVoyageProvider(cfg.VoyageAPIKey, cfg.Model, timeout)
		if err == nil && cfg.BaseURL != "" {
			vp.baseURL = cfg.BaseURL
		}
		p = vp

	case "ollama":
		url := cfg.OllamaURL
		if cfg.BaseURL != "" {
			url = cfg.BaseURL
		}
		p, err = NewOllamaProvider(url, cfg.Model, timeout)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (supported: gemini, openai, voyage, ollama)", cfg.Provider)
	}

	if err != nil {
		return nil, err
	}
	return p, nil
}

// maskKey hides all but the ends of an API key
func maskKey(apiKey string) string {
	if len(apiKey) > 8 {
		return apiKey[:4] + "..." + apiKey[len(apiKey)-4:]
	}
	return "(redacted)"
}
