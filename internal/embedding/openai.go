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
	"net/http"
	"time"
)

// OpenAIBaseURL is the OpenAI API endpoint
const OpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider implements embedding generation using OpenAI's API
type OpenAIProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// openaiEmbeddingRequest represents a request to OpenAI's embeddings API
type openaiEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// openaiEmbeddingResponse represents a response from OpenAI's embeddings API
type openaiEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
}

// Model dimensions for OpenAI embedding models
var openaiModelDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// NewOpenAIProvider creates a new OpenAI embedding provider
func NewOpenAIProvider(apiKey, model string, timeout time.Duration) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key cannot be empty")
	}

	if model == "" {
		model = "text-embedding-3-small"
	}

	if _, ok := openaiModelDimensions[model]; !ok {
		return nil, fmt.Errorf("unsupported OpenAI model: %s (supported: text-embedding-3-large, text-embedding-3-small, text-embedding-ada-002)", model)
	}

	LogProviderInit("openai", model, map[string]string{
		"api_key":  maskKey(apiKey),
		"base_url": OpenAIBaseURL,
	})

	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: OpenAIBaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Embed generates an embedding vector for the given text
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	startTime := time.Now()

	call := apiCall{
		provider: "openai",
		model:    p.model,
		url:      p.baseURL + "/embeddings",
		headers:  map[string]string{"Authorization": "Bearer " + p.apiKey},
		textLen:  len(text),
	}

	var resp openaiEmbeddingResponse
	err := postJSON(ctx, p.client, call, openaiEmbeddingRequest{Model: p.model, Input: text}, &resp)
	if err != nil {
		return nil, err
	}

	var vec []float64
	if len(resp.Data) > 0 {
		vec = resp.Data[0].Embedding
	}
	return finish(call, startTime, vec)
}

// Dimensions returns the number of dimensions for this model
func (p *OpenAIProvider) Dimensions() int {
	return openaiModelDimensions[p.model]
}

// ModelName returns the model name
func (p *OpenAIProvider) ModelName() string {
	return p.model
}

// ProviderName returns "openai"
func (p *OpenAIProvider) ProviderName() string {
	return "openai"
}
