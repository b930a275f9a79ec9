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
	"sync"
	"time"
)

// OllamaProvider implements embedding generation using Ollama
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client

	mu   sync.RWMutex
	dims int
}

// ollamaEmbeddingRequest represents a request to Ollama's embeddings API
type ollamaEmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// ollamaEmbeddingResponse holds one embedding per input text
type ollamaEmbeddingResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

var ollamaModelDimensions = map[string]int{
	"nomic-embed-text":  768,
	"mxbai-embed-large": 1024,
	"bge-m3":            1024,
	"all-minilm":        384,
}

// NewOllamaProvider creates a new Ollama embedding provider
func NewOllamaProvider(baseURL, model string, timeout time.Duration) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	if model == "" {
		model = "nomic-embed-text"
	}

	// Unknown models are allowed; their dimensions are learned on first use
	LogProviderInit("ollama", model, map[string]string{
		"base_url": baseURL,
	})

	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
		dims:    ollamaModelDimensions[model],
	}, nil
}

// Embed generates an embedding vector for the given text
func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	startTime := time.Now()

	call := apiCall{
		provider: "ollama",
		model:    p.model,
		url:      p.baseURL + "/api/embed",
		textLen:  len(text),
	}

	var resp ollamaEmbeddingResponse
	err := postJSON(ctx, p.client, call, ollamaEmbeddingRequest{Model: p.model, Input: text}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ollama at %s: %w", p.baseURL, err)
	}

	var vec []float64
	if len(resp.Embeddings) > 0 {
		vec = resp.Embeddings[0]
	}
	vec, err = finish(call, startTime, vec)
	if err != nil {
		return nil, fmt.Errorf("%w (model may not be installed: try 'ollama pull %s')", err, p.model)
	}

	p.mu.Lock()
	if p.dims == 0 {
		p.dims = len(vec)
	}
	p.mu.Unlock()

	return vec, nil
}

// Dimensions returns the number of dimensions, or 0 before first use of an
// unknown model
func (p *OllamaProvider) Dimensions() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dims
}

// ModelName returns the model name
func (p *OllamaProvider) ModelName() string {
	return p.model
}

// ProviderName returns "ollama"
func (p *OllamaProvider) ProviderName() string {
	return "ollama"
}
