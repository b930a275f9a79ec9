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

// VoyageBaseURL is the Voyage AI API endpoint
const VoyageBaseURL = "https://api.voyageai.com/v1"

// VoyageProvider implements embedding generation using Voyage AI's API
type VoyageProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type voyageEmbeddingRequest struct {
	Model     string   `json:"model"`
	Input     []string `json:"input"`
	InputType string   `json:"input_type"`
}

type voyageEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

var voyageModelDimensions = map[string]int{
	"voyage-3":              1024,
	"voyage-3-lite":         512,
	"voyage-multilingual-2": 1024,
	"voyage-3.5":            1024,
	"voyage-3.5-lite":       1024,
}

// NewVoyageProvider creates a new Voyage AI embedding provider
func NewVoyageProvider(apiKey, model string, timeout time.Duration) (*VoyageProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Voyage AI API key cannot be empty")
	}

	// Portuguese content, so default to the multilingual model
	if model == "" {
		model = "voyage-multilingual-2"
	}

	if _, ok := voyageModelDimensions[model]; !ok {
		return nil, fmt.Errorf("unsupported Voyage AI model: %s", model)
	}

	LogProviderInit("voyage", model, map[string]string{
		"api_key":  maskKey(apiKey),
		"base_url": VoyageBaseURL,
	})

	return &VoyageProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: VoyageBaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Embed generates an embedding vector for the given query text
func (p *VoyageProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	startTime := time.Now()

	call := apiCall{
		provider: "voyage",
		model:    p.model,
		url:      p.baseURL + "/embeddings",
		headers:  map[string]string{"Authorization": "Bearer " + p.apiKey},
		textLen:  len(text),
	}

	reqBody := voyageEmbeddingRequest{
		Model:     p.model,
		Input:     []string{text},
		InputType: "query",
	}

	var resp voyageEmbeddingResponse
	if err := postJSON(ctx, p.client, call, reqBody, &resp); err != nil {
		return nil, err
	}

	var vec []float64
	if len(resp.Data) > 0 {
		vec = resp.Data[0].Embedding
	}
	return finish(call, startTime, vec)
}

// Dimensions returns the number of dimensions for this model
func (p *VoyageProvider) Dimensions() int {
	return voyageModelDimensions[p.model]
}

// ModelName returns the model name
func (p *VoyageProvider) ModelName() string {
	return p.model
}

// ProviderName returns "voyage"
func (p *VoyageProvider) ProviderName() string {
	return "voyage"
}
