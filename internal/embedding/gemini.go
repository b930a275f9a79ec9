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

// GeminiBaseURL is the Google Generative Language API endpoint
const GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider implements embedding generation using Google's embedContent API
type GeminiProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiEmbedRequest struct {
	Model   string        `json:"model"`
	Content geminiContent `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

var geminiModelDimensions = map[string]int{
	"text-embedding-004":   768,
	"gemini-embedding-001": 3072,
}

// NewGeminiProvider creates a new Gemini embedding provider
func NewGeminiProvider(apiKey, model string, timeout time.Duration) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key cannot be empty")
	}

	if model == "" {
		model = "text-embedding-004"
	}

	if _, ok := geminiModelDimensions[model]; !ok {
		return nil, fmt.Errorf("unsupported Gemini model: %s (supported: text-embedding-004, gemini-embedding-001)", model)
	}

	LogProviderInit("gemini", model, map[string]string{
		"api_key":  maskKey(apiKey),
		"base_url": GeminiBaseURL,
	})

	return &GeminiProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: GeminiBaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Embed generates an embedding vector for the given text
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	startTime := time.Now()

	call := apiCall{
		provider: "gemini",
		model:    p.model,
		url:      fmt.Sprintf("%s/models/%s:embedContent", p.baseURL, p.model),
		headers:  map[string]string{"x-goog-api-key": p.apiKey},
		textLen:  len(text),
	}

	reqBody := geminiEmbedRequest{
		Model:   "models/" + p.model,
		Content: geminiContent{Parts: []geminiPart{{Text: text}}},
	}

	var resp geminiEmbedResponse
	if err := postJSON(ctx, p.client, call, reqBody, &resp); err != nil {
		return nil, err
	}
	return finish(call, startTime, resp.Embedding.Values)
}

// Dimensions returns the number of dimensions for this model
func (p *GeminiProvider) Dimensions() int {
	return geminiModelDimensions[p.model]
}

// ModelName returns the model name
func (p *GeminiProvider) ModelName() string {
	return p.model
}

// ProviderName returns "gemini"
func (p *GeminiProvider) ProviderName() string {
	return "gemini"
}
