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
	"context"
	"fmt"
)

// Gemini generateContent

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
}

func (c *Client) generateWithGemini(ctx context.Context, req Request) (string, tokenUsage, error) {
	body := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: req.UserMessage()}}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxTokens,
		},
	}
	if req.SystemPrompt != "" {
		body.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemPrompt}}}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	var resp geminiResponse
	if err := c.postJSON(ctx, url, map[string]string{"x-goog-api-key": c.apiKey}, body, &resp); err != nil {
		return "", tokenUsage{}, err
	}

	usage := tokenUsage{
		input:  resp.UsageMetadata.PromptTokenCount,
		output: resp.UsageMetadata.CandidatesTokenCount,
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", usage, fmt.Errorf("no candidates in response")
	}
	return resp.Candidates[0].Content.Parts[0].Text, usage, nil
}

// OpenAI chat completions; also used for Ollama's compatible endpoint

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *Client) chatMessages(req Request) []chatMessage {
	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	return append(messages, chatMessage{Role: "user", Content: req.UserMessage()})
}

func (c *Client) generateWithOpenAI(ctx context.Context, req Request) (string, tokenUsage, error) {
	body := chatRequest{
		Model:       c.model,
		Messages:    c.chatMessages(req),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	var resp chatResponse
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	if err := c.postJSON(ctx, c.baseURL+"/chat/completions", headers, body, &resp); err != nil {
		return "", tokenUsage{}, err
	}

	usage := tokenUsage{input: resp.Usage.PromptTokens, output: resp.Usage.CompletionTokens}
	if len(resp.Choices) == 0 {
		return "", usage, fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, usage, nil
}

func (c *Client) generateWithOllama(ctx context.Context, req Request) (string, tokenUsage, error) {
	body := chatRequest{
		Model:       c.model,
		Messages:    c.chatMessages(req),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      false,
	}

	var resp chatResponse
	if err := c.postJSON(ctx, c.baseURL+"/v1/chat/completions", nil, body, &resp); err != nil {
		return "", tokenUsage{}, fmt.Errorf("ollama at %s: %w", c.baseURL, err)
	}

	usage := tokenUsage{input: resp.Usage.PromptTokens, output: resp.Usage.CompletionTokens}
	if len(resp.Choices) == 0 {
		return "", usage, fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, usage, nil
}

// Anthropic messages

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (c *Client) generateWithAnthropic(ctx context.Context, req Request) (string, tokenUsage, error) {
	body := claudeRequest{
		Model:       c.model,
		System:      req.SystemPrompt,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages:    []claudeMessage{{Role: "user", Content: req.UserMessage()}},
	}

	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": "2023-06-01",
	}

	var resp claudeResponse
	if err := c.postJSON(ctx, c.baseURL+"/messages", headers, body, &resp); err != nil {
		return "", tokenUsage{}, err
	}

	usage := tokenUsage{input: resp.Usage.InputTokens, output: resp.Usage.OutputTokens}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no content in response")
}
