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
	"time"

	"kiosk-assistant/internal/logging"
)

// Provider call logging shared with the text generation clients. Entries
// go through the structured logger under the "llm" component.
var logger = logging.For("llm")

// LogAPICall logs an embedding API call with timing
func LogAPICall(provider, model string, textLen int, duration time.Duration, dimensions int, err error) {
	if err != nil {
		logger.Info("embedding call failed",
			"provider", provider, "model", model, "text_length", textLen,
			"duration", duration.String(), "error", err)
		return
	}
	logger.Info("embedding call succeeded",
		"provider", provider, "model", model, "text_length", textLen,
		"dimensions", dimensions, "duration", duration.String())
}

// LogAPICallDetails logs the start of an API call
func LogAPICallDetails(provider, model, url string, textLen int) {
	logger.Debug("starting embedding call",
		"provider", provider, "model", model, "url", url, "text_length", textLen)
}

// LogRateLimitError logs rate limit errors with specific details
func LogRateLimitError(provider, model string, statusCode int, responseBody string) {
	logger.Warn("rate limit error",
		"provider", provider, "model", model, "status_code", statusCode,
		"response", truncate(responseBody, 200))
}

// LogConnectionError logs connection errors
func LogConnectionError(provider, url string, err error) {
	logger.Warn("connection failed", "provider", provider, "url", url, "error", err)
}

// LogProviderInit logs provider initialization. Callers must pass API keys
// already masked.
func LogProviderInit(provider, model string, config map[string]string) {
	keyvals := []interface{}{"provider", provider, "model", model}
	for k, v := range config {
		keyvals = append(keyvals, k, v)
	}
	logger.Debug("provider initialized", keyvals...)
}

// LogLLMCall logs a text generation call with token usage and timing
func LogLLMCall(provider, model, operation string, inputTokens, outputTokens int, duration time.Duration, err error) {
	if err != nil {
		logger.Info("llm call failed",
			"provider", provider, "model", model, "operation", operation,
			"duration", duration.String(), "error", err)
		return
	}
	logger.Info("llm call succeeded",
		"provider", provider, "model", model, "operation", operation,
		"input_tokens", inputTokens, "output_tokens", outputTokens,
		"total_tokens", inputTokens+outputTokens, "duration", duration.String())
}

// truncate truncates a string to maxLen bytes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
