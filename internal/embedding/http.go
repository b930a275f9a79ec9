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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// apiCall describes one JSON POST to an embedding endpoint
type apiCall struct {
	provider string
	model    string
	url      string
	headers  map[string]string
	textLen  int
}

// postJSON sends body to the endpoint and decodes a 200 response into out.
// Failures are logged with the elapsed time before being returned.
func postJSON(ctx context.Context, client *http.Client, call apiCall, body, out interface{}) error {
	startTime := time.Now()
	LogAPICallDetails(call.provider, call.model, call.url, call.textLen)

	fail := func(err error) error {
		LogAPICall(call.provider, call.model, call.textLen, time.Since(startTime), 0, err)
		return err
	}

	reqBytes, err := json.Marshal(body)
	if err != nil {
		return fail(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, call.url, bytes.NewReader(reqBytes))
	if err != nil {
		return fail(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range call.headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		LogConnectionError(call.provider, call.url, err)
		return fail(fmt.Errorf("failed to make API request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil {
			return fail(fmt.Errorf("API request failed with status %d (error reading response body: %w)", resp.StatusCode, readErr))
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			LogRateLimitError(call.provider, call.model, resp.StatusCode, string(respBody))
		}
		return fail(fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// finish validates a decoded vector and logs the completed call
func finish(call apiCall, startTime time.Time, vec []float64) ([]float64, error) {
	if len(vec) == 0 {
		err := fmt.Errorf("received empty embedding from API")
		LogAPICall(call.provider, call.model, call.textLen, time.Since(startTime), 0, err)
		return nil, err
	}
	LogAPICall(call.provider, call.model, call.textLen, time.Since(startTime), len(vec), nil)
	return vec, nil
}
