// Package assist requests generated note suggestions from an external
// text-generation service and splices results into the transcript buffer.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Generator produces a text suggestion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client calls the upstream text-generation API over HTTP.
type Client struct {
	httpClient *http.Client
	url        string
	apiKey     string
	model      string
}

// NewClient creates an upstream client. A nil httpClient gets a default
// with a 30s timeout.
func NewClient(httpClient *http.Client, url, apiKey, model string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		httpClient: httpClient,
		url:        url,
		apiKey:     apiKey,
		model:      model,
	}
}

// generateRequest is the upstream request body.
type generateRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// generateResponse covers the response shapes the upstream is known to
// produce. The schema is not self-describing, so the shapes are probed in a
// fixed priority order: choices[0].text, then choices[0].message.content,
// then the top-level text field.
type generateResponse struct {
	Text    string `json:"text"`
	Error   string `json:"error"`
	Choices []struct {
		Text    string `json:"text"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// extract probes the known payload shapes and falls back to empty string.
func (r *generateResponse) extract() string {
	if len(r.Choices) > 0 {
		if r.Choices[0].Text != "" {
			return r.Choices[0].Text
		}
		if r.Choices[0].Message.Content != "" {
			return r.Choices[0].Message.Content
		}
	}
	return r.Text
}

// Generate sends the prompt upstream and returns the suggested text.
// Transport failures, non-2xx statuses, explicit error payloads, and
// malformed bodies are all reported as errors; the caller treats them
// identically.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Input: prompt})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("text generation status %d: %s", resp.StatusCode, string(raw))
	}

	var payload generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode text generation response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("text generation error: %s", payload.Error)
	}

	return payload.extract(), nil
}
