// Package engine implements the analysis engine boundary on top of the
// Anthropic messages API. Every operation sends one prompt and expects a
// single JSON document back; anything else is an engine failure the
// pipeline surfaces as retryable.
package engine

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

	"github.com/beuysscout/InsightTool-v2/internal/config"
)

const (
	messagesEndpoint = "https://api.anthropic.com/v1/messages"
	apiVersion       = "2023-06-01"
	requestTimeout   = 5 * time.Minute
)

type Claude struct {
	apiKey     string
	model      string
	reqTimeout time.Duration
	httpClient *http.Client
}

func NewClaude(cfg config.Config) *Claude {
	return &Claude{
		apiKey:     cfg.AnthropicAPIKey,
		model:      cfg.ClaudeModel,
		reqTimeout: requestTimeout,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type messageRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Messages    []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// complete sends one user message and returns the model's text reply
// with any markdown code fence stripped.
func (c *Claude) complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	if err := c.ensureAPIKey(); err != nil {
		return "", err
	}

	payload := messageRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		System:      system,
		Temperature: temperature,
		Messages:    []message{{Role: "user", Content: user}},
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return "", fmt.Errorf("encode message payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, messagesEndpoint, buf)
	if err != nil {
		return "", fmt.Errorf("create message request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", c.decodeAPIError(resp)
	}

	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("decode message response: %w", err)
	}

	for _, block := range response.Content {
		if block.Type == "text" {
			return stripCodeFence(strings.TrimSpace(block.Text)), nil
		}
	}
	return "", errors.New("no text content returned")
}

func (c *Claude) do(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), c.reqTimeout)
	req = req.WithContext(ctx)

	resp, err := c.httpClient.Do(req)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	return resp, nil
}

func (c *Claude) decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("anthropic api error: status %d type %s message %s", resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}

	return fmt.Errorf("anthropic api error: status %d body %s", resp.StatusCode, string(body))
}

func (c *Claude) ensureAPIKey() error {
	if strings.TrimSpace(c.apiKey) == "" {
		return errors.New("anthropic api key is not configured")
	}
	return nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	lines = lines[1:]
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
