// Package llm talks to an OpenAI-compatible chat completion endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Error marks a failure of the remote completion endpoint: transport
// errors, non-2xx statuses, or unusable response bodies. StatusCode is
// zero when no HTTP response was received.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string { return e.Message }

func upstreamErrf(status int, format string, args ...any) *Error {
	return &Error{StatusCode: status, Message: fmt.Sprintf(format, args...)}
}

// Params are the sampling controls for one completion call. Callers tune
// them per task: low temperature for SQL generation, slightly higher for
// prose.
type Params struct {
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Completer produces one assistant message for a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, system, user string, params Params) (string, error)
	Info() Info
}

// Info describes the configured provider for the public info endpoint.
type Info struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client is an OpenAI-compatible chat completions client. It works with
// any provider exposing the /v1/chat/completions surface.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-5"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Info() Info {
	return Info{Provider: "openai-compatible", Model: c.model, BaseURL: c.baseURL}
}

func (c *Client) Complete(ctx context.Context, system, user string, params Params) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": params.Temperature,
	}
	if params.MaxTokens > 0 {
		payload["max_tokens"] = params.MaxTokens
	}
	if params.TopP > 0 {
		payload["top_p"] = params.TopP
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", upstreamErrf(0, "request chat completion: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", upstreamErrf(resp.StatusCode, "read chat response body: %v", err)
	}
	if resp.StatusCode >= 400 {
		return "", upstreamErrf(resp.StatusCode, "chat completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return "", upstreamErrf(resp.StatusCode, "decode chat completion response: %v", err)
	}
	if len(parsed.Choices) == 0 {
		return "", upstreamErrf(resp.StatusCode, "empty chat completion choices")
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", upstreamErrf(resp.StatusCode, "model returned empty content")
	}
	return content, nil
}
