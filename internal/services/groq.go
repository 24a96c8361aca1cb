package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	ProviderGroq = "groq"

	maxResponseBytes = 4 << 20
)

type GroqConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiErrorBody struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// groqClient talks to Groq's OpenAI-compatible chat completions endpoint.
type groqClient struct {
	httpClient *http.Client
	cfg        GroqConfig
}

// NewGroqReportGenerator binds the API key at construction. Per-attempt timeouts come from policy.
func NewGroqReportGenerator(cfg GroqConfig, policy RetryPolicy, log *zap.Logger) (ReportGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &GenerationError{Kind: KindAuth, Provider: ProviderGroq, Err: errors.New("missing API key")}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	client := &groqClient{
		httpClient: &http.Client{},
		cfg:        cfg,
	}

	return newReportGenerator(client, policy, log), nil
}

func (c *groqClient) Provider() string {
	return ProviderGroq
}

func (c *groqClient) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", &GenerationError{Kind: KindBadRequest, Provider: ProviderGroq, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", &GenerationError{Kind: KindBadRequest, Provider: ProviderGroq, Err: fmt.Errorf("failed to build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &GenerationError{Kind: transportErrorKind(err), Provider: ProviderGroq, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &GenerationError{Kind: transportErrorKind(err), Provider: ProviderGroq, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &GenerationError{
			Kind:       kindForStatus(resp.StatusCode),
			Provider:   ProviderGroq,
			StatusCode: resp.StatusCode,
			Err:        errors.New(apiErrorMessage(raw, resp.Status)),
		}
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", &GenerationError{Kind: KindMalformedResponse, Provider: ProviderGroq, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if len(completion.Choices) == 0 {
		return "", &GenerationError{Kind: KindEmptyResponse, Provider: ProviderGroq, StatusCode: resp.StatusCode, Err: errors.New("no choices in response")}
	}

	content := completion.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &GenerationError{Kind: KindEmptyResponse, Provider: ProviderGroq, StatusCode: resp.StatusCode, Err: errors.New("empty message content")}
	}

	return content, nil
}

// apiErrorMessage prefers the provider's error message over the raw status line.
func apiErrorMessage(raw []byte, status string) string {
	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}

	snippet := strings.TrimSpace(string(raw))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if snippet == "" {
		return status
	}
	return status + ": " + snippet
}
