package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	ProviderGemini = "gemini"

	// Gemini rejects embedding inputs far beyond ~10k tokens.
	maxEmbeddingInputChars = 40000
)

// geminiModels is the subset of *genai.Models used here.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
}

func newGeminiModels(ctx context.Context, apiKey string) (geminiModels, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing API key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return client.Models, nil
}

type geminiClient struct {
	models geminiModels
	cfg    GeminiConfig
}

// NewGeminiReportGenerator binds the API key at construction.
func NewGeminiReportGenerator(ctx context.Context, cfg GeminiConfig, policy RetryPolicy, log *zap.Logger) (ReportGenerator, error) {
	models, err := newGeminiModels(ctx, cfg.APIKey)
	if err != nil {
		return nil, &GenerationError{Kind: KindAuth, Provider: ProviderGemini, Err: err}
	}

	return newReportGenerator(&geminiClient{models: models, cfg: cfg}, policy, log), nil
}

func (c *geminiClient) Provider() string {
	return ProviderGemini
}

func (c *geminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := c.cfg.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(c.cfg.MaxTokens),
	}

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), config)
	if err != nil {
		return "", geminiError(err)
	}

	if resp == nil {
		return "", &GenerationError{Kind: KindMalformedResponse, Provider: ProviderGemini, Err: errors.New("nil response")}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		reason := "no text content in response"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = fmt.Sprintf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", &GenerationError{Kind: KindEmptyResponse, Provider: ProviderGemini, Err: errors.New(reason)}
	}

	return text, nil
}

// geminiError maps genai API errors onto the shared error kinds.
func geminiError(err error) *GenerationError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &GenerationError{Kind: kindForStatus(apiErr.Code), Provider: ProviderGemini, StatusCode: apiErr.Code, Err: err}
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &GenerationError{Kind: kindForStatus(apiErrPtr.Code), Provider: ProviderGemini, StatusCode: apiErrPtr.Code, Err: err}
	}

	return &GenerationError{Kind: transportErrorKind(err), Provider: ProviderGemini, Err: err}
}

type geminiEmbedder struct {
	models     geminiModels
	model      string
	dimensions int
}

// NewGeminiEmbedder embeds with the Gemini embedding API.
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int) (Embedder, error) {
	models, err := newGeminiModels(ctx, apiKey)
	if err != nil {
		return nil, &EmbeddingError{Op: "init", Err: err}
	}

	return &geminiEmbedder{models: models, model: model, dimensions: dimensions}, nil
}

func (e *geminiEmbedder) Name() string {
	return fmt.Sprintf("gemini:%s:%d", e.model, e.dimensions)
}

func (e *geminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, e.dimensions), nil
	}

	if len(text) > maxEmbeddingInputChars {
		text = truncateUTF8(text, maxEmbeddingInputChars)
	}

	var config *genai.EmbedContentConfig
	if e.dimensions > 0 {
		dims := int32(e.dimensions)
		config = &genai.EmbedContentConfig{OutputDimensionality: &dims}
	}

	result, err := e.models.EmbedContent(ctx, e.model, genai.Text(text), config)
	if err != nil {
		return nil, &EmbeddingError{Op: "embed", Err: fmt.Errorf("failed to generate embedding: %w", err)}
	}

	if result == nil || len(result.Embeddings) == 0 || result.Embeddings[0] == nil || len(result.Embeddings[0].Values) == 0 {
		return nil, &EmbeddingError{Op: "embed", Err: errors.New("empty embedding result")}
	}

	return result.Embeddings[0].Values, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
