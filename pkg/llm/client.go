package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Config describes one chat-completion endpoint.
type Config struct {
	Endpoint  string // Base URL, e.g., "https://api.openai.com/v1"
	Model     string
	APIKey    string // Optional for local endpoints
	MaxTokens int    // Zero leaves the provider default
	// JSONMode requests a JSON object response. Not every OpenAI-compatible
	// server honours it, so completions are still parsed leniently.
	JSONMode bool
	Timeout  time.Duration // Per HTTP request; zero means none
}

// OpenAIClient talks to OpenAI-compatible chat-completion endpoints
// (OpenAI, vLLM, Ollama, Azure gateways).
type OpenAIClient struct {
	api    *openai.Client
	cfg    Config
	logger *zap.Logger
}

// NewOpenAIClient creates an OpenAIClient. Endpoint and model are required.
func NewOpenAIClient(cfg *Config, logger *zap.Logger) (*OpenAIClient, error) {
	switch {
	case cfg.Endpoint == "":
		return nil, errors.New("endpoint is required")
	case cfg.Model == "":
		return nil, errors.New("model is required")
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	apiConfig.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.Timeout > 0 {
		apiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIClient{
		api:    openai.NewClientWithConfig(apiConfig),
		cfg:    *cfg,
		logger: logger.Named("llm-openai"),
	}, nil
}

func (c *OpenAIClient) request(prompt, systemMessage string, temperature float64) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Temperature: float32(temperature),
		MaxTokens:   c.cfg.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if c.cfg.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

// GenerateResponse runs one system+user completion.
func (c *OpenAIClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, c.request(prompt, systemMessage, temperature))
	elapsed := time.Since(start)
	if err != nil {
		llmErr := ClassifyError(err)
		llmErr.Model = c.cfg.Model
		llmErr.Endpoint = c.cfg.Endpoint
		c.logger.Warn("Completion failed",
			zap.String("model", c.cfg.Model),
			zap.String("error_type", string(llmErr.Type)),
			zap.Bool("retryable", llmErr.Retryable),
			zap.Duration("elapsed", elapsed))
		return nil, llmErr
	}
	if len(resp.Choices) == 0 {
		return nil, NewErrorWithContext(ErrorTypeUnknown, "completion has no choices", true, nil, c.cfg.Model, c.cfg.Endpoint, 0)
	}

	c.logger.Debug("Completion finished",
		zap.String("model", c.cfg.Model),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
		zap.Duration("elapsed", elapsed))

	return &GenerateResponseResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

func (c *OpenAIClient) GetModel() string { return c.cfg.Model }

func (c *OpenAIClient) GetEndpoint() string { return c.cfg.Endpoint }
