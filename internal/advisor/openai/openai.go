package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"safespend/internal/advisor"
	"safespend/internal/core"
	"safespend/internal/ports"
)

// DefaultModel matches the model the coach prompt was written for.
const DefaultModel = "gpt-4"

// Config configures the chat-completions gateway.
type Config struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint, e.g. for a compatible proxy.
	BaseURL string
	// Timeout bounds a single request. Zero leaves it to the caller's context.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client implements ports.Advisor on top of the OpenAI SDK.
type Client struct {
	api    sdk.Client
	model  string
	logger *slog.Logger
}

var _ ports.Advisor = (*Client)(nil)

// New builds a gateway. Automatic SDK retries are disabled: a failed call is
// reported to the user as is.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("missing OpenAI API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		api:    sdk.NewClient(opts...),
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

// GenerateAdvice implements ports.Advisor.
func (c *Client) GenerateAdvice(ctx context.Context, req core.AdviceRequest, asOf time.Time) (string, error) {
	prompt := advisor.BuildPrompt(req, asOf)
	start := time.Now()

	resp, err := c.api.Chat.Completions.New(ctx, sdk.ChatCompletionNewParams{
		Model: sdk.ChatModel(c.model),
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(advisor.SystemMessage),
			sdk.UserMessage(prompt),
		},
	})
	if err != nil {
		attrs := []any{"model", c.model, "duration_ms", time.Since(start).Milliseconds(), "error", err}
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) {
			attrs = append(attrs, "status_code", apiErr.StatusCode)
		}
		c.logger.ErrorContext(ctx, "Chat completion failed", attrs...)
		return "", &core.ServiceError{Op: "chat completion", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &core.ServiceError{Op: "chat completion", Err: errors.New("response has no choices")}
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", &core.ServiceError{Op: "chat completion", Err: fmt.Errorf("empty content (finish reason %q)", resp.Choices[0].FinishReason)}
	}

	c.logger.InfoContext(ctx, "Chat completion succeeded",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"response_chars", len(content))
	return content, nil
}
