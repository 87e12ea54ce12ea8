package genai

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/myrjola/dietplan/internal/errors"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIConfig configures [OpenAIClient]. BaseURL is optional and mostly useful in tests.
type OpenAIConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Params  Params
}

// OpenAIClient generates completions with the chat completions API. TopK has no equivalent there and is ignored.
type OpenAIClient struct {
	client openai.Client
	model  string
	params Params
	logger *slog.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) (*OpenAIClient, error) {
	if cfg.Model == "" || cfg.APIKey == "" {
		return nil, errors.Wrap(ErrMissingConfig, "new openai client", slog.Bool("model_set", cfg.Model != ""))
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries are the caller's decision.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		params: cfg.Params,
		logger: logger,
	}, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{ //nolint:exhaustruct // only need to set a few fields.
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:               openai.ChatModel(c.model),
		Temperature:         openai.Float(c.params.Temperature),
		TopP:                openai.Float(c.params.TopP),
		MaxCompletionTokens: openai.Int(int64(c.params.MaxOutputTokens)),
	}

	start := time.Now()
	c.logger.LogAttrs(ctx, slog.LevelDebug, "sending chat completion request",
		slog.String("model", c.model), slog.Int("prompt_chars", len(prompt)))

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &TimeoutError{Err: ctxErr}
		}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{StatusCode: apiErr.StatusCode, Reason: apiErr.Message,
				Body: truncate(apiErr.RawJSON()), Err: err}
		}
		return "", &UpstreamError{StatusCode: 0, Reason: "request failed", Body: "", Err: err}
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "received chat completion response",
		slog.Duration("duration", time.Since(start)),
		slog.Int64("prompt_tokens", completion.Usage.PromptTokens),
		slog.Int64("completion_tokens", completion.Usage.CompletionTokens))

	if len(completion.Choices) == 0 {
		return "", &UpstreamError{StatusCode: 0, Reason: "no candidates", Body: "", Err: nil}
	}
	choice := completion.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		reason := "empty candidate"
		if choice.FinishReason != "" {
			reason += ": " + string(choice.FinishReason)
		}
		if choice.Message.Refusal != "" {
			reason = "blocked: " + choice.Message.Refusal
		}
		return "", &UpstreamError{StatusCode: 0, Reason: reason, Body: "", Err: nil}
	}
	return choice.Message.Content, nil
}
