package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/myrjola/dietplan/internal/errors"
)

// GeminiConfig configures [GeminiClient].
type GeminiConfig struct {
	// BaseURL is the API root, e.g. https://generativelanguage.googleapis.com/v1beta.
	BaseURL string
	Model   string
	APIKey  string
	Params  Params
	// HTTPClient defaults to a client without timeout. Deadlines come from the context.
	HTTPClient *http.Client
}

// GeminiClient calls the generateContent endpoint.
type GeminiClient struct {
	endpoint   string
	apiKey     string
	model      string
	params     Params
	httpClient *http.Client
	logger     *slog.Logger
}

var ErrMissingConfig = errors.NewSentinel("missing generation client configuration")

func NewGeminiClient(cfg GeminiConfig, logger *slog.Logger) (*GeminiClient, error) {
	if cfg.BaseURL == "" || cfg.Model == "" || cfg.APIKey == "" {
		return nil, errors.Wrap(ErrMissingConfig, "new gemini client",
			slog.Bool("base_url_set", cfg.BaseURL != ""), slog.Bool("model_set", cfg.Model != ""))
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{} //nolint:exhaustruct // defaults are fine.
	}
	return &GeminiClient{
		endpoint:   strings.TrimSuffix(cfg.BaseURL, "/") + "/models/" + url.PathEscape(cfg.Model) + ":generateContent",
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		params:     cfg.Params,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// Generate sends prompt as a single user turn and returns the first candidate's first text part.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     c.params.Temperature,
			TopK:            c.params.TopK,
			TopP:            c.params.TopP,
			MaxOutputTokens: c.params.MaxOutputTokens,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal gemini request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint+"?key="+url.QueryEscape(c.apiKey), bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "new gemini request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	c.logger.LogAttrs(ctx, slog.LevelDebug, "sending generateContent request",
		slog.String("model", c.model), slog.Int("prompt_chars", len(prompt)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &TimeoutError{Err: ctxErr}
		}
		return "", &UpstreamError{StatusCode: 0, Reason: "request failed", Body: "", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &TimeoutError{Err: ctxErr}
		}
		return "", &UpstreamError{StatusCode: resp.StatusCode, Reason: "read body", Body: "", Err: err}
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "received generateContent response",
		slog.Int("status_code", resp.StatusCode), slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Reason: http.StatusText(resp.StatusCode),
			Body: truncate(string(body)), Err: nil}
	}

	var decoded geminiResponse
	if err = json.Unmarshal(body, &decoded); err != nil {
		return "", &UpstreamError{StatusCode: 0, Reason: "undecodable envelope", Body: truncate(string(body)), Err: err}
	}
	if reason := decoded.PromptFeedback.BlockReason; reason != "" {
		return "", &UpstreamError{StatusCode: 0, Reason: "blocked: " + reason, Body: truncate(string(body)), Err: nil}
	}
	if len(decoded.Candidates) == 0 {
		return "", &UpstreamError{StatusCode: 0, Reason: "no candidates", Body: truncate(string(body)), Err: nil}
	}
	candidate := decoded.Candidates[0]
	if len(candidate.Content.Parts) == 0 || strings.TrimSpace(candidate.Content.Parts[0].Text) == "" {
		reason := "empty candidate"
		if candidate.FinishReason != "" {
			reason += ": " + candidate.FinishReason
		}
		return "", &UpstreamError{StatusCode: 0, Reason: reason, Body: truncate(string(body)), Err: nil}
	}
	return candidate.Content.Parts[0].Text, nil
}
