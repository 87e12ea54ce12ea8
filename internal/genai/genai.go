// Package genai talks to generative text models. A [Generator] takes a prompt and returns the text of the first
// completion candidate. Implementations never retry and never return an empty string without an error.
package genai

import (
	"context"
	"fmt"
	"strconv"
)

// Generator produces raw completion text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Params are the sampling parameters sent with every request. They come from configuration.
type Params struct {
	Temperature     float64
	TopK            int
	TopP            float64
	MaxOutputTokens int
}

// DefaultParams mirror the values the clinic used with Gemini.
func DefaultParams() Params {
	return Params{
		Temperature:     0.7,  //nolint:mnd // tuned for varied but coherent programs.
		TopK:            40,   //nolint:mnd // provider default.
		TopP:            0.95, //nolint:mnd // provider default.
		MaxOutputTokens: 8192, //nolint:mnd // long programs with many exercises.
	}
}

// UpstreamError means the model endpoint answered, but not with a usable completion.
type UpstreamError struct {
	// StatusCode is the HTTP status or 0 when the status was successful but the payload was unusable.
	StatusCode int
	// Reason is a short machine-oriented description such as "empty candidate" or "blocked: SAFETY".
	Reason string
	// Body is the truncated response body for diagnostics.
	Body string
	Err  error
}

func (e *UpstreamError) Error() string {
	msg := "upstream error"
	if e.StatusCode != 0 {
		msg += " (status " + strconv.Itoa(e.StatusCode) + ")"
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// TimeoutError means the call did not finish before the context deadline or was cancelled.
type TimeoutError struct {
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("generation timed out: %v", e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// maxErrorBody bounds the response body kept on an UpstreamError.
const maxErrorBody = 4 << 10

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "…"
}
