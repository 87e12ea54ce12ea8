package genai_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/dietplan/internal/genai"
	"github.com/myrjola/dietplan/internal/testhelpers"
)

func newGemini(t *testing.T, baseURL string) *genai.GeminiClient {
	t.Helper()
	client, err := genai.NewGeminiClient(genai.GeminiConfig{
		BaseURL:    baseURL,
		Model:      "gemini-2.0-flash",
		APIKey:     "test-key",
		Params:     genai.Params{Temperature: 0.5, TopK: 20, TopP: 0.9, MaxOutputTokens: 1024},
		HTTPClient: nil,
	}, testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if err != nil {
		t.Fatalf("NewGeminiClient: %v", err)
	}
	return client
}

func TestGeminiClient_Generate(t *testing.T) {
	fake := testhelpers.NewFakeGemini(t, testhelpers.GeminiReply{Status: http.StatusOK, Text: `{"title":"x"}`, Raw: ""})
	client := newGemini(t, fake.URL)

	got, err := client.Generate(t.Context(), "prompt text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != `{"title":"x"}` {
		t.Errorf("Generate() = %q", got)
	}

	requests := fake.Requests()
	if len(requests) != 1 {
		t.Fatalf("want 1 request, got %d", len(requests))
	}
	req := requests[0]
	if req.Path != "/models/gemini-2.0-flash:generateContent" {
		t.Errorf("path = %q", req.Path)
	}
	if req.APIKey != "test-key" {
		t.Errorf("api key = %q", req.APIKey)
	}
	wantBody := map[string]any{
		"contents": []any{
			map[string]any{"parts": []any{map[string]any{"text": "prompt text"}}},
		},
		"generationConfig": map[string]any{
			"temperature":     0.5,
			"topK":            float64(20),
			"topP":            0.9,
			"maxOutputTokens": float64(1024),
		},
	}
	if diff := cmp.Diff(wantBody, req.Body); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestGeminiClient_Generate_upstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		reply      testhelpers.GeminiReply
		wantStatus int
		wantReason string
	}{
		{
			name:       "server error",
			reply:      testhelpers.GeminiReply{Status: http.StatusInternalServerError, Text: "", Raw: "internal failure"},
			wantStatus: http.StatusInternalServerError,
			wantReason: "Internal Server Error",
		},
		{
			name:       "rate limited",
			reply:      testhelpers.GeminiReply{Status: http.StatusTooManyRequests, Text: "", Raw: `{"error":{}}`},
			wantStatus: http.StatusTooManyRequests,
			wantReason: "Too Many Requests",
		},
		{
			name:       "no candidates",
			reply:      testhelpers.GeminiReply{Status: http.StatusOK, Text: "", Raw: `{"candidates":[]}`},
			wantReason: "no candidates",
		},
		{
			name: "empty candidate",
			reply: testhelpers.GeminiReply{Status: http.StatusOK, Text: "",
				Raw: `{"candidates":[{"content":{"parts":[]},"finishReason":"MAX_TOKENS"}]}`},
			wantReason: "empty candidate: MAX_TOKENS",
		},
		{
			name: "blocked prompt",
			reply: testhelpers.GeminiReply{Status: http.StatusOK, Text: "",
				Raw: `{"promptFeedback":{"blockReason":"SAFETY"}}`},
			wantReason: "blocked: SAFETY",
		},
		{
			name:       "undecodable envelope",
			reply:      testhelpers.GeminiReply{Status: http.StatusOK, Text: "", Raw: `<html>`},
			wantReason: "undecodable envelope",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testhelpers.NewFakeGemini(t, tt.reply)
			client := newGemini(t, fake.URL)

			got, err := client.Generate(t.Context(), "prompt")
			if got != "" {
				t.Errorf("Generate() = %q, want empty string on error", got)
			}
			var upstreamErr *genai.UpstreamError
			if !errors.As(err, &upstreamErr) {
				t.Fatalf("want UpstreamError, got %v", err)
			}
			if upstreamErr.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", upstreamErr.StatusCode, tt.wantStatus)
			}
			if upstreamErr.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", upstreamErr.Reason, tt.wantReason)
			}
		})
	}
}

func TestGeminiClient_Generate_timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })
	client := newGemini(t, srv.URL)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Generate(ctx, "prompt")

	var timeoutErr *genai.TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("want TimeoutError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("want wrapped context.DeadlineExceeded, got %v", err)
	}
}

func TestNewGeminiClient_missingConfig(t *testing.T) {
	_, err := genai.NewGeminiClient(genai.GeminiConfig{
		BaseURL: "http://localhost", Model: "m", APIKey: "", Params: genai.DefaultParams(), HTTPClient: nil,
	}, testhelpers.NewLogger(testhelpers.NewWriter(t)))
	if !errors.Is(err, genai.ErrMissingConfig) {
		t.Errorf("want ErrMissingConfig, got %v", err)
	}
}
