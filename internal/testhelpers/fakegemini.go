package testhelpers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// GeminiReply is one canned response of a FakeGemini server.
type GeminiReply struct {
	Status int
	// Text is wrapped into candidates[0].content.parts[0].text when Status is 200 and Raw is empty.
	Text string
	// Raw is written verbatim as the response body.
	Raw string
}

// FakeGemini is an httptest server speaking the generateContent contract.
type FakeGemini struct {
	*httptest.Server

	mu       sync.Mutex
	replies  []GeminiReply
	requests []GeminiRequest
}

// GeminiRequest is a recorded request to FakeGemini.
type GeminiRequest struct {
	Path   string
	APIKey string
	Body   map[string]any
}

// NewFakeGemini starts a server that answers with replies in order and repeats the last one when exhausted.
func NewFakeGemini(t testing.TB, replies ...GeminiReply) *FakeGemini {
	t.Helper()
	f := &FakeGemini{replies: replies} //nolint:exhaustruct // server set below.
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

func (f *FakeGemini) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)

	f.mu.Lock()
	f.requests = append(f.requests, GeminiRequest{
		Path:   r.URL.Path,
		APIKey: r.URL.Query().Get("key"),
		Body:   decoded,
	})
	reply := GeminiReply{Status: http.StatusOK, Text: "", Raw: `{"candidates":[]}`}
	if n := len(f.replies); n > 0 {
		idx := min(len(f.requests)-1, n-1)
		reply = f.replies[idx]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.Status)
	if reply.Raw != "" || reply.Status != http.StatusOK {
		_, _ = w.Write([]byte(reply.Raw))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": reply.Text}}}},
		},
	})
}

// Requests returns a copy of the recorded requests.
func (f *FakeGemini) Requests() []GeminiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]GeminiRequest(nil), f.requests...)
}
