package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func orResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":    "gen-1",
		"model": "openai/gpt-4o",
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(b)
}

func newTestClient(url string) *OpenRouterClient {
	return NewOpenRouterClient(OpenRouterConfig{
		APIKey:     "test-key",
		BaseURL:    url,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
}

func TestOpenRouterChat(t *testing.T) {
	ctx := context.Background()

	t.Run("plain chat", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
				t.Errorf("auth header = %q", got)
			}
			w.Write([]byte(orResponse("hello there")))
		}))
		defer srv.Close()

		res, err := newTestClient(srv.URL).Chat(ctx, &ChatRequest{
			Messages: []Message{{Role: "user", Content: "hi"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if !res.Success || res.Content != "hello there" {
			t.Errorf("result = %+v", res)
		}
		if res.TotalTokens != 15 {
			t.Errorf("total tokens = %d", res.TotalTokens)
		}
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(orResponse("recovered")))
		}))
		defer srv.Close()

		res, err := newTestClient(srv.URL).Chat(ctx, &ChatRequest{
			Messages: []Message{{Role: "user", Content: "hi"}},
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.Content != "recovered" {
			t.Errorf("content = %q", res.Content)
		}
		if calls.Load() != 3 {
			t.Errorf("calls = %d, want 3", calls.Load())
		}
	})

	t.Run("does not retry client errors", func(t *testing.T) {
		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		if _, err := newTestClient(srv.URL).Chat(ctx, &ChatRequest{
			Messages: []Message{{Role: "user", Content: "hi"}},
		}); err == nil {
			t.Fatal("expected error")
		}
		if calls.Load() != 1 {
			t.Errorf("calls = %d, want 1", calls.Load())
		}
	})

	t.Run("structured output repaired on second attempt", func(t *testing.T) {
		schema := json.RawMessage(`{"name":"t","schema":{"type":"object","properties":{"title":{"type":"string"}},"required":["title"]}}`)

		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.Write([]byte(orResponse("not json at all")))
				return
			}
			// The repair request must carry the invalid output back.
			var body openRouterRequest
			json.NewDecoder(r.Body).Decode(&body)
			if len(body.Messages) < 3 {
				t.Errorf("repair request has %d messages, want conversation history", len(body.Messages))
			}
			w.Write([]byte(orResponse(`{"title": "fixed"}`)))
		}))
		defer srv.Close()

		res, err := newTestClient(srv.URL).Chat(ctx, &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "hi"}},
			ResponseFormat: &ResponseFormat{Type: "json_schema", JSONSchema: schema},
		})
		if err != nil {
			t.Fatal(err)
		}
		if string(res.ParsedJSON) != `{"title":"fixed"}` {
			t.Errorf("parsed = %s", res.ParsedJSON)
		}
		if res.Attempts != 2 {
			t.Errorf("attempts = %d, want 2", res.Attempts)
		}
	})

	t.Run("structured output gives up after repair budget", func(t *testing.T) {
		schema := json.RawMessage(`{"schema":{"type":"object","required":["title"],"properties":{"title":{"type":"string"}}}}`)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(orResponse("still not json")))
		}))
		defer srv.Close()

		res, err := newTestClient(srv.URL).Chat(ctx, &ChatRequest{
			Messages:       []Message{{Role: "user", Content: "hi"}},
			ResponseFormat: &ResponseFormat{Type: "json_schema", JSONSchema: schema},
		})
		if err == nil {
			t.Fatal("expected error")
		}
		if res.ErrorType != "structured_output" {
			t.Errorf("error type = %q", res.ErrorType)
		}
	})
}
