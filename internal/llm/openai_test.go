package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go"
)

// collect drains a stream into one transcript, stopping at the first error
func collect(seq iter.Seq2[string, error]) (string, error) {
	var sb strings.Builder
	for delta, err := range seq {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(delta)
	}
	return sb.String(), nil
}

func writeSSE(w http.ResponseWriter, events ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, e := range events {
		fmt.Fprintf(w, "data: %s\n\n", e)
	}
}

func TestOpenAIProvider_Stream(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/responses") {
			t.Errorf("Expected path /responses, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		writeSSE(w,
			`{"type":"response.output_text.delta","item_id":"msg_1","output_index":0,"content_index":0,"delta":"SPONSOR DECISION: ","sequence_number":1}`,
			`{"type":"response.web_search_call.searching","item_id":"ws_1","output_index":0,"sequence_number":2}`,
			`{"type":"response.output_text.delta","item_id":"msg_1","output_index":0,"content_index":0,"delta":"Eligible","sequence_number":3}`,
		)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, SearchContextSize: "high"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	transcript, err := collect(provider.Stream(context.Background(), "research Acme"))
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if transcript != "SPONSOR DECISION: Eligible" {
		t.Errorf("unexpected transcript %q", transcript)
	}

	if body["model"] != DefaultOpenAIModel {
		t.Errorf("expected model %s, got %v", DefaultOpenAIModel, body["model"])
	}
	if body["input"] != "research Acme" {
		t.Errorf("expected prompt as input, got %v", body["input"])
	}
	if body["stream"] != true {
		t.Errorf("expected stream=true, got %v", body["stream"])
	}
	tools, _ := body["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("expected one tool, got %v", body["tools"])
	}
	tool := tools[0].(map[string]any)
	if tool["type"] != "web_search_preview" || tool["search_context_size"] != "high" {
		t.Errorf("unexpected tool %v", tool)
	}
}

func TestOpenAIProvider_StreamAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit exceeded","type":"rate_limit_error"}}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL})

	_, err := collect(provider.Stream(context.Background(), "prompt"))
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *openai.Error, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", apiErr.StatusCode)
	}
	if !shouldRetry(err) {
		t.Error("429 should be retryable")
	}
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Error("expected error without API key")
	}
}

func TestOpenAIChatProvider_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("Expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req["model"] != DefaultOpenAIChatModel {
			t.Errorf("expected model %s, got %v", DefaultOpenAIChatModel, req["model"])
		}

		writeSSE(w,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-search-preview","choices":[{"index":0,"delta":{"role":"assistant","content":"REASONING: "}}]}`,
			`{"id":"c1","object":"chat.completion.chunk","created":1,"model":"gpt-4o-search-preview","choices":[{"index":0,"delta":{"content":"Solid."}}]}`,
			`[DONE]`,
		)
	}))
	defer server.Close()

	provider, err := NewOpenAIChatProvider(Config{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	transcript, err := collect(provider.Stream(context.Background(), "prompt"))
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if transcript != "REASONING: Solid." {
		t.Errorf("unexpected transcript %q", transcript)
	}
}

func TestOpenAIChatProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Errorf("Expected path /v1/models, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"gpt-4o-search-preview","object":"model"}]}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIChatProvider(Config{APIKey: "test-key", BaseURL: server.URL + "/v1"})
	if !provider.IsAvailable(context.Background()) {
		t.Error("expected provider to be available")
	}
}
