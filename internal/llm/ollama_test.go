package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ppiankov/sponsorgrader/internal/model"
)

func TestOllamaProvider_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path /api/generate, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(strings.Join([]string{
			`{"model":"llama3.1","response":"REASONING:","done":false}`,
			`{"model":"llama3.1","response":" offline","done":false}`,
			`{"model":"llama3.1","response":"","done":true}`,
		}, "\n")))
	}))
	defer server.Close()

	provider, err := NewOllamaProvider(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.Model() != DefaultOllamaModel {
		t.Errorf("expected default model, got %s", provider.Model())
	}

	transcript, err := collect(provider.Stream(context.Background(), "prompt"))
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if transcript != "REASONING: offline" {
		t.Errorf("unexpected transcript %q", transcript)
	}
}

func TestOllamaProvider_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL, Model: "nope"})
	_, err := collect(provider.Stream(context.Background(), "prompt"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
	if shouldRetry(err) {
		t.Error("404 should not be retryable")
	}
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(Config{BaseURL: server.URL})
	if !provider.IsAvailable(context.Background()) {
		t.Error("expected provider to be available")
	}

	server.Close()
	if provider.IsAvailable(context.Background()) {
		t.Error("expected closed server to be unavailable")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{Config{Provider: "openai", APIKey: "k"}, "openai", false},
		{Config{Provider: "", APIKey: "k"}, "openai", false},
		{Config{Provider: "openai-chat", APIKey: "k"}, "openai-chat", false},
		{Config{Provider: "Claude", APIKey: "k"}, "anthropic", false},
		{Config{Provider: "ollama"}, "ollama", false},
		{Config{Provider: "anthropic"}, "", true},
		{Config{Provider: "bogus", APIKey: "k"}, "", true},
	}

	for _, tt := range tests {
		p, err := NewProvider(context.Background(), tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewProvider(%q) error = %v, wantErr %v", tt.cfg.Provider, err, tt.wantErr)
			continue
		}
		if err == nil && p.Name() != tt.wantName {
			t.Errorf("NewProvider(%q) = %s, want %s", tt.cfg.Provider, p.Name(), tt.wantName)
		}
	}
}

func TestProviders_AcceptedByConfigValidation(t *testing.T) {
	for _, name := range append([]string{"", "google", "claude"}, Providers...) {
		if !(model.LLMConfig{Provider: name}).KnownProvider() {
			t.Errorf("config validation rejects provider %q", name)
		}
	}
}
