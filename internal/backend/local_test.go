package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ledgerline/ledgerline/internal/model"
)

func TestLocalBackend_Invoke(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			http.NotFound(w, r)
			return
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if len(req.Messages) != 1 || len(req.Messages[0].Content) != 2 {
			t.Errorf("expected one message with text + image content, got %+v", req.Messages)
		}
		if req.MaxNewTokens != 512 {
			t.Errorf("expected max_new_tokens 512, got %d", req.MaxNewTokens)
		}

		_ = json.NewEncoder(w).Encode(generateResponse{
			Response: `{"transactions": []}`,
			Usage:    map[string]int{"prompt_tokens": 40, "completion_tokens": 12},
		})
	}))
	defer server.Close()

	b, err := NewLocalBackend(model.BackendConfig{
		Name:    "local",
		BaseURL: server.URL,
		Timeout: 5,
	}, model.ProxyConfig{})
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}

	resp, err := b.Invoke(context.Background(), "extract", []byte("pngbytes"), model.InvokeOptions{MaxTokens: 512})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if resp.Backend != "local" {
		t.Errorf("backend = %q, want local", resp.Backend)
	}
	if resp.Text != `{"transactions": []}` {
		t.Errorf("unexpected text: %q", resp.Text)
	}
	if resp.PromptTokens != 40 || resp.CompletionTokens != 12 {
		t.Errorf("usage not propagated: %d/%d", resp.PromptTokens, resp.CompletionTokens)
	}
	if resp.ID == "" {
		t.Error("expected a generated response id")
	}
}

func TestLocalBackend_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(generateError{Error: "model not loaded"})
	}))
	defer server.Close()

	b, err := NewLocalBackend(model.BackendConfig{Name: "local", BaseURL: server.URL, Timeout: 5}, model.ProxyConfig{})
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}

	if _, err := b.Invoke(context.Background(), "extract", nil, model.InvokeOptions{}); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestLocalBackend_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	b, err := NewLocalBackend(model.BackendConfig{Name: "local", BaseURL: server.URL, Timeout: 5}, model.ProxyConfig{})
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	if !b.IsAvailable(context.Background()) {
		t.Error("expected available with healthy endpoint")
	}

	server.Close()
	if b.IsAvailable(context.Background()) {
		t.Error("expected unavailable after server shutdown")
	}
}
