package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/model"
	"github.com/ledgerline/ledgerline/internal/util"
)

// LocalBackend talks to a local VLM inference server over HTTP. The
// server owns the model weights; this client only shapes requests and
// unwraps responses.
type LocalBackend struct {
	name       string
	baseURL    string
	httpClient *http.Client
	cfg        model.BackendConfig
}

// Local server API structures.
type generateRequest struct {
	Messages     []generateMessage `json:"messages"`
	Temperature  float32           `json:"temperature,omitempty"`
	MaxNewTokens int               `json:"max_new_tokens,omitempty"`
}

type generateMessage struct {
	Role    string            `json:"role"`
	Content []generateContent `json:"content"`
}

type generateContent struct {
	Type  string `json:"type"`            // "text" or "image"
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"` // base64 payload
}

type generateResponse struct {
	Response       string         `json:"response"`
	Usage          map[string]int `json:"usage,omitempty"`
	ProcessingTime float64        `json:"processing_time,omitempty"`
}

type generateError struct {
	Error string `json:"error"`
}

// NewLocalBackend creates a backend client for a local VLM server.
func NewLocalBackend(cfg model.BackendConfig, proxy model.ProxyConfig) (*LocalBackend, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second // local inference can be slow
	}

	return &LocalBackend{
		name:       cfg.Name,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(timeout, proxy.HTTP, proxy.HTTPS, proxy.NoProxy),
		cfg:        cfg,
	}, nil
}

// Name returns the configured backend name.
func (b *LocalBackend) Name() string { return b.name }

// Kind returns "local".
func (b *LocalBackend) Kind() string { return "local" }

// HandlesSensitiveContent is true: document content never leaves the
// machine.
func (b *LocalBackend) HandlesSensitiveContent() bool { return true }

// IsAvailable checks the server health endpoint.
func (b *LocalBackend) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode == http.StatusOK
}

// Invoke sends the extraction prompt to the local server.
func (b *LocalBackend) Invoke(ctx context.Context, prompt string, attachment []byte, opts model.InvokeOptions) (*model.RawResponse, error) {
	content := []generateContent{{Type: "text", Text: prompt}}
	if len(attachment) > 0 {
		content = append(content, generateContent{
			Type:  "image",
			Image: base64.StdEncoding.EncodeToString(attachment),
		})
	}

	apiReq := generateRequest{
		Messages:     []generateMessage{{Role: "user", Content: content}},
		Temperature:  opts.Temperature,
		MaxNewTokens: opts.MaxTokens,
	}

	start := time.Now()
	resp, err := b.makeRequest(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("local backend: %w", err)
	}

	return &model.RawResponse{
		ID:               uuid.NewString(),
		Backend:          b.name,
		Text:             strings.TrimSpace(resp.Response),
		PromptTokens:     resp.Usage["prompt_tokens"],
		CompletionTokens: resp.Usage["completion_tokens"],
		Latency:          time.Since(start),
		CreatedAt:        time.Now().UTC(),
	}, nil
}

func (b *LocalBackend) makeRequest(ctx context.Context, apiReq generateRequest) (*generateResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr generateError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}
