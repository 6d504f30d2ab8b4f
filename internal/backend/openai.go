package backend

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/ledgerline/ledgerline/internal/model"
)

// OpenAIBackend implements Backend against an OpenAI-compatible chat
// completions API.
type OpenAIBackend struct {
	name   string
	client *openai.Client
	cfg    model.BackendConfig
}

// NewOpenAIBackend creates a remote backend client.
func NewOpenAIBackend(cfg model.BackendConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIBackend{
		name:   cfg.Name,
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// Name returns the configured backend name.
func (b *OpenAIBackend) Name() string { return b.name }

// Kind returns "openai".
func (b *OpenAIBackend) Kind() string { return "openai" }

// HandlesSensitiveContent is false: document content leaves the
// machine, so the router's sensitive-content gate excludes this
// backend unless the caller explicitly overrides.
func (b *OpenAIBackend) HandlesSensitiveContent() bool { return false }

// IsAvailable checks if the provider is properly configured.
func (b *OpenAIBackend) IsAvailable(ctx context.Context) bool {
	_, err := b.client.ListModels(ctx)
	return err == nil
}

// Invoke sends the extraction prompt via the chat completions API,
// attaching the document image as a data URL when present.
func (b *OpenAIBackend) Invoke(ctx context.Context, prompt string, attachment []byte, opts model.InvokeOptions) (*model.RawResponse, error) {
	modelName := opts.Model
	if modelName == "" {
		modelName = b.cfg.Model
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}

	userMsg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(attachment) > 0 {
		userMsg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: prompt},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(attachment),
				},
			},
		}
	} else {
		userMsg.Content = prompt
	}

	chatReq := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a document extraction assistant. Extract structured data exactly as instructed; do not invent records.",
			},
			userMsg,
		},
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	start := time.Now()
	resp, err := b.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return &model.RawResponse{
		ID:               uuid.NewString(),
		Backend:          b.name,
		Text:             strings.TrimSpace(resp.Choices[0].Message.Content),
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		Latency:          time.Since(start),
		CreatedAt:        time.Now().UTC(),
	}, nil
}
