package model

import "time"

// RawResponse is the unprocessed output of a single backend invocation.
// It is created once per non-cached invocation and never mutated.
type RawResponse struct {
	ID                string        `json:"id"`                 // Unique invocation id
	Backend           string        `json:"backend"`            // Name of the backend that produced it
	Text              string        `json:"text"`               // Produced text, verbatim
	PromptTokens      int           `json:"prompt_tokens"`      // Token usage, if reported
	CompletionTokens  int           `json:"completion_tokens"`
	Latency           time.Duration `json:"latency"`            // Wall-clock invocation time
	CreatedAt         time.Time     `json:"created_at"`
	SensitiveOverride bool          `json:"sensitive_override"` // Caller overrode the sensitive-content gate
}

// InvokeOptions are the backend-affecting generation options. They are
// part of the cache fingerprint: two requests with different options
// never share a cache entry.
type InvokeOptions struct {
	Model       string  `json:"model,omitempty"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float32 `json:"temperature,omitempty"`
}
