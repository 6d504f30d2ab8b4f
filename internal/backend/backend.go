package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledgerline/ledgerline/internal/model"
)

// Backend defines the interface for inference backends.
type Backend interface {
	// Name returns the configured backend name.
	Name() string

	// Kind returns the implementation kind ("local", "openai"), which
	// selects the admission cost model.
	Kind() string

	// Invoke sends the prompt (and optional attachment) to the backend
	// and returns its raw textual answer. It may block up to the
	// context deadline.
	Invoke(ctx context.Context, prompt string, attachment []byte, opts model.InvokeOptions) (*model.RawResponse, error)

	// IsAvailable checks if the backend is configured and reachable.
	IsAvailable(ctx context.Context) bool

	// HandlesSensitiveContent reports whether document content may be
	// routed here when the sensitive-content gate matches. Local
	// backends keep data on-box and return true.
	HandlesSensitiveContent() bool
}

// New creates a backend from configuration. Proxy settings apply to
// outbound HTTP for both kinds.
func New(cfg model.BackendConfig, proxy model.ProxyConfig) (Backend, error) {
	switch strings.ToLower(cfg.Kind) {
	case "local":
		return NewLocalBackend(cfg, proxy)
	case "openai":
		return NewOpenAIBackend(cfg)
	default:
		return nil, fmt.Errorf("unknown backend kind: %s (supported: local, openai)", cfg.Kind)
	}
}
