package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
)

// fakeBackend is a scriptable backend for router tests.
type fakeBackend struct {
	name      string
	kind      string
	sensitive bool // HandlesSensitiveContent
	text      string
	err       error
	calls     int
}

func (f *fakeBackend) Name() string { return f.name }
func (f *fakeBackend) Kind() string { return f.kind }
func (f *fakeBackend) HandlesSensitiveContent() bool {
	return f.sensitive
}
func (f *fakeBackend) IsAvailable(ctx context.Context) bool { return true }
func (f *fakeBackend) Invoke(ctx context.Context, prompt string, attachment []byte, opts model.InvokeOptions) (*model.RawResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.RawResponse{
		ID:        fmt.Sprintf("%s-%d", f.name, f.calls),
		Backend:   f.name,
		Text:      f.text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func TestRouter_FallbackOrder(t *testing.T) {
	a := &fakeBackend{name: "a", kind: "local", sensitive: true, err: errors.New("timeout")}
	b := &fakeBackend{name: "b", kind: "openai", text: "result from b"}
	router := NewRouter([]Backend{a, b})

	resp, used, err := router.Invoke(context.Background(), "extract this", nil, model.InvokeOptions{}, Policy{
		Default:   "a",
		Fallbacks: []string{"b"},
	})
	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if used != "b" {
		t.Errorf("expected backendUsed=b, got %s", used)
	}
	if resp.Text != "result from b" {
		t.Errorf("unexpected response text: %q", resp.Text)
	}
	if a.calls != 1 || b.calls != 1 {
		t.Errorf("expected exactly one call per backend, got a=%d b=%d", a.calls, b.calls)
	}
}

func TestRouter_AllFail(t *testing.T) {
	a := &fakeBackend{name: "a", kind: "local", sensitive: true, err: errors.New("capacity")}
	b := &fakeBackend{name: "b", kind: "openai", err: errors.New("bad auth")}
	router := NewRouter([]Backend{a, b})

	_, _, err := router.Invoke(context.Background(), "extract", nil, model.InvokeOptions{}, Policy{
		Default:   "a",
		Fallbacks: []string{"b"},
	})
	if err == nil {
		t.Fatal("expected BackendExhausted error")
	}

	var exhausted *BackendExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected BackendExhaustedError, got %T", err)
	}
	if len(exhausted.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(exhausted.Attempts))
	}
	if exhausted.Attempts[0].Backend != "a" || exhausted.Attempts[1].Backend != "b" {
		t.Errorf("attempts out of order: %+v", exhausted.Attempts)
	}
}

func TestRouter_EmptyContentTriggersFallback(t *testing.T) {
	a := &fakeBackend{name: "a", kind: "local", sensitive: true, text: ""}
	b := &fakeBackend{name: "b", kind: "openai", text: "filled"}
	router := NewRouter([]Backend{a, b})

	resp, used, err := router.Invoke(context.Background(), "extract", nil, model.InvokeOptions{}, Policy{
		Default:   "a",
		Fallbacks: []string{"b"},
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if used != "b" || resp.Text != "filled" {
		t.Errorf("expected b to serve after empty content from a, got used=%s text=%q", used, resp.Text)
	}
}

func TestRouter_SensitiveGate(t *testing.T) {
	local := &fakeBackend{name: "local", kind: "local", sensitive: true, text: "local answer"}
	remote := &fakeBackend{name: "remote", kind: "openai", text: "remote answer"}
	router := NewRouter([]Backend{local, remote})

	prompt := "Statement for card 4111 1111 1111 1111, extract transactions"

	// Default policy: remote is excluded even when preferred.
	resp, used, err := router.Invoke(context.Background(), prompt, nil, model.InvokeOptions{}, Policy{
		Default:   "remote",
		Fallbacks: []string{"local"},
	})
	if err != nil {
		t.Fatalf("expected local to serve, got %v", err)
	}
	if used != "local" {
		t.Errorf("sensitive prompt reached %s, expected local", used)
	}
	if remote.calls != 0 {
		t.Errorf("remote backend was invoked %d times with sensitive content", remote.calls)
	}
	if resp.SensitiveOverride {
		t.Error("override flag set without an override")
	}

	// Explicit override: remote is allowed and the override is recorded.
	resp, used, err = router.Invoke(context.Background(), prompt, nil, model.InvokeOptions{}, Policy{
		Default:              "remote",
		Fallbacks:            []string{"local"},
		AllowSensitiveRemote: true,
	})
	if err != nil {
		t.Fatalf("expected remote to serve with override, got %v", err)
	}
	if used != "remote" {
		t.Errorf("expected remote with override, got %s", used)
	}
	if !resp.SensitiveOverride {
		t.Error("expected SensitiveOverride=true in result metadata")
	}
}

func TestRouter_SensitiveGateExcludesAll(t *testing.T) {
	remote := &fakeBackend{name: "remote", kind: "openai", text: "answer"}
	router := NewRouter([]Backend{remote})

	_, _, err := router.Invoke(context.Background(), "SSN 123-45-6789", nil, model.InvokeOptions{}, Policy{
		Default: "remote",
	})
	var exhausted *BackendExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected BackendExhaustedError when gate excludes every candidate, got %v", err)
	}
	if remote.calls != 0 {
		t.Error("remote backend must not be called")
	}
}

func TestRouter_DegradedBackendDemoted(t *testing.T) {
	a := &fakeBackend{name: "a", kind: "local", sensitive: true, text: "from a"}
	b := &fakeBackend{name: "b", kind: "openai", text: "from b"}
	router := NewRouter([]Backend{a, b})

	// Trip a's cool-down via consecutive failures.
	for i := 0; i < 3; i++ {
		router.Health().ReportFailure("a")
	}

	_, used, err := router.Invoke(context.Background(), "extract", nil, model.InvokeOptions{}, Policy{
		Default:   "a",
		Fallbacks: []string{"b"},
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if used != "b" {
		t.Errorf("expected degraded backend demoted behind b, got %s", used)
	}

	// Advisory only: with b also failing, a must still be callable.
	b.err = errors.New("down")
	b.text = ""
	_, used, err = router.Invoke(context.Background(), "extract", nil, model.InvokeOptions{}, Policy{
		Default:   "a",
		Fallbacks: []string{"b"},
	})
	if err != nil {
		t.Fatalf("degraded backend should still serve as last resort: %v", err)
	}
	if used != "a" {
		t.Errorf("expected a to serve as last resort, got %s", used)
	}
}
