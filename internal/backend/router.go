package backend

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ledgerline/ledgerline/internal/model"
)

// Policy is the per-request routing policy. There is no process-wide
// "current backend": callers thread a Policy through every call.
type Policy struct {
	// Default is the preferred backend name.
	Default string

	// Fallbacks are tried in declared order when the preferred backend
	// fails, each exactly once.
	Fallbacks []string

	// AllowSensitiveRemote overrides the sensitive-content gate. The
	// override is recorded on the RawResponse for auditability.
	AllowSensitiveRemote bool

	// Deadline bounds each backend invocation. Zero means the
	// backend's own client timeout applies.
	Deadline time.Duration
}

// Attempt records one backend try inside a routing decision.
type Attempt struct {
	Backend string
	Reason  string
}

// BackendExhaustedError is returned when every candidate backend
// failed. It carries the full attempt list so operators can tell a
// transient network issue from a systematically failing provider
// without reading logs.
type BackendExhaustedError struct {
	Attempts []Attempt
}

func (e *BackendExhaustedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %s", a.Backend, a.Reason)
	}
	return "all backends exhausted: [" + strings.Join(parts, "; ") + "]"
}

// Router selects an inference backend per policy, applies the
// sensitive-content gate, and falls back on failure.
type Router struct {
	backends map[string]Backend
	detector *SensitiveDetector
	health   *HealthTracker
	limiter  *RateLimiter
}

// NewRouter creates a router over the given backends.
func NewRouter(backends []Backend) *Router {
	m := make(map[string]Backend, len(backends))
	for _, b := range backends {
		m[b.Name()] = b
	}
	return &Router{
		backends: m,
		detector: NewSensitiveDetector(),
		health:   NewHealthTracker(0, 0, 0),
		limiter:  NewRateLimiter(),
	}
}

// Limiter exposes the per-backend rate limiter for configuration.
func (r *Router) Limiter() *RateLimiter { return r.limiter }

// Health exposes the advisory health tracker.
func (r *Router) Health() *HealthTracker { return r.health }

// Kind returns the implementation kind of a configured backend, used
// by admission to pick a cost model. Unknown names report "local" so
// admission stays conservative.
func (r *Router) Kind(name string) string {
	if b, ok := r.backends[name]; ok {
		return b.Kind()
	}
	return "local"
}

// Invoke routes the prompt to the first candidate backend that
// produces non-empty content. Each candidate is tried exactly once;
// any failure (timeout, capacity, auth, empty content) moves on to
// the next. When every candidate fails the returned error lists all
// attempts and their reasons.
func (r *Router) Invoke(ctx context.Context, prompt string, attachment []byte, opts model.InvokeOptions, policy Policy) (*model.RawResponse, string, error) {
	candidates, overrideUsed := r.candidates(prompt, policy)
	if len(candidates) == 0 {
		return nil, "", &BackendExhaustedError{Attempts: []Attempt{{
			Backend: policy.Default,
			Reason:  "no eligible backend (sensitive content excluded all remote candidates)",
		}}}
	}

	var attempts []Attempt
	for _, b := range candidates {
		resp, err := r.invokeOne(ctx, b, prompt, attachment, opts, policy)
		if err != nil {
			log.Printf("backend.Router: %s failed: %v", b.Name(), err)
			r.health.ReportFailure(b.Name())
			attempts = append(attempts, Attempt{Backend: b.Name(), Reason: err.Error()})
			continue
		}
		if resp.Text == "" {
			log.Printf("backend.Router: %s returned empty content", b.Name())
			r.health.ReportFailure(b.Name())
			attempts = append(attempts, Attempt{Backend: b.Name(), Reason: "empty content"})
			continue
		}

		r.health.ReportSuccess(b.Name())
		resp.SensitiveOverride = overrideUsed
		attempts = append(attempts, Attempt{Backend: b.Name(), Reason: "ok"})
		return resp, b.Name(), nil
	}

	return nil, "", &BackendExhaustedError{Attempts: attempts}
}

func (r *Router) invokeOne(ctx context.Context, b Backend, prompt string, attachment []byte, opts model.InvokeOptions, policy Policy) (*model.RawResponse, error) {
	if policy.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, policy.Deadline)
		defer cancel()
	}

	if err := r.limiter.Wait(ctx, b.Name()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return b.Invoke(ctx, prompt, attachment, opts)
}

// candidates resolves the policy into an ordered backend list: default
// first, then fallbacks, with unknown names skipped, the sensitive
// gate applied, and degraded backends demoted to the end.
func (r *Router) candidates(prompt string, policy Policy) ([]Backend, bool) {
	sensitiveKind, sensitive := r.detector.Detect(prompt)
	overrideUsed := sensitive && policy.AllowSensitiveRemote
	if sensitive && !policy.AllowSensitiveRemote {
		log.Printf("backend.Router: sensitive content detected (%s), excluding remote backends", sensitiveKind)
	}

	names := append([]string{policy.Default}, policy.Fallbacks...)
	seen := make(map[string]bool, len(names))

	var healthy, degraded []Backend
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		b, ok := r.backends[name]
		if !ok {
			log.Printf("backend.Router: unknown backend %q in policy, skipping", name)
			continue
		}
		if sensitive && !policy.AllowSensitiveRemote && !b.HandlesSensitiveContent() {
			continue
		}

		if r.health.Degraded(name) {
			degraded = append(degraded, b)
		} else {
			healthy = append(healthy, b)
		}
	}

	return append(healthy, degraded...), overrideUsed
}
