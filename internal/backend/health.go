package backend

import (
	"sync"
	"time"
)

// HealthTracker records per-backend invocation outcomes. A backend
// that fails failureLimit times consecutively within the window is
// marked degraded for the cool-down period. Degradation is advisory:
// the router demotes degraded backends to the end of the candidate
// list but never refuses to call them.
type HealthTracker struct {
	mu           sync.Mutex
	backends     map[string]*backendHealth
	failureLimit int
	window       time.Duration
	cooldown     time.Duration

	now func() time.Time // injectable for tests
}

type backendHealth struct {
	consecutive   int
	firstFailure  time.Time
	degradedUntil time.Time
}

// NewHealthTracker creates a tracker. Zero or negative arguments fall
// back to defaults (3 failures / 1 minute window / 30 second cooldown).
func NewHealthTracker(failureLimit int, window, cooldown time.Duration) *HealthTracker {
	if failureLimit <= 0 {
		failureLimit = 3
	}
	if window <= 0 {
		window = time.Minute
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &HealthTracker{
		backends:     make(map[string]*backendHealth),
		failureLimit: failureLimit,
		window:       window,
		cooldown:     cooldown,
		now:          time.Now,
	}
}

// ReportSuccess resets the consecutive failure count.
func (h *HealthTracker) ReportSuccess(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s := h.backends[name]; s != nil {
		s.consecutive = 0
		s.firstFailure = time.Time{}
	}
}

// ReportFailure records one failure. Failures older than the sliding
// window do not count toward the limit.
func (h *HealthTracker) ReportFailure(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	s := h.backends[name]
	if s == nil {
		s = &backendHealth{}
		h.backends[name] = s
	}

	if s.consecutive == 0 || now.Sub(s.firstFailure) > h.window {
		s.consecutive = 0
		s.firstFailure = now
	}
	s.consecutive++

	if s.consecutive >= h.failureLimit {
		s.degradedUntil = now.Add(h.cooldown)
		s.consecutive = 0
		s.firstFailure = time.Time{}
	}
}

// Degraded reports whether the backend is inside a cool-down period.
func (h *HealthTracker) Degraded(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.backends[name]
	return s != nil && h.now().Before(s.degradedUntil)
}
