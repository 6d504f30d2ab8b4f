package admission

import (
	"fmt"
	"log"
	"sync"
)

// Estimator predicts the resource cost, in GB, of serving a request
// with the given input and output sizes (bytes in, tokens out).
type Estimator func(inputSize, outputSize int) float64

// ResourceExhaustedError is returned when admitting a request would
// push committed usage past the safety threshold. It is surfaced to
// the caller verbatim, never silently downgraded.
type ResourceExhaustedError struct {
	Committed float64
	Estimated float64
	Threshold float64
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("resource exhausted: committed %.2fGB + estimated %.2fGB exceeds threshold %.2fGB",
		e.Committed, e.Estimated, e.Threshold)
}

// Controller tracks committed resource usage and rejects requests that
// would exceed the safety threshold. Admission is evaluated once per
// request; there are no internal retries.
type Controller struct {
	mu         sync.Mutex
	committed  float64
	threshold  float64
	estimators map[string]Estimator
}

// NewController creates a controller with the given safety threshold
// in GB. The default estimator models local VLM inference; remote
// backends register a zero-cost estimator since their cost is borne
// externally.
func NewController(threshold float64) *Controller {
	c := &Controller{
		threshold:  threshold,
		estimators: make(map[string]Estimator),
	}
	c.RegisterEstimator("local", LocalEstimator)
	c.RegisterEstimator("openai", RemoteEstimator)
	return c
}

// RegisterEstimator sets the cost model for a backend kind.
func (c *Controller) RegisterEstimator(kind string, est Estimator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.estimators[kind] = est
}

// Admit evaluates the request against the committed budget. On accept
// it returns a Grant whose Release must be called (deferred by the
// processor) when the request completes, success or failure.
func (c *Controller) Admit(backendKind string, inputSize, outputSize int) (*Grant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	est := c.estimators[backendKind]
	if est == nil {
		est = LocalEstimator
	}
	cost := est(inputSize, outputSize)

	if c.committed+cost > c.threshold {
		return nil, &ResourceExhaustedError{
			Committed: c.committed,
			Estimated: cost,
			Threshold: c.threshold,
		}
	}

	c.committed += cost
	return &Grant{controller: c, cost: cost}, nil
}

// Committed returns the currently committed cost in GB.
func (c *Controller) Committed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// Grant is a scoped resource acquisition. Release is idempotent and
// safe to defer; it fires on every exit path including panics.
type Grant struct {
	controller *Controller
	cost       float64
	once       sync.Once
}

// Release returns the granted cost to the budget.
func (g *Grant) Release() {
	g.once.Do(func() {
		g.controller.mu.Lock()
		defer g.controller.mu.Unlock()
		g.controller.committed -= g.cost
		if g.controller.committed < 0 {
			// Should never happen; log rather than panic.
			log.Printf("admission.Controller: committed went negative (%.2f), resetting to 0", g.controller.committed)
			g.controller.committed = 0
		}
	})
}

// LocalEstimator models local VLM inference cost: ~2KB per token of
// activations, ~16KB per output token of KV cache, plus a 0.5GB
// safety buffer. Monotonic non-decreasing in both arguments.
func LocalEstimator(inputSize, outputSize int) float64 {
	inputTokens := inputSize / 4 // rough bytes-to-tokens estimate
	tokenMemoryMB := float64(inputTokens+outputSize) * 0.002
	kvCacheMB := float64(outputSize) * 0.016
	return (tokenMemoryMB+kvCacheMB)/1024 + 0.5
}

// RemoteEstimator always returns zero: remote backends spend someone
// else's compute, so admission never rejects them.
func RemoteEstimator(inputSize, outputSize int) float64 {
	return 0
}
