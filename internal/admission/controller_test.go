package admission

import (
	"errors"
	"sync"
	"testing"
)

// fixed returns an estimator that ignores sizes and reports the input
// size as the cost, making budgets easy to express in tests.
func fixed() Estimator {
	return func(inputSize, outputSize int) float64 {
		return float64(inputSize)
	}
}

func TestAdmit_Boundary(t *testing.T) {
	c := NewController(90)
	c.RegisterEstimator("test", fixed())

	// Commit 85 of 90.
	grant, err := c.Admit("test", 85, 0)
	if err != nil {
		t.Fatalf("expected base grant, got %v", err)
	}
	defer grant.Release()

	// 85 + 10 > 90: reject.
	if _, err := c.Admit("test", 10, 0); err == nil {
		t.Error("expected rejection for estimate 10")
	} else {
		var exhausted *ResourceExhaustedError
		if !errors.As(err, &exhausted) {
			t.Errorf("expected ResourceExhaustedError, got %T", err)
		} else if exhausted.Committed != 85 || exhausted.Threshold != 90 {
			t.Errorf("unexpected error detail: %+v", exhausted)
		}
	}

	// 85 + 4 <= 90: accept.
	g2, err := c.Admit("test", 4, 0)
	if err != nil {
		t.Errorf("expected acceptance for estimate 4, got %v", err)
	} else {
		g2.Release()
	}
}

func TestGrant_ReleaseIdempotent(t *testing.T) {
	c := NewController(100)
	c.RegisterEstimator("test", fixed())

	grant, err := c.Admit("test", 40, 0)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}

	grant.Release()
	grant.Release()
	grant.Release()

	if got := c.Committed(); got != 0 {
		t.Errorf("expected committed 0 after repeated release, got %.2f", got)
	}
}

func TestGrant_ReleaseOnPanic(t *testing.T) {
	c := NewController(100)
	c.RegisterEstimator("test", fixed())

	func() {
		defer func() { _ = recover() }()

		grant, err := c.Admit("test", 50, 0)
		if err != nil {
			t.Fatalf("admit: %v", err)
		}
		defer grant.Release()

		panic("simulated request failure")
	}()

	if got := c.Committed(); got != 0 {
		t.Errorf("expected committed 0 after panic, got %.2f", got)
	}
}

func TestAdmit_ConcurrentAccounting(t *testing.T) {
	c := NewController(1000)
	c.RegisterEstimator("test", fixed())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			grant, err := c.Admit("test", 10, 0)
			if err != nil {
				t.Errorf("unexpected rejection: %v", err)
				return
			}
			grant.Release()
		}()
	}
	wg.Wait()

	if got := c.Committed(); got != 0 {
		t.Errorf("expected committed 0 after all releases, got %.2f", got)
	}
}

func TestRemoteEstimator_AlwaysAdmits(t *testing.T) {
	c := NewController(0.1)

	for i := 0; i < 10; i++ {
		grant, err := c.Admit("openai", 1<<20, 4096)
		if err != nil {
			t.Fatalf("remote admission should never reject, got %v", err)
		}
		defer grant.Release()
	}
}

func TestLocalEstimator_Monotonic(t *testing.T) {
	base := LocalEstimator(1000, 512)
	if LocalEstimator(2000, 512) < base {
		t.Error("estimate decreased with larger input")
	}
	if LocalEstimator(1000, 1024) < base {
		t.Error("estimate decreased with larger output")
	}
}
