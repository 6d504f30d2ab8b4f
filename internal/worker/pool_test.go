package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

type countJob struct {
	counter *int32
	fail    bool
}

type countResult struct {
	err error
}

func (r *countResult) Err() error { return r.err }

func (j *countJob) Execute(ctx context.Context) Result {
	atomic.AddInt32(j.counter, 1)
	if j.fail {
		return &countResult{err: errors.New("job failed")}
	}
	return &countResult{}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(4)
	pool.Start()

	var executed int32
	const jobs = 20
	for i := 0; i < jobs; i++ {
		pool.Submit(&countJob{counter: &executed})
	}

	results := pool.Wait()
	if len(results) != jobs {
		t.Fatalf("got %d results, want %d", len(results), jobs)
	}
	if executed != jobs {
		t.Errorf("executed %d jobs, want %d", executed, jobs)
	}
}

func TestPool_FailuresDoNotStopBatch(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	var executed int32
	for i := 0; i < 10; i++ {
		pool.Submit(&countJob{counter: &executed, fail: i%2 == 0})
	}

	results := pool.Wait()
	var failed int
	for _, r := range results {
		if r.Err() != nil {
			failed++
		}
	}
	if failed != 5 {
		t.Errorf("failed = %d, want 5", failed)
	}
	if executed != 10 {
		t.Errorf("executed = %d, want 10", executed)
	}
}

func TestPool_ZeroWorkersDefaultsToOne(t *testing.T) {
	pool := NewPool(0)
	pool.Start()

	var executed int32
	pool.Submit(&countJob{counter: &executed})

	if results := pool.Wait(); len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
}
