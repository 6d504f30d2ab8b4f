package backend

import (
	"testing"
	"time"
)

func TestHealthTracker_DegradeAndRecover(t *testing.T) {
	h := NewHealthTracker(3, time.Minute, 30*time.Second)
	now := time.Unix(1000, 0)
	h.now = func() time.Time { return now }

	if h.Degraded("a") {
		t.Fatal("fresh backend must not be degraded")
	}

	h.ReportFailure("a")
	h.ReportFailure("a")
	if h.Degraded("a") {
		t.Error("two failures must not degrade with limit 3")
	}

	h.ReportFailure("a")
	if !h.Degraded("a") {
		t.Error("three consecutive failures must degrade")
	}

	// Cool-down expires.
	now = now.Add(31 * time.Second)
	if h.Degraded("a") {
		t.Error("backend must recover after cool-down")
	}
}

func TestHealthTracker_SuccessResetsCount(t *testing.T) {
	h := NewHealthTracker(3, time.Minute, 30*time.Second)

	h.ReportFailure("a")
	h.ReportFailure("a")
	h.ReportSuccess("a")
	h.ReportFailure("a")
	h.ReportFailure("a")

	if h.Degraded("a") {
		t.Error("success must reset the consecutive failure count")
	}
}

func TestHealthTracker_WindowExpiry(t *testing.T) {
	h := NewHealthTracker(3, time.Minute, 30*time.Second)
	now := time.Unix(1000, 0)
	h.now = func() time.Time { return now }

	h.ReportFailure("a")
	h.ReportFailure("a")

	// Window slides past the first failures.
	now = now.Add(2 * time.Minute)
	h.ReportFailure("a")

	if h.Degraded("a") {
		t.Error("failures outside the window must not count toward the limit")
	}
}
