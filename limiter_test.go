package forumfront

import (
	"testing"
	"time"
)

func TestLimiterBlocksAfterMax(t *testing.T) {
	limiter := NewLimiter(2, 200*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.10"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if !limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected third attempt to be blocked")
	}
}

func TestLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewLimiter(1, 150*time.Millisecond)
	defer limiter.Stop()
	ip := "203.0.113.20"

	if !limiter.Allow(ip) {
		t.Fatalf("expected first attempt to be allowed")
	}
	if limiter.Allow(ip) {
		t.Fatalf("expected second attempt to be blocked")
	}

	time.Sleep(200 * time.Millisecond)
	if !limiter.Allow(ip) {
		t.Fatalf("expected attempt after window to be allowed")
	}
}

func TestLimiterIsPerKey(t *testing.T) {
	limiter := NewLimiter(1, 200*time.Millisecond)
	defer limiter.Stop()

	if !limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be allowed")
	}
	if !limiter.Allow("203.0.113.31") {
		t.Fatalf("expected second ip to be allowed independently")
	}
	if limiter.Allow("203.0.113.30") {
		t.Fatalf("expected first ip to be blocked after max")
	}
}

func TestLimiterCheckDoesNotRecord(t *testing.T) {
	limiter := NewLimiter(1, time.Second)
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		if !limiter.Check("k") {
			t.Fatalf("Check #%d should not consume the allowance", i)
		}
	}
	limiter.Record("k")
	if limiter.Check("k") {
		t.Fatalf("expected key to be blocked after Record")
	}
}

func TestLimiterStopIsIdempotent(t *testing.T) {
	limiter := NewLimiter(1, time.Millisecond)
	limiter.Stop()
	limiter.Stop()
}
