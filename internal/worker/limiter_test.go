package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	if l := NewLimiter(10, 3); l.burst != 3 {
		t.Errorf("expected burst 3, got %d", l.burst)
	}
	if l := NewLimiter(10, -1); l.burst != 5 {
		t.Errorf("expected default burst 5, got %d", l.burst)
	}
}

func TestLimiter_PerHost(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://api.example.com/dev/items"); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://cdn.example.com/messages.json"); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if err := limiter.Wait(ctx, "https://api.example.com/dev/other"); err != nil {
		t.Fatalf("wait failed: %v", err)
	}

	if got := limiter.Hosts(); got != 2 {
		t.Errorf("expected 2 hosts, got %d", got)
	}
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(1, 1)

	if !limiter.Allow("https://api.example.com") {
		t.Error("first request should be allowed")
	}
	if limiter.Allow("https://api.example.com") {
		t.Error("second immediate request should be limited")
	}
	if !limiter.Allow("https://other.example.com") {
		t.Error("other host has its own bucket")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)

	for i := 0; i < 20; i++ {
		if !limiter.Allow("https://api.example.com") {
			t.Fatalf("request %d limited with rate disabled", i)
		}
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(100, 1)

	start := time.Now()
	if err := limiter.WaitWithDelay(context.Background(), "https://example.com", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected delay >= 50ms, got %v", elapsed)
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.WaitWithDelay(ctx, "https://example.com", time.Second); err == nil {
		t.Error("expected cancelled context to fail")
	}
}
