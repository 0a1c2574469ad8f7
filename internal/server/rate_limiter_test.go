package server

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsUpToLimit(t *testing.T) {
	limiter := newRateLimiter(2, time.Minute)

	if !limiter.Allow("1.2.3.4") || !limiter.Allow("1.2.3.4") {
		t.Fatalf("expected first two requests allowed")
	}
	if limiter.Allow("1.2.3.4") {
		t.Fatalf("expected third request denied")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := newRateLimiter(1, time.Minute)

	if !limiter.Allow("a") {
		t.Fatalf("expected first key allowed")
	}
	if !limiter.Allow("b") {
		t.Fatalf("expected second key allowed")
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	limiter := newRateLimiter(1, time.Millisecond)

	if !limiter.Allow("a") {
		t.Fatalf("expected first request allowed")
	}
	time.Sleep(5 * time.Millisecond)
	if !limiter.Allow("a") {
		t.Fatalf("expected request allowed after window reset")
	}
}

func TestRateLimiterRejectsEmptyKey(t *testing.T) {
	limiter := newRateLimiter(1, time.Minute)
	if limiter.Allow("") {
		t.Fatalf("expected empty key denied")
	}
}
