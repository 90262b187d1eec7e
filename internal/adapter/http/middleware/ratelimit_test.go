package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterEnforcesBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := rl.Limit(next)

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)
		statuses = append(statuses, rr.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("expected first two requests within burst to pass, got %v", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Fatalf("expected third request to be limited, got %d", statuses[2])
	}
}

func TestRateLimiterIsolatesClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	limited := rl.Limit(next)

	for _, addr := range []string{"10.0.0.1:1234", "10.0.0.2:1234"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		limited.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected fresh client %s to pass, got %d", addr, rr.Code)
		}
	}
}

func TestRateLimiterSweepsStaleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.allow("10.0.0.1")
	rl.clients["10.0.0.1"].lastSeen = time.Now().Add(-2 * staleAfter)

	rl.mu.Lock()
	rl.sweepLocked()
	rl.mu.Unlock()

	if _, ok := rl.clients["10.0.0.1"]; ok {
		t.Fatalf("expected stale client to be evicted")
	}
}

func TestClientIPPrefersForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7")

	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("expected forwarded address, got %s", got)
	}
}
