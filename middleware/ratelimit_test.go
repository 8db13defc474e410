package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(1, 5)
	if rl == nil {
		t.Fatal("Expected IPRateLimiter to be created, got nil")
	}
	if rl.rate != 1 {
		t.Errorf("Expected rate 1, got %v", rl.rate)
	}
	if rl.Limit() != 5 {
		t.Errorf("Expected burst 5, got %d", rl.Limit())
	}
}

func TestGetLimiter(t *testing.T) {
	rl := NewIPRateLimiter(1, 5)
	ip := "192.168.1.1"

	first := rl.GetLimiter(ip)
	if first == nil {
		t.Fatal("Expected limiter to be returned, got nil")
	}
	if _, exists := rl.ips[ip]; !exists {
		t.Error("Expected IP to be in ips map")
	}
	if rl.GetLimiter(ip) != first {
		t.Error("Expected the same limiter for repeated lookups")
	}
	if rl.GetLimiter("10.0.0.1") == first {
		t.Error("Expected a separate limiter per IP")
	}
}

func TestRateLimiting(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(1), 1)
	limiter := rl.GetLimiter("192.168.1.1")

	if !limiter.Allow() {
		t.Error("Expected first request to be allowed")
	}
	if limiter.Allow() {
		t.Error("Expected second request to be rejected")
	}

	time.Sleep(1100 * time.Millisecond)

	if !limiter.Allow() {
		t.Error("Expected request to be allowed after the bucket refills")
	}
}

func TestRemaining(t *testing.T) {
	rl := NewIPRateLimiter(rate.Limit(0.001), 3)
	ip := "192.168.1.2"

	if got := rl.Remaining(ip); got != 3 {
		t.Errorf("Expected 3 tokens, got %d", got)
	}
	rl.GetLimiter(ip).Allow()
	rl.GetLimiter(ip).Allow()
	if got := rl.Remaining(ip); got != 1 {
		t.Errorf("Expected 1 token, got %d", got)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		expected   string
	}{
		{"remote addr with port", "203.0.113.5:4321", "", "203.0.113.5"},
		{"forwarded for wins", "10.0.0.1:80", "198.51.100.7, 10.0.0.1", "198.51.100.7"},
		{"remote addr without port", "203.0.113.9", "", "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := ClientIP(req); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
