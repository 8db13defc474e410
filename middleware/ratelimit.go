package middleware

import (
	"math"
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// IPRateLimiter hands out one token bucket per client IP
type IPRateLimiter struct {
	ips   map[string]*rate.Limiter
	mu    sync.Mutex
	rate  rate.Limit
	burst int
}

// NewIPRateLimiter creates a limiter allowing r requests per second with the given burst
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*rate.Limiter),
		rate:  r,
		burst: burst,
	}
}

// Limit returns the burst size, reported as X-RateLimit-Limit
func (i *IPRateLimiter) Limit() int {
	return i.burst
}

// GetLimiter returns the bucket for ip, creating it on first use
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, exists := i.ips[ip]
	if !exists {
		limiter = rate.NewLimiter(i.rate, i.burst)
		i.ips[ip] = limiter
	}
	return limiter
}

// Remaining returns the whole tokens left for ip
func (i *IPRateLimiter) Remaining(ip string) int {
	tokens := math.Floor(i.GetLimiter(ip).Tokens())
	if tokens < 0 {
		return 0
	}
	return int(tokens)
}

// ClientIP returns the caller's address, preferring the first X-Forwarded-For hop
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
