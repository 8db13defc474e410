package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"songstory-api-go/circuitbreaker"
	"songstory-api-go/logcolors"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout is the per-request timeout for every provider call
	DefaultTimeout = 10 * time.Second

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// DefaultHeaders are the browser-like headers every platform expects
func DefaultHeaders() http.Header {
	h := http.Header{}
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Connection", "keep-alive")
	return h
}

// Fetcher issues JSON GET requests on behalf of one provider.
// A circuit breaker, when set, short-circuits calls after repeated failures.
type Fetcher struct {
	name    string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewFetcher creates a fetcher with the given per-request timeout
func NewFetcher(name string, timeout time.Duration, breaker *circuitbreaker.CircuitBreaker) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		name:    name,
		client:  &http.Client{Timeout: timeout},
		breaker: breaker,
	}
}

// Breaker returns the fetcher's circuit breaker (may be nil)
func (f *Fetcher) Breaker() *circuitbreaker.CircuitBreaker {
	return f.breaker
}

// GetJSON performs a GET request and decodes the JSON body into v
func (f *Fetcher) GetJSON(ctx context.Context, requestURL string, header http.Header, v interface{}) error {
	if f.breaker != nil && !f.breaker.Allow() {
		return NewProviderError(f.name, "request skipped", circuitbreaker.ErrCircuitOpen)
	}

	err := f.getJSON(ctx, requestURL, header, v)
	if f.breaker != nil {
		if err != nil {
			f.breaker.RecordFailure()
		} else {
			f.breaker.RecordSuccess()
		}
	}
	return err
}

func (f *Fetcher) getJSON(ctx context.Context, requestURL string, header http.Header, v interface{}) error {
	log.Debugf("%s [%s] GET %s", logcolors.LogHTTP, f.name, requestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
