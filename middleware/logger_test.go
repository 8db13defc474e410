package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"songstory-api-go/stats"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestGetStatusColor(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   string
	}{
		{http.StatusOK, "\033[32m"},              // song processed
		{http.StatusNotModified, "\033[36m"},     // conditional GET through CORS
		{http.StatusBadRequest, "\033[33m"},      // bad file name
		{http.StatusNotFound, "\033[33m"},        // unknown song id
		{http.StatusTooManyRequests, "\033[33m"}, // /api rate limit
		{http.StatusGatewayTimeout, "\033[31m"},  // lookup ran out of time
		{http.StatusContinue, "\033[0m"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.statusCode), func(t *testing.T) {
			if got := getStatusColor(tt.statusCode); got != tt.expected {
				t.Errorf("Expected color code %q for status %d, got %q", tt.expected, tt.statusCode, got)
			}
		})
	}
}

// counterFor returns the per-endpoint counter LoggingMiddleware bumps for path
func counterFor(s *stats.Stats, path string) *atomic.Int64 {
	switch stats.EndpointFor(path) {
	case stats.EndpointProcess:
		return &s.ProcessRequests
	case stats.EndpointSongs:
		return &s.SongsRequests
	case stats.EndpointLyrics:
		return &s.LyricsRequests
	case stats.EndpointColor:
		return &s.ColorRequests
	case stats.EndpointOps:
		return &s.OpsRequests
	case stats.EndpointHealth:
		return &s.HealthRequests
	default:
		return &s.OtherRequests
	}
}

func TestLoggingMiddleware_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
		body       string
	}{
		{"process song", http.MethodPost, "/api/process-song", http.StatusOK, `{"song_id":1}`},
		{"bad file name", http.MethodPost, "/api/process-song", http.StatusBadRequest, `{"error":"File name format not recognized"}`},
		{"lookup timed out", http.MethodPost, "/api/process-song", http.StatusGatewayTimeout, `{"error":"interrupted"}`},
		{"unknown song", http.MethodGet, "/api/songs/999", http.StatusNotFound, `{"error":"Song not found"}`},
		{"rate limited", http.MethodGet, "/api/lyrics", http.StatusTooManyRequests, `{"error":"Too Many Requests"}`},
		{"color match", http.MethodPost, "/match", http.StatusOK, `{"matched_items":[]}`},
		{"backup", http.MethodPost, "/store/backup", http.StatusOK, `{}`},
		{"health", http.MethodGet, "/health", http.StatusOK, `{"status":"healthy"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := stats.Get()
			counter := counterFor(st, tt.path)
			before, beforeTotal := counter.Load(), st.TotalRequests.Load()

			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			})
			hook := test.NewGlobal()
			defer hook.Reset()

			rec := httptest.NewRecorder()
			LoggingMiddleware(handler).ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.statusCode || rec.Body.String() != tt.body {
				t.Errorf("Response altered: got %d %q", rec.Code, rec.Body.String())
			}
			if got := counter.Load(); got != before+1 {
				t.Errorf("Expected %s counter to grow by 1, got %d -> %d", stats.EndpointFor(tt.path), before, got)
			}
			if st.TotalRequests.Load() < beforeTotal+1 {
				t.Error("Expected the total request count to grow")
			}

			entry := hook.LastEntry()
			if entry == nil {
				t.Fatal("Expected a log entry")
			}
			if entry.Level != log.InfoLevel {
				t.Errorf("Expected info level, got %v", entry.Level)
			}
			for _, part := range []string{tt.method + " " + tt.path, strconv.Itoa(tt.statusCode), strconv.Itoa(len(tt.body)) + "B"} {
				if !strings.Contains(entry.Message, part) {
					t.Errorf("Log line %q does not contain %q", entry.Message, part)
				}
			}
			if !strings.Contains(entry.Message, getStatusColor(tt.statusCode)) {
				t.Errorf("Log line %q is missing the status color", entry.Message)
			}
		})
	}
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	var seen string
	mw := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		hook := test.NewGlobal()
		defer hook.Reset()

		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/process-song", nil))

		header := rec.Header().Get(RequestIDHeader)
		if header == "" {
			t.Fatal("Expected a generated request id header")
		}
		if seen != header {
			t.Errorf("Handler saw %q, header carried %q", seen, header)
		}
		if entry := hook.LastEntry(); entry == nil || entry.Data["request_id"] != header {
			t.Errorf("Expected the log entry to carry request_id %q", header)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		hook := test.NewGlobal()
		defer hook.Reset()

		req := httptest.NewRequest(http.MethodPost, "/match", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)

		if rec.Header().Get(RequestIDHeader) != "abc-123" || seen != "abc-123" {
			t.Errorf("Expected incoming id to be kept, got header %q, context %q",
				rec.Header().Get(RequestIDHeader), seen)
		}
		if entry := hook.LastEntry(); entry == nil || entry.Data["request_id"] != "abc-123" {
			t.Error("Expected the log entry to carry the incoming request id")
		}
	})
}

func TestLoggingMiddleware_StatusClasses(t *testing.T) {
	st := stats.Get()
	before2xx, before4xx, before5xx := st.Status2xx.Load(), st.Status4xx.Load(), st.Status5xx.Load()

	for _, code := range []int{http.StatusOK, http.StatusBadRequest, http.StatusNotFound, http.StatusGatewayTimeout} {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		})
		LoggingMiddleware(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/process-song", nil))
	}

	if st.Status2xx.Load() != before2xx+1 || st.Status4xx.Load() != before4xx+2 || st.Status5xx.Load() != before5xx+1 {
		t.Errorf("Unexpected status class counts: 2xx +%d, 4xx +%d, 5xx +%d",
			st.Status2xx.Load()-before2xx, st.Status4xx.Load()-before4xx, st.Status5xx.Load()-before5xx)
	}
}

func TestResponseRecorder_CountsBodyAcrossWrites(t *testing.T) {
	rec := NewResponseRecorder(httptest.NewRecorder())

	rec.Write([]byte(`{"lyrics":"`))
	rec.Write([]byte("故事的小黄花"))
	rec.Write([]byte(`"}`))

	if want := len(`{"lyrics":"故事的小黄花"}`); rec.BodySize != want {
		t.Errorf("Expected body size %d, got %d", want, rec.BodySize)
	}
	if rec.StatusCode != http.StatusOK {
		t.Errorf("Expected implicit 200, got %d", rec.StatusCode)
	}
}
