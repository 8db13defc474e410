package middleware

import (
	"context"
	"net/http"
	"time"

	"songstory-api-go/logcolors"
	"songstory-api-go/stats"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// RequestIDHeader carries the request id in and out of the service
const RequestIDHeader = "X-Request-ID"

// ResponseRecorder captures the status code and body size of a response
type ResponseRecorder struct {
	http.ResponseWriter
	StatusCode int
	BodySize   int
}

// NewResponseRecorder wraps w, defaulting the status to 200
func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, StatusCode: http.StatusOK}
}

func (r *ResponseRecorder) WriteHeader(code int) {
	r.StatusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *ResponseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.BodySize += n
	return n, err
}

func getStatusColor(code int) string {
	switch {
	case code >= 500:
		return logcolors.Red
	case code >= 400:
		return logcolors.Yellow
	case code >= 300:
		return logcolors.Cyan
	case code >= 200:
		return logcolors.Green
	default:
		return logcolors.Reset
	}
}

// RequestID returns the id assigned by LoggingMiddleware, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// LoggingMiddleware tags each request with an id, logs it with a colored
// status and records request, status and timing stats.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		rec := NewResponseRecorder(w)
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		elapsed := time.Since(start)
		st := stats.Get()
		st.RecordRequest(r.URL.Path)
		st.RecordStatusCode(rec.StatusCode)
		st.RecordResponseTime(elapsed, r.URL.Path)

		log.WithField("request_id", id).Infof("%s %s %s %s%d%s %dB %v",
			logcolors.LogRequest, r.Method, r.URL.Path,
			getStatusColor(rec.StatusCode), rec.StatusCode, logcolors.Reset,
			rec.BodySize, elapsed)
	})
}
