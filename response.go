package main

import (
	"encoding/json"
	"net/http"

	"songstory-api-go/middleware"
)

// APIResponse sets the standard headers and writes JSON bodies
type APIResponse struct {
	w      http.ResponseWriter
	r      *http.Request
	source string
	stored string
}

// Respond creates a response helper from request context
func Respond(w http.ResponseWriter, r *http.Request) *APIResponse {
	return &APIResponse{w: w, r: r}
}

// SetSource sets the X-Lyrics-Source header value
func (a *APIResponse) SetSource(source string) *APIResponse {
	a.source = source
	return a
}

// SetStoreStatus sets X-Store-Status: "HIT" for a stored song, "NEW" otherwise
func (a *APIResponse) SetStoreStatus(status string) *APIResponse {
	a.stored = status
	return a
}

func (a *APIResponse) writeHeaders() {
	h := a.w.Header()
	h.Set("Content-Type", "application/json")

	if a.source != "" {
		h.Set("X-Lyrics-Source", a.source)
	}
	if a.stored != "" {
		h.Set("X-Store-Status", a.stored)
	}
	if id := middleware.RequestID(a.r.Context()); id != "" {
		h.Set(middleware.RequestIDHeader, id)
	}
	if rateLimitType, ok := a.r.Context().Value(rateLimitTypeKey).(string); ok && rateLimitType != "" {
		h.Set("X-RateLimit-Type", rateLimitType)
	}
}

// JSON writes headers and encodes data as JSON (200 OK)
func (a *APIResponse) JSON(data interface{}) error {
	a.writeHeaders()
	return json.NewEncoder(a.w).Encode(data)
}

// Error writes {"error": message} with the given status code
func (a *APIResponse) Error(statusCode int, message string) error {
	a.writeHeaders()
	a.w.WriteHeader(statusCode)
	return json.NewEncoder(a.w).Encode(map[string]string{"error": message})
}
