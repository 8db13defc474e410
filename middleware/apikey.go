package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"songstory-api-go/logcolors"

	log "github.com/sirupsen/logrus"
)

// APIKeyHeader is the header clients send their key in
const APIKeyHeader = "X-API-Key"

// publicPaths matches exact paths, or prefixes for entries ending in "*"
type publicPaths map[string]bool

func newPublicPaths(paths []string) publicPaths {
	p := make(publicPaths, len(paths))
	for _, path := range paths {
		p[path] = true
	}
	return p
}

func (p publicPaths) match(path string) bool {
	if p[path] {
		return true
	}
	for candidate := range p {
		if prefix, ok := strings.CutSuffix(candidate, "*"); ok && strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// ValidAPIKey compares a provided key with the configured one in constant time
func ValidAPIKey(provided, expected string) bool {
	return expected != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// APIKeyMiddleware rejects requests without a valid X-API-Key header when
// required is set. An empty apiKey with required set is treated as a
// misconfiguration: it is logged and requests pass. Public paths always pass.
func APIKeyMiddleware(apiKey string, required bool, public []string) func(http.Handler) http.Handler {
	allowed := newPublicPaths(public)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !required {
				next.ServeHTTP(w, r)
				return
			}
			if apiKey == "" {
				log.Warnf("%s API key required but not configured, allowing request", logcolors.LogAPIKey)
				next.ServeHTTP(w, r)
				return
			}
			if allowed.match(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get(APIKeyHeader)
			switch {
			case provided == "":
				log.Warnf("%s Missing API key from %s for %s", logcolors.LogAPIKey, ClientIP(r), r.URL.Path)
				unauthorized(w, "API key required", "Provide a valid API key via X-API-Key header")
			case !ValidAPIKey(provided, apiKey):
				log.Warnf("%s Invalid API key from %s for %s", logcolors.LogAPIKey, ClientIP(r), r.URL.Path)
				unauthorized(w, "Invalid API key", "The provided API key is not valid")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func unauthorized(w http.ResponseWriter, errMsg, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": errMsg, "message": message})
}
