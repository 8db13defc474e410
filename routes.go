package main

import (
	"net/http"

	"github.com/gorilla/mux"
)

// setupRoutes configures all HTTP routes for the API
func setupRoutes(router *mux.Router) {
	// Song processing, rate limited per IP
	api := router.PathPrefix("/api").Subrouter()
	api.Use(func(next http.Handler) http.Handler { return limitMiddleware(next, limiter) })
	api.HandleFunc("/process-song", processSong).Methods(http.MethodPost)
	api.HandleFunc("/songs", listSongs).Methods(http.MethodGet)
	api.HandleFunc("/songs/{id:[0-9]+}", getSong).Methods(http.MethodGet)
	api.HandleFunc("/lyrics", getLyrics).Methods(http.MethodGet)
	api.HandleFunc("/providers", listProviders).Methods(http.MethodGet)
	api.HandleFunc("/providers/{name}/lyrics", getProviderLyrics).Methods(http.MethodGet)

	// Color matching
	router.HandleFunc("/match", matchMusic).Methods(http.MethodPost)
	router.HandleFunc("/analyze-colors", analyzeColors).Methods(http.MethodPost)
	router.HandleFunc("/color-variations", colorVariations).Methods(http.MethodPost)

	// Store management
	router.HandleFunc("/store/backup", backupStore).Methods(http.MethodPost)
	router.HandleFunc("/store/backups", listBackups).Methods(http.MethodGet)
	router.HandleFunc("/store/restore", restoreStore).Methods(http.MethodPost)

	// Health and stats
	router.HandleFunc("/health", getHealthStatus).Methods(http.MethodGet)
	router.HandleFunc("/stats", getStats).Methods(http.MethodGet)

	// Circuit breakers
	router.HandleFunc("/circuit-breaker", getCircuitBreakerStatus).Methods(http.MethodGet)
	router.HandleFunc("/circuit-breaker/reset", resetCircuitBreaker).Methods(http.MethodPost)

	router.HandleFunc("/notifications/test", testNotifications).Methods(http.MethodPost)

	router.HandleFunc("/", rootHandler).Methods(http.MethodGet)
}
