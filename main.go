package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"songstory-api-go/circuitbreaker"
	"songstory-api-go/config"
	"songstory-api-go/logcolors"
	"songstory-api-go/middleware"
	"songstory-api-go/services/colormatch"
	"songstory-api-go/services/lyrics"
	"songstory-api-go/services/notifier"
	"songstory-api-go/services/providers"
	"songstory-api-go/services/songs"
	"songstory-api-go/stats"
	"songstory-api-go/store"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var conf = config.Get()

var (
	songStore   *store.Store
	registry    *providers.Registry
	breakers    []*circuitbreaker.CircuitBreaker
	resolver    *lyrics.Resolver
	songService *songs.Service
	matcher     = colormatch.NewMatcher(nil)
	limiter     *middleware.IPRateLimiter
	storyReady  bool
)

func init() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(conf.Configuration.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// startupFailed alerts on a fatal startup error, waits for the alert to go
// out and exits
func startupFailed(component, prefix string, err error) {
	notifier.PublishServerStartupFailed(component, err)
	notifier.GetEventBus().Wait()
	log.Fatalf("%s %v", prefix, err)
}

func main() {
	setupAlerts()

	var err error
	songStore, err = store.New(conf.Configuration.DBPath, conf.Configuration.DBBackupPath, conf.FeatureFlags.StoreCompression)
	if err != nil {
		startupFailed("store", logcolors.LogStoreInit, err)
	}

	statsStore, err := stats.NewStore(conf.Configuration.StatsDBPath, nil)
	if err != nil {
		log.Warnf("%s Stats will not persist: %v", logcolors.LogStats, err)
	} else {
		if err := statsStore.Load(); err != nil {
			log.Warnf("%s %v", logcolors.LogStats, err)
		}
		statsStore.StartAutoSave(time.Duration(conf.Configuration.StatsSaveIntervalSecs) * time.Second)
	}

	registry, breakers = setupProviders()
	resolver = lyrics.NewResolver(registry.All(), nil)

	extractor, err := setupKeywordExtractor()
	if err != nil {
		startupFailed("keywords", logcolors.LogKeywords, err)
	}

	generator := setupStoryGenerator()
	storyReady = generator != nil
	songService = songs.NewService(songs.Config{
		Resolver:  resolver,
		Extractor: extractor,
		Generator: generator,
		Store:     songStore,
		TopN:      conf.Configuration.KeywordTopN,
		Timeout:   time.Duration(conf.Configuration.ProcessTimeoutSecs) * time.Second,
	})

	limiter = middleware.NewIPRateLimiter(rate.Limit(conf.Configuration.RateLimitPerSecond), conf.Configuration.RateLimitBurstLimit)

	router := mux.NewRouter()
	setupRoutes(router)

	c := cors.New(cors.Options{
		AllowedOrigins: conf.AllowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.APIKeyHeader, middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "X-Lyrics-Source", "X-Store-Status", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
	})

	apiKeyAuth := middleware.APIKeyMiddleware(conf.Configuration.APIKey, conf.Configuration.APIKeyRequired, []string{"/", "/health"})
	handler := c.Handler(middleware.LoggingMiddleware(apiKeyAuth(router)))

	server := &http.Server{
		Addr:              ":" + conf.Configuration.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("%s Listening on port %s", logcolors.LogServer, conf.Configuration.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			startupFailed("http", logcolors.LogServer, err)
		}
	}()
	notifier.PublishServerStarted(conf.Configuration.Port, registry.List(), storyReady)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Infof("%s Shutting down", logcolors.LogServer)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("%s Shutdown error: %v", logcolors.LogServer, err)
	}
	if statsStore != nil {
		statsStore.Close()
	}
	songStore.Close()
	notifier.GetEventBus().Wait()
}
