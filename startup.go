package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"songstory-api-go/circuitbreaker"
	"songstory-api-go/config"
	"songstory-api-go/logcolors"
	"songstory-api-go/middleware"
	"songstory-api-go/services/keywords"
	"songstory-api-go/services/notifier"
	"songstory-api-go/services/providers"
	"songstory-api-go/services/providers/kugou"
	"songstory-api-go/services/providers/migu"
	"songstory-api-go/services/providers/netease"
	"songstory-api-go/services/providers/qqmusic"
	"songstory-api-go/services/songs"
	"songstory-api-go/services/story"
	"songstory-api-go/stats"

	log "github.com/sirupsen/logrus"
)

// setupProviders registers the four platforms, each behind its own breaker
func setupProviders() (*providers.Registry, []*circuitbreaker.CircuitBreaker) {
	timeout := time.Duration(conf.Configuration.ProviderTimeoutSecs) * time.Second
	var cbs []*circuitbreaker.CircuitBreaker

	fetcher := func(name string) *providers.Fetcher {
		cb := circuitbreaker.New(circuitbreaker.Config{
			Name:      name,
			Threshold: conf.Configuration.CircuitBreakerThreshold,
			Cooldown:  time.Duration(conf.Configuration.CircuitBreakerCooldownSecs) * time.Second,
			OnOpen: func(name string, failures int) {
				log.Warnf("%s %s skipped after %d consecutive failures", logcolors.LogWarning, logcolors.Provider(name), failures)
				notifier.PublishProviderBreakerOpen(name, failures, time.Duration(conf.Configuration.CircuitBreakerCooldownSecs)*time.Second)
				if down := openBreakers(cbs); len(down) == len(cbs) {
					notifier.PublishAllProvidersDown(down)
				}
			},
			OnRecover: notifier.PublishProviderBreakerRecovered,
		})
		cbs = append(cbs, cb)
		return providers.NewFetcher(name, timeout, cb)
	}

	reg := providers.NewRegistry()
	reg.Register(netease.NewProvider(fetcher("netease"), netease.DefaultEndpoints))
	reg.Register(qqmusic.NewProvider(fetcher("qqmusic"), qqmusic.DefaultEndpoints))
	reg.Register(kugou.NewProvider(fetcher("kugou"), kugou.DefaultEndpoints))
	reg.Register(migu.NewProvider(fetcher("migu"), migu.DefaultEndpoints))

	log.Infof("%s Registered lyrics providers: %v", logcolors.LogServer, reg.List())
	return reg, cbs
}

// openBreakers names the breakers currently OPEN
func openBreakers(cbs []*circuitbreaker.CircuitBreaker) []string {
	var open []string
	for _, cb := range cbs {
		if cb.State() == circuitbreaker.StateOpen {
			open = append(open, cb.Name())
		}
	}
	return open
}

// setupNotifiers builds one notifier per configured channel
func setupNotifiers() []notifier.Notifier {
	nc := conf.Notifier
	var notifiers []notifier.Notifier

	if nc.SMTPHost != "" {
		notifiers = append(notifiers, &notifier.EmailNotifier{
			SMTPHost:     nc.SMTPHost,
			SMTPPort:     nc.SMTPPort,
			SMTPUsername: nc.SMTPUsername,
			SMTPPassword: nc.SMTPPassword,
			FromEmail:    nc.FromEmail,
			ToEmail:      nc.ToEmail,
		})
	}
	if nc.TelegramBotToken != "" {
		notifiers = append(notifiers, &notifier.TelegramNotifier{
			BotToken: nc.TelegramBotToken,
			ChatID:   nc.TelegramChatID,
		})
	}
	if nc.NtfyTopic != "" {
		notifiers = append(notifiers, &notifier.NtfyNotifier{
			Topic:  nc.NtfyTopic,
			Server: nc.NtfyServer,
		})
	}

	for _, n := range notifiers {
		log.Infof("%s %s notifier enabled", logcolors.LogNotifier, notifier.TypeName(n))
	}
	return notifiers
}

// setupAlerts routes published events to the configured notifiers
func setupAlerts() {
	notifiers := setupNotifiers()
	if len(notifiers) == 0 {
		log.Infof("%s No notifiers configured; set NOTIFIER_SMTP_HOST, NOTIFIER_TELEGRAM_BOT_TOKEN or NOTIFIER_NTFY_TOPIC to receive alerts", logcolors.LogNotifier)
		return
	}
	notifier.NewAlertHandler(notifier.AlertConfig{
		Notifiers:        notifiers,
		CooldownDuration: time.Duration(conf.Notifier.AlertCooldownMins) * time.Minute,
	}).Start(notifier.GetEventBus())
}

// setupStoryGenerator returns nil when story generation is switched off or
// the Spark credentials are missing.
func setupStoryGenerator() songs.StoryGenerator {
	if !conf.FeatureFlags.StoryGeneration {
		log.Infof("%s Story generation disabled by FF_STORY_GENERATION", logcolors.LogConfig)
		return nil
	}
	if !conf.SparkConfigured() {
		log.Warnf("%s SPARK_APP_ID / SPARK_API_KEY / SPARK_API_SECRET not set, stories will not be generated", logcolors.LogConfig)
		return nil
	}

	return story.NewClient(story.Config{
		Credentials: func() story.Credentials {
			c := config.Get().Spark
			return story.Credentials{
				AppID:       c.AppID,
				APIKey:      c.APIKey,
				APISecret:   c.APISecret,
				EndpointURL: c.URL,
				Domain:      c.Domain,
			}
		},
		UID:                conf.Spark.UID,
		Timeout:            time.Duration(conf.Spark.TimeoutSecs) * time.Second,
		InsecureSkipVerify: conf.Spark.InsecureSkipVerify,
	})
}

func setupKeywordExtractor() (*keywords.Extractor, error) {
	tok, err := keywords.NewGseTokenizer()
	if err != nil {
		return nil, fmt.Errorf("failed to load segmentation dictionary: %w", err)
	}
	return keywords.NewExtractor(tok, conf.Configuration.KeywordMinLength, conf.Configuration.KeywordTopN), nil
}

// limitMiddleware applies the per-IP limiter. A valid API key bypasses it.
func limitMiddleware(next http.Handler, limiter *middleware.IPRateLimiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter == nil {
			next.ServeHTTP(w, r)
			return
		}

		if middleware.ValidAPIKey(r.Header.Get(middleware.APIKeyHeader), conf.Configuration.APIKey) {
			w.Header().Set("X-RateLimit-Bypass", "true")
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), rateLimitTypeKey, "bypass")))
			return
		}

		ip := middleware.ClientIP(r)
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limiter.Limit()))

		if limiter.GetLimiter(ip).Allow() {
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", limiter.Remaining(ip)))
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), rateLimitTypeKey, "normal")))
			return
		}

		stats.Get().RecordRateLimitExceeded()
		log.Warnf("%s IP %s exceeded the rate limit on %s", logcolors.LogRateLimit, ip, r.URL.Path)
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("X-RateLimit-Type", "exceeded")
		w.Header().Set("Retry-After", "1")
		Respond(w, r).Error(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
	})
}
