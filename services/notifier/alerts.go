package notifier

import (
	"fmt"
	"songstory-api-go/logcolors"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultAlertCooldown is the minimum gap between two alerts of one type
const DefaultAlertCooldown = 15 * time.Minute

// AlertHandler formats events and sends them through every notifier,
// at most once per event type per cooldown window
type AlertHandler struct {
	notifiers        []Notifier
	cooldowns        map[EventType]time.Time
	cooldownDuration time.Duration
	now              func() time.Time
	mu               sync.Mutex
}

// AlertConfig holds configuration for the alert handler
type AlertConfig struct {
	Notifiers        []Notifier
	CooldownDuration time.Duration
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(config AlertConfig) *AlertHandler {
	cooldown := config.CooldownDuration
	if cooldown <= 0 {
		cooldown = DefaultAlertCooldown
	}
	return &AlertHandler{
		notifiers:        config.Notifiers,
		cooldowns:        make(map[EventType]time.Time),
		cooldownDuration: cooldown,
		now:              time.Now,
	}
}

// Start subscribes the handler to every event on bus
func (h *AlertHandler) Start(bus *EventBus) {
	bus.SubscribeAll(h.HandleEvent)
	log.Infof("%s Alert handler started (cooldown: %v, notifiers: %d)",
		logcolors.LogNotifier, h.cooldownDuration, len(h.notifiers))
}

// HandleEvent sends one event unless its type is cooling down
func (h *AlertHandler) HandleEvent(event *Event) {
	subject, message := formatAlert(event)
	if subject == "" {
		return
	}
	if !h.shouldAlert(event.Type) {
		log.Debugf("%s Skipping alert for %s (cooldown active)", logcolors.LogNotifier, event.Type)
		return
	}
	h.sendAlert(subject, message)
}

func (h *AlertHandler) shouldAlert(eventType EventType) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	last, seen := h.cooldowns[eventType]
	if !seen || now.Sub(last) >= h.cooldownDuration {
		h.cooldowns[eventType] = now
		return true
	}
	return false
}

func formatAlert(event *Event) (subject, message string) {
	str := func(key string) string {
		v, _ := event.Data[key].(string)
		return v
	}

	switch event.Type {
	case EventProviderBreakerOpen:
		failures, _ := event.Data["failures"].(int)
		subject = "Provider Circuit Breaker OPEN"
		message = fmt.Sprintf(
			"The %s lyrics provider was skipped after %d consecutive failures.\n\n"+
				"It will be retried in %s.\n\n"+
				"Action: Check whether the platform API changed or is blocking us.",
			str("name"), failures, str("cooldown"))

	case EventAllProvidersDown:
		names, _ := event.Data["providers"].([]string)
		subject = "All Lyrics Providers Down"
		message = fmt.Sprintf(
			"Every provider circuit breaker is open (%s).\n\n"+
				"New songs will be stored without lyrics until a provider recovers.",
			strings.Join(names, ", "))

	case EventServerStartupFailed:
		subject = "Server Startup FAILED"
		message = fmt.Sprintf(
			"The server failed to start.\n\nComponent: %s\nError: %s\n\n"+
				"Action: Check logs and fix the issue immediately.",
			str("component"), str("error"))

	case EventStoreBackupFailed:
		subject = "Store Backup Failed"
		message = fmt.Sprintf(
			"Failed to back up the song database.\n\nError: %s\n\n"+
				"Action: Check disk space and permissions.",
			str("error"))

	case EventStoreRestoreFailed:
		subject = "Store Restore Failed"
		message = fmt.Sprintf("Restoring %s failed.\n\nError: %s", str("file"), str("error"))

	case EventProviderBreakerRecovered:
		subject = "Provider Recovered"
		message = fmt.Sprintf("The %s lyrics provider is back in rotation.", str("name"))

	case EventStoreRestored:
		songs, _ := event.Data["songs"].(int)
		subject = "Store Restored"
		message = fmt.Sprintf("The song database was restored from %s (%d songs).", str("file"), songs)

	case EventServerStarted:
		names, _ := event.Data["providers"].([]string)
		story, _ := event.Data["story_generation"].(bool)
		storyState := "enabled"
		if !story {
			storyState = "unavailable"
		}
		subject = "Server Started"
		message = fmt.Sprintf(
			"Server started on port %s.\n\nProviders: %s\nStory generation: %s",
			str("port"), strings.Join(names, ", "), storyState)

	default:
		return "", ""
	}

	switch event.Severity {
	case SeverityCritical:
		subject = "🚨 " + subject
	case SeverityWarning:
		subject = "⚠️ " + subject
	case SeverityInfo:
		subject = "ℹ️ " + subject
	}
	return subject, message
}

func (h *AlertHandler) sendAlert(subject, message string) {
	if len(h.notifiers) == 0 {
		log.Debugf("%s No notifiers configured, skipping alert: %s", logcolors.LogNotifier, subject)
		return
	}

	log.Infof("%s Sending alert: %s", logcolors.LogNotifier, subject)
	sent := 0
	for _, n := range h.notifiers {
		if err := n.Send(subject, message); err != nil {
			log.Errorf("%s Failed to send alert via %s: %v", logcolors.LogNotifier, TypeName(n), err)
		} else {
			sent++
		}
	}
	if sent > 0 {
		log.Infof("%s Alert sent via %d/%d notifiers", logcolors.LogNotifier, sent, len(h.notifiers))
	}
}

// ResetAllCooldowns lets the next event of every type through
func (h *AlertHandler) ResetAllCooldowns() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cooldowns = make(map[EventType]time.Time)
}
