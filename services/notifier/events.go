// Package notifier publishes operational events and turns them into alerts
// sent by email, Telegram or ntfy.sh.
package notifier

import (
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Critical events
	EventProviderBreakerOpen EventType = "provider_breaker_open"
	EventAllProvidersDown    EventType = "all_providers_down"
	EventServerStartupFailed EventType = "server_startup_failed"

	// Warning events
	EventStoreBackupFailed  EventType = "store_backup_failed"
	EventStoreRestoreFailed EventType = "store_restore_failed"

	// Info events
	EventProviderBreakerRecovered EventType = "provider_breaker_recovered"
	EventStoreRestored            EventType = "store_restored"
	EventServerStarted            EventType = "server_started"
)

// Severity represents the severity level of an event
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Event represents a system event
type Event struct {
	Type      EventType
	Severity  Severity
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, severity Severity, message string) *Event {
	return &Event{
		Type:      eventType,
		Severity:  severity,
		Message:   message,
		Data:      make(map[string]interface{}),
		Timestamp: time.Now(),
	}
}

// WithData adds data to the event (chainable)
func (e *Event) WithData(key string, value interface{}) *Event {
	e.Data[key] = value
	return e
}

// EventHandler is a function that handles events
type EventHandler func(event *Event)

// EventBus fans events out to subscribers, each call on its own goroutine
type EventBus struct {
	handlers    map[EventType][]EventHandler
	allHandlers []EventHandler
	mu          sync.RWMutex
	pending     sync.WaitGroup
}

var (
	globalBus *EventBus
	busOnce   sync.Once
)

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[EventType][]EventHandler)}
}

// GetEventBus returns the process-wide bus the Publish helpers use
func GetEventBus() *EventBus {
	busOnce.Do(func() {
		globalBus = NewEventBus()
	})
	return globalBus
}

// Subscribe adds a handler for a specific event type
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll adds a handler that receives all events
func (b *EventBus) SubscribeAll(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allHandlers = append(b.allHandlers, handler)
}

// Publish sends an event to all subscribed handlers without waiting
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, handler := range b.handlers[event.Type] {
		b.dispatch(handler, event)
	}
	for _, handler := range b.allHandlers {
		b.dispatch(handler, event)
	}
}

func (b *EventBus) dispatch(handler EventHandler, event *Event) {
	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		handler(event)
	}()
}

// Wait blocks until every handler started so far has returned
func (b *EventBus) Wait() {
	b.pending.Wait()
}

// PublishProviderBreakerOpen reports a provider skipped after repeated failures
func PublishProviderBreakerOpen(name string, failures int, cooldown time.Duration) {
	GetEventBus().Publish(NewEvent(EventProviderBreakerOpen, SeverityCritical,
		"Provider circuit breaker opened after consecutive failures").
		WithData("name", name).
		WithData("failures", failures).
		WithData("cooldown", cooldown.String()))
}

// PublishProviderBreakerRecovered reports a provider back in rotation
func PublishProviderBreakerRecovered(name string) {
	GetEventBus().Publish(NewEvent(EventProviderBreakerRecovered, SeverityInfo,
		"Provider circuit breaker recovered").
		WithData("name", name))
}

// PublishAllProvidersDown reports that no lyrics platform can be asked
func PublishAllProvidersDown(names []string) {
	GetEventBus().Publish(NewEvent(EventAllProvidersDown, SeverityCritical,
		"Every lyrics provider circuit breaker is open").
		WithData("providers", names))
}

// PublishStoreBackupFailed reports a failed song database backup
func PublishStoreBackupFailed(err error) {
	GetEventBus().Publish(NewEvent(EventStoreBackupFailed, SeverityWarning,
		"Song store backup failed").
		WithData("error", err.Error()))
}

// PublishStoreRestoreFailed reports a failed restore
func PublishStoreRestoreFailed(file string, err error) {
	GetEventBus().Publish(NewEvent(EventStoreRestoreFailed, SeverityWarning,
		"Song store restore failed").
		WithData("file", file).
		WithData("error", err.Error()))
}

// PublishStoreRestored reports the song database replaced by a backup
func PublishStoreRestored(file string, songs int) {
	GetEventBus().Publish(NewEvent(EventStoreRestored, SeverityInfo,
		"Song store restored from backup").
		WithData("file", file).
		WithData("songs", songs))
}

// PublishServerStarted reports a successful start
func PublishServerStarted(port string, providers []string, storyGeneration bool) {
	GetEventBus().Publish(NewEvent(EventServerStarted, SeverityInfo,
		"Server started successfully").
		WithData("port", port).
		WithData("providers", providers).
		WithData("story_generation", storyGeneration))
}

// PublishServerStartupFailed reports a component that kept the server from starting
func PublishServerStartupFailed(component string, err error) {
	GetEventBus().Publish(NewEvent(EventServerStartupFailed, SeverityCritical,
		"Server failed to start").
		WithData("component", component).
		WithData("error", err.Error()))
}
