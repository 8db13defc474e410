package notifier

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingNotifier struct {
	mu       sync.Mutex
	subjects []string
	messages []string
	err      error
}

func (r *recordingNotifier) Send(subject, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subjects = append(r.subjects, subject)
	r.messages = append(r.messages, message)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subjects)
}

func newTestHandler(ns ...Notifier) (*AlertHandler, *time.Time) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewAlertHandler(AlertConfig{Notifiers: ns, CooldownDuration: time.Minute})
	h.now = func() time.Time { return now }
	return h, &now
}

func breakerOpen(name string) *Event {
	return NewEvent(EventProviderBreakerOpen, SeverityCritical, "open").
		WithData("name", name).
		WithData("failures", 5).
		WithData("cooldown", "5m0s")
}

func TestAlertHandler_Cooldown(t *testing.T) {
	rec := &recordingNotifier{}
	h, now := newTestHandler(rec)

	h.HandleEvent(breakerOpen("kugou"))
	h.HandleEvent(breakerOpen("migu"))
	if rec.count() != 1 {
		t.Fatalf("Expected 1 alert inside the cooldown, got %d", rec.count())
	}

	h.HandleEvent(NewEvent(EventStoreBackupFailed, SeverityWarning, "x").WithData("error", "disk full"))
	if rec.count() != 2 {
		t.Fatalf("Expected a different event type to bypass the cooldown, got %d alerts", rec.count())
	}

	*now = now.Add(time.Minute)
	h.HandleEvent(breakerOpen("migu"))
	if rec.count() != 3 {
		t.Errorf("Expected an alert after the cooldown, got %d", rec.count())
	}

	h.ResetAllCooldowns()
	h.HandleEvent(breakerOpen("netease"))
	if rec.count() != 4 {
		t.Errorf("Expected an alert after resetting cooldowns, got %d", rec.count())
	}
}

func TestAlertHandler_UnknownEventIgnored(t *testing.T) {
	rec := &recordingNotifier{}
	h, _ := newTestHandler(rec)

	h.HandleEvent(NewEvent(EventType("something_else"), SeverityInfo, "x"))
	if rec.count() != 0 {
		t.Errorf("Expected no alert for an unknown event, got %d", rec.count())
	}
}

func TestAlertHandler_FailingNotifierDoesNotBlockOthers(t *testing.T) {
	broken := &recordingNotifier{err: errors.New("smtp down")}
	ok := &recordingNotifier{}
	h, _ := newTestHandler(broken, ok)

	h.HandleEvent(breakerOpen("kugou"))
	if broken.count() != 1 || ok.count() != 1 {
		t.Errorf("Expected both notifiers to be tried, got %d and %d", broken.count(), ok.count())
	}
}

func TestFormatAlert(t *testing.T) {
	tests := []struct {
		name        string
		event       *Event
		wantSubject string
		wantInBody  string
	}{
		{"breaker open", breakerOpen("kugou"), "🚨 Provider Circuit Breaker OPEN", "kugou lyrics provider"},
		{
			"all providers down",
			NewEvent(EventAllProvidersDown, SeverityCritical, "").WithData("providers", []string{"kugou", "migu"}),
			"🚨 All Lyrics Providers Down", "kugou, migu",
		},
		{
			"startup failed",
			NewEvent(EventServerStartupFailed, SeverityCritical, "").WithData("component", "store").WithData("error", "locked"),
			"🚨 Server Startup FAILED", "Component: store",
		},
		{
			"backup failed",
			NewEvent(EventStoreBackupFailed, SeverityWarning, "").WithData("error", "disk full"),
			"⚠️ Store Backup Failed", "disk full",
		},
		{
			"restored",
			NewEvent(EventStoreRestored, SeverityInfo, "").WithData("file", "songs_backup_1.db").WithData("songs", 3),
			"ℹ️ Store Restored", "songs_backup_1.db (3 songs)",
		},
		{
			"recovered",
			NewEvent(EventProviderBreakerRecovered, SeverityInfo, "").WithData("name", "netease"),
			"ℹ️ Provider Recovered", "netease",
		},
		{
			"started without stories",
			NewEvent(EventServerStarted, SeverityInfo, "").
				WithData("port", "8080").
				WithData("providers", []string{"netease"}).
				WithData("story_generation", false),
			"ℹ️ Server Started", "Story generation: unavailable",
		},
		{"missing data does not panic", NewEvent(EventProviderBreakerOpen, SeverityCritical, ""), "🚨 Provider Circuit Breaker OPEN", "0 consecutive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, message := formatAlert(tt.event)
			if subject != tt.wantSubject {
				t.Errorf("subject = %q, want %q", subject, tt.wantSubject)
			}
			if !strings.Contains(message, tt.wantInBody) {
				t.Errorf("message %q does not contain %q", message, tt.wantInBody)
			}
		})
	}
}

func TestEventBus_PublishAndWait(t *testing.T) {
	bus := NewEventBus()

	var mu sync.Mutex
	var specific, all []EventType
	bus.Subscribe(EventStoreRestored, func(e *Event) {
		mu.Lock()
		defer mu.Unlock()
		specific = append(specific, e.Type)
	})
	bus.SubscribeAll(func(e *Event) {
		mu.Lock()
		defer mu.Unlock()
		all = append(all, e.Type)
	})

	bus.Publish(NewEvent(EventStoreRestored, SeverityInfo, ""))
	bus.Publish(NewEvent(EventServerStarted, SeverityInfo, ""))
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(specific) != 1 || specific[0] != EventStoreRestored {
		t.Errorf("Expected one store_restored event, got %v", specific)
	}
	if len(all) != 2 {
		t.Errorf("Expected the catch-all handler to see 2 events, got %v", all)
	}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
	}))
	defer server.Close()

	n := &TelegramNotifier{BotToken: "tok", ChatID: "42", APIBase: server.URL}
	if err := n.Send("Subject", "Body"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotPath != "/bottok/sendMessage" {
		t.Errorf("Unexpected path %q", gotPath)
	}
	if gotBody["chat_id"] != "42" || gotBody["text"] != "*Subject*\n\nBody" {
		t.Errorf("Unexpected payload %v", gotBody)
	}
}

func TestTelegramNotifier_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	n := &TelegramNotifier{BotToken: "bad", ChatID: "42", APIBase: server.URL}
	if err := n.Send("s", "m"); err == nil {
		t.Error("Expected an error for a non-200 reply")
	}
}

func TestNtfyNotifier_Send(t *testing.T) {
	var gotTitle, gotPath, gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
	}))
	defer server.Close()

	n := &NtfyNotifier{Topic: "songstory", Server: server.URL}
	if err := n.Send("Store Restored", "3 songs"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if gotPath != "/songstory" || gotTitle != "Store Restored" || gotBody != "3 songs" {
		t.Errorf("Unexpected request: path=%q title=%q body=%q", gotPath, gotTitle, gotBody)
	}
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		n    Notifier
		want string
	}{
		{&EmailNotifier{}, "email"},
		{&TelegramNotifier{}, "telegram"},
		{&NtfyNotifier{}, "ntfy"},
		{&recordingNotifier{}, "unknown"},
	}
	for _, tt := range tests {
		if got := TypeName(tt.n); got != tt.want {
			t.Errorf("TypeName(%T) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
