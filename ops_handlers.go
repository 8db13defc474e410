package main

import (
	"fmt"
	"net/http"
	"strings"

	"songstory-api-go/circuitbreaker"
	"songstory-api-go/logcolors"
	"songstory-api-go/services/notifier"
	"songstory-api-go/stats"

	log "github.com/sirupsen/logrus"
)

// authorized checks the Authorization header against ADMIN_TOKEN. An unset
// token leaves the ops endpoints open.
func authorized(w http.ResponseWriter, r *http.Request) bool {
	token := conf.Configuration.AdminToken
	if token == "" || r.Header.Get("Authorization") == token {
		return true
	}
	Respond(w, r).Error(http.StatusUnauthorized, "Unauthorized")
	return false
}

func breakerSnapshots() []circuitbreaker.Snapshot {
	snaps := make([]circuitbreaker.Snapshot, 0, len(breakers))
	for _, cb := range breakers {
		snaps = append(snaps, cb.Snapshot())
	}
	return snaps
}

func getHealthStatus(w http.ResponseWriter, r *http.Request) {
	open := 0
	states := make(map[string]string, len(breakers))
	for _, cb := range breakers {
		state := cb.State()
		states[cb.Name()] = state.String()
		if state == circuitbreaker.StateOpen {
			open++
		}
	}

	status := "healthy"
	switch {
	case len(breakers) > 0 && open == len(breakers):
		status = "unhealthy"
	case open > 0 || !storyReady:
		status = "degraded"
	}

	health := map[string]interface{}{
		"status":           status,
		"providers":        states,
		"story_generation": storyReady,
	}
	if songStore != nil {
		health["songs"] = songStore.Count()
	}
	Respond(w, r).JSON(health)
}

func getStats(w http.ResponseWriter, r *http.Request) {
	if !authorized(w, r) {
		return
	}

	snapshot := stats.Get().Snapshot()
	if songStore != nil {
		snapshot["store"] = map[string]interface{}{"songs": songStore.Count()}
	}
	snapshot["circuit_breakers"] = breakerSnapshots()
	Respond(w, r).JSON(snapshot)
}

func getCircuitBreakerStatus(w http.ResponseWriter, r *http.Request) {
	if !authorized(w, r) {
		return
	}
	Respond(w, r).JSON(map[string]interface{}{
		"breakers": breakerSnapshots(),
		"config": map[string]interface{}{
			"threshold":    conf.Configuration.CircuitBreakerThreshold,
			"cooldown_sec": conf.Configuration.CircuitBreakerCooldownSecs,
		},
	})
}

// resetCircuitBreaker resets one breaker (?provider=name) or all of them
func resetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	if !authorized(w, r) {
		return
	}

	name := r.URL.Query().Get("provider")
	reset := []string{}
	for _, cb := range breakers {
		if name == "" || cb.Name() == name {
			cb.Reset()
			reset = append(reset, cb.Name())
		}
	}
	if len(reset) == 0 {
		Respond(w, r).Error(http.StatusNotFound, "provider not found: "+name)
		return
	}
	Respond(w, r).JSON(map[string]interface{}{
		"message": "Circuit breaker reset to CLOSED state",
		"reset":   reset,
	})
}

func backupStore(w http.ResponseWriter, r *http.Request) {
	if !authorized(w, r) {
		return
	}

	path, err := songStore.Backup()
	if err != nil {
		log.Errorf("%s Failed to create backup: %v", logcolors.LogBackup, err)
		notifier.PublishStoreBackupFailed(err)
		Respond(w, r).Error(http.StatusInternalServerError, "Failed to create backup: "+err.Error())
		return
	}
	Respond(w, r).JSON(map[string]interface{}{
		"message":     "Backup created successfully",
		"backup_path": path,
	})
}

func listBackups(w http.ResponseWriter, r *http.Request) {
	if !authorized(w, r) {
		return
	}

	backups, err := songStore.ListBackups()
	if err != nil {
		Respond(w, r).Error(http.StatusInternalServerError, err.Error())
		return
	}
	Respond(w, r).JSON(map[string]interface{}{
		"count":   len(backups),
		"backups": backups,
	})
}

// restoreStore replaces the song database with ?file=<backup name>
func restoreStore(w http.ResponseWriter, r *http.Request) {
	if !authorized(w, r) {
		return
	}

	file := r.URL.Query().Get("file")
	if file == "" {
		Respond(w, r).Error(http.StatusBadRequest, "Missing file parameter")
		return
	}
	if err := songStore.Restore(file); err != nil {
		log.Errorf("%s Restore failed: %v", logcolors.LogBackup, err)
		notifier.PublishStoreRestoreFailed(file, err)
		Respond(w, r).Error(http.StatusBadRequest, err.Error())
		return
	}

	count := songStore.Count()
	notifier.PublishStoreRestored(file, count)
	Respond(w, r).JSON(map[string]interface{}{
		"message":       "Store restored successfully",
		"restored_from": file,
		"songs":         count,
	})
}

// testNotifications sends a test message through every configured notifier
func testNotifications(w http.ResponseWriter, r *http.Request) {
	if !authorized(w, r) {
		return
	}

	notifiers := setupNotifiers()
	if len(notifiers) == 0 {
		Respond(w, r).Error(http.StatusBadRequest, "No notifiers configured. Set NOTIFIER_SMTP_HOST, NOTIFIER_TELEGRAM_BOT_TOKEN or NOTIFIER_NTFY_TOPIC.")
		return
	}

	message := fmt.Sprintf("Test notification from the song-story API.\n\nProviders: %s\nStory generation: %v\nSongs stored: %d",
		strings.Join(registry.List(), ", "), storyReady, songStore.Count())

	results := make(map[string]string, len(notifiers))
	for _, n := range notifiers {
		status := "sent"
		if err := n.Send("Test Notification", message); err != nil {
			status = err.Error()
		}
		results[notifier.TypeName(n)] = status
	}
	Respond(w, r).JSON(map[string]interface{}{"results": results})
}
