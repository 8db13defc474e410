package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/smtp"
	"songstory-api-go/logcolors"
	"time"

	log "github.com/sirupsen/logrus"
)

const sendTimeout = 10 * time.Second

// Notifier delivers one alert
type Notifier interface {
	Send(subject, message string) error
}

// =============================================================================
// EMAIL NOTIFIER
// =============================================================================

type EmailNotifier struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	ToEmail      string
}

func (e *EmailNotifier) Send(subject, message string) error {
	auth := smtp.PlainAuth("", e.SMTPUsername, e.SMTPPassword, e.SMTPHost)
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		e.FromEmail, e.ToEmail, subject, message))

	if err := smtp.SendMail(e.SMTPHost+":"+e.SMTPPort, auth, e.FromEmail, []string{e.ToEmail}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Infof("%s Email notification sent to %s", logcolors.LogNotifier, e.ToEmail)
	return nil
}

// =============================================================================
// TELEGRAM NOTIFIER
// =============================================================================

// TelegramNotifier posts to a chat through the Bot API. APIBase defaults to
// https://api.telegram.org.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	APIBase  string
}

func (t *TelegramNotifier) Send(subject, message string) error {
	base := t.APIBase
	if base == "" {
		base = "https://api.telegram.org"
	}

	body, err := json.Marshal(map[string]interface{}{
		"chat_id":    t.ChatID,
		"text":       fmt.Sprintf("*%s*\n\n%s", subject, message),
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram payload: %w", err)
	}

	client := &http.Client{Timeout: sendTimeout}
	resp, err := client.Post(fmt.Sprintf("%s/bot%s/sendMessage", base, t.BotToken), "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	log.Infof("%s Telegram notification sent to chat %s", logcolors.LogNotifier, t.ChatID)
	return nil
}

// =============================================================================
// NTFY.SH NOTIFIER
// =============================================================================

type NtfyNotifier struct {
	Topic  string
	Server string // default https://ntfy.sh
}

func (n *NtfyNotifier) Send(subject, message string) error {
	server := n.Server
	if server == "" {
		server = "https://ntfy.sh"
	}

	req, err := http.NewRequest(http.MethodPost, server+"/"+n.Topic, bytes.NewBufferString(message))
	if err != nil {
		return fmt.Errorf("failed to create ntfy request: %w", err)
	}
	req.Header.Set("Title", subject)
	req.Header.Set("Priority", "high")
	req.Header.Set("Tags", "warning")

	client := &http.Client{Timeout: sendTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy returned status %d", resp.StatusCode)
	}

	log.Infof("%s Ntfy notification sent to topic %s", logcolors.LogNotifier, n.Topic)
	return nil
}

// TypeName names a notifier for logs and the test endpoint
func TypeName(n Notifier) string {
	switch n.(type) {
	case *EmailNotifier:
		return "email"
	case *TelegramNotifier:
		return "telegram"
	case *NtfyNotifier:
		return "ntfy"
	default:
		return "unknown"
	}
}
