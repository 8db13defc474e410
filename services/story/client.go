// Package story generates a short story from lyric keywords through the
// iFlytek Spark streaming chat API.
package story

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"songstory-api-go/logcolors"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultTimeout bounds the whole generation call
	DefaultTimeout = 60 * time.Second

	// DefaultUID is sent in every request header
	DefaultUID = "12345"

	temperature = 0.8
	maxTokens   = 2048
	auditing    = "default"

	promptTemplate = "请使用以下关键词创作一个有创意的短篇故事：%s。故事应该包含所有这些关键词，并且要有一个有趣的情节和角色。故事长度控制在800-1200字。"
)

// Config holds story client configuration
type Config struct {
	// Credentials is called once per Generate call
	Credentials func() Credentials

	UID     string
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate checks on the wss connection
	InsecureSkipVerify bool
}

// Client talks to the Spark websocket endpoint. It holds no per-call state,
// so one Client serves concurrent Generate calls.
type Client struct {
	cfg    Config
	dialer *websocket.Dialer
	now    func() time.Time
}

// NewClient creates a story client, filling in defaults for zero values
func NewClient(cfg Config) *Client {
	if cfg.UID == "" {
		cfg.UID = DefaultUID
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		cfg: cfg,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 15 * time.Second,
			TLSClientConfig:  &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
		},
		now: time.Now,
	}
}

// BuildPrompt renders the story prompt for the given keywords
func BuildPrompt(keywords []string) string {
	return fmt.Sprintf(promptTemplate, strings.Join(keywords, ", "))
}

// BuildRequest renders the single request envelope sent on the socket
func BuildRequest(creds Credentials, uid, prompt string) Request {
	return Request{
		Header: RequestHeader{AppID: creds.AppID, UID: uid},
		Parameter: Parameter{Chat: ChatParameter{
			Domain:      creds.Domain,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Auditing:    auditing,
		}},
		Payload: RequestPayload{Message: Message{
			Text: []Text{{Role: "user", Content: prompt}},
		}},
	}
}

// event is what the reader goroutine reports for each socket read
type event struct {
	resp   *Response
	closed bool
	err    error
}

// Generate sends one prompt and returns the reassembled streamed answer.
// Every failure is a *GenerationError. Hitting the deadline is not an
// error by itself: the socket is closed and any partial text is returned.
func (c *Client) Generate(ctx context.Context, keywords []string) (string, error) {
	if len(keywords) == 0 {
		return "", newGenerationError(ErrNoKeywords)
	}

	var creds Credentials
	if c.cfg.Credentials != nil {
		creds = c.cfg.Credentials()
	}

	signed, err := SignURL(creds.EndpointURL, creds.APIKey, creds.APISecret, c.now())
	if err != nil {
		return "", newGenerationError(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	log.Infof("%s Generating story with keywords: %v", logcolors.LogStory, keywords)

	conn, _, err := c.dialer.DialContext(ctx, signed, nil)
	if err != nil {
		log.Errorf("%s Connect to %s failed: %v", logcolors.LogStory, creds.EndpointURL, err)
		return "", newGenerationError(fmt.Errorf("connect: %w", err))
	}
	defer conn.Close()

	req := BuildRequest(creds, c.cfg.UID, BuildPrompt(keywords))
	if err := conn.WriteJSON(req); err != nil {
		return "", newGenerationError(fmt.Errorf("send request: %w", err))
	}

	done := make(chan struct{})
	defer close(done)
	events := make(chan event)
	go readFrames(conn, events, done)

	session := &Session{}
	for !session.Completed() {
		select {
		case ev, ok := <-events:
			if !ok {
				session.Complete()
				continue
			}
			c.handle(conn, session, ev)
		case <-ctx.Done():
			log.Warnf("%s Deadline reached after %d chars, closing connection", logcolors.LogStory, len(session.Text()))
			conn.Close()
			session.Complete()
		}
	}

	text, err := session.Result()
	if err != nil {
		log.Errorf("%s %v", logcolors.LogStory, err)
		return "", err
	}
	log.Infof("%s Story generation completed (%d chars)", logcolors.LogStory, len(text))
	return text, nil
}

// handle applies one reader event to the session
func (c *Client) handle(conn *websocket.Conn, session *Session, ev event) {
	switch {
	case ev.err != nil:
		session.Fail(ev.err)
		session.Complete()
	case ev.closed:
		log.Debugf("%s Connection closed by server", logcolors.LogStory)
		session.Complete()
	case ev.resp.Header.Code != 0:
		session.Fail(&RemoteError{Code: ev.resp.Header.Code, Message: ev.resp.Header.Message, SID: ev.resp.Header.SID})
		closeConn(conn)
		session.Complete()
	default:
		content := ev.resp.Content()
		session.Append(content)
		log.Debugf("%s Received %d chars", logcolors.LogStory, len(content))
		if ev.resp.Final() {
			closeConn(conn)
			session.Complete()
		}
	}
}

// readFrames decodes frames until the socket ends. It stops sending once
// done is closed, so an abandoned reader never blocks.
func readFrames(conn *websocket.Conn, events chan<- event, done <-chan struct{}) {
	defer close(events)
	send := func(ev event) bool {
		select {
		case events <- ev:
			return true
		case <-done:
			return false
		}
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code != websocket.CloseAbnormalClosure {
				send(event{closed: true})
			} else {
				send(event{err: fmt.Errorf("read: %w", err)})
			}
			return
		}

		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			send(event{err: fmt.Errorf("invalid frame: %w", err)})
			return
		}
		if !send(event{resp: &resp}) {
			return
		}
	}
}

// closeConn sends a normal close frame; the deferred Close drops the socket
func closeConn(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
