package story

import (
	"errors"
	"fmt"
)

// Credentials identify the Spark application. They are read once per
// generation call so rotated keys take effect without a restart.
type Credentials struct {
	AppID       string
	APIKey      string
	APISecret   string
	EndpointURL string
	Domain      string
}

// Request envelope

type Request struct {
	Header    RequestHeader  `json:"header"`
	Parameter Parameter      `json:"parameter"`
	Payload   RequestPayload `json:"payload"`
}

type RequestHeader struct {
	AppID string `json:"app_id"`
	UID   string `json:"uid"`
}

type Parameter struct {
	Chat ChatParameter `json:"chat"`
}

type ChatParameter struct {
	Domain      string  `json:"domain"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Auditing    string  `json:"auditing"`
}

type RequestPayload struct {
	Message Message `json:"message"`
}

type Message struct {
	Text []Text `json:"text"`
}

type Text struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content"`
	Index   int    `json:"index,omitempty"`
}

// Response frames

// StatusFinal marks the last frame of a streamed answer
const StatusFinal = 2

type Response struct {
	Header  ResponseHeader   `json:"header"`
	Payload *ResponsePayload `json:"payload,omitempty"`
}

type ResponseHeader struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	SID     string `json:"sid"`
	Status  int    `json:"status"`
}

type ResponsePayload struct {
	Choices Choices `json:"choices"`
}

type Choices struct {
	Status int    `json:"status"`
	Seq    int    `json:"seq"`
	Text   []Text `json:"text"`
}

// Content returns the first text fragment, or "" when the frame has none
func (r *Response) Content() string {
	if r.Payload == nil || len(r.Payload.Choices.Text) == 0 {
		return ""
	}
	return r.Payload.Choices.Text[0].Content
}

// Final reports whether this frame ends the answer
func (r *Response) Final() bool {
	return r.Payload != nil && r.Payload.Choices.Status == StatusFinal
}

var (
	// ErrEmptyResult is returned (wrapped) when the session ended without text
	ErrEmptyResult = errors.New("empty")

	// ErrNoKeywords is returned when Generate is called without keywords
	ErrNoKeywords = errors.New("no keywords")
)

// RemoteError is a frame with a non-zero header code
type RemoteError struct {
	Code    int
	Message string
	SID     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error %d: %s (sid=%s)", e.Code, e.Message, e.SID)
}

// GenerationError is the only error Generate returns. Cause is a short
// human-readable description used by callers in placeholder text.
type GenerationError struct {
	Cause string
	Err   error
}

func (e *GenerationError) Error() string {
	return "story generation failed: " + e.Cause
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

func newGenerationError(err error) *GenerationError {
	return &GenerationError{Cause: err.Error(), Err: err}
}
