package story

import "strings"

// Session accumulates one generation call. It is owned by the goroutine
// waiting in Generate; the socket reader only sends it events.
type Session struct {
	text      strings.Builder
	completed bool
	err       error
}

// Append adds a streamed fragment
func (s *Session) Append(content string) {
	s.text.WriteString(content)
}

// Fail records the first error; later errors are dropped
func (s *Session) Fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Complete marks the session finished, whether or not it succeeded
func (s *Session) Complete() {
	s.completed = true
}

func (s *Session) Completed() bool {
	return s.completed
}

func (s *Session) Text() string {
	return s.text.String()
}

// Result resolves the session: a recorded error wins, then empty text,
// otherwise the accumulated text.
func (s *Session) Result() (string, error) {
	if s.err != nil {
		return "", newGenerationError(s.err)
	}
	if s.text.Len() == 0 {
		return "", &GenerationError{Cause: ErrEmptyResult.Error(), Err: ErrEmptyResult}
	}
	return s.text.String(), nil
}
