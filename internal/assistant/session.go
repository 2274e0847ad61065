package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"caixinha/internal/core"
)

// Greeting opens every conversation.
const Greeting = "Olá! Como posso ajudar com a gestão da sua caixinha hoje?"

var (
	ErrBusy          = errors.New("assistant is busy with a previous question")
	ErrEmptyQuestion = errors.New("empty question")
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// ChatMessage is one entry of the conversation. Loading marks the
// placeholder shown while the assistant reply is outstanding.
type ChatMessage struct {
	Sender  Sender `json:"sender"`
	Text    string `json:"text"`
	Loading bool   `json:"loading,omitempty"`
}

// Session is a chat conversation that processes one question at a time.
// The semaphore slot and the busy flag change together under mu.
type Session struct {
	assistant *Assistant
	inflight  *semaphore.Weighted

	mu       sync.Mutex
	busy     bool
	messages []ChatMessage
}

func NewSession(a *Assistant) *Session {
	return &Session{
		assistant: a,
		inflight:  semaphore.NewWeighted(1),
		messages:  []ChatMessage{{Sender: SenderAssistant, Text: Greeting}},
	}
}

// Busy reports whether a question is awaiting its answer.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Submit asks question against r and appends both sides of the exchange.
// It returns ErrBusy without contacting the service while another question
// is in flight.
func (s *Session) Submit(ctx context.Context, question string, r core.Roster) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	s.mu.Lock()
	if !s.inflight.TryAcquire(1) {
		s.mu.Unlock()
		return "", ErrBusy
	}
	s.busy = true
	s.messages = append(s.messages,
		ChatMessage{Sender: SenderUser, Text: question},
		ChatMessage{Sender: SenderAssistant, Loading: true},
	)
	placeholder := len(s.messages) - 1
	s.mu.Unlock()

	// a panicking generator still settles the placeholder and frees the slot
	answer := MsgConnectionError
	defer func() {
		s.mu.Lock()
		s.messages[placeholder] = ChatMessage{Sender: SenderAssistant, Text: answer}
		s.busy = false
		s.inflight.Release(1)
		s.mu.Unlock()
	}()

	answer = s.assistant.Ask(ctx, question, r)
	return answer, nil
}

// Messages returns a copy of the conversation so far.
func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}
