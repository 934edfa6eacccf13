// Package memoir - session.go provides the Session struct for per-conversation
// state, along with methods for submitting user messages and consuming
// streamed responses.

package memoir

import (
	"context"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// NewSessionID mints a short unique session identifier. The ID is the whole
// identity of a session's memory: reuse it and the history comes back, lose
// it and the history is unreachable.
func NewSessionID() string {
	id, err := gonanoid.New()
	if err != nil {
		panic(err)
	}
	return id
}

// Session holds ephemeral conversation state & references to shared resources.
// In submits a user message; Out blocks for the next response. The run loop
// feeds each message through the Conversation, so every exchange is persisted
// before the next one starts.
type Session struct {
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	id string

	inUserChannel  chan string
	outUserChannel chan Response

	conversation *Conversation

	logger *slog.Logger
}

// NewSession constructs a session bound to a conversation, with isolated
// state. An empty sessionID mints a fresh one, which is how a session with no
// memory begins.
func NewSession(ctx context.Context, conversation *Conversation, sessionID string) *Session {
	if sessionID == "" {
		sessionID = NewSessionID()
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ctx:       ctx,
		cancel:    cancel,
		closeOnce: sync.Once{},

		id: sessionID,

		inUserChannel:  make(chan string),
		outUserChannel: make(chan Response),

		conversation: conversation,

		logger: slog.Default(),
	}
	go s.run()
	return s
}

func (s *Session) ID() string {
	return s.id
}

// In submits a user message to the session. After Close it reports
// ErrSessionClosed instead of blocking.
func (s *Session) In(userMessage string) error {
	// The run loop may not have observed the cancellation yet, so check
	// before racing the send against its receive.
	select {
	case <-s.ctx.Done():
		return ErrSessionClosed
	default:
	}
	select {
	case s.inUserChannel <- userMessage:
		return nil
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// Out retrieves the next response from the output channel, blocking until a
// response is available. After Close, Out returns the zero Response.
func (s *Session) Out() Response {
	response := <-s.outUserChannel
	return response
}

// Close ends the session lifecycle. The stored history is untouched; only
// the in-process state goes away, which is exactly the split between a
// session and its memory.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
	})
}

// run is the main loop for the session. It pumps user messages through the
// conversation until the context ends. The output channel is closed here,
// by its only sender.
func (s *Session) run() {
	s.logger.Info("session started", "sessionID", s.id)
	defer close(s.outUserChannel)

	for {
		select {
		case <-s.ctx.Done():
			return
		case userMessage, ok := <-s.inUserChannel:
			if !ok {
				return
			}

			stream, err := s.conversation.AskStream(s.ctx, s.id, userMessage)
			if err != nil {
				s.logger.Error("failed to start answer", "sessionID", s.id, "error", err)
				// An error response is terminal, same as the stream's own.
				s.outUserChannel <- Response{Content: err.Error(), Type: ResponseTypeError}
				continue
			}

			// The stream terminates with an end or error response of its own.
			for response := range stream {
				s.outUserChannel <- response
			}
		}
	}
}
