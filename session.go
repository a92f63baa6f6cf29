// Package avgchat implements a streaming chat session with multi-modal
// attachment ingestion against the AVG assistant services.
package avgchat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/avg-assist/avgchat/pkg/attach"
	"github.com/avg-assist/avgchat/pkg/remote"
)

// State is the session lifecycle. A send moves Idle through
// AwaitingFirstToken and Streaming; the terminal outcome is reported on the
// final Update and the session is back at Idle before another send is
// accepted.
type State int

const (
	StateIdle State = iota
	StateAwaitingFirstToken
	StateStreaming
	StateCompleted
	StateAborted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstToken:
		return "awaiting-first-token"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Update is one observable step of a generation. Delta carries a token
// fragment; terminal updates carry the final text (the full answer, the
// partial answer on abort, or the user-visible error text) and close the
// channel.
type Update struct {
	State State
	Delta string
	Final string
	Err   error
}

// Streamer opens the chat-stream connection. Satisfied by *remote.Client.
type Streamer interface {
	StreamChat(ctx context.Context, req remote.ChatRequest) (<-chan remote.Frame, error)
}

var (
	// ErrBusy rejects a send while a generation is active.
	ErrBusy = errors.New("a generation is already in progress")
	// ErrNothingToSend rejects an empty draft with no selected attachments.
	ErrNothingToSend = errors.New("nothing to send")
	// ErrAudioPending rejects a send while an audio transcription is
	// still in flight for the message being composed.
	ErrAudioPending = errors.New("audio transcription still in progress")
)

// abortedNotice is shown when the user cancels before any token arrived.
const abortedNotice = "Analysis stopped by user."

// errorPrefix distinguishes failure text from a normal answer in the
// response rendering path.
const errorPrefix = "Error: "

// Session owns one request lifecycle at a time: the draft, the attachment
// store, the model configuration, and the streaming state machine. It is
// created once and lives for the program's lifetime.
type Session struct {
	store    *attach.Store
	ingestor *attach.Ingestor
	model    *ModelConfig
	streamer Streamer
	logger   *slog.Logger

	mu      sync.Mutex
	state   State
	draft   string
	buf     strings.Builder // token accumulator; written only by the stream goroutine
	last    string          // last completed (or partial) response, or error text
	lastErr error
	cancel  context.CancelFunc
}

func NewSession(store *attach.Store, ingestor *attach.Ingestor, model *ModelConfig, streamer Streamer, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		store:    store,
		ingestor: ingestor,
		model:    model,
		streamer: streamer,
		logger:   logger,
		state:    StateIdle,
	}
}

func (s *Session) Store() *attach.Store { return s.store }

func (s *Session) Ingestor() *attach.Ingestor { return s.ingestor }

func (s *Session) ModelConfig() *ModelConfig { return s.model }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns the current draft text.
func (s *Session) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

func (s *Session) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

// Append adds text to the draft verbatim.
func (s *Session) Append(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft += text
}

// AppendBlock adds text preceded by a blank line when the draft already has
// content.
func (s *Session) AppendBlock(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft != "" {
		s.draft += "\n\n"
	}
	s.draft += text
}

// LastResponse returns the most recent final text: the completed answer,
// the partial answer after an abort, or the prefixed error message.
func (s *Session) LastResponse() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Current returns a snapshot of the accumulated partial answer. The
// accumulator itself is owned by the stream goroutine; UI layers only ever
// read snapshots.
func (s *Session) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Send composes the outbound payload and opens the stream. It is only
// legal at Idle, with no audio ingestion in flight, and with either draft
// text or at least one selected attachment. The returned channel yields
// token updates and exactly one terminal update, after which the session is
// Idle again.
func (s *Session) Send(ctx context.Context) (<-chan Update, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.ingestor != nil && s.ingestor.AudioInFlight() > 0 {
		s.mu.Unlock()
		return nil, ErrAudioPending
	}
	selected := s.store.Selected()
	if strings.TrimSpace(s.draft) == "" && len(selected) == 0 {
		s.mu.Unlock()
		return nil, ErrNothingToSend
	}

	req := composeRequest(s.draft, selected, s.model.Model(), s.model.EffectiveGrounding())

	streamCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateAwaitingFirstToken
	s.buf.Reset()
	s.last = ""
	s.lastErr = nil
	s.mu.Unlock()

	frames, err := s.streamer.StreamChat(streamCtx, req)
	if err != nil {
		cancel()
		s.mu.Lock()
		s.state = StateIdle
		s.cancel = nil
		s.lastErr = err
		s.last = errorPrefix + err.Error()
		s.mu.Unlock()
		return nil, err
	}

	updates := make(chan Update, 16)
	go s.consume(frames, updates)
	return updates, nil
}

// Abort requests cancellation of the in-flight generation. The partial
// buffer is preserved and becomes the final response.
func (s *Session) Abort() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// consume drains the frame stream, maintaining the accumulator and the
// state machine. It is the accumulator's only writer.
func (s *Session) consume(frames <-chan remote.Frame, updates chan<- Update) {
	defer close(updates)
	for frame := range frames {
		switch {
		case frame.Err != nil:
			if errors.Is(frame.Err, context.Canceled) {
				s.finish(StateAborted, s.abortText(), nil, updates)
			} else {
				s.logger.Error("generation failed", "error", frame.Err)
				s.finish(StateFailed, errorPrefix+frame.Err.Error(), frame.Err, updates)
			}
			return
		case frame.Done:
			s.mu.Lock()
			final := s.buf.String()
			s.mu.Unlock()
			s.finish(StateCompleted, final, nil, updates)
			return
		case frame.Token != "":
			s.mu.Lock()
			if s.state == StateAwaitingFirstToken {
				s.state = StateStreaming
			}
			s.buf.WriteString(frame.Token)
			s.mu.Unlock()
			updates <- Update{State: StateStreaming, Delta: frame.Token}
		}
	}
	// The frame channel closed without a terminal frame.
	err := fmt.Errorf("%w: stream ended unexpectedly", remote.ErrStream)
	s.finish(StateFailed, errorPrefix+err.Error(), err, updates)
}

// abortText is the partial answer, or a fixed notice when nothing arrived.
func (s *Session) abortText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf.Len() == 0 {
		return abortedNotice
	}
	return s.buf.String()
}

func (s *Session) finish(outcome State, final string, err error, updates chan<- Update) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.last = final
	s.lastErr = err
	s.state = StateIdle
	s.mu.Unlock()
	updates <- Update{State: outcome, Final: final, Err: err}
}
