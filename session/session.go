// Package session wires one chat session: the transcript, the composer and
// the controller behind the four input events the UI forwards.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/linanwx/papo/composer"
	"github.com/linanwx/papo/conversation"
	"github.com/linanwx/papo/identity"
	"github.com/linanwx/papo/logger"
	"github.com/linanwx/papo/responder"
)

// ErrRejected is returned by Submit when the composer refuses the draft.
var ErrRejected = errors.New("draft cannot be submitted")

// Options configures a Session. Zero values select the package defaults.
type Options struct {
	Identity identity.Identity
	Client   responder.Client

	MaxChars     int
	TypingIdle   time.Duration
	CopyFeedback time.Duration
	Timeout      time.Duration
	FallbackText string
	Greeting     bool
	Markdown     bool
	Topics       []string

	Clock     clockwork.Clock
	Clipboard conversation.Clipboard

	// OnChange runs after any state change, possibly off the caller's
	// goroutine.
	OnChange func()
}

// Snapshot is a read-only view for rendering.
type Snapshot struct {
	ID       string
	Identity identity.Identity
	Messages []conversation.Message
	Pending  *conversation.Placeholder
	Composer composer.State
	CopiedID int64
	Topics   []string
}

// Busy reports whether a reply is pending.
func (s Snapshot) Busy() bool { return s.Pending != nil }

// Session is a single ephemeral conversation.
type Session struct {
	id       string
	identity identity.Identity
	topics   []string

	store      *conversation.Store
	composer   *composer.Composer
	controller *conversation.Controller
}

// New builds a session and seeds the greeting when enabled.
func New(opts Options) (*Session, error) {
	if opts.Client == nil {
		return nil, errors.New("session: responder client is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	onChange := opts.OnChange
	if onChange == nil {
		onChange = func() {}
	}

	s := &Session{
		id:       uuid.NewString(),
		identity: opts.Identity.Normalize(),
		topics:   append([]string(nil), opts.Topics...),
		store:    conversation.NewStore(),
	}

	ctrlOpts := []conversation.ControllerOption{
		conversation.WithClock(clock),
		conversation.WithTimeout(opts.Timeout),
		conversation.WithCopyFeedback(opts.CopyFeedback),
		conversation.WithFallbackText(opts.FallbackText),
		conversation.WithMarkdown(opts.Markdown),
		conversation.WithObserver(onChange),
		conversation.WithSessionID(s.id),
	}
	if opts.Clipboard != nil {
		ctrlOpts = append(ctrlOpts, conversation.WithClipboard(opts.Clipboard))
	}
	s.controller = conversation.NewController(s.store, opts.Client, ctrlOpts...)
	s.composer = composer.New(
		composer.WithMaxChars(opts.MaxChars),
		composer.WithIdle(opts.TypingIdle),
		composer.WithClock(clock),
		composer.WithGate(s.controller.Busy),
		composer.WithIdleHook(onChange),
	)

	if opts.Greeting {
		if _, err := s.controller.Greet(identity.Welcome(s.identity.FirstName())); err != nil {
			s.Close()
			return nil, fmt.Errorf("seed greeting: %w", err)
		}
	}

	logger.Info("session started", "sessionID", s.id, "user", s.identity.Name, "greeting", opts.Greeting)
	return s, nil
}

// ID returns the session id used in logs.
func (s *Session) ID() string { return s.id }

// Identity returns the session user.
func (s *Session) Identity() identity.Identity { return s.identity }

// Topics returns the suggested conversation starters.
func (s *Session) Topics() []string {
	return append([]string(nil), s.topics...)
}

// Keystroke forwards the full input text and returns the stored draft.
func (s *Session) Keystroke(text string) string {
	return s.composer.Keystroke(text)
}

// Submit sends the draft.
func (s *Session) Submit() (*conversation.Turn, error) {
	text, ok := s.composer.Submit()
	if !ok {
		return nil, ErrRejected
	}
	return s.controller.HandleSend(text)
}

// SelectTopic sends topic i.
func (s *Session) SelectTopic(i int) (*conversation.Turn, error) {
	if i < 0 || i >= len(s.topics) {
		return nil, fmt.Errorf("topic %d out of range [0,%d)", i, len(s.topics))
	}
	return s.controller.SelectTopic(s.topics[i])
}

// Copy copies message id to the clipboard.
func (s *Session) Copy(id int64) bool {
	return s.controller.CopyMessage(id)
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	messages, pending := s.store.View()
	snap := Snapshot{
		ID:       s.id,
		Identity: s.identity,
		Messages: messages,
		Pending:  pending,
		Composer: s.composer.State(),
		Topics:   s.Topics(),
	}
	if id, ok := s.controller.CopiedID(); ok {
		snap.CopiedID = id
	}
	return snap
}

// Close stops timers and discards any pending reply.
func (s *Session) Close() {
	s.composer.Close()
	s.controller.Close()
	logger.Info("session closed", "sessionID", s.id, "messages", s.store.Len())
}
