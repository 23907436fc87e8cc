package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/linanwx/papo/logger"
	"github.com/linanwx/papo/responder"
	"github.com/linanwx/papo/richtext"
)

const (
	// DefaultFallbackText replaces a reply the responder failed to produce.
	DefaultFallbackText = "Sorry, I couldn't come up with a reply right now. Please try again."
	// DefaultCopyFeedback is how long a copied marker stays visible.
	DefaultCopyFeedback = 2 * time.Second
)

var (
	// ErrEmptyMessage is returned for blank input; nothing is appended.
	ErrEmptyMessage = errors.New("empty message")
	// ErrBusy is returned while a reply is still pending.
	ErrBusy = errors.New("a reply is still pending")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("conversation closed")

	errEmptyReply = errors.New("responder returned an empty reply")
)

// Turn is one user message and its awaited reply.
type Turn struct {
	UserID  int64
	ReplyID int64

	done      chan struct{}
	reply     Message
	err       error
	discarded bool
}

// Done is closed once the reply is resolved or discarded.
func (t *Turn) Done() <-chan struct{} { return t.done }

// Reply returns the appended responder message. It reports false before
// resolution and when the session was torn down first.
func (t *Turn) Reply() (Message, bool) {
	select {
	case <-t.done:
		return t.reply, !t.discarded
	default:
		return Message{}, false
	}
}

// Err returns the responder error that produced a fallback reply.
func (t *Turn) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithClipboard replaces the system clipboard.
func WithClipboard(cb Clipboard) ControllerOption {
	return func(c *Controller) { c.clipboard = cb }
}

// WithClock replaces the real clock.
func WithClock(clock clockwork.Clock) ControllerOption {
	return func(c *Controller) { c.clock = clock }
}

// WithFallbackText sets the text appended when the responder fails.
func WithFallbackText(text string) ControllerOption {
	return func(c *Controller) {
		if strings.TrimSpace(text) != "" {
			c.fallback = text
		}
	}
}

// WithTimeout bounds each responder call; zero disables the bound.
func WithTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.timeout = d }
}

// WithCopyFeedback sets how long the copied marker is kept.
func WithCopyFeedback(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.copyFeedback = d
		}
	}
}

// WithMarkdown renders replies containing Markdown as rich content.
func WithMarkdown(enabled bool) ControllerOption {
	return func(c *Controller) { c.markdown = enabled }
}

// WithObserver registers fn to run after every transcript, pending or copy
// change. It is called without locks held, possibly from other goroutines.
func WithObserver(fn func()) ControllerOption {
	return func(c *Controller) { c.observer = fn }
}

// WithSessionID tags log lines.
func WithSessionID(id string) ControllerOption {
	return func(c *Controller) { c.sessionID = id }
}

// Controller sequences user messages against responder replies. At most
// one reply is in flight; further sends are rejected with ErrBusy.
type Controller struct {
	store        *Store
	client       responder.Client
	clipboard    Clipboard
	clock        clockwork.Clock
	fallback     string
	timeout      time.Duration
	copyFeedback time.Duration
	markdown     bool
	observer     func()
	sessionID    string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	inflight  *Turn
	closed    bool
	copiedID  int64
	copyTimer clockwork.Timer
	copyGen   uint64
}

// NewController creates a controller over store.
func NewController(store *Store, client responder.Client, opts ...ControllerOption) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		store:        store,
		client:       client,
		clipboard:    SystemClipboard{},
		clock:        clockwork.NewRealClock(),
		fallback:     DefaultFallbackText,
		copyFeedback: DefaultCopyFeedback,
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Greet appends a delivered responder message outside any turn, e.g. the
// session greeting.
func (c *Controller) Greet(text string) (Message, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Message{}, ErrClosed
	}
	if c.inflight != nil {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	msg, err := c.store.Append(Message{Content: Plain(text), Sender: SenderResponder, State: StateDelivered})
	c.mu.Unlock()
	if err != nil {
		return Message{}, err
	}
	c.notify()
	return msg, nil
}

// HandleSend appends text as a user message and requests a reply.
func (c *Controller) HandleSend(text string) (*Turn, error) {
	return c.send(text, "composer")
}

// SelectTopic sends a suggested topic. It follows the HandleSend sequence
// without composer validation.
func (c *Controller) SelectTopic(topic string) (*Turn, error) {
	return c.send(topic, "topic")
}

// Busy reports whether a reply is pending.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight != nil
}

func (c *Controller) send(text, origin string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	if c.inflight != nil {
		pending := c.inflight.ReplyID
		c.mu.Unlock()
		logger.Warn("send rejected: reply pending", "sessionID", c.sessionID, "pendingID", pending, "origin", origin)
		return nil, ErrBusy
	}

	user, err := c.store.Append(Message{Content: Plain(text), Sender: SenderUser, State: StateSent})
	must(err, "append user message")
	replyID, err := c.store.Reserve()
	must(err, "reserve reply slot")
	must(c.store.MarkPending(replyID), "mark reply pending")

	turn := &Turn{UserID: user.ID, ReplyID: replyID, done: make(chan struct{})}
	c.inflight = turn
	ctx, cancel := c.callContext()
	c.wg.Add(1)
	c.mu.Unlock()

	logger.Info(
		"message sent",
		"sessionID", c.sessionID,
		"messageID", user.ID,
		"replyID", replyID,
		"origin", origin,
		"chars", len(text),
	)
	c.notify()

	go c.run(ctx, cancel, turn, text)
	return turn, nil
}

func (c *Controller) callContext() (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(c.ctx, c.timeout)
	}
	return context.WithCancel(c.ctx)
}

func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, turn *Turn, prompt string) {
	defer c.wg.Done()
	defer cancel()

	start := c.clock.Now()
	reply, err := c.client.Generate(ctx, prompt)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = errEmptyReply
	}
	c.resolve(turn, reply, err, c.clock.Since(start))
}

func (c *Controller) resolve(turn *Turn, reply string, genErr error, elapsed time.Duration) {
	c.mu.Lock()
	if c.closed {
		c.inflight = nil
		turn.discarded = true
		turn.err = genErr
		c.mu.Unlock()
		close(turn.done)
		logger.Debug("reply discarded after teardown", "sessionID", c.sessionID, "replyID", turn.ReplyID)
		return
	}

	msg := Message{ID: turn.ReplyID, Sender: SenderResponder}
	if genErr != nil {
		msg.Content, msg.State = Plain(c.fallback), StateFailed
	} else {
		msg.Content, msg.State = c.render(reply), StateDelivered
	}
	appended, err := c.store.Append(msg)
	must(err, "append reply")

	turn.reply = appended
	turn.err = genErr
	c.inflight = nil
	c.mu.Unlock()
	close(turn.done)

	if genErr != nil {
		logger.Warn(
			"responder failed, fallback appended",
			"sessionID", c.sessionID,
			"replyID", turn.ReplyID,
			"latencyMs", elapsed.Milliseconds(),
			"err", genErr,
		)
	} else {
		logger.Info(
			"reply delivered",
			"sessionID", c.sessionID,
			"replyID", turn.ReplyID,
			"rich", appended.Content.IsRich(),
			"latencyMs", elapsed.Milliseconds(),
		)
	}
	c.notify()
}

func (c *Controller) render(reply string) Content {
	if !c.markdown || !richtext.HasMarkup(reply) {
		return Plain(reply)
	}
	html, err := richtext.FromMarkdown(reply)
	if err != nil {
		logger.Warn("markdown render failed, keeping plain text", "sessionID", c.sessionID, "err", err)
		return Plain(reply)
	}
	return Rich(html)
}

// CopyMessage writes the plain projection of message id to the clipboard.
// Failures are logged and reported as false; the log is never modified.
func (c *Controller) CopyMessage(id int64) bool {
	msg, ok := c.store.Get(id)
	if !ok {
		logger.Warn("copy: unknown message", "sessionID", c.sessionID, "messageID", id)
		return false
	}
	if err := c.clipboard.WriteAll(msg.Content.PlainText()); err != nil {
		logger.Warn("copy to clipboard failed", "sessionID", c.sessionID, "messageID", id, "err", err)
		return false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return true
	}
	c.copyGen++
	gen := c.copyGen
	if c.copyTimer != nil {
		c.copyTimer.Stop()
	}
	c.copiedID = id
	c.copyTimer = c.clock.AfterFunc(c.copyFeedback, func() { c.clearCopied(gen) })
	c.mu.Unlock()

	logger.Debug("message copied", "sessionID", c.sessionID, "messageID", id)
	c.notify()
	return true
}

func (c *Controller) clearCopied(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.copyGen {
		c.mu.Unlock()
		return
	}
	c.copiedID = 0
	c.copyTimer = nil
	c.mu.Unlock()
	c.notify()
}

// CopiedID returns the message whose copy feedback is showing.
func (c *Controller) CopiedID() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copiedID, c.copiedID != 0
}

// Close tears the controller down: the pending call is cancelled and its
// result discarded, and timers are stopped. It is safe to call twice.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.copyGen++
	if c.copyTimer != nil {
		c.copyTimer.Stop()
		c.copyTimer = nil
	}
	c.copiedID = 0
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

func (c *Controller) notify() {
	if c.observer != nil {
		c.observer()
	}
}

// must panics on store contract violations, which indicate a bug in the
// controller rather than a runtime condition.
func must(err error, op string) {
	if err != nil {
		logger.Error("conversation invariant violated", "op", op, "err", err)
		panic(fmt.Sprintf("conversation: %s: %v", op, err))
	}
}
