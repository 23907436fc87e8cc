// Package composer implements the constrained text input of a chat
// session: a capped draft, a debounced typing signal and submit gating.
package composer

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultMaxChars bounds the draft length in runes.
	DefaultMaxChars = 75
	// DefaultIdle is how long after the last keystroke typing is considered over.
	DefaultIdle = time.Second
)

// Level is the character counter band.
type Level int

const (
	LevelNormal Level = iota
	LevelWarm         // above 60% of the limit
	LevelHot          // above 80% of the limit
	LevelOver
)

// State is a read-only snapshot for rendering.
type State struct {
	Text      string
	Typing    bool
	CanSubmit bool
	Count     int
	Max       int
	Level     Level
}

// Option configures a Composer.
type Option func(*Composer)

// WithMaxChars sets the draft limit.
func WithMaxChars(n int) Option {
	return func(c *Composer) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// WithIdle sets the typing debounce interval.
func WithIdle(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.idle = d
		}
	}
}

// WithClock replaces the real clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Composer) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithGate installs a predicate that blocks submission while it returns
// true, e.g. while a reply is pending.
func WithGate(busy func() bool) Option {
	return func(c *Composer) { c.busy = busy }
}

// WithIdleHook registers fn to run after each idle transition, outside the
// composer lock.
func WithIdleHook(fn func()) Option {
	return func(c *Composer) { c.onIdle = fn }
}

// Composer owns the draft. It is safe for concurrent use; the idle timer
// fires on its own goroutine.
type Composer struct {
	maxChars int
	idle     time.Duration
	clock    clockwork.Clock
	busy     func() bool
	onIdle   func()

	mu     sync.Mutex
	text   string
	typing bool
	timer  clockwork.Timer
	gen    uint64
	closed bool
}

// New creates an empty composer.
func New(opts ...Option) *Composer {
	c := &Composer{
		maxChars: DefaultMaxChars,
		idle:     DefaultIdle,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxChars returns the draft limit.
func (c *Composer) MaxChars() int { return c.maxChars }

// Keystroke replaces the draft with text capped at the limit and restarts
// the idle timer. It returns the stored draft.
func (c *Composer) Keystroke(text string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.text
	}

	c.text = capRunes(text, c.maxChars)
	c.stopTimerLocked()
	if c.text == "" {
		c.typing = false
		return c.text
	}

	c.typing = true
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.idle, func() { c.expire(gen) })
	return c.text
}

// expire ends the typing phase unless the timer was superseded.
func (c *Composer) expire(gen uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || !c.typing {
		c.mu.Unlock()
		return
	}
	c.typing = false
	c.timer = nil
	hook := c.onIdle
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
}

// Submit hands off the trimmed draft and clears it. It returns false and
// changes nothing when submission is not allowed.
func (c *Composer) Submit() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || !c.canSubmitLocked() {
		return "", false
	}
	out := strings.TrimSpace(c.text)
	c.text = ""
	c.typing = false
	c.stopTimerLocked()
	return out, true
}

// State returns a snapshot.
func (c *Composer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := utf8.RuneCountInString(c.text)
	return State{
		Text:      c.text,
		Typing:    c.typing,
		CanSubmit: c.canSubmitLocked(),
		Count:     n,
		Max:       c.maxChars,
		Level:     levelFor(n, c.maxChars),
	}
}

// Close cancels the idle timer. Later keystrokes are ignored.
func (c *Composer) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.typing = false
	c.stopTimerLocked()
}

func (c *Composer) canSubmitLocked() bool {
	if strings.TrimSpace(c.text) == "" {
		return false
	}
	if utf8.RuneCountInString(c.text) > c.maxChars {
		return false
	}
	return c.busy == nil || !c.busy()
}

// stopTimerLocked cancels the running timer and invalidates any callback
// already in flight.
func (c *Composer) stopTimerLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func capRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}

func levelFor(count, limit int) Level {
	switch {
	case count > limit:
		return LevelOver
	case count*10 > limit*8:
		return LevelHot
	case count*10 > limit*6:
		return LevelWarm
	default:
		return LevelNormal
	}
}
