package responder

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDelay is the artificial latency of the simulated responder.
const DefaultDelay = time.Second

// DefaultPhrases are the canned replies of the simulated responder.
var DefaultPhrases = []string{
	"Got it! 🤔 Let me see what I can do...",
	"Sure! 👍 I'll look for the best answer for you.",
	"On my way! 🚀 Already gathering relevant information.",
	"Interesting! ✨ I'll do my best to help!",
}

func init() {
	Register("simulated", Registration{
		Constructor: func(s Settings) (Client, error) {
			return NewSimulated(s.Delay, s.Phrases, s.Clock), nil
		},
	})
}

// Simulated replies with a random canned phrase after a fixed delay.
type Simulated struct {
	delay   time.Duration
	phrases []string
	clock   clockwork.Clock
	pick    func(n int) int
}

// NewSimulated creates a simulated responder. Zero values select the
// defaults.
func NewSimulated(delay time.Duration, phrases []string, clock clockwork.Clock) *Simulated {
	if delay <= 0 {
		delay = DefaultDelay
	}
	if len(phrases) == 0 {
		phrases = DefaultPhrases
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Simulated{
		delay:   delay,
		phrases: append([]string(nil), phrases...),
		clock:   clock,
		pick:    rand.IntN,
	}
}

// Phrases returns the phrase set.
func (s *Simulated) Phrases() []string {
	return append([]string(nil), s.phrases...)
}

// Generate waits for the delay and returns a phrase. It only fails when ctx
// is cancelled first.
func (s *Simulated) Generate(ctx context.Context, _ string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.clock.After(s.delay):
	}
	return s.phrases[s.pick(len(s.phrases))], nil
}
