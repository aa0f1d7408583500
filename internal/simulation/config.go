package simulation

import (
	"fmt"
	"log"
	"time"

	"github.com/Felipelussi/paxos/internal/event"
)

// DefaultMessageDelay matches the delay of the original interactive
// simulation.
const DefaultMessageDelay = 100 * time.Millisecond

// Config controls a Simulation. The zero value is usable: no message delay,
// self-delivery on, the default retry policy, no events.
type Config struct {
	// MessageDelay is applied to every delivery.
	MessageDelay time.Duration
	// MessageJitter adds a random extra delay in [0, MessageJitter).
	MessageJitter time.Duration
	// ExcludeSelf stops broadcasts from reaching the sending node, so a
	// proposer's own acceptor does not count toward its quorum.
	ExcludeSelf bool
	// RunTimeout bounds Run. Zero derives it from the delay and retry policy.
	RunTimeout time.Duration
	Retry      RetryPolicy

	Sink   event.Sink
	Logger *log.Logger
	Clock  func() time.Time
}

func DefaultConfig() Config {
	return Config{MessageDelay: DefaultMessageDelay}
}

// Validate rejects negative durations and attempt counts.
func (c Config) Validate() error {
	switch {
	case c.MessageDelay < 0:
		return fmt.Errorf("%w: negative message delay %v", ErrInvalidConfig, c.MessageDelay)
	case c.MessageJitter < 0:
		return fmt.Errorf("%w: negative message jitter %v", ErrInvalidConfig, c.MessageJitter)
	case c.RunTimeout < 0:
		return fmt.Errorf("%w: negative run timeout %v", ErrInvalidConfig, c.RunTimeout)
	}
	return c.Retry.validate()
}

func (c Config) withDefaults() Config {
	if c.Sink == nil {
		c.Sink = event.Discard
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	return c
}

// runTimeout returns the bound for one Run under delay d. It always
// dominates the time every attempt plus every backoff could take.
func (c Config) runTimeout(p RetryPolicy, d time.Duration) time.Duration {
	if c.RunTimeout > 0 {
		return c.RunTimeout
	}
	perAttempt := p.AttemptTimeout + p.MaxBackoff
	return time.Duration(p.MaxAttempts)*perAttempt + 4*(d+c.MessageJitter) + 100*time.Millisecond
}
