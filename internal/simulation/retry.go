package simulation

import (
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy decides what a proposal does when its node has not learned a
// value in time, typically because a competing proposal with a higher id
// pre-empted it.
//
// Each attempt proposes under a fresh, higher id and waits up to
// AttemptTimeout for the node to learn. Between attempts the driver sleeps
// for an exponentially growing, jittered backoff. After MaxAttempts the
// proposal is abandoned, which is a normal outcome and not an error.
type RetryPolicy struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	BaseBackoff    time.Duration
	MaxBackoff     time.Duration
}

const defaultMaxAttempts = 5

func (p RetryPolicy) validate() error {
	if p.MaxAttempts < 0 || p.AttemptTimeout < 0 || p.BaseBackoff < 0 || p.MaxBackoff < 0 {
		return fmt.Errorf("%w: negative retry setting %+v", ErrInvalidConfig, p)
	}
	if p.MaxBackoff > 0 && p.BaseBackoff > p.MaxBackoff {
		return fmt.Errorf("%w: base backoff %v above max %v", ErrInvalidConfig, p.BaseBackoff, p.MaxBackoff)
	}
	return nil
}

// resolve fills zero fields from the message delay. One uncontended attempt
// needs four deliveries (Prepare, Promise, Accept, Accepted).
func (p RetryPolicy) resolve(delay, jitter time.Duration) RetryPolicy {
	hop := delay + jitter
	if p.MaxAttempts == 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.AttemptTimeout == 0 {
		p.AttemptTimeout = 8*hop + 20*time.Millisecond
	}
	if p.BaseBackoff == 0 {
		p.BaseBackoff = 2*hop + 5*time.Millisecond
	}
	if p.MaxBackoff == 0 {
		p.MaxBackoff = 16 * p.BaseBackoff
	}
	return p
}

// Backoff returns how long to wait before attempt (2, 3, ...). The result is
// in [ceiling/2, ceiling] where ceiling doubles per attempt up to MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	ceiling := p.ceiling(attempt)
	if ceiling <= 1 {
		return ceiling
	}
	half := ceiling / 2
	return half + time.Duration(rand.Int63n(int64(ceiling-half)+1))
}

func (p RetryPolicy) ceiling(attempt int) time.Duration {
	d := p.BaseBackoff
	for i := 2; i < attempt && d < p.MaxBackoff; i++ {
		d *= 2
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}
