package simulation

import (
	"testing"
	"time"
)

func TestRetryResolveDefaults(t *testing.T) {
	p := RetryPolicy{}.resolve(10*time.Millisecond, 0)
	if p.MaxAttempts != defaultMaxAttempts {
		t.Fatalf("MaxAttempts = %d", p.MaxAttempts)
	}
	if p.AttemptTimeout <= 4*10*time.Millisecond {
		t.Fatalf("AttemptTimeout %v does not cover four hops", p.AttemptTimeout)
	}
	if p.MaxBackoff < p.BaseBackoff {
		t.Fatalf("MaxBackoff %v below BaseBackoff %v", p.MaxBackoff, p.BaseBackoff)
	}

	explicit := RetryPolicy{MaxAttempts: 2, AttemptTimeout: time.Second}.resolve(time.Millisecond, 0)
	if explicit.MaxAttempts != 2 || explicit.AttemptTimeout != time.Second {
		t.Fatalf("explicit values overwritten: %+v", explicit)
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	p := RetryPolicy{BaseBackoff: 10 * time.Millisecond, MaxBackoff: 40 * time.Millisecond}
	tests := []struct {
		attempt int
		ceiling time.Duration
	}{
		{2, 10 * time.Millisecond},
		{3, 20 * time.Millisecond},
		{4, 40 * time.Millisecond},
		{9, 40 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := p.ceiling(tt.attempt); got != tt.ceiling {
			t.Fatalf("ceiling(%d) = %v, want %v", tt.attempt, got, tt.ceiling)
		}
		for i := 0; i < 50; i++ {
			d := p.Backoff(tt.attempt)
			if d < tt.ceiling/2 || d > tt.ceiling {
				t.Fatalf("Backoff(%d) = %v, want within [%v, %v]", tt.attempt, d, tt.ceiling/2, tt.ceiling)
			}
		}
	}
}

func TestRunTimeoutDominatesAttempts(t *testing.T) {
	cfg := Config{MessageDelay: 50 * time.Millisecond}
	p := cfg.Retry.resolve(cfg.MessageDelay, 0)
	if got := cfg.runTimeout(p, cfg.MessageDelay); got < time.Duration(p.MaxAttempts)*p.AttemptTimeout {
		t.Fatalf("run timeout %v shorter than %d attempts of %v", got, p.MaxAttempts, p.AttemptTimeout)
	}
	cfg.RunTimeout = time.Second
	if got := cfg.runTimeout(p, cfg.MessageDelay); got != time.Second {
		t.Fatalf("explicit RunTimeout ignored: %v", got)
	}
}
