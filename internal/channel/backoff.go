package channel

import "time"

const (
	// DefaultBackoffBase is the delay before the first reconnect attempt
	DefaultBackoffBase = 1000 * time.Millisecond
	// DefaultBackoffMax caps the reconnect delay
	DefaultBackoffMax = 30000 * time.Millisecond

	maxShift = 30
)

// Backoff computes exponential reconnect delays: base doubled per
// attempt, capped at max. The attempt counter is incremented after the
// delay for the current attempt is computed, and reset only on a
// successful connection.
type Backoff struct {
	base    time.Duration
	max     time.Duration
	attempt int
}

// NewBackoff creates a policy with the given bounds. Non-positive bounds
// fall back to the defaults.
func NewBackoff(base, max time.Duration) *Backoff {
	if base <= 0 {
		base = DefaultBackoffBase
	}
	if max <= 0 {
		max = DefaultBackoffMax
	}
	if max < base {
		max = base
	}

	return &Backoff{base: base, max: max}
}

// Next returns the delay for the current attempt and advances the
// counter.
func (b *Backoff) Next() time.Duration {
	delay := b.max
	if b.attempt < maxShift {
		if d := b.base << uint(b.attempt); d < b.max {
			delay = d
		}
	}

	b.attempt++

	return delay
}

// Reset clears the attempt counter after a successful connection.
func (b *Backoff) Reset() {
	b.attempt = 0
}

// Attempt returns the number of closures that have scheduled a retry
// since the last successful connection.
func (b *Backoff) Attempt() int {
	return b.attempt
}
