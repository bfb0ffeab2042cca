package session

import (
	"math/rand"
	"time"
)

// Backoff produces the delay between reconnect attempts: starts at the
// floor, doubles on every call, caps at the ceiling, and applies ±10%
// jitter so multiple clients do not reconnect in lockstep.
type Backoff struct {
	floor   time.Duration
	cap     time.Duration
	current time.Duration
}

// NewBackoff creates a backoff starting at floor and capped at ceil.
func NewBackoff(floor, ceil time.Duration) *Backoff {
	return &Backoff{floor: floor, cap: ceil, current: floor}
}

// Next returns the current delay with jitter applied and doubles the
// delay for the following attempt.
func (b *Backoff) Next() time.Duration {
	d := b.current
	b.current = min(b.current*2, b.cap)

	jitter := time.Duration(float64(d) * 0.1 * (rand.Float64() - 0.5) * 2)
	return d + jitter
}

// Reset returns the delay to its floor after a successful connect.
func (b *Backoff) Reset() {
	b.current = b.floor
}
