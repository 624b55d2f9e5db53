package slackapi

import (
	"sync"
	"time"
)

const (
	defaultInitialBackoff = 10 * time.Second
	maxBackoff            = 10 * time.Minute
)

// Backoff is the shared rate-limit governor. One instance is injected into
// the client and shared by every caller for the life of a run: a rate-limit
// event anywhere raises the delay for everything that follows. The delay
// never resets.
type Backoff struct {
	mu   sync.Mutex
	next time.Duration
}

// NewBackoff creates a governor starting at initial. A zero or negative
// initial uses the default.
func NewBackoff(initial time.Duration) *Backoff {
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	return &Backoff{next: initial}
}

// Next returns the duration to sleep for this rate-limit event and grows
// the duration for the next one.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.next
	if grown := b.next * 2; grown <= maxBackoff {
		b.next = grown
	} else {
		b.next = maxBackoff
	}
	return d
}

// Current returns the duration the next rate-limit event would sleep,
// without advancing it.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.next
}
