package crawler

import (
	"context"
	"math/rand/v2"
	"net/url"
	"sync"
	"time"
)

// Pacer enforces a pause between the end of one operation and the start of
// the next for the same key. URL keys are bucketed by host; any other string
// is used as-is. Callers bracket each operation with Wait and Done.
type Pacer struct {
	delay  time.Duration
	jitter time.Duration

	mu      sync.Mutex
	readyAt map[string]time.Time
}

// NewPacer creates a pacer. jitter adds a random extra pause in [0, jitter).
func NewPacer(delay, jitter time.Duration) *Pacer {
	return &Pacer{
		delay:   delay,
		jitter:  jitter,
		readyAt: make(map[string]time.Time),
	}
}

// Wait blocks until the pause after the previous Done for key has elapsed.
// The first operation for a key never waits.
func (p *Pacer) Wait(ctx context.Context, key string) error {
	p.mu.Lock()
	ready := p.readyAt[bucketKey(key)]
	p.mu.Unlock()

	remaining := time.Until(ready)
	if remaining <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Done marks the end of an operation; the next Wait for key pauses from now.
func (p *Pacer) Done(key string) {
	pause := p.delay
	if p.jitter > 0 {
		pause += time.Duration(rand.Int64N(int64(p.jitter)))
	}
	if pause <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.readyAt[bucketKey(key)] = time.Now().Add(pause)
}

// bucketKey returns the host for URLs and the key itself otherwise
func bucketKey(key string) string {
	u, err := url.Parse(key)
	if err != nil || u.Host == "" {
		return key
	}
	return u.Host
}
