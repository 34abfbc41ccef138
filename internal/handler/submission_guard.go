package handler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SubmissionGuard hands out one-time form tokens and remembers which ones
// were already used, so a double click or a browser resubmit reaches the
// remote API only once.
type SubmissionGuard struct {
	mu      sync.Mutex
	claimed map[string]*claim
	ttl     time.Duration
	now     func() time.Time
}

// claim is one send of a form. done is closed once the owner settles it;
// sent is written before that and read only after.
type claim struct {
	at      time.Time
	done    chan struct{}
	settled bool
	sent    bool
}

func NewSubmissionGuard(ttl time.Duration) *SubmissionGuard {
	return &SubmissionGuard{
		claimed: make(map[string]*claim),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Issue returns a fresh token for a rendered form.
func (g *SubmissionGuard) Issue() string {
	return uuid.NewString()
}

// Valid reports whether token looks like one Issue produced.
func (g *SubmissionGuard) Valid(token string) bool {
	_, err := uuid.Parse(token)
	return err == nil
}

// Claim marks token as used. It returns false when the token was already
// claimed and has not expired. The caller that gets true must Settle.
func (g *SubmissionGuard) Claim(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if c, ok := g.claimed[token]; ok && now.Sub(c.at) < g.ttl {
		return false
	}
	g.claimed[token] = &claim{at: now, done: make(chan struct{})}
	return true
}

// Settle records the outcome of the claimed send and wakes duplicates
// waiting on it. A failed send forgets the claim so the same form may be
// retried.
func (g *SubmissionGuard) Settle(token string, sent bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	c, ok := g.claimed[token]
	if !ok || c.settled {
		return
	}
	if !sent {
		delete(g.claimed, token)
	}
	c.sent = sent
	c.settled = true
	close(c.done)
}

// Wait blocks until the send owning token is settled and reports whether it
// went through. A token with no claim, or a ctx that ends first, reports
// false.
func (g *SubmissionGuard) Wait(ctx context.Context, token string) bool {
	g.mu.Lock()
	c, ok := g.claimed[token]
	g.mu.Unlock()
	if !ok {
		return false
	}

	select {
	case <-c.done:
		return c.sent
	case <-ctx.Done():
		return false
	}
}

// Sweep drops expired claims.
func (g *SubmissionGuard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for token, c := range g.claimed {
		if now.Sub(c.at) >= g.ttl {
			delete(g.claimed, token)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (g *SubmissionGuard) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Sweep()
		}
	}
}
