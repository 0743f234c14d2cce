package images

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// hostLimiter enforces a minimum interval between live-page fetches
// against the same host. OG fallbacks already run sequentially within
// a source; this also paces them across sources sharing an origin.
type hostLimiter struct {
	mu        sync.Mutex
	interval  time.Duration
	lastFetch map[string]time.Time
}

func newHostLimiter(interval time.Duration) *hostLimiter {
	return &hostLimiter{
		interval:  interval,
		lastFetch: make(map[string]time.Time),
	}
}

func (hl *hostLimiter) Wait(ctx context.Context, rawURL string) error {
	if hl.interval <= 0 {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}
	host := u.Host

	hl.mu.Lock()
	now := time.Now()
	wait := hl.interval - now.Sub(hl.lastFetch[host])
	if wait < 0 {
		wait = 0
	}
	hl.lastFetch[host] = now.Add(wait)
	hl.mu.Unlock()

	if wait == 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
		return nil
	}
}
