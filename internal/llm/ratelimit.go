package llm

import (
	"context"
	"time"
)

// tokenBucket throttles callers to a steady request rate. A fresh bucket
// starts full, so the first `burst` calls pass immediately; after that one
// slot frees up every 1/rps seconds.
type tokenBucket struct {
	slots chan struct{}
	done  chan struct{}
}

// newTokenBucket returns nil when rps <= 0; a nil bucket never blocks.
func newTokenBucket(rps float64, burst int) *tokenBucket {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	b := &tokenBucket{
		slots: make(chan struct{}, burst),
		done:  make(chan struct{}),
	}
	for len(b.slots) < burst {
		b.slots <- struct{}{}
	}
	go b.refill(time.Duration(float64(time.Second) / rps))
	return b
}

func (b *tokenBucket) refill(every time.Duration) {
	if every <= 0 {
		every = time.Millisecond
	}
	tick := time.NewTicker(every)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			select {
			case b.slots <- struct{}{}:
			default: // full, skip
			}
		case <-b.done:
			return
		}
	}
}

// Acquire blocks until a slot frees up or the context ends.
func (b *tokenBucket) Acquire(ctx context.Context) error {
	if b == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-b.done:
		return context.Canceled
	case <-b.slots:
		return nil
	}
}

// Stop shuts down the refill goroutine. Acquire calls in flight fail.
func (b *tokenBucket) Stop() {
	if b == nil {
		return
	}
	close(b.done)
}

// NewLimiter exposes a token bucket through the minimal Limiter interface.
func NewLimiter(rps float64, burst int) Limiter {
	return newTokenBucket(rps, burst)
}
