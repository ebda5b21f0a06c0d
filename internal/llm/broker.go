package llm

import "context"

// Limiter is the narrow throttling contract the broker reserves against.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// PermitBroker reserves model-call permits for a whole batch up front, so
// the entity tasks of one run do not race the limiter call by call.
type PermitBroker interface {
	Reserve(ctx context.Context, n int) (Lease, error)
}

// Lease hands the reserved permits to a batch as context credits.
type Lease interface {
	Context(ctx context.Context) context.Context
}

// NewBroker builds a PermitBroker on top of lim. max, when positive, caps
// how many permits a single Reserve may take; calls past the cap fall back
// to paying the limiter one by one.
func NewBroker(lim Limiter, max int) PermitBroker {
	return &permitBroker{lim: lim, max: max}
}

type permitBroker struct {
	lim Limiter
	max int
}

// Reserve pays the limiter cost for n calls now and returns a lease worth
// n credits. Unused credits simply expire with the context; a small
// over-reservation is cheaper than per-call contention.
func (b *permitBroker) Reserve(ctx context.Context, n int) (Lease, error) {
	if b == nil || b.lim == nil || n <= 0 {
		return permitLease(0), nil
	}
	if b.max > 0 && n > b.max {
		n = b.max
	}
	for i := 0; i < n; i++ {
		if err := b.lim.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	return permitLease(n), nil
}

type permitLease int

func (l permitLease) Context(ctx context.Context) context.Context {
	return WithCredits(ctx, int(l))
}
