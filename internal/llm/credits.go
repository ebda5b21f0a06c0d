package llm

import (
	"context"
	"sync/atomic"
)

type budgetKey struct{}

// callBudget counts down pre-reserved model-call permits. It is the only
// rate-limit state shared across the concurrent entity tasks of one run;
// all mutation goes through the atomic counter.
type callBudget struct {
	left atomic.Int32
}

// WithCredits attaches n consumable call credits to the context. n <= 0
// leaves the context untouched.
func WithCredits(ctx context.Context, n int) context.Context {
	if n <= 0 {
		return ctx
	}
	b := &callBudget{}
	b.left.Store(int32(n))
	return context.WithValue(ctx, budgetKey{}, b)
}

// TakeCredit consumes one credit if the context carries any. A false
// return means the caller must go through the rate limiter instead.
func TakeCredit(ctx context.Context) bool {
	b, ok := ctx.Value(budgetKey{}).(*callBudget)
	if !ok || b == nil {
		return false
	}
	for {
		cur := b.left.Load()
		if cur <= 0 {
			return false
		}
		if b.left.CompareAndSwap(cur, cur-1) {
			return true
		}
	}
}
