package llm

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"rentalintel/internal/llmclient"
)

// Middleware decorates an LLMClient with a cross-cutting concern: rate
// limiting, retries, logging.
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares left to right: Wrap(c, A, B) yields A(B(c)).
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// passthrough forwards everything except GenerateJSON, which each
// middleware overrides.
type passthrough struct {
	next llmclient.LLMClient
}

func (p passthrough) Name() string                { return p.next.Name() }
func (p passthrough) Close() error                { return p.next.Close() }
func (p passthrough) CountTokens(text string) int { return p.next.CountTokens(text) }
func (p passthrough) TokenCapacity() int          { return p.next.TokenCapacity() }

// RateLimit throttles GenerateJSON through a token bucket. Reserved
// credits in the context bypass the bucket; rps <= 0 disables limiting.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &rateLimited{passthrough: passthrough{next: next}, bucket: newTokenBucket(rps, burst)}
	}
}

type rateLimited struct {
	passthrough
	bucket *tokenBucket
}

func (c *rateLimited) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	if c.bucket != nil && !TakeCredit(ctx) {
		if err := c.bucket.Acquire(ctx); err != nil {
			return nil, err
		}
	}
	return c.next.GenerateJSON(ctx, prompt, input)
}

// Retry re-issues failed GenerateJSON calls up to maxAttempts with
// exponential backoff from baseDelay. Permanent errors and canceled
// contexts end the loop immediately. The insight engine carries its own
// attempt loop, so wrap Retry only around clients used outside it.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &retrying{passthrough: passthrough{next: next}, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	passthrough
	max  int
	base time.Duration
}

func (r *retrying) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.GenerateJSON(ctx, prompt, input)
		if err == nil {
			return resp, nil
		}
		var pErr *llmclient.PermanentError
		if errors.As(err, &pErr) {
			return nil, err
		}
		last = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		time.Sleep(r.base * time.Duration(1<<i))
	}
	return nil, last
}

// WithLogging logs request sizes and failures. A nil logger falls back to
// log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{passthrough: passthrough{next: next}, log: logger}
	}
}

type logging struct {
	passthrough
	log *log.Logger
}

func (l *logging) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	in, _ := json.Marshal(input)
	l.log.Printf("LLM request (%s): %d bytes", EntityFrom(ctx), len(prompt)+len(in))
	raw, err := l.next.GenerateJSON(ctx, prompt, input)
	if err != nil {
		l.log.Printf("LLM error (%s): %v", EntityFrom(ctx), err)
	}
	return raw, err
}
