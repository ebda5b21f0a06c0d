// Package insight turns entity records into typed, confidence-scored
// insights by prompting a model backend once per record.
package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentalintel/internal/jsonutil"
	"rentalintel/internal/llm"
	"rentalintel/internal/llmclient"
	"rentalintel/internal/types"
)

// Engine analyzes a batch of entity records. One model call per record:
// prompts stay under token caps and a bad response only degrades one
// entity. The engine's attempt loop is the single retry layer, covering
// both call failures and responses that arrive but do not parse; clients
// wrapped in retrying middleware would multiply attempts. Permanent errors
// are never re-sent and degrade the record immediately.
type Engine struct {
	LLM           llmclient.LLMClient
	MaxConcurrent int
	MaxAttempts   int
	BaseDelay     time.Duration
	// ReviewThreshold marks insights below it LowConfidence; they are kept,
	// never dropped, and downstream routes them to human review.
	ReviewThreshold float64

	NewID func() string // test hook; defaults to uuid
}

type modelResponse struct {
	Insights []modelInsight `json:"insights"`
}

type modelInsight struct {
	Category        string  `json:"category"`
	Explanation     string  `json:"explanation"`
	Confidence      float64 `json:"confidence"`
	SuggestedAction string  `json:"suggested_action,omitempty"`
}

// Result is the engine output for one batch.
type Result struct {
	Insights []types.Insight
	Diags    types.Diagnostics
}

// Analyze runs the batch with bounded parallelism and joins before
// returning. A record whose analysis fails terminally still yields a
// degraded insight; the batch never fails wholesale.
func (e *Engine) Analyze(ctx context.Context, records []types.EntityRecord) Result {
	limit := e.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}

	type item struct {
		idx      int
		insights []types.Insight
		warning  *types.Warning
	}

	sem := make(chan struct{}, limit)
	out := make(chan item, len(records))
	var wg sync.WaitGroup

	for i, rec := range records {
		i, rec := i, rec
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			insights, warn := e.analyzeOne(llm.WithEntity(ctx, rec.EntityID), rec)
			out <- item{idx: i, insights: insights, warning: warn}
		}()
	}
	wg.Wait()
	close(out)

	ordered := make([]item, 0, len(records))
	for it := range out {
		ordered = append(ordered, it)
	}
	// restore record order so reports are stable
	byIdx := make(map[int]item, len(ordered))
	for _, it := range ordered {
		byIdx[it.idx] = it
	}

	var res Result
	for i := range records {
		it := byIdx[i]
		res.Insights = append(res.Insights, it.insights...)
		if it.warning != nil {
			res.Diags.Add(*it.warning)
		}
	}
	return res
}

func (e *Engine) analyzeOne(ctx context.Context, rec types.EntityRecord) ([]types.Insight, *types.Warning) {
	attempts := e.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := e.BaseDelay
	if base <= 0 {
		base = 300 * time.Millisecond
	}
	prompt := buildPrompt()
	input := map[string]any{
		"entity_id": rec.EntityID,
		"sources":   rec.Sources,
	}

	var last error
	for i := 0; i < attempts; i++ {
		raw, err := e.LLM.GenerateJSON(ctx, prompt, input)
		if err == nil {
			insights, perr := e.parse(rec, raw)
			if perr == nil {
				return insights, nil
			}
			err = fmt.Errorf("%w: %v", llmclient.ErrInvalidJSON, perr)
		}
		last = err
		var perm *llmclient.PermanentError
		if errors.As(err, &perm) {
			// re-sending cannot succeed (oversized prompt, bad request)
			return e.degraded(rec, i+1, last)
		}
		select {
		case <-ctx.Done():
			last = ctx.Err()
			return e.degraded(rec, attempts, last)
		default:
		}
		if i < attempts-1 {
			time.Sleep(base * time.Duration(1<<i))
		}
	}
	return e.degraded(rec, attempts, last)
}

// degraded emits the low-confidence placeholder insight for a record whose
// analysis could not be completed.
func (e *Engine) degraded(rec types.EntityRecord, attempts int, cause error) ([]types.Insight, *types.Warning) {
	mErr := &types.ModelCallError{EntityID: rec.EntityID, Attempts: attempts, Err: cause}
	ins := types.Insight{
		ID:            e.newID(),
		EntityID:      rec.EntityID,
		Category:      types.CategoryUnknown,
		Explanation:   "analysis unavailable: " + mErr.Error(),
		Confidence:    0.0,
		LowConfidence: true,
		SourceNames:   rec.SourceNames(),
	}
	return []types.Insight{ins}, &types.Warning{
		EntityID: rec.EntityID,
		Stage:    "insight",
		Message:  mErr.Error(),
	}
}

func (e *Engine) parse(rec types.EntityRecord, raw json.RawMessage) ([]types.Insight, error) {
	var resp modelResponse
	if err := jsonutil.UnmarshalRaw(raw, &resp); err != nil {
		return nil, err
	}
	out := make([]types.Insight, 0, len(resp.Insights))
	for _, mi := range resp.Insights {
		conf := clamp01(mi.Confidence)
		out = append(out, types.Insight{
			ID:              e.newID(),
			EntityID:        rec.EntityID,
			Category:        types.Category(mi.Category).Normalize(),
			Explanation:     mi.Explanation,
			Confidence:      conf,
			LowConfidence:   conf < e.ReviewThreshold,
			SuggestedAction: mi.SuggestedAction,
			SourceNames:     rec.SourceNames(),
		})
	}
	return out, nil
}

func (e *Engine) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return uuid.NewString()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
