// Package aggregate merges per-source payloads into one EntityRecord per
// entity. Source failures degrade the batch; they never abort it.
package aggregate

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"rentalintel/internal/source"
	"rentalintel/internal/types"
)

// Result is the aggregator output for one batch.
type Result struct {
	Records []types.EntityRecord
	// Skipped lists entity ids for which zero sources succeeded. Each has a
	// NoDataError warning in Diags; the batch itself continues.
	Skipped []string
	Diags   types.Diagnostics
}

// Aggregator fans out connector fetches with bounded parallelism.
type Aggregator struct {
	Connectors    []source.Connector
	MaxConcurrent int
	Now           func() time.Time // test hook; defaults to time.Now
}

type fetchResult struct {
	name     string
	payloads map[string]json.RawMessage
	err      error
}

// Aggregate produces exactly one record per entity id that has at least one
// successful source. Connectors run concurrently, at most MaxConcurrent in
// flight; all fetches join before the function returns.
func (a *Aggregator) Aggregate(ctx context.Context, entityIDs []string) Result {
	var res Result
	if len(entityIDs) == 0 || len(a.Connectors) == 0 {
		for _, id := range entityIDs {
			res.Skipped = append(res.Skipped, id)
			res.Diags.Add(noDataWarning(id))
		}
		return res
	}

	limit := a.MaxConcurrent
	if limit <= 0 {
		limit = len(a.Connectors)
	}
	sem := make(chan struct{}, limit)
	results := make(chan fetchResult, len(a.Connectors))

	for _, c := range a.Connectors {
		c := c
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			payloads, err := c.Fetch(ctx, entityIDs)
			results <- fetchResult{name: c.Name(), payloads: payloads, err: err}
		}()
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	fetchedAt := now()

	byEntity := make(map[string]map[string]json.RawMessage, len(entityIDs))
	for range a.Connectors {
		r := <-results
		if r.err != nil {
			ferr := &types.SourceFetchError{Source: r.name, Err: r.err}
			res.Diags.Add(types.Warning{
				Source:  r.name,
				Stage:   "aggregate",
				Message: ferr.Error(),
			})
			continue
		}
		for id, payload := range r.payloads {
			if byEntity[id] == nil {
				byEntity[id] = make(map[string]json.RawMessage, len(a.Connectors))
			}
			byEntity[id][r.name] = payload
		}
	}

	for _, id := range entityIDs {
		slots := byEntity[id]
		if len(slots) == 0 {
			res.Skipped = append(res.Skipped, id)
			res.Diags.Add(noDataWarning(id))
			continue
		}
		res.Records = append(res.Records, types.EntityRecord{
			EntityID:  id,
			Sources:   slots,
			FetchedAt: fetchedAt,
		})
	}
	sort.Slice(res.Records, func(i, j int) bool {
		return res.Records[i].EntityID < res.Records[j].EntityID
	})
	return res
}

func noDataWarning(entityID string) types.Warning {
	err := &types.NoDataError{EntityID: entityID}
	return types.Warning{
		EntityID: entityID,
		Stage:    "aggregate",
		Message:  err.Error(),
	}
}
