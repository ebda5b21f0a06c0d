// Package report reduces the insights and actions of one run into a single
// immutable Report. Generation is a pure function of its inputs.
package report

import (
	"time"

	"rentalintel/internal/types"
)

// Generate builds the report for one run. No side effects; calling it twice
// on the same inputs yields identical content (the timestamp is an input,
// not read from the clock).
func Generate(runID string, at time.Time, insights []types.Insight, actions []types.Action, diags types.Diagnostics) types.Report {
	r := types.Report{
		RunID:              runID,
		GeneratedAt:        at,
		InsightCount:       len(insights),
		ActionCount:        len(actions),
		InsightsByCategory: map[types.Category]int{},
		ActionsByStatus:    map[types.ActionStatus]int{},
		Diagnostics:        diags,
	}

	entities := map[string]struct{}{}
	var confSum float64
	for _, ins := range insights {
		entities[ins.EntityID] = struct{}{}
		r.InsightsByCategory[ins.Category]++
		confSum += ins.Confidence
	}
	r.EntityCount = len(entities)
	if len(insights) > 0 {
		r.AvgConfidence = confSum / float64(len(insights))
	}

	for _, a := range actions {
		r.ActionsByStatus[a.Status]++
		switch a.Status {
		case types.StatusAutoExecuted:
			r.AutoExecuted = append(r.AutoExecuted, a)
		case types.StatusPendingReview:
			r.Pending = append(r.Pending, a)
		}
	}

	r.Impact = estimateImpact(r)
	return r
}

// estimateImpact produces the labeled best-effort ranges. These are
// estimates derived from action counts, never measured values.
func estimateImpact(r types.Report) *types.ImpactEstimate {
	pricing := 0
	maintenance := 0
	for _, a := range append(append([]types.Action{}, r.AutoExecuted...), r.Pending...) {
		switch a.Kind {
		case types.ActionPriceUpdate:
			pricing++
		case types.ActionMaintenanceSchedule:
			maintenance++
		}
	}
	if pricing == 0 && maintenance == 0 {
		return nil
	}
	est := &types.ImpactEstimate{
		Note: "estimate derived from action counts, not a measured value",
	}
	if pricing > 0 {
		est.RevenueUpliftPctLow = 8
		est.RevenueUpliftPctHigh = 15
	}
	if maintenance > 0 {
		est.MaintenanceSavingsPctLow = 20
		est.MaintenanceSavingsPctHigh = 30
	}
	return est
}
