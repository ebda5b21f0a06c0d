package report

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"rentalintel/internal/types"
)

func sampleInputs() ([]types.Insight, []types.Action, types.Diagnostics) {
	insights := []types.Insight{
		{ID: "i1", EntityID: "prop-1", Category: types.CategoryPricing, Confidence: 0.9},
		{ID: "i2", EntityID: "prop-1", Category: types.CategoryMaintenance, Confidence: 0.6, LowConfidence: true},
		{ID: "i3", EntityID: "prop-2", Category: types.CategoryPricing, Confidence: 0.75},
	}
	actions := []types.Action{
		{ID: "a1", Kind: types.ActionPriceUpdate, EntityID: "prop-1", InsightID: "i1", Status: types.StatusAutoExecuted},
		{ID: "a2", Kind: types.ActionMaintenanceSchedule, EntityID: "prop-1", InsightID: "i2", Status: types.StatusPendingReview},
		{ID: "a3", Kind: types.ActionPriceUpdate, EntityID: "prop-2", InsightID: "i3", Status: types.StatusRejected, Reason: "failed"},
	}
	var diags types.Diagnostics
	diags.Add(types.Warning{EntityID: "prop-3", Stage: "aggregate", Message: "no source produced data"})
	return insights, actions, diags
}

func TestGenerateCounts(t *testing.T) {
	insights, actions, diags := sampleInputs()
	at := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	r := Generate("run-1", at, insights, actions, diags)

	if r.RunID != "run-1" || !r.GeneratedAt.Equal(at) {
		t.Fatalf("header wrong: %+v", r)
	}
	if r.EntityCount != 2 || r.InsightCount != 3 || r.ActionCount != 3 {
		t.Fatalf("counts wrong: entities=%d insights=%d actions=%d", r.EntityCount, r.InsightCount, r.ActionCount)
	}
	if r.InsightsByCategory[types.CategoryPricing] != 2 || r.InsightsByCategory[types.CategoryMaintenance] != 1 {
		t.Fatalf("category counts wrong: %+v", r.InsightsByCategory)
	}
	if r.ActionsByStatus[types.StatusAutoExecuted] != 1 ||
		r.ActionsByStatus[types.StatusPendingReview] != 1 ||
		r.ActionsByStatus[types.StatusRejected] != 1 {
		t.Fatalf("status counts wrong: %+v", r.ActionsByStatus)
	}
	if len(r.AutoExecuted) != 1 || r.AutoExecuted[0].ID != "a1" {
		t.Fatalf("auto-executed list wrong: %+v", r.AutoExecuted)
	}
	if len(r.Pending) != 1 || r.Pending[0].ID != "a2" {
		t.Fatalf("pending list wrong: %+v", r.Pending)
	}
	wantAvg := (0.9 + 0.6 + 0.75) / 3
	if diff := r.AvgConfidence - wantAvg; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("avg confidence = %v, want %v", r.AvgConfidence, wantAvg)
	}
	if len(r.Diagnostics.Warnings) != 1 {
		t.Fatalf("diagnostics lost: %+v", r.Diagnostics)
	}
}

func TestGenerateIsPure(t *testing.T) {
	insights, actions, diags := sampleInputs()
	at := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	a := Generate("run-1", at, insights, actions, diags)
	b := Generate("run-1", at, insights, actions, diags)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same inputs must yield identical reports")
	}
}

func TestGenerateImpactEstimate(t *testing.T) {
	insights, actions, diags := sampleInputs()
	r := Generate("run-1", time.Now(), insights, actions, diags)
	if r.Impact == nil {
		t.Fatalf("expected an impact estimate")
	}
	if r.Impact.RevenueUpliftPctLow != 8 || r.Impact.RevenueUpliftPctHigh != 15 {
		t.Fatalf("revenue range wrong: %+v", r.Impact)
	}
	if r.Impact.MaintenanceSavingsPctLow != 20 || r.Impact.MaintenanceSavingsPctHigh != 30 {
		t.Fatalf("maintenance range wrong: %+v", r.Impact)
	}
	if !strings.Contains(r.Impact.Note, "estimate") {
		t.Fatalf("impact must be labeled an estimate: %q", r.Impact.Note)
	}
}

func TestGenerateNoActionsNoImpact(t *testing.T) {
	r := Generate("run-2", time.Now(), nil, nil, types.Diagnostics{})
	if r.Impact != nil {
		t.Fatalf("no actions must mean no impact estimate")
	}
	if r.AvgConfidence != 0 {
		t.Fatalf("avg confidence of empty batch = %v", r.AvgConfidence)
	}
}

func TestRenderSections(t *testing.T) {
	insights, actions, diags := sampleInputs()
	r := Generate("run-1", time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC), insights, actions, diags)
	out := Render(r)

	for _, want := range []string{"SUMMARY", "ACTIONS", "ESTIMATED IMPACT", "DIAGNOSTICS", "run-1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "8-15%") {
		t.Fatalf("render missing revenue range:\n%s", out)
	}
}
