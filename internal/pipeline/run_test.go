package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"rentalintel/internal/aggregate"
	"rentalintel/internal/dispatch"
	"rentalintel/internal/insight"
	"rentalintel/internal/llm"
	"rentalintel/internal/source"
	"rentalintel/internal/types"
)

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *recordingSink) stages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Stage
	}
	return out
}

type noopExecutor struct{ kind types.ActionKind }

func (e noopExecutor) Kind() types.ActionKind                      { return e.kind }
func (e noopExecutor) Execute(context.Context, types.Action) error { return nil }

func testPipeline(connectors []source.Connector, sink EventSink) *Pipeline {
	return &Pipeline{
		Aggregator: &aggregate.Aggregator{Connectors: connectors, MaxConcurrent: 2},
		Engine: &insight.Engine{
			LLM:             llm.NewFakeClient(0),
			MaxConcurrent:   2,
			MaxAttempts:     2,
			ReviewThreshold: 0.7,
		},
		Dispatcher: &dispatch.Dispatcher{
			Rules: dispatch.DefaultRules(),
			Executors: map[types.ActionKind]dispatch.Executor{
				types.ActionPriceUpdate:         noopExecutor{types.ActionPriceUpdate},
				types.ActionMaintenanceSchedule: noopExecutor{types.ActionMaintenanceSchedule},
			},
			AutoExecutable: dispatch.DefaultAutoExecutable(),
			AutoThreshold:  0.9,
		},
		Events:   sink,
		NewRunID: func() string { return "run-test" },
	}
}

func TestRunEndToEnd(t *testing.T) {
	connectors := []source.Connector{
		source.NewStaticConnector(types.SourceBookings, map[string]json.RawMessage{
			"prop-1": json.RawMessage(`{"occupancy_pct":70}`),
			"prop-2": json.RawMessage(`{"occupancy_pct":85}`),
		}),
		source.NewStaticConnector(types.SourcePricing, map[string]json.RawMessage{
			"prop-1": json.RawMessage(`{"current_price":180,"market_average":140}`),
		}),
	}
	sink := &recordingSink{}
	p := testPipeline(connectors, sink)

	res, err := p.Run(context.Background(), []string{"prop-1", "prop-2"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.RunID != "run-test" || res.Report.RunID != "run-test" {
		t.Fatalf("run id not threaded: %s / %s", res.RunID, res.Report.RunID)
	}
	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	// fake client yields two insights per record
	if len(res.Insights) != 4 {
		t.Fatalf("insights = %d, want 4", len(res.Insights))
	}
	if len(res.Actions) != 4 {
		t.Fatalf("actions = %d, want 4", len(res.Actions))
	}
	// high-confidence pricing insights auto-execute, low-confidence
	// maintenance ones queue for review
	if res.Report.ActionsByStatus[types.StatusAutoExecuted] != 2 {
		t.Fatalf("auto-executed = %d, want 2: %+v", res.Report.ActionsByStatus[types.StatusAutoExecuted], res.Actions)
	}
	if res.Report.ActionsByStatus[types.StatusPendingReview] != 2 {
		t.Fatalf("pending = %d, want 2", res.Report.ActionsByStatus[types.StatusPendingReview])
	}
	// every action references an insight from this run
	byID := map[string]bool{}
	for _, ins := range res.Insights {
		byID[ins.ID] = true
	}
	for _, a := range res.Actions {
		if !byID[a.InsightID] {
			t.Fatalf("action %s references unknown insight %s", a.ID, a.InsightID)
		}
	}

	wantStages := []string{"aggregate", "insight", "dispatch", "report"}
	got := sink.stages()
	if len(got) != len(wantStages) {
		t.Fatalf("events = %v, want stages %v", got, wantStages)
	}
	for i := range wantStages {
		if got[i] != wantStages[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], wantStages[i])
		}
	}
}

func TestRunNoUsableData(t *testing.T) {
	failing := source.NewStaticConnector(types.SourceBookings, nil)
	failing.Err = errors.New("feed down")

	p := testPipeline([]source.Connector{failing}, nil)
	res, err := p.Run(context.Background(), []string{"prop-1"})

	if !errors.Is(err, ErrNoUsableData) {
		t.Fatalf("err = %v, want ErrNoUsableData", err)
	}
	// the partial report still carries the diagnostics
	if res.Report.RunID != "run-test" {
		t.Fatalf("partial report missing: %+v", res.Report)
	}
	if len(res.Report.Diagnostics.Warnings) == 0 {
		t.Fatalf("partial report must explain what failed")
	}
	if res.Report.InsightCount != 0 || res.Report.ActionCount != 0 {
		t.Fatalf("no-data run must not invent insights: %+v", res.Report)
	}
}

func TestRunPartialEntityFailure(t *testing.T) {
	connectors := []source.Connector{
		source.NewStaticConnector(types.SourceReviews, map[string]json.RawMessage{
			"prop-1": json.RawMessage(`{"avg_rating":4.1}`),
		}),
	}
	p := testPipeline(connectors, nil)
	res, err := p.Run(context.Background(), []string{"prop-1", "ghost"})
	if err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}
	found := false
	for _, w := range res.Report.Diagnostics.Warnings {
		if w.EntityID == "ghost" {
			found = true
		}
	}
	if !found {
		t.Fatalf("skipped entity must appear in diagnostics: %+v", res.Report.Diagnostics)
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	connectors := []source.Connector{
		source.NewStaticConnector(types.SourceBookings, map[string]json.RawMessage{
			"prop-1": json.RawMessage(`{}`),
		}),
	}
	p := testPipeline(connectors, nil)
	_, err := p.Run(ctx, []string{"prop-1"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
