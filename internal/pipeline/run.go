// Package pipeline wires the four stages of one run: aggregate, analyze,
// dispatch, report. Stages run strictly in that order; all concurrency
// joins inside a stage before the next one starts.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"rentalintel/internal/aggregate"
	"rentalintel/internal/dispatch"
	"rentalintel/internal/insight"
	"rentalintel/internal/llm"
	"rentalintel/internal/report"
	"rentalintel/internal/types"
)

// ErrNoUsableData means zero entities produced a record. A partial report
// carrying the diagnostics is still returned alongside it.
var ErrNoUsableData = errors.New("pipeline: no usable data for any entity")

// Event is one progress notification, consumed by the review surface.
type Event struct {
	RunID   string    `json:"run_id"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// EventSink receives run progress events. Implementations must not block.
type EventSink interface {
	Publish(Event)
}

// Pipeline owns one configured end-to-end flow. A single Pipeline value can
// serve many runs; runs share no mutable state.
type Pipeline struct {
	Aggregator *aggregate.Aggregator
	Engine     *insight.Engine
	Dispatcher *dispatch.Dispatcher

	// Broker, when set, pre-reserves one model-call permit per record so a
	// run does not race other runs at the rate limiter mid-flight.
	Broker  llm.PermitBroker
	Timeout time.Duration
	Events  EventSink

	NewRunID func() string // test hook; defaults to uuid
}

// RunResult carries everything one run produced.
type RunResult struct {
	RunID    string
	Records  []types.EntityRecord
	Insights []types.Insight
	Actions  []types.Action
	Report   types.Report
}

// Run executes one batch. Per-entity and per-action failures become report
// diagnostics; the returned error is non-nil only for a total absence of
// usable data or run-level cancellation/timeout, and even then the partial
// report is valid.
func (p *Pipeline) Run(ctx context.Context, entityIDs []string) (RunResult, error) {
	runID := p.newRunID()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	var diags types.Diagnostics
	res := RunResult{RunID: runID}

	p.publish(runID, "aggregate", "fetching source data")
	agg := p.Aggregator.Aggregate(ctx, entityIDs)
	res.Records = agg.Records
	diags.Merge(agg.Diags)

	var insights []types.Insight
	var actions []types.Action

	if len(agg.Records) > 0 {
		p.publish(runID, "insight", "running analysis")
		engCtx := ctx
		if p.Broker != nil {
			if lease, err := p.Broker.Reserve(ctx, len(agg.Records)); err == nil {
				engCtx = lease.Context(ctx)
			}
		}
		eng := p.Engine.Analyze(engCtx, agg.Records)
		insights = eng.Insights
		diags.Merge(eng.Diags)

		p.publish(runID, "dispatch", "dispatching actions")
		dis := p.Dispatcher.Dispatch(ctx, insights, agg.Records)
		actions = dis.Actions
		diags.Merge(dis.Diags)
	}

	res.Insights = insights
	res.Actions = actions
	res.Report = report.Generate(runID, time.Now().UTC(), insights, actions, diags)
	p.publish(runID, "report", "report generated")

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if len(agg.Records) == 0 {
		return res, ErrNoUsableData
	}
	return res, nil
}

func (p *Pipeline) publish(runID, stage, msg string) {
	if p.Events == nil {
		return
	}
	p.Events.Publish(Event{RunID: runID, Stage: stage, Message: msg, At: time.Now().UTC()})
}

func (p *Pipeline) newRunID() string {
	if p.NewRunID != nil {
		return p.NewRunID()
	}
	return uuid.NewString()
}
