// Package dispatch maps insights to actions through a fixed rule table and
// routes them either to an executor or to the human review queue.
package dispatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rentalintel/internal/types"
)

// Executor performs one kind of action against an external system.
type Executor interface {
	Kind() types.ActionKind
	Execute(ctx context.Context, action types.Action) error
}

// Dispatcher holds the rule table and the executor registry. The kind set
// is closed; extending it means adding a constant, a rule and an executor,
// not open-ended dynamic dispatch.
type Dispatcher struct {
	Rules          map[types.Category]types.ActionKind
	Executors      map[types.ActionKind]Executor
	AutoExecutable map[types.ActionKind]bool
	// AutoThreshold is the minimum confidence for auto-execution.
	AutoThreshold float64

	NewID func() string // test hook; defaults to uuid
}

// Result is the dispatcher output for one run.
type Result struct {
	Actions []types.Action
	Diags   types.Diagnostics
}

// Dispatch deterministically maps each insight to zero or one action.
// Auto-execution requires: confidence >= AutoThreshold, kind in the
// auto-executable set, and the insight not flagged LowConfidence.
// Executor failures mark the action rejected; they are not retried here,
// since action side effects may be unsafe to repeat blindly.
func (d *Dispatcher) Dispatch(ctx context.Context, insights []types.Insight, records []types.EntityRecord) Result {
	rules := d.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	auto := d.AutoExecutable
	if auto == nil {
		auto = DefaultAutoExecutable()
	}
	byEntity := make(map[string]types.EntityRecord, len(records))
	for _, r := range records {
		byEntity[r.EntityID] = r
	}

	var res Result
	for _, ins := range insights {
		kind, ok := rules[ins.Category]
		if !ok {
			continue
		}
		action := types.Action{
			ID:        d.newID(),
			Kind:      kind,
			EntityID:  ins.EntityID,
			InsightID: ins.ID,
			Params:    buildParams(kind, ins, byEntity[ins.EntityID]),
			Status:    types.StatusProposed,
		}

		if !ins.LowConfidence && ins.Confidence >= d.AutoThreshold && auto[kind] {
			d.execute(ctx, &action, &res.Diags)
		} else {
			action.Status = types.StatusPendingReview
		}
		res.Actions = append(res.Actions, action)
	}
	return res
}

// Decide applies an external reviewer decision to a pending action.
// Approval executes the action through its registered executor; rejection
// only records the note. Only pending actions can be decided.
func (d *Dispatcher) Decide(ctx context.Context, action *types.Action, approve bool, note string) error {
	if action.Status != types.StatusPendingReview {
		return fmt.Errorf("action %s is %s, not pending review", action.ID, action.Status)
	}
	if !approve {
		action.Status = types.StatusRejected
		action.Reason = "rejected by reviewer: " + note
		return nil
	}
	var diags types.Diagnostics
	d.execute(ctx, action, &diags)
	if action.Status == types.StatusRejected {
		return fmt.Errorf("approved action failed: %s", action.Reason)
	}
	if action.Status == types.StatusPendingReview {
		return fmt.Errorf("no executor registered for %s", action.Kind)
	}
	if note != "" {
		action.Reason = "approved: " + note
	}
	return nil
}

func (d *Dispatcher) execute(ctx context.Context, action *types.Action, diags *types.Diagnostics) {
	exec, ok := d.Executors[action.Kind]
	if !ok {
		action.Status = types.StatusPendingReview
		diags.Add(types.Warning{
			EntityID: action.EntityID,
			Stage:    "dispatch",
			Message:  fmt.Sprintf("no executor registered for %s; queued for review", action.Kind),
		})
		return
	}
	if err := exec.Execute(ctx, *action); err != nil {
		eerr := &types.ExecutionError{ActionID: action.ID, Kind: action.Kind, Err: err}
		action.Status = types.StatusRejected
		action.Reason = eerr.Error()
		diags.Add(types.Warning{
			EntityID: action.EntityID,
			Stage:    "dispatch",
			Message:  eerr.Error(),
		})
		return
	}
	action.Status = types.StatusAutoExecuted
}

func (d *Dispatcher) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return uuid.NewString()
}
