// Package review is the human-facing surface: pending actions wait here
// for a reviewer decision, and run progress streams out over websockets.
package review

import (
	"sort"
	"sync"

	"rentalintel/internal/store"
	"rentalintel/internal/types"
)

// PendingAction ties a queued action to the run that produced it, so
// decisions can be attributed and streamed per run.
type PendingAction struct {
	RunID  string       `json:"run_id"`
	Action types.Action `json:"action"`
}

// Queue holds the actions waiting for a reviewer. Status transitions go
// through the dispatcher's Decide; the queue only tracks membership.
type Queue struct {
	mu      sync.RWMutex
	pending map[string]PendingAction
}

func NewQueue() *Queue {
	return &Queue{pending: make(map[string]PendingAction)}
}

// Enqueue adds every pending-review action of a run.
func (q *Queue) Enqueue(runID string, actions []types.Action) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, a := range actions {
		if a.Status == types.StatusPendingReview {
			q.pending[a.ID] = PendingAction{RunID: runID, Action: a}
		}
	}
}

// Pending lists queued actions, ordered by action id for stable output.
func (q *Queue) Pending() []PendingAction {
	q.mu.RLock()
	defer q.mu.RUnlock()
	out := make([]PendingAction, 0, len(q.pending))
	for _, p := range q.pending {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action.ID < out[j].Action.ID })
	return out
}

// Take removes and returns one queued action.
func (q *Queue) Take(id string) (PendingAction, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	p, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	return p, ok
}

// Requeue puts an action back, e.g. when a decision failed to apply.
func (q *Queue) Requeue(p PendingAction) {
	if p.Action.Status != types.StatusPendingReview {
		return
	}
	q.mu.Lock()
	q.pending[p.Action.ID] = p
	q.mu.Unlock()
}

// LoadPending seeds the queue from the pending actions of every stored
// report, newest run first. The review server calls it at startup so
// actions queued by a pipeline run in another process reach a reviewer.
// Reports are immutable, so a restart re-offers actions decided since the
// report was written; external effects stay safe behind the action's
// idempotency key.
func LoadPending(st *store.Store, q *Queue) (int, error) {
	ids, err := st.ListRunIDs()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, id := range ids {
		rep, err := st.Get(id)
		if err != nil {
			return n, err
		}
		q.Enqueue(rep.RunID, rep.Pending)
		n += len(rep.Pending)
	}
	return n, nil
}
