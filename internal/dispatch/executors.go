package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"rentalintel/internal/types"
)

// HTTPExecutor POSTs the action as JSON to an external system endpoint.
// One instance per action kind; the endpoint decides what the action means.
type HTTPExecutor struct {
	kind     types.ActionKind
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewHTTPExecutor(kind types.ActionKind, endpoint, apiKey string) *HTTPExecutor {
	return &HTTPExecutor{
		kind:     kind,
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (e *HTTPExecutor) Kind() types.ActionKind { return e.kind }

func (e *HTTPExecutor) Execute(ctx context.Context, action types.Action) error {
	b, err := json.Marshal(action)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	// Actions are executed at most once per dispatch; the action id doubles
	// as an idempotency key for endpoints that support one.
	req.Header.Set("Idempotency-Key", action.ID)
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		const max = 1024
		if len(body) > max {
			body = body[:max]
		}
		return fmt.Errorf("executor %s: unexpected status %s: %s", e.kind, resp.Status, string(body))
	}
	return nil
}

// SimulatedExecutor logs the action and succeeds. Offline demo runs use it
// in place of live systems.
type SimulatedExecutor struct {
	kind types.ActionKind
	log  *log.Logger
}

func NewSimulatedExecutor(kind types.ActionKind, logger *log.Logger) *SimulatedExecutor {
	if logger == nil {
		logger = log.Default()
	}
	return &SimulatedExecutor{kind: kind, log: logger}
}

func (e *SimulatedExecutor) Kind() types.ActionKind { return e.kind }

func (e *SimulatedExecutor) Execute(ctx context.Context, action types.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.log.Printf("simulated %s for entity %s (action %s)", e.kind, action.EntityID, action.ID)
	return nil
}

// SimulatedExecutors builds a simulated registry for every auto-executable
// kind plus guest notifications.
func SimulatedExecutors(logger *log.Logger) map[types.ActionKind]Executor {
	kinds := []types.ActionKind{
		types.ActionPriceUpdate,
		types.ActionMaintenanceSchedule,
		types.ActionGuestNotification,
	}
	out := make(map[types.ActionKind]Executor, len(kinds))
	for _, k := range kinds {
		out[k] = NewSimulatedExecutor(k, logger)
	}
	return out
}
