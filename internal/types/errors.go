package types

import "fmt"

// SourceFetchError reports a single connector failing for a batch. The
// aggregator records it and continues; the record keeps the slot absent.
type SourceFetchError struct {
	Source string
	Err    error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("source %s: fetch failed: %v", e.Source, e.Err)
}
func (e *SourceFetchError) Unwrap() error { return e.Err }

// NoDataError marks an entity for which zero sources succeeded. Fatal for
// that entity only; the batch continues without it.
type NoDataError struct {
	EntityID string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("entity %s: no source produced data", e.EntityID)
}

// ModelCallError wraps a model-backend failure after retries were exhausted.
// The engine degrades the insight instead of failing the batch.
type ModelCallError struct {
	EntityID string
	Attempts int
	Err      error
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("entity %s: model call failed after %d attempts: %v", e.EntityID, e.Attempts, e.Err)
}
func (e *ModelCallError) Unwrap() error { return e.Err }

// ExecutionError reports an action executor failing. The action is marked
// rejected with the reason attached; execution is never retried here since
// executors may have side effects that are unsafe to repeat.
type ExecutionError struct {
	ActionID string
	Kind     ActionKind
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("action %s (%s): execution failed: %v", e.ActionID, e.Kind, e.Err)
}
func (e *ExecutionError) Unwrap() error { return e.Err }
