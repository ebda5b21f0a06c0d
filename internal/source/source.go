// Package source defines the connector contract the aggregator consumes and
// the concrete connectors shipped with the pipeline (HTTP feeds, Postgres,
// static fixtures, simulated demo data).
package source

import (
	"context"
	"encoding/json"
)

// Connector exposes one named upstream system (bookings, reviews,
// maintenance, pricing). Fetch returns one payload per entity id that the
// source knows about; ids the source has no data for are simply absent from
// the result. A Fetch error fails this source for the whole batch, never
// the run.
type Connector interface {
	Name() string
	Fetch(ctx context.Context, entityIDs []string) (map[string]json.RawMessage, error)
}
