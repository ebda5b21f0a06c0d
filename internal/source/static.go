package source

import (
	"context"
	"encoding/json"
)

// StaticConnector serves fixed payloads from memory. Used by tests and by
// offline demo runs; Err, when set, makes every Fetch fail.
type StaticConnector struct {
	name string
	data map[string]json.RawMessage
	Err  error
}

func NewStaticConnector(name string, data map[string]json.RawMessage) *StaticConnector {
	if data == nil {
		data = map[string]json.RawMessage{}
	}
	return &StaticConnector{name: name, data: data}
}

func (c *StaticConnector) Name() string { return c.name }

func (c *StaticConnector) Fetch(ctx context.Context, entityIDs []string) (map[string]json.RawMessage, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(entityIDs))
	for _, id := range entityIDs {
		if payload, ok := c.data[id]; ok {
			out[id] = payload
		}
	}
	return out, nil
}
