package llm

import (
	"context"
	"encoding/json"
)

// FakeClient returns a deterministic, minimal analysis payload for
// offline/testing runs. No network, no cost.
type FakeClient struct {
	tokenCap int
}

func NewFakeClient(cap int) *FakeClient {
	if cap <= 0 {
		cap = 4096
	}
	return &FakeClient{tokenCap: cap}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }
func (f *FakeClient) CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return len(text) / 4
}
func (f *FakeClient) TokenCapacity() int { return f.tokenCap }

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error) {
	obj := map[string]any{
		"insights": []any{
			map[string]any{
				"category":         "pricing",
				"explanation":      "nightly rate sits above market average while occupancy trends down",
				"confidence":       0.92,
				"suggested_action": "lower nightly rate toward market average",
			},
			map[string]any{
				"category":         "maintenance",
				"explanation":      "open maintenance tickets reported by guests in recent reviews",
				"confidence":       0.55,
				"suggested_action": "schedule an inspection",
			},
		},
	}
	b, _ := json.Marshal(obj)
	return json.RawMessage(b), nil
}
