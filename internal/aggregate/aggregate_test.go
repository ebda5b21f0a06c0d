package aggregate

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"rentalintel/internal/source"
	"rentalintel/internal/types"
)

func payload(s string) json.RawMessage { return json.RawMessage(s) }

func TestAggregateMergesSourcesPerEntity(t *testing.T) {
	bookings := source.NewStaticConnector(types.SourceBookings, map[string]json.RawMessage{
		"prop-1": payload(`{"occupancy_pct":72}`),
		"prop-2": payload(`{"occupancy_pct":88}`),
	})
	pricing := source.NewStaticConnector(types.SourcePricing, map[string]json.RawMessage{
		"prop-1": payload(`{"current_price":150,"market_average":120}`),
	})

	fixed := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	agg := &Aggregator{
		Connectors: []source.Connector{bookings, pricing},
		Now:        func() time.Time { return fixed },
	}
	res := agg.Aggregate(context.Background(), []string{"prop-2", "prop-1"})

	if len(res.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(res.Records))
	}
	// sorted by entity id
	if res.Records[0].EntityID != "prop-1" || res.Records[1].EntityID != "prop-2" {
		t.Fatalf("unexpected order: %s, %s", res.Records[0].EntityID, res.Records[1].EntityID)
	}
	if got := len(res.Records[0].Sources); got != 2 {
		t.Fatalf("prop-1 sources = %d, want 2", got)
	}
	if got := len(res.Records[1].Sources); got != 1 {
		t.Fatalf("prop-2 sources = %d, want 1", got)
	}
	if !res.Records[0].FetchedAt.Equal(fixed) {
		t.Fatalf("FetchedAt = %v, want %v", res.Records[0].FetchedAt, fixed)
	}
	if len(res.Skipped) != 0 || len(res.Diags.Warnings) != 0 {
		t.Fatalf("unexpected skips/warnings: %v / %v", res.Skipped, res.Diags.Warnings)
	}
}

func TestAggregateSourceFailureDegrades(t *testing.T) {
	good := source.NewStaticConnector(types.SourceReviews, map[string]json.RawMessage{
		"prop-1": payload(`{"avg_rating":4.2}`),
	})
	bad := source.NewStaticConnector(types.SourceMaintenance, nil)
	bad.Err = errors.New("upstream timeout")

	agg := &Aggregator{Connectors: []source.Connector{good, bad}}
	res := agg.Aggregate(context.Background(), []string{"prop-1"})

	if len(res.Records) != 1 {
		t.Fatalf("records = %d, want 1", len(res.Records))
	}
	if _, ok := res.Records[0].Sources[types.SourceMaintenance]; ok {
		t.Fatalf("failed source must not contribute a slot")
	}
	if len(res.Diags.Warnings) != 1 {
		t.Fatalf("warnings = %d, want 1", len(res.Diags.Warnings))
	}
	w := res.Diags.Warnings[0]
	if w.Source != types.SourceMaintenance || w.Stage != "aggregate" {
		t.Fatalf("unexpected warning: %+v", w)
	}
	if !strings.Contains(w.Message, "upstream timeout") {
		t.Fatalf("warning should carry the cause: %q", w.Message)
	}
}

func TestAggregateSkipsEntitiesWithNoData(t *testing.T) {
	bookings := source.NewStaticConnector(types.SourceBookings, map[string]json.RawMessage{
		"prop-1": payload(`{"occupancy_pct":64}`),
	})
	agg := &Aggregator{Connectors: []source.Connector{bookings}}
	res := agg.Aggregate(context.Background(), []string{"prop-1", "ghost"})

	if len(res.Records) != 1 || res.Records[0].EntityID != "prop-1" {
		t.Fatalf("unexpected records: %+v", res.Records)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "ghost" {
		t.Fatalf("skipped = %v, want [ghost]", res.Skipped)
	}
	if len(res.Diags.Warnings) != 1 || res.Diags.Warnings[0].EntityID != "ghost" {
		t.Fatalf("expected a no-data warning for ghost, got %+v", res.Diags.Warnings)
	}
}

func TestAggregateAllSourcesFail(t *testing.T) {
	a := source.NewStaticConnector(types.SourceBookings, nil)
	a.Err = errors.New("down")
	b := source.NewStaticConnector(types.SourcePricing, nil)
	b.Err = errors.New("down")

	agg := &Aggregator{Connectors: []source.Connector{a, b}}
	res := agg.Aggregate(context.Background(), []string{"prop-1", "prop-2"})

	if len(res.Records) != 0 {
		t.Fatalf("records = %d, want 0", len(res.Records))
	}
	if len(res.Skipped) != 2 {
		t.Fatalf("skipped = %v, want both entities", res.Skipped)
	}
	// two fetch warnings plus two no-data warnings
	if len(res.Diags.Warnings) != 4 {
		t.Fatalf("warnings = %d, want 4", len(res.Diags.Warnings))
	}
}

func TestAggregateNoConnectors(t *testing.T) {
	agg := &Aggregator{}
	res := agg.Aggregate(context.Background(), []string{"prop-1"})
	if len(res.Records) != 0 || len(res.Skipped) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
