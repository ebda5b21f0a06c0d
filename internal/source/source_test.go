package source

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rentalintel/internal/types"
)

func TestStaticConnectorFiltersByID(t *testing.T) {
	c := NewStaticConnector(types.SourceBookings, map[string]json.RawMessage{
		"prop-1": json.RawMessage(`{"occupancy_pct":70}`),
		"prop-2": json.RawMessage(`{"occupancy_pct":80}`),
	})
	got, err := c.Fetch(context.Background(), []string{"prop-1", "ghost"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("payloads = %d, want 1", len(got))
	}
	if _, ok := got["prop-1"]; !ok {
		t.Fatalf("missing prop-1: %v", got)
	}
}

func TestSimulatedConnectorsCoverAllSources(t *testing.T) {
	conns := Simulated(7)
	if len(conns) != 4 {
		t.Fatalf("connectors = %d, want 4", len(conns))
	}
	names := map[string]bool{}
	for _, c := range conns {
		names[c.Name()] = true
	}
	for _, want := range []string{types.SourceBookings, types.SourceReviews, types.SourceMaintenance, types.SourcePricing} {
		if !names[want] {
			t.Fatalf("missing connector %s", want)
		}
	}
}

func TestSimulatedConnectorDeterministic(t *testing.T) {
	ids := []string{"prop-1", "prop-2"}
	a, err := Simulated(7)[0].Fetch(context.Background(), ids)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Simulated(7)[0].Fetch(context.Background(), ids)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range ids {
		if !bytes.Equal(a[id], b[id]) {
			t.Fatalf("same seed must yield same payload for %s:\n%s\n%s", id, a[id], b[id])
		}
	}
}

func TestSimulatedPricingPayloadShape(t *testing.T) {
	conns := Simulated(7)
	var pricing Connector
	for _, c := range conns {
		if c.Name() == types.SourcePricing {
			pricing = c
		}
	}
	got, err := pricing.Fetch(context.Background(), []string{"prop-1"})
	if err != nil {
		t.Fatal(err)
	}
	var p struct {
		CurrentPrice  float64 `json:"current_price"`
		MarketAverage float64 `json:"market_average"`
	}
	if err := json.Unmarshal(got["prop-1"], &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.CurrentPrice < 80 || p.CurrentPrice > 300 {
		t.Fatalf("current_price out of range: %v", p.CurrentPrice)
	}
	if p.MarketAverage < 70 || p.MarketAverage > 280 {
		t.Fatalf("market_average out of range: %v", p.MarketAverage)
	}
}

func TestHTTPConnectorFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("ids"); got != "prop-1,prop-2" {
			t.Errorf("ids param = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sekret" {
			t.Errorf("authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prop-1":{"occupancy_pct":75}}`))
	}))
	defer srv.Close()

	c := NewHTTPConnector(types.SourceBookings, srv.URL, "sekret")
	got, err := c.Fetch(context.Background(), []string{"prop-1", "prop-2"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("payloads = %d, want 1", len(got))
	}
}

func TestHTTPConnectorErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPConnector(types.SourceBookings, srv.URL, "")
	if _, err := c.Fetch(context.Background(), []string{"prop-1"}); err == nil {
		t.Fatalf("bad status must fail the fetch")
	}
}
