package source

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math/rand"
	"time"
)

// Simulated returns the four demo connectors (bookings, reviews,
// maintenance, pricing) with payloads derived deterministically from the
// entity id and seed. Offline runs use these in place of live systems.
func Simulated(seed int64) []Connector {
	return []Connector{
		&simConnector{name: "bookings", seed: seed, gen: simBookings},
		&simConnector{name: "reviews", seed: seed, gen: simReviews},
		&simConnector{name: "maintenance", seed: seed, gen: simMaintenance},
		&simConnector{name: "pricing", seed: seed, gen: simPricing},
	}
}

type simConnector struct {
	name string
	seed int64
	gen  func(rng *rand.Rand) any
}

func (c *simConnector) Name() string { return c.name }

func (c *simConnector) Fetch(ctx context.Context, entityIDs []string) (map[string]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(entityIDs))
	for _, id := range entityIDs {
		rng := rand.New(rand.NewSource(c.seed ^ int64(hashID(c.name+"/"+id))))
		b, err := json.Marshal(c.gen(rng))
		if err != nil {
			return nil, err
		}
		out[id] = json.RawMessage(b)
	}
	return out, nil
}

func hashID(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

func simBookings(rng *rand.Rand) any {
	return map[string]any{
		"occupancy": 60 + rng.Float64()*35,
		"revenue":   5000 + rng.Intn(20001),
		"bookings":  15 + rng.Intn(31),
	}
}

func simReviews(rng *rand.Rand) any {
	rating := 3.5 + rng.Float64()*1.5
	return map[string]any{
		"rating":       float64(int(rating*10)) / 10,
		"review_count": 10 + rng.Intn(91),
	}
}

func simMaintenance(rng *rand.Rand) any {
	return map[string]any{
		"maintenance_issues": rng.Intn(4),
		"last_inspection":    time.Now().AddDate(0, 0, -(1 + rng.Intn(90))).Format(time.RFC3339),
	}
}

func simPricing(rng *rand.Rand) any {
	return map[string]any{
		"current_price":  80 + rng.Intn(221),
		"market_average": 70 + rng.Intn(211),
	}
}
