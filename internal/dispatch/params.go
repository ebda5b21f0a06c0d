package dispatch

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"rentalintel/internal/types"
)

type pricingPayload struct {
	CurrentPrice  json.Number `json:"current_price"`
	MarketAverage json.Number `json:"market_average"`
}

// buildParams derives per-kind action parameters. Pricing actions get a
// proposed nightly rate computed from the record's pricing slot; money
// math goes through decimal and is carried as strings.
func buildParams(kind types.ActionKind, ins types.Insight, rec types.EntityRecord) map[string]any {
	params := map[string]any{}
	if ins.SuggestedAction != "" {
		params["recommendation"] = ins.SuggestedAction
	}
	if kind != types.ActionPriceUpdate {
		return params
	}

	raw, ok := rec.Sources[types.SourcePricing]
	if !ok {
		return params
	}
	var p pricingPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return params
	}
	current, err1 := decimal.NewFromString(p.CurrentPrice.String())
	market, err2 := decimal.NewFromString(p.MarketAverage.String())
	if err1 != nil || err2 != nil {
		return params
	}

	params["current_price"] = current.StringFixed(2)
	params["market_average"] = market.StringFixed(2)
	params["proposed_price"] = ProposedPrice(current, market).StringFixed(2)
	return params
}

// ProposedPrice moves the current rate halfway toward the market average.
// A half step keeps a pricing feed glitch from swinging the rate fully in
// one run.
func ProposedPrice(current, market decimal.Decimal) decimal.Decimal {
	half := decimal.NewFromInt(2)
	return current.Add(market.Sub(current).Div(half)).Round(2)
}
