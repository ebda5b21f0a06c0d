package types

import (
	"encoding/json"
	"strings"
	"time"
)

// Source names ---------------------------------------------------------------

const (
	SourceBookings    = "bookings"
	SourceReviews     = "reviews"
	SourceMaintenance = "maintenance"
	SourcePricing     = "pricing"
)

// EntityRecord is one managed unit (a rental property) with the raw payload
// of every source that answered for it. Owned by the aggregator; downstream
// stages treat it as read-only.
type EntityRecord struct {
	EntityID  string                     `json:"entity_id"`
	Sources   map[string]json.RawMessage `json:"sources"`
	FetchedAt time.Time                  `json:"fetched_at"`
}

// SourceNames returns the names of the populated source slots.
func (r EntityRecord) SourceNames() []string {
	out := make([]string, 0, len(r.Sources))
	for name := range r.Sources {
		out = append(out, name)
	}
	return out
}

// Insight categories ---------------------------------------------------------

type Category string

const (
	CategoryPricing         Category = "pricing"
	CategoryMaintenance     Category = "maintenance"
	CategoryGuestExperience Category = "guest_experience"
	CategoryRevenue         Category = "revenue"
	CategoryUnknown         Category = "unknown"
)

// Normalize maps free-form model output onto the closed category set.
func (c Category) Normalize() Category {
	n := Category(strings.ToLower(strings.TrimSpace(string(c))))
	switch n {
	case CategoryPricing, CategoryMaintenance, CategoryGuestExperience, CategoryRevenue:
		return n
	default:
		return CategoryUnknown
	}
}

// Insight is a confidence-scored judgment derived from one entity record.
// Immutable once created.
type Insight struct {
	ID              string   `json:"id"`
	EntityID        string   `json:"entity_id"`
	Category        Category `json:"category"`
	Explanation     string   `json:"explanation"`
	Confidence      float64  `json:"confidence"`
	LowConfidence   bool     `json:"low_confidence,omitempty"`
	SuggestedAction string   `json:"suggested_action,omitempty"`
	SourceNames     []string `json:"source_names"`
}

// Actions --------------------------------------------------------------------

type ActionKind string

const (
	ActionPriceUpdate         ActionKind = "price_update"
	ActionMaintenanceSchedule ActionKind = "maintenance_schedule"
	ActionGuestNotification   ActionKind = "guest_notification"
	ActionOther               ActionKind = "other"
)

type ActionStatus string

const (
	StatusProposed      ActionStatus = "proposed"
	StatusAutoExecuted  ActionStatus = "auto_executed"
	StatusPendingReview ActionStatus = "pending_review"
	StatusRejected      ActionStatus = "rejected"
)

// Action is a proposed or executed operation. Each action references exactly
// one originating insight. Status is mutated only by the dispatcher or by an
// external reviewer decision.
type Action struct {
	ID        string         `json:"id"`
	Kind      ActionKind     `json:"kind"`
	EntityID  string         `json:"entity_id"`
	InsightID string         `json:"insight_id"`
	Params    map[string]any `json:"params,omitempty"`
	Status    ActionStatus   `json:"status"`
	// Reason carries the executor failure when Status is rejected, or the
	// reviewer note when a reviewer decided.
	Reason string `json:"reason,omitempty"`
}

// Diagnostics ----------------------------------------------------------------

// Warning is one non-fatal problem attached to a run.
type Warning struct {
	EntityID string `json:"entity_id,omitempty"`
	Source   string `json:"source,omitempty"`
	Stage    string `json:"stage"`
	Message  string `json:"message"`
}

// Diagnostics collects the warnings of one run. The zero value is usable.
type Diagnostics struct {
	Warnings []Warning `json:"warnings,omitempty"`
}

func (d *Diagnostics) Add(w Warning) {
	if d == nil {
		return
	}
	d.Warnings = append(d.Warnings, w)
}

func (d *Diagnostics) Merge(other Diagnostics) {
	if d == nil || len(other.Warnings) == 0 {
		return
	}
	d.Warnings = append(d.Warnings, other.Warnings...)
}

// Report ---------------------------------------------------------------------

// ImpactEstimate is a best-effort range, never a measured value.
type ImpactEstimate struct {
	RevenueUpliftPctLow       float64 `json:"revenue_uplift_pct_low"`
	RevenueUpliftPctHigh      float64 `json:"revenue_uplift_pct_high"`
	MaintenanceSavingsPctLow  float64 `json:"maintenance_savings_pct_low"`
	MaintenanceSavingsPctHigh float64 `json:"maintenance_savings_pct_high"`
	Note                      string  `json:"note"`
}

// Report is the aggregate snapshot of one run. Append-only: never mutated
// after creation.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	EntityCount  int `json:"entity_count"`
	InsightCount int `json:"insight_count"`
	ActionCount  int `json:"action_count"`

	InsightsByCategory map[Category]int     `json:"insights_by_category"`
	ActionsByStatus    map[ActionStatus]int `json:"actions_by_status"`

	AutoExecuted []Action `json:"auto_executed"`
	Pending      []Action `json:"pending"`

	AvgConfidence float64         `json:"avg_confidence"`
	Impact        *ImpactEstimate `json:"impact,omitempty"`

	Diagnostics Diagnostics `json:"diagnostics"`
}
