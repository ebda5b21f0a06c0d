package dispatch

import "rentalintel/internal/types"

// DefaultRules is the fixed category → action-kind table. unknown maps to
// nothing: degraded insights produce no action.
func DefaultRules() map[types.Category]types.ActionKind {
	return map[types.Category]types.ActionKind{
		types.CategoryPricing:         types.ActionPriceUpdate,
		types.CategoryRevenue:         types.ActionPriceUpdate,
		types.CategoryMaintenance:     types.ActionMaintenanceSchedule,
		types.CategoryGuestExperience: types.ActionGuestNotification,
	}
}

// DefaultAutoExecutable is the set of kinds the dispatcher may execute
// without a reviewer. Guest notifications always go through review.
func DefaultAutoExecutable() map[types.ActionKind]bool {
	return map[types.ActionKind]bool{
		types.ActionPriceUpdate:         true,
		types.ActionMaintenanceSchedule: true,
	}
}
