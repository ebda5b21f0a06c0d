package report

import (
	"fmt"
	"strings"

	"rentalintel/internal/types"
)

// Render produces the plain-text executive summary of a report.
func Render(r types.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "RENTAL INTELLIGENCE REPORT %s\n", r.RunID)
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04"))

	fmt.Fprintf(&b, "SUMMARY\n")
	fmt.Fprintf(&b, "- Entities analyzed: %d\n", r.EntityCount)
	fmt.Fprintf(&b, "- Insights: %d (avg confidence %.2f)\n", r.InsightCount, r.AvgConfidence)
	fmt.Fprintf(&b, "- Maintenance findings: %d\n", r.InsightsByCategory[types.CategoryMaintenance])
	fmt.Fprintf(&b, "- Pricing opportunities: %d\n\n", r.InsightsByCategory[types.CategoryPricing])

	fmt.Fprintf(&b, "ACTIONS\n")
	fmt.Fprintf(&b, "- Auto-executed: %d\n", r.ActionsByStatus[types.StatusAutoExecuted])
	fmt.Fprintf(&b, "- Pending review: %d\n", r.ActionsByStatus[types.StatusPendingReview])
	fmt.Fprintf(&b, "- Rejected: %d\n", r.ActionsByStatus[types.StatusRejected])

	if est := r.Impact; est != nil {
		fmt.Fprintf(&b, "\nESTIMATED IMPACT (%s)\n", est.Note)
		if est.RevenueUpliftPctHigh > 0 {
			fmt.Fprintf(&b, "- Potential revenue uplift: %.0f-%.0f%%\n", est.RevenueUpliftPctLow, est.RevenueUpliftPctHigh)
		}
		if est.MaintenanceSavingsPctHigh > 0 {
			fmt.Fprintf(&b, "- Potential maintenance savings: %.0f-%.0f%%\n", est.MaintenanceSavingsPctLow, est.MaintenanceSavingsPctHigh)
		}
	}

	if n := len(r.Diagnostics.Warnings); n > 0 {
		fmt.Fprintf(&b, "\nDIAGNOSTICS (%d)\n", n)
		for _, w := range r.Diagnostics.Warnings {
			fmt.Fprintf(&b, "- [%s] %s\n", w.Stage, w.Message)
		}
	}
	return b.String()
}
