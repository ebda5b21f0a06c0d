package types

import (
	"errors"
	"testing"
)

func TestCategoryNormalize(t *testing.T) {
	cases := map[string]Category{
		"pricing":          CategoryPricing,
		"Pricing":          CategoryPricing,
		" maintenance ":    CategoryMaintenance,
		"guest_experience": CategoryGuestExperience,
		"revenue":          CategoryRevenue,
		"unknown":          CategoryUnknown,
		"":                 CategoryUnknown,
		"something-else":   CategoryUnknown,
	}
	for in, want := range cases {
		if got := Category(in).Normalize(); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestErrorTypesUnwrap(t *testing.T) {
	cause := errors.New("connection refused")

	var sfe *SourceFetchError
	err := error(&SourceFetchError{Source: SourceBookings, Err: cause})
	if !errors.As(err, &sfe) {
		t.Fatalf("errors.As failed for SourceFetchError")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("SourceFetchError should unwrap to its cause")
	}

	var mce *ModelCallError
	err = error(&ModelCallError{EntityID: "prop-1", Attempts: 3, Err: cause})
	if !errors.As(err, &mce) {
		t.Fatalf("errors.As failed for ModelCallError")
	}
	if mce.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", mce.Attempts)
	}

	var eerr *ExecutionError
	err = error(&ExecutionError{ActionID: "a1", Kind: ActionPriceUpdate, Err: cause})
	if !errors.As(err, &eerr) {
		t.Fatalf("errors.As failed for ExecutionError")
	}

	var nde *NoDataError
	if !errors.As(error(&NoDataError{EntityID: "prop-2"}), &nde) {
		t.Fatalf("errors.As failed for NoDataError")
	}
}

func TestDiagnosticsMerge(t *testing.T) {
	var a, b Diagnostics
	a.Add(Warning{EntityID: "p1", Stage: "aggregate", Message: "x"})
	b.Add(Warning{EntityID: "p2", Stage: "insight", Message: "y"})
	b.Add(Warning{EntityID: "p3", Stage: "dispatch", Message: "z"})

	a.Merge(b)
	if len(a.Warnings) != 3 {
		t.Fatalf("merged warnings = %d, want 3", len(a.Warnings))
	}
	if a.Warnings[0].EntityID != "p1" || a.Warnings[2].EntityID != "p3" {
		t.Fatalf("merge lost ordering: %+v", a.Warnings)
	}
}
