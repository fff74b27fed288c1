package rollup

import (
	"testing"
	"time"

	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/resolve"
)

func mwPtr(v float64) *float64 { return &v }

func TestComputeBestFields(t *testing.T) {
	t.Run("plan token wins canonical name and parcel token wins location", func(t *testing.T) {
		procedures := []domain.Procedure{
			{TitleRaw: "Kurztitel", SiteLocationRaw: "Flur 1", CapacityMW: mwPtr(2), DeveloperCompany: "Nord GmbH", LegalBasis: "§34"},
			{TitleRaw: "Ein sehr viel längerer Titel zum Bebauungsplan", SiteLocationRaw: "Gemarkung X, Flur 2", CapacityMW: mwPtr(5), DeveloperCompany: "Nord GmbH", LegalBasis: "§35"},
		}
		sig := resolve.Signature{PlanToken: "12", ParcelToken: "gemarkung=x;flur=2"}
		best := ComputeBestFields(procedures, sig)

		if best.CanonicalProjectName != "B-Plan 12" {
			t.Fatalf("got %q", best.CanonicalProjectName)
		}
		if best.SiteLocationBest != "gemarkung=x;flur=2" {
			t.Fatalf("got %q", best.SiteLocationBest)
		}
		if best.DeveloperCompanyBest != "Nord GmbH" {
			t.Fatalf("got %q", best.DeveloperCompanyBest)
		}
		if best.CapacityMWBest == nil || *best.CapacityMWBest != 5 {
			t.Fatalf("got %v", best.CapacityMWBest)
		}
		if best.LegalBasisBest != "§35" {
			t.Fatalf("got %q, want §35 priority", best.LegalBasisBest)
		}
	})

	t.Run("falls back to longest plan-related title when no plan token", func(t *testing.T) {
		procedures := []domain.Procedure{
			{TitleRaw: "Kurz"},
			{TitleRaw: "Bebauungsplan Batteriespeicher Nord, ausführlicher Titel"},
			{TitleRaw: "Ein völlig anderer, noch längerer, sachfremder Titel ohne jeden Bezug"},
		}
		best := ComputeBestFields(procedures, resolve.Signature{})
		if best.CanonicalProjectName != "Bebauungsplan Batteriespeicher Nord, ausführlicher Titel" {
			t.Fatalf("got %q", best.CanonicalProjectName)
		}
	})
}

func TestComputeProjectDates(t *testing.T) {
	d1 := time.Date(2023, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	procedures := []domain.Procedure{
		{DecisionDate: &d2},
		{CreatedAt: d1},
	}
	first, last := ComputeProjectDates(procedures)
	if first == nil || !first.Equal(d1) {
		t.Fatalf("got first=%v", first)
	}
	if last == nil || !last.Equal(d2) {
		t.Fatalf("got last=%v", last)
	}
}

func TestComputeProjectDates_Empty(t *testing.T) {
	first, last := ComputeProjectDates(nil)
	if first != nil || last != nil {
		t.Fatalf("expected nil, nil, got %v, %v", first, last)
	}
}

func TestComputeProjectConfidence(t *testing.T) {
	results := []domain.ClassifierResult{
		{ConfidenceScore: 0.4},
		{ConfidenceScore: 0.8, ReviewRecommended: true},
		{ConfidenceScore: 0.2},
	}
	maxConf, needsReview := ComputeProjectConfidence(results)
	if maxConf != 0.8 {
		t.Fatalf("got maxConf=%v", maxConf)
	}
	if !needsReview {
		t.Fatalf("expected needsReview=true")
	}
}
