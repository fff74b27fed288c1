// Package rollup aggregates the procedures linked to a single project
// entity into the project's best-known field values, date span, and
// confidence/review status.
package rollup

import (
	"strings"
	"time"

	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/resolve"
)

// BestFields is the set of project-entity fields computed from the
// procedures linked to it.
type BestFields struct {
	CanonicalProjectName string
	SiteLocationBest     string
	DeveloperCompanyBest string
	CapacityMWBest       *float64
	CapacityMWhBest      *float64
	AreaHectaresBest     *float64
	LegalBasisBest       string
}

var planNameTitleTerms = []string{"bebauungsplan", "b-plan", "plan"}

// ComputeBestFields folds a project's linked procedures down to one
// canonical name, site location, developer, capacity/area maxima, and
// a priority-ordered legal basis.
func ComputeBestFields(procedures []domain.Procedure, signature resolve.Signature) BestFields {
	var best BestFields

	if signature.PlanToken != "" {
		best.CanonicalProjectName = "B-Plan " + signature.PlanToken
	} else if title := longestTitle(procedures); title != "" {
		best.CanonicalProjectName = title
	}

	if signature.ParcelToken != "" {
		best.SiteLocationBest = signature.ParcelToken
	} else {
		var longest string
		for _, p := range procedures {
			if len(p.SiteLocationRaw) > len(longest) {
				longest = p.SiteLocationRaw
			}
		}
		best.SiteLocationBest = longest
	}

	best.DeveloperCompanyBest = mostFrequentDeveloper(procedures)

	for _, p := range procedures {
		if p.CapacityMW != nil && (best.CapacityMWBest == nil || *p.CapacityMW > *best.CapacityMWBest) {
			v := *p.CapacityMW
			best.CapacityMWBest = &v
		}
		if p.CapacityMWh != nil && (best.CapacityMWhBest == nil || *p.CapacityMWh > *best.CapacityMWhBest) {
			v := *p.CapacityMWh
			best.CapacityMWhBest = &v
		}
		if p.AreaHectares != nil && (best.AreaHectaresBest == nil || *p.AreaHectares > *best.AreaHectaresBest) {
			v := *p.AreaHectares
			best.AreaHectaresBest = &v
		}
	}

	best.LegalBasisBest = bestLegalBasis(procedures)

	return best
}

func longestTitle(procedures []domain.Procedure) string {
	var titles []string
	for _, p := range procedures {
		if p.TitleRaw != "" {
			titles = append(titles, p.TitleRaw)
		}
	}
	if len(titles) == 0 {
		return ""
	}

	var planTitles []string
	for _, t := range titles {
		lower := strings.ToLower(t)
		for _, term := range planNameTitleTerms {
			if strings.Contains(lower, term) {
				planTitles = append(planTitles, t)
				break
			}
		}
	}
	if len(planTitles) > 0 {
		return longestOf(planTitles)
	}
	return longestOf(titles)
}

func longestOf(values []string) string {
	longest := values[0]
	for _, v := range values[1:] {
		if len(v) > len(longest) {
			longest = v
		}
	}
	return longest
}

func mostFrequentDeveloper(procedures []domain.Procedure) string {
	counts := make(map[string]int)
	var order []string
	for _, p := range procedures {
		if p.DeveloperCompany == "" {
			continue
		}
		if counts[p.DeveloperCompany] == 0 {
			order = append(order, p.DeveloperCompany)
		}
		counts[p.DeveloperCompany]++
	}
	if len(order) == 0 {
		return ""
	}
	best := order[0]
	for _, dev := range order[1:] {
		if counts[dev] > counts[best] {
			best = dev
		}
	}
	return best
}

func bestLegalBasis(procedures []domain.Procedure) string {
	var legalBases []string
	for _, p := range procedures {
		if p.LegalBasis != "" {
			legalBases = append(legalBases, p.LegalBasis)
		}
	}
	if len(legalBases) == 0 {
		return ""
	}
	for _, basis := range legalBases {
		if basis == "§35" {
			return "§35"
		}
	}
	for _, basis := range legalBases {
		if basis == "§34" {
			return "§34"
		}
	}
	for _, basis := range legalBases {
		if basis == "§36" {
			return "§36"
		}
	}
	return legalBases[0]
}

// ComputeProjectDates returns the earliest and latest date across a
// project's linked procedures, preferring each procedure's decision
// date and falling back to when it was first crawled.
func ComputeProjectDates(procedures []domain.Procedure) (first, last *time.Time) {
	var dates []time.Time
	for _, p := range procedures {
		switch {
		case p.DecisionDate != nil:
			dates = append(dates, *p.DecisionDate)
		case !p.CreatedAt.IsZero():
			dates = append(dates, p.CreatedAt)
		}
	}
	if len(dates) == 0 {
		return nil, nil
	}

	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return &min, &max
}

// ComputeProjectConfidence derives a project's max confidence and
// review flag from its linked procedures' classifier outcomes.
func ComputeProjectConfidence(results []domain.ClassifierResult) (maxConfidence float64, needsReview bool) {
	for _, r := range results {
		if r.ConfidenceScore > maxConfidence {
			maxConfidence = r.ConfidenceScore
		}
		if r.ReviewRecommended {
			needsReview = true
		}
	}
	return maxConfidence, needsReview
}
