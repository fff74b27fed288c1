// Package classifier implements the deterministic, keyword-driven rule
// system that decides whether crawled text describes a BESS or
// grid-infrastructure permitting/planning procedure, and if so, tags
// its procedure type, legal basis, project components and confidence.
package classifier

import (
	"strings"
	"time"

	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/text/normalize"
)

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

func countContained(haystack string, terms []string) int {
	n := 0
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			n++
		}
	}
	return n
}

// IsCandidate runs the fast R0 gate: a document becomes a candidate
// only if it pairs a procedure term with a BESS/energy signal, unless a
// negative term is present without an explicit BESS term, in which
// case it is rejected outright.
func IsCandidate(text, title string) bool {
	normalizedText, _ := normalize.Text(text)
	normalizedTitle, _ := normalize.Text(title)
	combined := normalizedText + " " + normalizedTitle

	hasNegative := containsAny(combined, negativeTerms)
	hasBESSExplicit := containsAny(combined, BESSTermsExplicit)
	if hasNegative && !hasBESSExplicit {
		return false
	}

	if !containsAny(combined, procedureTerms) {
		return false
	}

	hasSpeicherEnergy := strings.Contains(combined, "speicher") && containsAny(combined, EnergyContextTerms)
	hasZoningEnergy := containsAny(combined, ZoningTerms) && containsAny(combined, EnergyContextTerms)

	return hasBESSExplicit || hasSpeicherEnergy || hasZoningEnergy
}

// Classify runs rules R1–R3 to determine confirmed relevance and, when
// relevant, tags procedure type, legal basis, project components and
// confidence. date should default to time.Now() at the caller rather
// than being passed as a zero value, since rule R2 treats "no date
// supplied" as eligible by always observing a concrete date here.
func Classify(text, title string, date time.Time) domain.ClassifierResult {
	normalizedText, originalText := normalize.Text(text)
	normalizedTitle, originalTitle := normalize.Text(title)
	combined := normalizedText + " " + normalizedTitle
	originalCombined := strings.ToLower(originalText + " " + originalTitle)

	result := domain.ClassifierResult{}
	result.IsCandidate = IsCandidate(text, title)

	hasNegative := containsAny(combined, negativeTerms) || containsAny(originalCombined, negativeTerms)
	hasBESSExplicit := containsAny(combined, StrongBESSTerms)
	hasMediumBESS := containsAny(combined, MediumBESSTerms)
	hasProcedure := containsAny(combined, procedureTerms)

	if hasNegative && !hasBESSExplicit {
		return result
	}

	// Rule R1: explicit BESS term plus a procedure signal.
	if hasBESSExplicit && hasProcedure && !hasNegative {
		result.IsRelevant = true
	}

	// Rule R2: explicit BESS term in the title, for sufficiently recent
	// procedures. Every caller in this module supplies a date (default
	// now), so "no date" never reaches this check as a missing value.
	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	if !date.Before(cutoff) {
		if strings.Contains(normalizedTitle, "batteriespeicher") || strings.Contains(normalizedTitle, "energiespeicher") {
			result.IsRelevant = true
		}
	}

	// Rule R3: ambiguous "Speicher" backed by strong grid context.
	if (strings.Contains(combined, "speicher") || hasMediumBESS) && !result.IsRelevant && !hasNegative {
		gridTermsCount := countContained(combined, BESSTermsContainerGrid)
		hasProcedureTerm := containsAny(combined, concatTerms(PlanningStepTerms, PermitTermsStrong))
		if gridTermsCount >= 2 && hasProcedureTerm {
			result.IsRelevant = true
			result.AmbiguityFlag = true
		}
	}

	if !result.IsRelevant {
		return result
	}

	result.ProcedureType = tagProcedureType(combined)
	result.LegalBasis = tagLegalBasis(combined)
	result.ProjectComponents = tagProjectComponents(combined)
	result.ConfidenceScore = calculateConfidence(combined, hasBESSExplicit, date)

	if !hasBESSExplicit {
		result.AmbiguityFlag = true
	}

	if result.ConfidenceScore >= 0.35 && result.ConfidenceScore <= 0.65 {
		result.ReviewRecommended = true
	}

	result.EvidenceSnippets = extractEvidenceSnippets(originalText, combined)

	return result
}

func tagProcedureType(text string) domain.ProcedureType {
	switch {
	case strings.Contains(text, "bauvorbescheid"), strings.Contains(text, "vorbescheid"):
		return domain.ProcedureBauvorbescheid
	case strings.Contains(text, "baugenehmigung"):
		return domain.ProcedureBaugenehmigung
	case strings.Contains(text, "§ 36 baugb"),
		strings.Contains(text, "gemeindliches einvernehmen") && strings.Contains(text, "§ 36"):
		return domain.ProcedurePermit36
	case strings.Contains(text, "bauantrag"),
		strings.Contains(text, "antrag auf") && containsAny(text, PermitTermsStrong):
		return domain.ProcedurePermitOther
	case strings.Contains(text, "bauvoranfrage"), strings.Contains(text, "bauvorantrag"):
		return domain.ProcedurePermitOther
	case strings.Contains(text, "kenntnisnahme") && (strings.Contains(text, "bauantrag") || strings.Contains(text, "vorhaben")):
		return domain.ProcedurePermitOther
	case strings.Contains(text, "antrag auf errichtung"):
		return domain.ProcedurePermitOther
	}

	switch {
	case strings.Contains(text, "aufstellungsbeschluss"),
		strings.Contains(text, "beschluss zur aufstellung"),
		strings.Contains(text, "§ 2 abs. 1 baugb"):
		return domain.ProcedureBPlanAufstellung
	case strings.Contains(text, "§ 3 abs. 1 baugb"),
		strings.Contains(text, "frühzeitige beteiligung"),
		strings.Contains(text, "fruehzeitige beteiligung"):
		return domain.ProcedureBPlanFruehzeitig31
	case strings.Contains(text, "§ 3 abs. 2 baugb"),
		strings.Contains(text, "öffentliche auslegung"),
		strings.Contains(text, "oeffentliche auslegung"):
		return domain.ProcedureBPlanAuslegung32
	case strings.Contains(text, "satzungsbeschluss"),
		strings.Contains(text, "§ 10 baugb"),
		strings.Contains(text, "inkrafttreten"):
		return domain.ProcedureBPlanSatzung
	case containsAny(text, PlanningTermsStrong):
		return domain.ProcedureBPlanOther
	}

	return domain.ProcedureUnknown
}

// tagLegalBasis tags the §35/§34/§36 legal basis in priority order,
// after normalizing the broken whitespace RIS PDF text extraction
// often introduces mid-word.
func tagLegalBasis(text string) string {
	n := strings.ReplaceAll(text, "\n", " ")
	n = strings.ReplaceAll(n, "\t", " ")
	n = strings.ReplaceAll(n, "  ", " ")

	switch {
	case strings.Contains(n, "§ 35 baugb"), strings.Contains(n, "§35 baugb"),
		strings.Contains(n, "§ 35bau gb"), strings.Contains(n, "§35bau gb"),
		strings.Contains(n, "außenbereich"), strings.Contains(n, "aussenbereich"):
		return "§35"
	case strings.Contains(n, "§ 34 baugb"), strings.Contains(n, "§34 baugb"),
		strings.Contains(n, "§ 34bau gb"), strings.Contains(n, "§34bau gb"),
		strings.Contains(n, "innenbereich"):
		return "§34"
	case strings.Contains(n, "§ 36 baugb"), strings.Contains(n, "§36 baugb"),
		strings.Contains(n, "§ 36bau gb"), strings.Contains(n, "§36bau gb"):
		return "§36"
	}
	return "unknown"
}

func tagProjectComponents(text string) domain.ProjectComponents {
	n := strings.ReplaceAll(text, "\n", " ")
	n = strings.ReplaceAll(n, "\t", " ")

	hasPV := containsAny(n, []string{"photovoltaik", "pv", "solarpark"})
	hasWind := containsAny(n, []string{"windenergie", "windpark"})
	hasBESS := containsAny(n, BESSTermsExplicit) || strings.Contains(n, "speicher")

	hasContainer := strings.Contains(n, "containeranlage")
	hasGrid := containsAny(n, []string{"netz", "umspannwerk", "trafostation", "mittelspannung", "hochspannung"})
	if hasContainer && hasGrid {
		hasBESS = true
	}
	if strings.Contains(n, "anlage zur energiespeicherung") {
		hasBESS = true
	}

	switch {
	case hasPV && hasBESS:
		return domain.ComponentsPVBESS
	case hasWind && hasBESS:
		return domain.ComponentsWindBESS
	case hasBESS:
		return domain.ComponentsBESSOnly
	}
	return domain.ComponentsOtherUnclear
}

func calculateConfidence(text string, hasBESSExplicit bool, date time.Time) float64 {
	score := 0.0

	switch {
	case containsAny(text, []string{"batteriespeicher", "energiespeicher", "stromspeicher"}):
		score += 0.55
	case containsAny(text, []string{"speicheranlage", "grossspeicher", "großspeicher", "speicherpark"}):
		score += 0.35
	case strings.Contains(text, "speicher") && containsAny(text, EnergyContextTerms):
		score += 0.15
	}

	if containsAny(text, PlanningStepTerms) {
		score += 0.25
	}
	if strings.Contains(text, "bauvorbescheid") || strings.Contains(text, "baugenehmigung") {
		score += 0.25
	}
	if strings.Contains(text, "§ 36 baugb") || strings.Contains(text, "gemeindliches einvernehmen") {
		score += 0.20
	}

	gridTerms := []string{"umspannwerk", "netzanschluss", "trafostation", "mittelspannung", "hochspannung", "netzverknuepfungspunkt", "netzverknüpfungspunkt"}
	if containsAny(text, gridTerms) {
		score += 0.10
	}

	if containsAny(text, NegativeStorageTerms) && !hasBESSExplicit {
		return 0.0
	}

	if strings.Contains(text, "speicher") && !containsAny(text, BESSTermsContainerGrid) {
		score -= 0.25
	}
	if date.IsZero() {
		score -= 0.15
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func snippetAround(text, normalized, term string, maxLen int) (string, bool) {
	idx := strings.Index(normalized, term)
	if idx < 0 {
		return "", false
	}
	start := idx - 100
	if start < 0 {
		start = 0
	}
	end := idx + len(term) + 100
	if end > len(text) {
		end = len(text)
	}
	if start > len(text) {
		start = len(text)
	}
	snippet := strings.TrimSpace(text[start:end])
	if snippet == "" || len(snippet) > maxLen {
		return "", false
	}
	return snippet, true
}

// extractEvidenceSnippets picks one supporting excerpt per rule
// category (BESS term, procedure term, legal basis), each a window of
// at most 250 characters around the first matching keyword.
func extractEvidenceSnippets(text, normalized string) []domain.EvidenceSnippet {
	const maxLen = 250
	var snippets []domain.EvidenceSnippet

	for _, term := range BESSTermsExplicit {
		if s, ok := snippetAround(text, normalized, term, maxLen); ok {
			snippets = append(snippets, domain.EvidenceSnippet{Rule: "bess_term", Text: s})
			break
		}
	}
	for _, term := range concatTerms(PlanningStepTerms, PermitTermsStrong) {
		if s, ok := snippetAround(text, normalized, term, maxLen); ok {
			snippets = append(snippets, domain.EvidenceSnippet{Rule: "procedure_term", Text: s})
			break
		}
	}
	for _, term := range LegalBasisTerms {
		if s, ok := snippetAround(text, normalized, term, maxLen); ok {
			snippets = append(snippets, domain.EvidenceSnippet{Rule: "legal_basis", Text: s})
			break
		}
	}

	if len(snippets) > 5 {
		snippets = snippets[:5]
	}
	return snippets
}
