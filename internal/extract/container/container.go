// Package container identifies and rejects container-like crawl items
// (Amtsblatt issues, generic listing PDFs) that surface no single
// procedure and decides whether a classified item is worth persisting.
package container

import (
	"regexp"
	"strings"

	"github.com/witto13/bess-crawler/internal/domain"
)

var containerKeywords = []string{
	"amtsblatt",
	"sonderamtsblatt",
	"bekanntmachungsblatt",
	"bekanntmachung",
	"veröffentlichung",
	"ausgabe",
	"nummer",
	"nr.",
	"jahrgang",
}

var procedureKeywords = []string{
	"bebauungsplan",
	"b-plan",
	"bauleitplanung",
	"aufstellungsbeschluss",
	"satzungsbeschluss",
	"öffentliche auslegung",
	"bauvorbescheid",
	"baugenehmigung",
	"einvernehmen",
	"§ 35",
	"§ 34",
	"§ 36",
	"batteriespeicher",
	"energiespeicher",
	"speicheranlage",
}

var requiredSignalTerms = []string{
	"bebauungsplan", "b-plan", "bauleitplanung",
	"aufstellungsbeschluss", "satzungsbeschluss",
	"öffentliche auslegung", "auslegung",
	"bauvorbescheid", "baugenehmigung",
	"einvernehmen", "§ 35", "§ 34", "§ 36",
}

var textSignalTerms = []string{
	"bebauungsplan", "b-plan", "bauleitplanung",
	"aufstellungsbeschluss", "satzungsbeschluss",
	"öffentliche auslegung", "auslegung",
	"bauvorbescheid", "baugenehmigung",
	"einvernehmen", "§ 35", "§ 34", "§ 36",
	"bauantrag", "bauvoranfrage", "stellungnahme",
}

var bessSignalTerms = []string{
	"batteriespeicher", "energiespeicher", "stromspeicher",
	"speicheranlage", "speicherpark", "containeranlage",
	"anlage zur energiespeicherung",
}

var gridSignalTerms = []string{
	"umspannwerk", "netzanschluss", "trafostation",
	"mittelspannung", "hochspannung", "110 kv", "220 kv",
}

var privilegedTerms = []string{
	"einvernehmen", "stellungnahme", "bauantrag",
	"bauvoranfrage", "vorhaben", "kenntnisnahme",
	"antrag auf errichtung",
}

var narrowPrivilegedTerms = []string{"einvernehmen", "stellungnahme", "bauantrag", "bauvoranfrage"}

var ausgabeNumberPattern = regexp.MustCompile(`\b(?:ausgabe|nummer|nr\.)\s*\d+`)

func anyContains(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// IsContainer reports whether titleNorm/url look like a listing
// container (an Amtsblatt issue, a numbered bulletin) rather than a
// single procedure item.
func IsContainer(titleNorm, url string) bool {
	combined := strings.ToLower(titleNorm + " " + strings.ToLower(url))

	hasContainerKeyword := anyContains(combined, containerKeywords)
	hasProcedureKeyword := anyContains(combined, procedureKeywords)

	if hasContainerKeyword && !hasProcedureKeyword {
		if ausgabeNumberPattern.MatchString(combined) && !hasProcedureKeyword {
			return true
		}
		if strings.Contains(combined, "amtsblatt") && !hasProcedureKeyword {
			return true
		}
	}

	return false
}

// HasRequiredProcedureSignal reports whether a classification carries
// enough of a procedure trigger to be worth keeping: it requires a
// non-empty, non-UNKNOWN procedure type. Any such result passes; the
// scan of evidence snippets for a procedure term does not change the
// outcome.
func HasRequiredProcedureSignal(result *domain.ClassifierResult) bool {
	if result == nil {
		return false
	}
	if result.ProcedureType == "" || result.ProcedureType == domain.ProcedureUnknown {
		return false
	}
	if len(result.EvidenceSnippets) == 0 {
		return true
	}
	for _, snippet := range result.EvidenceSnippets {
		if anyContains(strings.ToLower(snippet.Text), requiredSignalTerms) {
			return true
		}
	}
	return true
}

// SkipReason names why IsValidProcedure declined to persist an item.
type SkipReason string

const (
	SkipNone                 SkipReason = ""
	SkipContainer            SkipReason = "SKIP_CONTAINER"
	SkipNoProcedureSignal    SkipReason = "SKIP_NO_PROCEDURE_SIGNAL"
	SkipLowConfidenceNoSigal SkipReason = "SKIP_LOW_CONFIDENCE_NO_SIGNAL"
)

// IsValidProcedure decides whether a crawled, classified item should
// be persisted as a procedure. It deliberately errs toward keeping
// items, especially ones discovered via RIS.
func IsValidProcedure(
	titleNorm, url, extractedText string,
	discoverySource domain.DiscoverySource,
	result *domain.ClassifierResult,
) (bool, SkipReason) {
	combinedText := strings.ToLower(titleNorm + " " + extractedText)

	if IsContainer(titleNorm, url) {
		hasSignalInText := anyContains(combinedText, textSignalTerms)
		if hasSignalInText || (result != nil && HasRequiredProcedureSignal(result)) {
			return true, SkipNone
		}
		return false, SkipContainer
	}

	if result != nil {
		hasBess := anyContains(combinedText, bessSignalTerms)
		hasGrid := anyContains(combinedText, gridSignalTerms)

		if result.IsCandidate && (hasBess || (hasGrid && strings.Contains(combinedText, "speicher"))) {
			return true, SkipNone
		}

		if discoverySource == domain.DiscoveryRIS {
			if anyContains(combinedText, privilegedTerms) {
				return true, SkipNone
			}
		}
	}

	if result != nil && HasRequiredProcedureSignal(result) {
		return true, SkipNone
	}

	if discoverySource == domain.DiscoveryRIS {
		if anyContains(combinedText, narrowPrivilegedTerms) {
			return true, SkipNone
		}
	}

	if result == nil || !HasRequiredProcedureSignal(result) {
		return false, SkipNoProcedureSignal
	}

	return true, SkipNone
}
