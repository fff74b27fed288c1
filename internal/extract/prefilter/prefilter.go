// Package prefilter computes a cheap keyword-based relevance score for
// a discovered candidate before any PDF is downloaded, and decides
// whether that score clears the source-aware threshold for extraction.
package prefilter

import "strings"

var strongBESSTerms = []string{
	"batteriespeicher",
	"batterie-speicher",
	"energiespeicher",
	"stromspeicher",
	"grossspeicher",
	"großspeicher",
}

// solarTerms were added to exercise the pipeline end-to-end before real
// BESS candidates were available and were never removed; PV-only titles
// still earn a partial score here.
var solarTerms = []string{"photovoltaik", "pv", "solarpark", "solaranlage", "solar"}

var procedureTerms = []string{
	"aufstellungsbeschluss",
	"öffentliche auslegung",
	"oeffentliche auslegung",
	"satzungsbeschluss",
	"bauvorbescheid",
	"baugenehmigung",
	"§ 36",
	"§36",
	"einvernehmen",
}

var urlProcedureTerms = []string{
	"bauleitplanung",
	"bebauungsplan",
	"amtsblatt",
	"ris",
	"sessionnet",
}

var containerTerms = []string{
	"amtsblatt",
	"sonderamtsblatt",
	"bekanntmachungsblatt",
	"ausgabe",
	"nummer",
	"nr.",
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// Score computes a prefilter score in [0,1] from a candidate's title,
// URL and an optional HTML snippet, using fast substring keyword checks.
func Score(title, url, htmlSnippet string) float64 {
	titleLower := strings.ToLower(title)
	urlLower := strings.ToLower(url)

	score := 0.0

	if containsAny(titleLower, strongBESSTerms) {
		score += 0.6
	}
	if containsAny(titleLower, solarTerms) {
		score += 0.4
	}

	hasProcedureSignal := containsAny(titleLower, procedureTerms)
	if hasProcedureSignal {
		score += 0.3
	}

	if containsAny(urlLower, urlProcedureTerms) {
		score += 0.2
	}

	if containsAny(titleLower, containerTerms) && !hasProcedureSignal {
		score -= 0.7
	}

	_ = htmlSnippet // reserved: snippet-aware scoring is not yet wired into any caller

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// Mode is the crawl speed/thoroughness trade-off a job runs under.
type Mode string

const (
	ModeFast Mode = "fast"
	ModeDeep Mode = "deep"
)

// ShouldExtract applies source-aware thresholds to a prefilter score to
// decide whether the extraction pipeline should run for this candidate.
// RIS gets the most permissive thresholds because BESS terms there
// often live only in session attachments the title never mentions;
// municipal websites get the strictest, to hold back noise.
func ShouldExtract(score float64, mode Mode, discoverySource string) bool {
	switch strings.ToUpper(discoverySource) {
	case "RIS":
		if mode == ModeDeep {
			return score >= 0.2
		}
		return score >= 0.35
	case "AMTSBLATT":
		if mode == ModeDeep {
			return score >= 0.3
		}
		return score >= 0.5
	default:
		if mode == ModeDeep {
			return score >= 0.5
		}
		return score >= 0.6
	}
}
