// Package resolve computes project signatures from a classified
// procedure and matches it against already-known project entities so
// that repeated mentions of the same project across documents and
// crawl cycles collapse onto a single record.
package resolve

import (
	"regexp"
	"strings"
)

var (
	planTokenPattern   = regexp.MustCompile(`(?i)b(?:ebauungs)?-?plan\s*(?:nr\.?|nummer)?\s*([a-z0-9\-/]+)`)
	quotedNamePattern  = regexp.MustCompile(`[„"']([^„"']{5,50})[„"']`)
	gemarkungSigPattern = regexp.MustCompile(`gemarkung\s*:?\s*([a-zäöüß\s-]+)`)
	flurSigPattern      = regexp.MustCompile(`flur\s*:?\s*(\d+)`)
	flurstueckSigA      = regexp.MustCompile(`flurstueck\s*:?\s*(\d+[a-z]?)(?:\s*\(teilw\.\))?`)
	flurstueckSigB      = regexp.MustCompile(`flurstück\s*:?\s*(\d+[a-z]?)(?:\s*\(teilw\.\))?`)
	companySuffixPattern = regexp.MustCompile(`(?i)\s+(gmbh|ag|ug|kg|gbr|e\.v\.|e\.k\.|ohg)\s*$`)
	whitespacePattern    = regexp.MustCompile(`\s+`)
	titleTokenPattern    = regexp.MustCompile(`\b[a-zäöüß]{3,}\b`)
)

var planNameHints = []string{"plan", "gebiet", "bereich", "vorhaben"}

// ExtractPlanToken pulls a plan name or number out of title/text, e.g.
// "Bebauungsplan Nr. 12" -> "12", or a quoted plan-shaped name.
func ExtractPlanToken(title, text string) string {
	combined := strings.ToLower(title + " " + text)

	if m := planTokenPattern.FindStringSubmatch(combined); m != nil {
		return strings.TrimSpace(m[1])
	}

	if m := quotedNamePattern.FindStringSubmatch(combined); m != nil {
		candidate := strings.TrimSpace(m[1])
		for _, hint := range planNameHints {
			if strings.Contains(strings.ToLower(candidate), hint) {
				return candidate
			}
		}
	}

	return ""
}

// ExtractParcelToken normalizes a raw site-location string into a
// stable "gemarkung=x;flur=y;flurstueck=z" token for parcel matching.
func ExtractParcelToken(siteLocationRaw string) string {
	if siteLocationRaw == "" {
		return ""
	}
	locationLower := strings.ToLower(siteLocationRaw)

	var parts []string
	if m := gemarkungSigPattern.FindStringSubmatch(locationLower); m != nil {
		parts = append(parts, "gemarkung="+strings.TrimSpace(m[1]))
	}
	if m := flurSigPattern.FindStringSubmatch(locationLower); m != nil {
		parts = append(parts, "flur="+m[1])
	}
	m := flurstueckSigA.FindStringSubmatch(locationLower)
	if m == nil {
		m = flurstueckSigB.FindStringSubmatch(locationLower)
	}
	if m != nil {
		parts = append(parts, "flurstueck="+m[1])
	}

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ";")
}

// NormalizeCompanyName strips a trailing legal-form suffix and
// collapses whitespace so the same developer matches across mentions.
func NormalizeCompanyName(company string) string {
	if company == "" {
		return ""
	}
	normalized := companySuffixPattern.ReplaceAllString(company, "")
	normalized = whitespacePattern.ReplaceAllString(normalized, " ")
	normalized = strings.ToLower(strings.TrimSpace(normalized))
	return normalized
}

var titleStopPhrases = []string{
	"zur beteiligung",
	"öffentliche auslegung",
	"zur aufstellung",
	"bekanntmachung",
	"verfahren",
	"beschluss",
	"sitzung",
	"tagesordnung",
}

var titleStopwords = map[string]bool{
	"und": true, "der": true, "die": true, "das": true, "für": true,
	"von": true, "mit": true, "auf": true, "in": true, "an": true,
	"zu": true, "dem": true, "den": true,
}

// ExtractTitleSignature reduces a title to its top ten informative
// tokens, with procedure boilerplate phrases and stopwords removed, so
// two titles for the same project compare as similar sets.
func ExtractTitleSignature(title string) string {
	normalized := strings.ToLower(title)
	for _, phrase := range titleStopPhrases {
		normalized = strings.ReplaceAll(normalized, phrase, " ")
	}

	var tokens []string
	for _, tok := range titleTokenPattern.FindAllString(normalized, -1) {
		if titleStopwords[tok] {
			continue
		}
		tokens = append(tokens, tok)
		if len(tokens) == 10 {
			break
		}
	}

	return strings.Join(tokens, " ")
}

// Signature is the structured fingerprint computed for one procedure,
// used to match it to an existing project entity.
type Signature struct {
	PlanToken      string
	ParcelToken    string
	DeveloperToken string
	TitleSignature string
}

// ComputeProjectSignature builds the matching signature for a
// procedure. evidenceSnippets (at most the first three are used)
// supplement the title when hunting for a plan token.
func ComputeProjectSignature(titleRaw, siteLocationRaw, developerCompany string, evidenceSnippets []string) Signature {
	text := titleRaw
	if len(evidenceSnippets) > 0 {
		n := len(evidenceSnippets)
		if n > 3 {
			n = 3
		}
		text = text + " " + strings.Join(evidenceSnippets[:n], " ")
	}

	return Signature{
		PlanToken:      ExtractPlanToken(titleRaw, text),
		ParcelToken:    ExtractParcelToken(siteLocationRaw),
		DeveloperToken: NormalizeCompanyName(developerCompany),
		TitleSignature: ExtractTitleSignature(titleRaw),
	}
}

// JaccardSimilarity compares two token sets. Two empty sets are
// defined as identical; one empty and one non-empty are disjoint.
func JaccardSimilarity(set1, set2 map[string]bool) float64 {
	if len(set1) == 0 && len(set2) == 0 {
		return 1.0
	}
	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}

	intersection := 0
	for tok := range set1 {
		if set2[tok] {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(signature string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(signature) {
		set[tok] = true
	}
	return set
}

// TitleSignatureSimilarity reports the Jaccard similarity between two
// title signatures and whether it clears the given threshold.
func TitleSignatureSimilarity(sig1, sig2 string, threshold float64) (float64, bool) {
	similarity := JaccardSimilarity(tokenSet(sig1), tokenSet(sig2))
	return similarity, similarity >= threshold
}
