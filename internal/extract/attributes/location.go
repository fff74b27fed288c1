package attributes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/witto13/bess-crawler/internal/text/normalize"
)

var (
	gemarkungPattern   = regexp.MustCompile(`(?i)gemarkung\s+([A-ZÄÖÜ][A-Za-zÄÖÜäöüß\s-]+)`)
	flurPattern        = regexp.MustCompile(`(?i)flur\s+(\d+)`)
	flurstueckPatternA = regexp.MustCompile(`(?i)flurstueck\s+(\d+[a-z]?)(?:\s*\(teilw\.\))?`)
	flurstueckPatternB = regexp.MustCompile(`(?i)flurstück\s+(\d+[a-z]?)(?:\s*\(teilw\.\))?`)
	strassePattern     = regexp.MustCompile(`(?i)(?:strasse|straße|str\.)\s+([A-ZÄÖÜ][A-Za-zÄÖÜäöüß\s-]+)`)
	coordPattern       = regexp.MustCompile(`(\d+[.,]\d+)\s*°?\s*[NSEW]?\s*[,/]\s*(\d+[.,]\d+)\s*°?\s*[NSEW]?`)
)

// ExtractLocation pulls Gemarkung/Flur/Flurstück/Straße/coordinate
// mentions out of text and joins whichever are found with "; ". All
// patterns run against the normalized (lowercased, umlaut-folded) text;
// the case-insensitive flag lets the capitalised first-letter classes
// of the Gemarkung and Straße patterns match it, while coordPattern has
// no such flag, so its optional [NSEW] direction letters never match.
func ExtractLocation(text string) *string {
	normalized, _ := normalize.Text(text)

	var parts []string

	if m := gemarkungPattern.FindStringSubmatch(normalized); m != nil {
		parts = append(parts, fmt.Sprintf("Gemarkung: %s", strings.TrimSpace(m[1])))
	}
	if m := flurPattern.FindStringSubmatch(normalized); m != nil {
		parts = append(parts, fmt.Sprintf("Flur: %s", m[1]))
	}
	m := flurstueckPatternA.FindStringSubmatch(normalized)
	if m == nil {
		m = flurstueckPatternB.FindStringSubmatch(normalized)
	}
	if m != nil {
		parts = append(parts, fmt.Sprintf("Flurstück: %s", m[1]))
	}
	if m := strassePattern.FindStringSubmatch(normalized); m != nil {
		parts = append(parts, fmt.Sprintf("Straße: %s", strings.TrimSpace(m[1])))
	}
	if m := coordPattern.FindStringSubmatch(normalized); m != nil {
		parts = append(parts, fmt.Sprintf("Koordinaten: %s, %s", m[1], m[2]))
	}

	if len(parts) == 0 {
		return nil
	}
	joined := strings.Join(parts, "; ")
	return &joined
}
