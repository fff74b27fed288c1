// Package gridscore scores text for grid-infrastructure relevance
// (substations, voltage levels, feed-in points). No other package calls
// it; the classifier's project-components tagging uses its own term lists.
package gridscore

import "strings"

type tokenWeight struct {
	token  string
	weight int
}

var tokens = []tokenWeight{
	{"umspannwerk", 5},
	{"110 kv", 5},
	{"220 kv", 5},
	{"380 kv", 5},
	{"400 kv", 5},
	{"hochspannung", 4},
	{"hs", 3},
	{"mittelspannung", 3},
	{"ms", 2},
	{"20 kv", 3},
	{"30 kv", 3},
	{"10 kv", 2},
	{"schaltanlage", 2},
	{"netzverknüpfungspunkt", 2},
	{"netzanschluss", 2},
	{"netzanschlusspunkt", 2},
	{"trafostation", 1},
	{"trafo", 1},
	{"einspeisepunkt", 1},
	{"einspeisung", 1},
	{"netz", 1},
	{"stromnetz", 1},
	{"energienetz", 1},
}

var genericNetzIndicators = []string{"anschluss", "einspeisung", "trafo", "spannung", "kv"}

// Score rates text on its grid-infrastructure relevance. A lone
// generic "netz" mention with nothing else grid-related is discounted
// to zero so that unrelated uses of the word don't register.
func Score(text string) int {
	lowered := strings.ToLower(text)
	total := 0

	for _, tw := range tokens {
		if strings.Contains(lowered, tw.token) {
			total += tw.weight
		}
	}

	if (strings.Contains(lowered, "umspannwerk") || strings.Contains(lowered, "schaltanlage")) &&
		(strings.Contains(lowered, "110") || strings.Contains(lowered, "220") || strings.Contains(lowered, "380")) {
		total += 2
	}
	if strings.Contains(lowered, "netzanschluss") &&
		(strings.Contains(lowered, "solar") || strings.Contains(lowered, "pv") || strings.Contains(lowered, "wind")) {
		total += 2
	}
	if strings.Contains(lowered, "einspeisung") &&
		(strings.Contains(lowered, "solar") || strings.Contains(lowered, "pv") || strings.Contains(lowered, "wind")) {
		total += 2
	}

	if total == 1 && strings.Contains(lowered, "netz") {
		hasOther := false
		for _, term := range genericNetzIndicators {
			if strings.Contains(lowered, term) {
				hasOther = true
				break
			}
		}
		if !hasOther {
			total = 0
		}
	}

	if total < 0 {
		return 0
	}
	return total
}
