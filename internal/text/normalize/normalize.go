// Package normalize implements the German-text normalization the
// classifier and extractors key their keyword matching on: umlaut
// folding, case folding and whitespace collapsing.
package normalize

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

var umlautReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"ß", "ss", "ẞ", "Ss",
)

// Umlauts folds German umlauts and ß to their ASCII digraph forms.
func Umlauts(text string) string {
	return umlautReplacer.Replace(text)
}

// Text lowercases, folds umlauts and collapses whitespace, returning
// (normalized, original).
func Text(text string) (normalized string, original string) {
	original = text
	normalized = Umlauts(strings.ToLower(text))
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)
	return normalized, original
}

// Variants returns the distinct text forms worth matching keywords
// against: the normalized form, and the lowercased original if it
// differs from the normalized form (i.e. the text contained umlauts).
func Variants(text string) []string {
	normalized, original := Text(text)
	variants := []string{normalized}
	if lowerOriginal := strings.ToLower(original); lowerOriginal != normalized {
		variants = append(variants, lowerOriginal)
	}
	return variants
}
