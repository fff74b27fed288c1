package attributes

import (
	"regexp"
	"strings"
)

var hectarePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:ha|hektar|hektare)`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:qm|m²|quadratmeter)`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:km²|quadratkilometer)`),
}

// areaUnitOrder is checked in order against the matched text and the
// first unit found decides which conversion factor applies; the km²
// units come before the m² ones because "km²" contains "m²".
var areaUnitOrder = []string{"km²", "quadratkilometer", "qm", "m²", "quadratmeter", "ha", "hektar", "hektare"}

var areaConversions = map[string]float64{
	"qm": 0.0001, "m²": 0.0001, "quadratmeter": 0.0001,
	"km²": 100, "quadratkilometer": 100,
	"ha": 1, "hektar": 1, "hektare": 1,
}

// FindLargestArea returns the largest area mentioned in text, converted
// to hectares, or nil if no area is mentioned.
func FindLargestArea(text string) *float64 {
	var max *float64
	for _, pattern := range hectarePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			value, ok := parseGermanFloat(m[1])
			if !ok {
				continue
			}
			unit := "ha"
			fullMatchLower := strings.ToLower(m[0])
			for _, u := range areaUnitOrder {
				if strings.Contains(fullMatchLower, strings.ToLower(u)) {
					unit = u
					break
				}
			}
			hectares := value * areaConversions[unit]
			if max == nil || hectares > *max {
				max = &hectares
			}
		}
	}
	return max
}
