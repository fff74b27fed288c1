// Package attributes extracts structured numeric and textual facts
// (capacity, area, decision date, developer company, parcel location)
// out of crawled procedure text via regex, mirroring the rule system's
// fixed extraction grammar.
package attributes

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	mwPattern  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:mw|megawatt|m\.?w\.?)`)
	mwhPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:mwh|megawattstunden|m\.?w\.?h\.?)`)
	kwPattern  = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:kw|kilowatt|k\.?w\.?)`)
	kwhPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(?:kwh|kilowattstunden|k\.?w\.?h\.?)`)
)

func parseGermanFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// quantity is one (unit, value) reading pulled out of text.
type quantity struct {
	Unit  string
	Value float64
}

// extractQuantities finds every MW/MWh/kW/kWh reading in text, with
// kW/kWh converted to MW/MWh. Because the kW pattern is a substring of
// the kWh pattern, a "5 kWh" mention legitimately contributes both a
// converted MW reading and a converted MWh reading.
func extractQuantities(text string) []quantity {
	var out []quantity
	for _, m := range mwPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseGermanFloat(m[1]); ok {
			out = append(out, quantity{"MW", v})
		}
	}
	for _, m := range mwhPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseGermanFloat(m[1]); ok {
			out = append(out, quantity{"MWh", v})
		}
	}
	for _, m := range kwPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseGermanFloat(m[1]); ok {
			out = append(out, quantity{"MW", v / 1000.0})
		}
	}
	for _, m := range kwhPattern.FindAllStringSubmatch(text, -1) {
		if v, ok := parseGermanFloat(m[1]); ok {
			out = append(out, quantity{"MWh", v / 1000.0})
		}
	}
	return out
}

// FindCapacityMW returns the largest MW reading in text, or nil if none.
func FindCapacityMW(text string) *float64 {
	var max *float64
	for _, q := range extractQuantities(text) {
		if q.Unit != "MW" {
			continue
		}
		v := q.Value
		if max == nil || v > *max {
			max = &v
		}
	}
	return max
}

// FindCapacityMWh returns the largest MWh reading in text, or nil if none.
func FindCapacityMWh(text string) *float64 {
	var max *float64
	for _, q := range extractQuantities(text) {
		if q.Unit != "MWh" {
			continue
		}
		v := q.Value
		if max == nil || v > *max {
			max = &v
		}
	}
	return max
}
