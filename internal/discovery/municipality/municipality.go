// Package municipality derives candidate RIS, Amtsblatt and municipal
// section URLs from a municipality's name and official website, for
// use once site-driven discovery has come up empty.
package municipality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/witto13/bess-crawler/internal/text/normalize"
)

// DiscoveryPaths lists municipal website sections worth checking for
// B-Plan announcements and public notices.
var DiscoveryPaths = []string{
	"/bekanntmachungen",
	"/amtliche-bekanntmachungen",
	"/oeffentliche-bekanntmachungen",
	"/öffentliche-bekanntmachungen",
	"/aktuelles/bekanntmachungen",
	"/bauleitplanung",
	"/stadtplanung",
	"/bebauungsplaene",
	"/bebauungspläne",
	"/bauleitplaene",
	"/bauleitpläne",
	"/planung-und-bauen",
	"/bauen-und-wohnen",
	"/b-plan",
	"/bebauungsplan",
	"/verfahren",
	"/beteiligung",
}

// AmtsblattPaths lists municipal-website-relative paths commonly
// hosting an Amtsblatt.
var AmtsblattPaths = []string{
	"/amtsblatt",
	"/amtliches-mitteilungsblatt",
	"/bekanntmachungen",
	"/amtliche-bekanntmachungen",
	"/veröffentlichungen",
	"/veroeffentlichungen",
}

var parenthetical = regexp.MustCompile(`\([^)]*\)`)
var nonURLChar = regexp.MustCompile(`[^a-z0-9\-.]`)
var dashCollapse = regexp.MustCompile(`-+`)
var spaceOrUnderscore = regexp.MustCompile(`[\s_]+`)

// SanitizeForURL strips a parenthetical suffix, folds umlauts and
// lowercases name into a bare hostname-safe token.
func SanitizeForURL(name string) string {
	if name == "" {
		return ""
	}
	sanitized := parenthetical.ReplaceAllString(name, "")
	sanitized = strings.ToLower(sanitized)
	sanitized = strings.NewReplacer(" ", "", "(", "", ")", "").Replace(sanitized)
	sanitized = normalize.Umlauts(sanitized)
	return nonURLChar.ReplaceAllString(sanitized, "")
}

// sanitizeDashed produces the dash-separated form Amtsblatt guesses
// use, distinct from SanitizeForURL's bare-token form.
func sanitizeDashed(name string) string {
	sanitized := strings.ToLower(name)
	sanitized = parenthetical.ReplaceAllString(sanitized, "")
	sanitized = spaceOrUnderscore.ReplaceAllString(sanitized, "-")
	sanitized = dashCollapse.ReplaceAllString(sanitized, "-")
	return strings.Trim(sanitized, "-")
}

// MunicipalSectionURLs expands DiscoveryPaths against baseURL.
func MunicipalSectionURLs(baseURL string) []string {
	base := strings.TrimRight(baseURL, "/")
	urls := make([]string, 0, len(DiscoveryPaths))
	for _, path := range DiscoveryPaths {
		urls = append(urls, base+path)
	}
	return urls
}

// RISCandidateURLs guesses RIS hostnames/paths from the municipality
// name and, if given, the official website's base URL.
func RISCandidateURLs(municipalityName, baseURL string) []string {
	var urls []string

	token := SanitizeForURL(municipalityName)
	if token != "" {
		urls = append(urls,
			fmt.Sprintf("https://%s.sessionnet.de", token),
			fmt.Sprintf("https://ris.%s.de", token),
			fmt.Sprintf("https://%s.allris.de", token),
			fmt.Sprintf("https://allris.%s.de", token),
		)
	}

	if strings.HasPrefix(baseURL, "http://") || strings.HasPrefix(baseURL, "https://") {
		base := strings.TrimRight(baseURL, "/")
		urls = append(urls,
			base+"/sessionnet",
			base+"/ris",
			base+"/ratsinformationssystem",
			base+"/si0100.asp",
			base+"/si0100.php",
		)
	}

	return urls
}

// AmtsblattCandidateURLs guesses Amtsblatt locations from the
// municipality name and official website base URL.
func AmtsblattCandidateURLs(municipalityName, baseURL string) []string {
	var urls []string

	if strings.HasPrefix(baseURL, "http://") || strings.HasPrefix(baseURL, "https://") {
		base := strings.TrimRight(baseURL, "/")
		for _, path := range AmtsblattPaths {
			urls = append(urls, base+path)
		}
	}

	if dashed := sanitizeDashed(municipalityName); dashed != "" {
		urls = append(urls,
			fmt.Sprintf("https://%s.de/amtsblatt", dashed),
			fmt.Sprintf("https://www.%s.de/amtsblatt", dashed),
		)
	}

	return urls
}
