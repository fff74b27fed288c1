// Package sitelink implements site-driven discovery: crawling a
// municipality's official website for RIS and Amtsblatt/Bekanntmachung
// links, ranking them, and probing the ranked candidates (plus, as a
// fallback, pattern-guessed URLs) for the marker text that confirms a
// real hit.
package sitelink

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/witto13/bess-crawler/internal/discovery/municipality"
	"github.com/witto13/bess-crawler/internal/httpx/client"
	"github.com/witto13/bess-crawler/internal/httpx/ratelimit"
)

var risDomainPatterns = []*regexp.Regexp{
	regexp.MustCompile(`allris`),
	regexp.MustCompile(`sessionnet`),
	regexp.MustCompile(`ratsinfo`),
	regexp.MustCompile(`ris\.`),
	regexp.MustCompile(`\.ris\.`),
}

var risPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/ris`),
	regexp.MustCompile(`/ratsinfo`),
	regexp.MustCompile(`/sessionnet`),
	regexp.MustCompile(`/si0100`),
	regexp.MustCompile(`/to0100`),
	regexp.MustCompile(`/vo0200`),
	regexp.MustCompile(`/bi/`),
	regexp.MustCompile(`/gremien`),
	regexp.MustCompile(`/sitzung`),
	regexp.MustCompile(`/tagesordnung`),
}

var amtsblattPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/amtsblatt`),
	regexp.MustCompile(`/amtliche-bekanntmach`),
	regexp.MustCompile(`/bekanntmach`),
	regexp.MustCompile(`/veroeffentlich`),
	regexp.MustCompile(`/auslegung`),
	regexp.MustCompile(`/bauleitplanung`),
	regexp.MustCompile(`/beteiligung`),
	regexp.MustCompile(`/oeffentliche-auslegung`),
	regexp.MustCompile(`/öffentliche-auslegung`),
}

var discoveryPages = []string{"", "/sitemap.xml", "/impressum", "/kontakt", "/startseite", "/index"}

var risTextTerms = []string{"ris", "ratsinfo", "sessionnet", "allris", "sitzung", "gremium"}
var amtsblattTextTerms = []string{"amtsblatt", "bekanntmachung", "amtliche bekanntmachung"}
var bekanntmachungURLTerms = []string{"bekanntmach", "veroeffentlich", "auslegung"}
var bekanntmachungTextTerms = []string{"bekanntmachung", "veröffentlichung", "öffentliche auslegung"}

const (
	defaultMaxPages = 10
	defaultMaxDepth = 1
)

// Links is the set of candidate URLs found on a municipality's own
// website, each ranked best-guess first.
type Links struct {
	RISUrls            []string
	AmtsblattUrls      []string
	BekanntmachungUrls []string
}

func matchesAny(text string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func isSameDomain(u1, u2 string) bool {
	p1, err1 := url.Parse(u1)
	p2, err2 := url.Parse(u2)
	if err1 != nil || err2 != nil {
		return false
	}
	return strings.EqualFold(hostOnly(p1.Host), hostOnly(p2.Host))
}

func hostOnly(host string) string {
	if idx := strings.Index(host, ":"); idx != -1 {
		return host[:idx]
	}
	return host
}

// DiscoverFromOfficialSite crawls outward from officialURL's homepage
// and a handful of navigational pages, returning every RIS/Amtsblatt/
// Bekanntmachung link it finds, ranked best first.
//
// RIS links are accepted regardless of domain (installations commonly
// live on a separate RIS vendor's domain); Amtsblatt/Bekanntmachung
// links must stay on the municipality's own domain.
func DiscoverFromOfficialSite(ctx context.Context, httpClient *client.Client, officialURL string) Links {
	links := Links{}
	if !strings.HasPrefix(officialURL, "http://") && !strings.HasPrefix(officialURL, "https://") {
		return links
	}

	base := strings.TrimRight(officialURL, "/")
	ris := map[string]bool{}
	amtsblatt := map[string]bool{}
	bekanntmachung := map[string]bool{}

	type queued struct {
		url   string
		depth int
	}
	visited := map[string]bool{}
	var queue []queued
	for _, page := range discoveryPages {
		queue = append(queue, queued{url: base + page, depth: 0})
	}

	pagesFetched := 0
	for len(queue) > 0 && pagesFetched < defaultMaxPages {
		current := queue[0]
		queue = queue[1:]
		if visited[current.url] || current.depth > defaultMaxDepth {
			continue
		}
		visited[current.url] = true
		pagesFetched++

		result := httpClient.Fetch(ctx, current.url, ratelimit.ModeFast, nil)
		if result.Outcome != client.Ok {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body)))
		if err != nil {
			continue
		}

		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			text := strings.TrimSpace(s.Text())
			fullURL := normalizeURL(href, current.url)
			if fullURL == "" {
				return
			}
			urlLower := strings.ToLower(fullURL)
			textLower := strings.ToLower(text)

			if matchesAny(urlLower, risDomainPatterns) || matchesAny(urlLower, risPathPatterns) || containsAny(textLower, risTextTerms) {
				ris[fullURL] = true
			}

			isAmtsblatt := matchesAny(urlLower, amtsblattPathPatterns) || containsAny(textLower, amtsblattTextTerms)
			if isAmtsblatt {
				amtsblatt[fullURL] = true
			}

			isBekanntmachung := containsAny(urlLower, bekanntmachungURLTerms) || containsAny(textLower, bekanntmachungTextTerms)
			if isBekanntmachung && !amtsblatt[fullURL] {
				bekanntmachung[fullURL] = true
			}

			if current.depth < defaultMaxDepth && isSameDomain(fullURL, base) && !visited[fullURL] {
				if containsAny(urlLower, []string{"impressum", "kontakt", "sitemap", "index", "startseite"}) {
					queue = append(queue, queued{url: fullURL, depth: current.depth + 1})
				}
			}
		})
	}

	links.RISUrls = rankBy(keys(ris), risRank)
	links.AmtsblattUrls = rankBy(keys(amtsblatt), amtsblattRank)
	links.BekanntmachungUrls = rankBy(keys(bekanntmachung), amtsblattRank)
	return links
}

func normalizeURL(href, base string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := baseURL.ResolveReference(ref).String()
	if !strings.HasPrefix(resolved, "http://") && !strings.HasPrefix(resolved, "https://") {
		return ""
	}
	return resolved
}

func risRank(u string) int {
	l := strings.ToLower(u)
	score := 0
	if strings.Contains(l, "allris") || strings.Contains(l, "sessionnet") {
		score += 10
	}
	if strings.Contains(l, "si0100") || strings.Contains(l, "ris") {
		score += 5
	}
	return score
}

func amtsblattRank(u string) int {
	l := strings.ToLower(u)
	score := 0
	if strings.Contains(l, "amtsblatt") {
		score += 10
	}
	if strings.Contains(l, "bekanntmachung") {
		score += 5
	}
	return score
}

func rankBy(urls []string, score func(string) int) []string {
	sort.SliceStable(urls, func(i, j int) bool {
		return score(urls[i]) > score(urls[j])
	})
	return urls
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ReasonCode explains why Discover did not return a hit, or FOUND
// when it did.
type ReasonCode string

const (
	ReasonFound          ReasonCode = "FOUND"
	ReasonNoSeedURL      ReasonCode = "NO_SEED_URL"
	ReasonAllURLs404     ReasonCode = "ALL_URLS_404"
	ReasonSSLBlocked     ReasonCode = "SSL_BLOCKED"
	ReasonNoMarkersFound ReasonCode = "NO_MARKERS_FOUND"
)

// Method records which discovery strategy produced the candidate list.
type Method string

const (
	MethodUnknown         Method = "unknown"
	MethodSiteDriven      Method = "site_driven"
	MethodPatternGuessing Method = "pattern_guessing"
)

// Diagnostics accompanies every Discover call, win or lose.
type Diagnostics struct {
	Method        Method
	AttemptedURLs []string
	FailedURLs    map[string]string
	ReasonCode    ReasonCode
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{Method: MethodUnknown, FailedURLs: map[string]string{}}
}

func truncate(urls []string, n int) []string {
	if len(urls) <= n {
		return urls
	}
	return urls[:n]
}

// DiscoverRIS finds a municipality's RIS URL, trying site-driven
// discovery first and falling back to pattern guessing, then probing
// each candidate (with a handful of common entry points) for RIS
// marker text.
func DiscoverRIS(ctx context.Context, httpClient *client.Client, municipalityName, baseURL, officialWebsiteURL string) (string, *Diagnostics) {
	diag := newDiagnostics()
	var candidates []string

	if officialWebsiteURL != "" {
		links := DiscoverFromOfficialSite(ctx, httpClient, officialWebsiteURL)
		if len(links.RISUrls) > 0 {
			candidates = append(candidates, links.RISUrls...)
			diag.Method = MethodSiteDriven
			diag.AttemptedURLs = append(diag.AttemptedURLs, truncate(links.RISUrls, 10)...)
		}
	}

	if len(candidates) == 0 {
		guessed := municipality.RISCandidateURLs(municipalityName, baseURL)
		candidates = append(candidates, guessed...)
		diag.Method = MethodPatternGuessing
		diag.AttemptedURLs = append(diag.AttemptedURLs, truncate(guessed, 10)...)
	}

	entryPoints := []string{"", "/si0100.asp", "/si0100.php", "/index.php"}
	risMarkers := []string{"sitzung", "gremium", "tagesordnung", "beschluss"}

	for _, candidate := range candidates {
		for _, entry := range entryPoints {
			testURL := strings.TrimRight(candidate, "/") + entry
			result := httpClient.Fetch(ctx, testURL, ratelimit.ModeFast, nil)
			if result.Outcome != client.Ok {
				recordFailure(diag, candidate, result)
				continue
			}
			if containsAny(strings.ToLower(string(result.Body)), risMarkers) {
				diag.ReasonCode = ReasonFound
				return testURL, diag
			}
		}
	}

	diag.ReasonCode = classifyFailure(candidates, diag.FailedURLs)
	return "", diag
}

// DiscoverAmtsblatt finds a municipality's Amtsblatt URL, following
// the same site-driven-then-pattern-guessing strategy as DiscoverRIS.
func DiscoverAmtsblatt(ctx context.Context, httpClient *client.Client, municipalityName, baseURL, officialWebsiteURL string) (string, *Diagnostics) {
	diag := newDiagnostics()
	var candidates []string

	if officialWebsiteURL != "" {
		links := DiscoverFromOfficialSite(ctx, httpClient, officialWebsiteURL)
		combined := append(append([]string{}, links.AmtsblattUrls...), links.BekanntmachungUrls...)
		if len(combined) > 0 {
			candidates = append(candidates, combined...)
			diag.Method = MethodSiteDriven
			diag.AttemptedURLs = append(diag.AttemptedURLs, truncate(combined, 10)...)
		}
	}

	if len(candidates) == 0 {
		guessed := municipality.AmtsblattCandidateURLs(municipalityName, baseURL)
		candidates = append(candidates, guessed...)
		diag.Method = MethodPatternGuessing
		diag.AttemptedURLs = append(diag.AttemptedURLs, truncate(guessed, 10)...)
	}

	markers := []string{"amtsblatt", "bekanntmachung", "veröffentlichung", "ausgabe"}

	for _, candidate := range candidates {
		result := httpClient.Fetch(ctx, candidate, ratelimit.ModeFast, nil)
		if result.Outcome != client.Ok {
			recordFailure(diag, candidate, result)
			continue
		}
		if containsAny(strings.ToLower(string(result.Body)), markers) {
			diag.ReasonCode = ReasonFound
			return candidate, diag
		}
	}

	diag.ReasonCode = classifyFailure(candidates, diag.FailedURLs)
	return "", diag
}

func recordFailure(diag *Diagnostics, candidate string, result *client.Result) {
	switch result.Outcome {
	case client.ErrOther:
		diag.FailedURLs[candidate] = "HTTP " + strconv.Itoa(result.StatusCode)
	case client.ErrSSL:
		diag.FailedURLs[candidate] = "SSL error"
	default:
		diag.FailedURLs[candidate] = "network error"
	}
}

func classifyFailure(candidates []string, failed map[string]string) ReasonCode {
	if len(candidates) == 0 {
		return ReasonNoSeedURL
	}
	if len(failed) == 0 {
		return ReasonNoMarkersFound
	}
	all404 := true
	anySSL := false
	for _, reason := range failed {
		if !strings.Contains(reason, "404") {
			all404 = false
		}
		if strings.Contains(reason, "SSL") {
			anySSL = true
		}
	}
	switch {
	case all404:
		return ReasonAllURLs404
	case anySSL:
		return ReasonSSLBlocked
	default:
		return ReasonNoMarkersFound
	}
}
