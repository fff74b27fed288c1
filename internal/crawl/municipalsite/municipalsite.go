// Package municipalsite implements the municipal website crawler:
// spider-first discovery of relevant sections from the homepage,
// falling back to the fixed discovery-path list only when the spider
// surfaces nothing.
package municipalsite

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/witto13/bess-crawler/internal/discovery/municipality"
	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/httpx/client"
	"github.com/witto13/bess-crawler/internal/httpx/ratelimit"
)

var sectionKeywords = []string{
	"bebauungsplan", "b-plan", "bauleitplanung",
	"bauen", "planung", "stadtplanung",
	"bekanntmachung", "verfahren", "beteiligung",
	"bauamt", "amtsblatt",
}

var procedureTerms = []string{
	"bebauungsplan", "b-plan", "bauleitplanung",
	"aufstellungsbeschluss", "auslegung", "satzung",
	"bauvorbescheid", "baugenehmigung", "einvernehmen",
	"verfahren", "beteiligung",
}

var externalTerms = []string{"ris", "allris", "sessionnet", "amtsblatt"}

var documentExtensions = []string{".pdf", ".doc", ".docx"}

// CandidateType distinguishes a downloadable document from an internal
// procedure page; external RIS/Amtsblatt links are noted, not followed.
type CandidateType string

const (
	CandidateDocument  CandidateType = "document"
	CandidateProcedure CandidateType = "procedure"
)

// Candidate is a procedure-bearing link found inside one municipal
// section.
type Candidate struct {
	URL           string
	Title         string
	Type          CandidateType
	DiscoveryPath string
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func hasAnySuffix(text string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(text, suffix) {
			return true
		}
	}
	return false
}

func fetchDocument(ctx context.Context, httpClient *client.Client, pageURL string) (*goquery.Document, bool) {
	result := httpClient.Fetch(ctx, pageURL, ratelimit.ModeDeep, nil)
	if result.Outcome != client.Ok {
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body)))
	if err != nil {
		return nil, false
	}
	return doc, true
}

func resolveURL(base, ref string) string {
	if ref == "" {
		return base
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func sameOrigin(base, candidate string) bool {
	baseURL, err := url.Parse(base)
	if err != nil {
		return false
	}
	candURL, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	return strings.EqualFold(baseURL.Hostname(), candURL.Hostname())
}

// DiscoverSections spiders the homepage for same-origin anchors whose
// URL or visible text names a relevant section, and only when the
// spider finds nothing falls back to probing the fixed discovery-path
// list against baseURL.
func DiscoverSections(ctx context.Context, httpClient *client.Client, baseURL string) []string {
	var spidered []string
	seen := map[string]bool{}

	if doc, ok := fetchDocument(ctx, httpClient, baseURL); ok {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			text := strings.ToLower(strings.TrimSpace(s.Text()))
			full := resolveURL(baseURL, href)
			if !sameOrigin(baseURL, full) {
				return
			}
			if !containsAny(strings.ToLower(full), sectionKeywords) && !containsAny(text, sectionKeywords) {
				return
			}
			if seen[full] {
				return
			}
			seen[full] = true
			spidered = append(spidered, full)
		})
	}

	if len(spidered) > 0 {
		return spidered
	}

	var accessible []string
	for _, sectionURL := range municipality.MunicipalSectionURLs(baseURL) {
		result := httpClient.Fetch(ctx, sectionURL, ratelimit.ModeFast, nil)
		if result.Outcome == client.Ok {
			accessible = append(accessible, sectionURL)
		}
	}
	return accessible
}

// CrawlSection reads one municipal section, classifying each
// procedure-relevant anchor as a document or an internal procedure
// page. External RIS/Amtsblatt links are recognised but not followed,
// leaving that crawl to internal/crawl/ris and internal/crawl/gazette.
func CrawlSection(ctx context.Context, httpClient *client.Client, sectionURL string) []Candidate {
	doc, ok := fetchDocument(ctx, httpClient, sectionURL)
	if !ok {
		return nil
	}

	var candidates []Candidate
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		hrefLower := strings.ToLower(href)
		textLower := strings.ToLower(text)

		if !containsAny(hrefLower, procedureTerms) && !containsAny(textLower, procedureTerms) {
			return
		}

		fullURL := resolveURL(sectionURL, href)

		if hasAnySuffix(hrefLower, documentExtensions) {
			candidates = append(candidates, Candidate{
				URL:           fullURL,
				Title:         text,
				Type:          CandidateDocument,
				DiscoveryPath: sectionURL,
			})
			return
		}

		if containsAny(hrefLower, externalTerms) {
			return
		}

		candidates = append(candidates, Candidate{
			URL:           fullURL,
			Title:         text,
			Type:          CandidateProcedure,
			DiscoveryPath: sectionURL,
		})
	})

	return candidates
}

// ExtractProcedureDetails reads a procedure page found by CrawlSection,
// collecting its title and any attached documents.
type ProcedureDetails struct {
	URL       string
	Title     string
	Documents []Document
}

// Document is a document link found on a procedure detail page.
type Document struct {
	URL   string
	Label string
}

func ExtractProcedureDetails(ctx context.Context, httpClient *client.Client, procedureURL string) ProcedureDetails {
	details := ProcedureDetails{URL: procedureURL}

	doc, ok := fetchDocument(ctx, httpClient, procedureURL)
	if !ok {
		return details
	}

	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		details.Title = strings.TrimSpace(h1.Text())
	} else {
		details.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !hasAnySuffix(strings.ToLower(href), documentExtensions) {
			return
		}
		details.Documents = append(details.Documents, Document{
			URL:   resolveURL(procedureURL, href),
			Label: strings.TrimSpace(s.Text()),
		})
	})

	return details
}

// ToDomainCandidate converts a municipal-site candidate into the
// discovery record shape the extraction pipeline consumes.
func ToDomainCandidate(c Candidate, municipalityKey, runID string) domain.CrawlCandidate {
	return domain.CrawlCandidate{
		MunicipalityKey: municipalityKey,
		RunID:           runID,
		DiscoverySource: domain.DiscoveryWebsite,
		DiscoveryPath:   c.DiscoveryPath,
		Title:           c.Title,
		URL:             c.URL,
	}
}
