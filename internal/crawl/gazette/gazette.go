// Package gazette implements the Amtsblatt crawler: list issues from a
// gazette root, then for each issue either emit its PDF attachments or,
// lacking any, the issue page itself.
package gazette

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/httpx/client"
	"github.com/witto13/bess-crawler/internal/httpx/ratelimit"
)

var issueTextTerms = []string{"ausgabe", "nummer", "jahr", "2023", "2024", "2025"}

var procedureKeywords = []string{
	"bebauungsplan", "b-plan", "bauleitplanung",
	"aufstellungsbeschluss", "öffentliche auslegung", "satzungsbeschluss",
	"bauvorbescheid", "baugenehmigung",
	"§ 36", "§36", "gemeindliches einvernehmen",
	"batteriespeicher", "energiespeicher", "speicheranlage",
}

// Issue is one Amtsblatt issue link found on the gazette root page.
type Issue struct {
	URL           string
	Title         string
	DiscoveryPath string
}

// CandidateType distinguishes a standalone PDF attachment from the
// issue page itself, emitted when the issue carries no PDFs.
type CandidateType string

const (
	CandidateDocument CandidateType = "document"
	CandidateIssue    CandidateType = "issue"
)

// Candidate is a procedure-bearing item found inside one issue.
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

// ListIssues lists Amtsblatt issue links from the gazette root,
// recognising them by term heuristics in the anchor text.
func ListIssues(ctx context.Context, httpClient *client.Client, gazetteURL string) []Issue {
	doc, ok := fetchDocument(ctx, httpClient, gazetteURL)
	if !ok {
		return nil
	}

	var issues []Issue
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if !containsAny(strings.ToLower(text), issueTextTerms) {
			return
		}
		issues = append(issues, Issue{
			URL:           resolveURL(gazetteURL, href),
			Title:         text,
			DiscoveryPath: gazetteURL,
		})
	})
	return issues
}

// ExtractIssueCandidates reads one issue page: if the page text
// carries any planning/permit/energy keyword, every PDF link on the
// page is emitted as a document candidate; lacking any PDF, the issue
// page itself is emitted as an issue candidate.
func ExtractIssueCandidates(ctx context.Context, httpClient *client.Client, issueURL string) []Candidate {
	result := httpClient.Fetch(ctx, issueURL, ratelimit.ModeDeep, nil)
	if result.Outcome != client.Ok {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(result.Body)))
	if err != nil {
		return nil
	}

	pageText := strings.ToLower(doc.Text())
	if !containsAny(pageText, procedureKeywords) {
		return nil
	}

	var candidates []Candidate
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.HasSuffix(strings.ToLower(href), ".pdf") {
			return
		}
		title := strings.TrimSpace(s.Text())
		if title == "" {
			title = "Amtsblatt PDF"
		}
		candidates = append(candidates, Candidate{
			URL:           resolveURL(issueURL, href),
			Title:         title,
			Type:          CandidateDocument,
			DiscoveryPath: issueURL,
		})
	})

	if len(candidates) == 0 {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		if title == "" {
			title = "Amtsblatt Issue"
		}
		candidates = append(candidates, Candidate{
			URL:           issueURL,
			Title:         title,
			Type:          CandidateIssue,
			DiscoveryPath: issueURL,
		})
	}

	return candidates
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

// ToDomainCandidate converts a gazette candidate into the discovery
// record shape the extraction pipeline consumes.
func ToDomainCandidate(c Candidate, municipalityKey, runID string) domain.CrawlCandidate {
	return domain.CrawlCandidate{
		MunicipalityKey: municipalityKey,
		RunID:           runID,
		DiscoverySource: domain.DiscoveryAmtsblatt,
		DiscoveryPath:   c.DiscoveryPath,
		Title:           c.Title,
		URL:             c.URL,
	}
}
