// Package ris implements the RIS (Ratsinformationssystem) crawler's
// state machine: locate-root (handled by internal/discovery/sitelink)
// → list-committees → list-sessions → extract-items.
package ris

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/httpx/client"
	"github.com/witto13/bess-crawler/internal/httpx/ratelimit"
)

// CommitteeAllowlist names the committee types worth descending into;
// anything else is skipped even if the RIS lists it.
var CommitteeAllowlist = []string{
	"bauausschuss",
	"hauptausschuss",
	"gemeindevertretung",
	"stadtverordnetenversammlung",
	"bau- und planungsausschuss",
	"planungsausschuss",
	"wirtschaftsausschuss",
	"umweltausschuss",
	"wirtschaft",
	"umwelt",
}

// CommitteePaths are RIS entry points worth checking for a committee
// listing.
var CommitteePaths = []string{
	"/si0100.asp",
	"/si0100.php",
	"/index.php",
	"/sitzungen",
	"/gremien",
	"/tagesordnung",
	"/beschlussvorlagen",
	"/niederschriften",
	"/protokolle",
}

var sessionTextTerms = []string{"sitzung", "sitzungstag", "datum"}

var sessionDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})`),
	regexp.MustCompile(`(\d{1,2})-(\d{1,2})-(\d{4})`),
	regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`),
}

var privilegedTerms = []string{
	"bebauungsplan", "b-plan", "bauleitplanung",
	"bauvorbescheid", "baugenehmigung",
	"einvernehmen", "§ 36", "§36",
	"§ 35", "§35", "§ 34", "§34",
	"bauantrag", "bauvoranfrage", "vorbescheid",
	"stellungnahme", "kenntnisnahme",
	"antrag auf errichtung",
}

var energySpeicherTerms = []string{
	"batteriespeicher", "energiespeicher", "speicheranlage",
	"speicher", "photovoltaik", "umspannwerk",
	"energie", "containeranlage",
}

// Committee is a committee link discovered under a RIS root.
type Committee struct {
	Name          string
	URL           string
	DiscoveryPath string
}

// Session is a committee session, possibly dated.
type Session struct {
	URL           string
	Title         string
	Date          *time.Time
	DiscoveryPath string
}

// Item is an agenda item gated on the privileged-project lexicon.
type Item struct {
	URL           string
	Title         string
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

func isAllowlistedCommittee(name string) bool {
	return containsAny(strings.ToLower(name), CommitteeAllowlist)
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

// DiscoverCommittees lists committees under a RIS root, keeping only
// those matching CommitteeAllowlist.
func DiscoverCommittees(ctx context.Context, httpClient *client.Client, risRootURL string) []Committee {
	var committees []Committee

	for _, path := range CommitteePaths {
		pageURL := resolveURL(risRootURL, path)
		doc, ok := fetchDocument(ctx, httpClient, pageURL)
		if !ok {
			continue
		}
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			text := strings.TrimSpace(s.Text())
			if !isAllowlistedCommittee(text) {
				return
			}
			committees = append(committees, Committee{
				Name:          text,
				URL:           resolveURL(pageURL, href),
				DiscoveryPath: pageURL,
			})
		})
	}

	return committees
}

// CrawlCommitteeSessions lists sessions linked from a committee page,
// parsing a session date out of the anchor text when present.
func CrawlCommitteeSessions(ctx context.Context, httpClient *client.Client, committeeURL string) []Session {
	doc, ok := fetchDocument(ctx, httpClient, committeeURL)
	if !ok {
		return nil
	}

	var sessions []Session
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		if !containsAny(strings.ToLower(text), sessionTextTerms) {
			return
		}
		sessions = append(sessions, Session{
			URL:           resolveURL(committeeURL, href),
			Title:         text,
			Date:          parseSessionDate(text),
			DiscoveryPath: committeeURL,
		})
	})
	return sessions
}

func parseSessionDate(text string) *time.Time {
	for i, pattern := range sessionDatePatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		var year, month, day int
		if i == 2 {
			year = atoi(match[1])
			month = atoi(match[2])
			day = atoi(match[3])
		} else {
			day = atoi(match[1])
			month = atoi(match[2])
			year = atoi(match[3])
		}
		t, err := buildDate(year, month, day)
		if err != nil {
			continue
		}
		return &t
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func buildDate(year, month, day int) (time.Time, error) {
	if year < 1900 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, errInvalidDate
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

var errInvalidDate = errors.New("invalid session date")

// ExtractSessionItems lists agenda items from a session page, keeping
// only those naming a privileged-project or energy/storage term.
func ExtractSessionItems(ctx context.Context, httpClient *client.Client, sessionURL string) []Item {
	doc, ok := fetchDocument(ctx, httpClient, sessionURL)
	if !ok {
		return nil
	}

	var items []Item
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		textLower := strings.ToLower(text)
		if !containsAny(textLower, privilegedTerms) && !containsAny(textLower, energySpeicherTerms) {
			return
		}
		items = append(items, Item{
			URL:           resolveURL(sessionURL, href),
			Title:         text,
			DiscoveryPath: sessionURL,
		})
	})
	return items
}

var attachmentExtensions = []string{".pdf", ".doc", ".docx"}

// FetchAgendaAttachments fetches one agenda item's detail page and
// returns the document links it carries, for candidates whose session
// listing named no doc_urls of its own.
func FetchAgendaAttachments(ctx context.Context, httpClient *client.Client, itemURL string) []string {
	doc, ok := fetchDocument(ctx, httpClient, itemURL)
	if !ok {
		return nil
	}

	var urls []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		lower := strings.ToLower(href)
		for _, ext := range attachmentExtensions {
			if strings.HasSuffix(lower, ext) {
				urls = append(urls, resolveURL(itemURL, href))
				return
			}
		}
	})
	return urls
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

// SessionWalker owns the cross-page "three consecutive sessions older
// than the cutoff" smart-pagination rule: a single listing call has
// no memory of sessions seen on earlier pages, so the counter lives
// here, one per committee being walked.
type SessionWalker struct {
	cutoff              time.Time
	consecutiveOldCount int
}

// NewSessionWalker builds a walker that stops descending a committee
// once three consecutive sessions fall before cutoff.
func NewSessionWalker(cutoff time.Time) *SessionWalker {
	return &SessionWalker{cutoff: cutoff}
}

// Accept records one session in list order and reports whether the
// committee should keep being descended. Undated sessions reset the
// counter, same as a recent dated session.
func (w *SessionWalker) Accept(session Session) bool {
	if session.Date == nil || session.Date.After(w.cutoff) || session.Date.Equal(w.cutoff) {
		w.consecutiveOldCount = 0
		return true
	}
	w.consecutiveOldCount++
	return w.consecutiveOldCount < 3
}

// ToDomainCandidate converts an agenda item into a discovery candidate for
// the classification pipeline, tagging it with the RIS source.
func ToDomainCandidate(item Item, municipalityKey, runID string) domain.CrawlCandidate {
	return domain.CrawlCandidate{
		MunicipalityKey: municipalityKey,
		RunID:           runID,
		DiscoverySource: domain.DiscoveryRIS,
		DiscoveryPath:   item.DiscoveryPath,
		Title:           item.Title,
		URL:             item.URL,
	}
}
