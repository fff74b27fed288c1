// Package robots enforces robots.txt compliance and the per-domain
// crawl-delay table the crawler is bound to. A robots.txt fetch failure
// is treated as permission to crawl, matching the conservative default
// used across the HTTP substrate.
package robots

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// domainDelays are minimum per-request delays required by a domain's
// published robots.txt crawl-delay directive.
var domainDelays = map[string]time.Duration{
	"geobasis-bb.de":     10 * time.Second,
	"www.geobasis-bb.de": 10 * time.Second,
}

const defaultDelay = 1 * time.Second

type cacheEntry struct {
	data   *robotstxt.RobotsData
	cached bool
}

// Checker caches parsed robots.txt per origin and answers Allowed
// checks against it.
type Checker struct {
	httpClient *http.Client
	userAgent  string

	mu     sync.RWMutex
	cache  map[string]cacheEntry
	delays map[string]time.Duration
}

// New builds a Checker that fetches robots.txt with httpClient,
// identifying itself as userAgent.
func New(httpClient *http.Client, userAgent string) *Checker {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	delays := make(map[string]time.Duration, len(domainDelays))
	for host, delay := range domainDelays {
		delays[host] = delay
	}
	return &Checker{
		httpClient: httpClient,
		userAgent:  userAgent,
		cache:      make(map[string]cacheEntry),
		delays:     delays,
	}
}

// SetCrawlDelay overrides or adds a domain-specific crawl delay.
func (c *Checker) SetCrawlDelay(host string, delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delays[strings.ToLower(host)] = delay
}

// CrawlDelay returns the minimum delay required between requests to
// rawURL's host, falling back to the 1s default for domains without a
// configured override.
func (c *Checker) CrawlDelay(rawURL string) time.Duration {
	host := hostOf(rawURL)
	c.mu.RLock()
	defer c.mu.RUnlock()
	if delay, ok := c.delays[host]; ok {
		return delay
	}
	return defaultDelay
}

// Allowed reports whether rawURL may be fetched under its origin's
// robots.txt. Any failure to fetch or parse robots.txt allows the URL,
// since an unreachable robots.txt must not halt the crawl.
func (c *Checker) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}
	base := parsed.Scheme + "://" + parsed.Host

	data := c.cachedData(base)
	if data == nil {
		data = c.fetch(ctx, base)
		c.mu.Lock()
		c.cache[base] = cacheEntry{data: data, cached: true}
		c.mu.Unlock()
	}
	if data == nil {
		return true
	}
	return data.TestAgent(parsed.Path, c.userAgent)
}

func (c *Checker) cachedData(base string) *robotstxt.RobotsData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[base]; ok {
		return entry.data
	}
	return nil
}

func (c *Checker) fetch(ctx context.Context, base string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}
	data, err := robotstxt.FromBytes(body)
	if err != nil {
		return nil
	}
	return data
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}
