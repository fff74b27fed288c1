// Package client is the crawler's single HTTP entry point: it wires
// together SSL fallback, robots.txt compliance, rate limiting and a
// per-origin circuit breaker around a retrying GET.
package client

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/witto13/bess-crawler/internal/httpx/cache"
	"github.com/witto13/bess-crawler/internal/httpx/ratelimit"
	"github.com/witto13/bess-crawler/internal/httpx/robots"
	"github.com/witto13/bess-crawler/internal/httpx/sslpolicy"
)

const UserAgent = "BESS-Forensic-Crawler/1.0 (Research/Transparency; +https://github.com/bess-crawler)"

// Outcome classifies why a Fetch did not return a body, mirroring the
// distinct failure branches the prototype's safe_get/download handled
// inline.
type Outcome int

const (
	Ok Outcome = iota
	ErrSSL
	ErrNetwork
	ErrRobotsDisallowed
	ErrOther
)

// Result is the sum type returned by Fetch. Body and StatusCode are
// only meaningful when Outcome is Ok.
type Result struct {
	Outcome    Outcome
	Body       []byte
	StatusCode int
	Header     http.Header
	Err        error
}

// Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	ssl        *sslpolicy.Policy
	robots     *robots.Checker
	limiter    *ratelimit.Limiter

	maxRetries int
	timeout    time.Duration

	mu        sync.Mutex
	breakers  map[string]*gobreaker.CircuitBreaker[*http.Response]
	checkRobo bool

	cache    *cache.Cache
	cacheTTL time.Duration
}

// New builds a Client. ssl, robotsChecker and limiter are shared
// across every crawler so their caches and counters stay global.
func New(ssl *sslpolicy.Policy, robotsChecker *robots.Checker, limiter *ratelimit.Limiter, timeout time.Duration, maxRetries int) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		ssl:        ssl,
		robots:     robotsChecker,
		limiter:    limiter,
		maxRetries: maxRetries,
		timeout:    timeout,
		breakers:   make(map[string]*gobreaker.CircuitBreaker[*http.Response]),
		checkRobo:  robotsChecker != nil,
	}
}

// SetCache attaches an on-disk cache so Fetch serves pages already
// fetched within ttl from disk instead of making a request, the way
// download_cached consulted apps/net/cache before hitting the network.
// Unset, a Client always fetches live.
func (c *Client) SetCache(store *cache.Cache, ttl time.Duration) {
	c.cache = store
	c.cacheTTL = ttl
}

func (c *Client) breakerFor(host string) *gobreaker.CircuitBreaker[*http.Response] {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cb, ok := c.breakers[host]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        host,
		MaxRequests: 2,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	c.breakers[host] = cb
	return cb
}

// Fetch performs a rate-limited, robots-compliant GET against rawURL,
// retrying transient failures with exponential backoff and tripping a
// per-origin circuit breaker on repeated failure.
func (c *Client) Fetch(ctx context.Context, rawURL string, mode ratelimit.Mode, extraHeaders map[string]string) *Result {
	if c.checkRobo && !c.robots.Allowed(ctx, rawURL) {
		return &Result{Outcome: ErrRobotsDisallowed}
	}

	if c.cache != nil {
		if body, meta, ok := c.cache.Get(rawURL, c.cacheTTL); ok {
			header := http.Header{}
			if meta.ContentType != "" {
				header.Set("Content-Type", meta.ContentType)
			}
			return &Result{Outcome: Ok, Body: body, StatusCode: http.StatusOK, Header: header}
		}
	}

	if c.limiter != nil {
		release, err := c.limiter.Acquire(ctx, rawURL, mode)
		if err != nil {
			return &Result{Outcome: ErrOther, Err: err}
		}
		defer release()
	}

	host := hostOf(rawURL)
	cb := c.breakerFor(host)

	var lastResult *Result
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		resp, err := cb.Execute(func() (*http.Response, error) {
			return c.doGet(ctx, rawURL, extraHeaders, true)
		})
		lastResult = c.toResult(resp, err, rawURL, extraHeaders)

		if lastResult.Outcome == Ok {
			if c.cache != nil {
				_ = c.cache.Set(rawURL, lastResult.Body, lastResult.Header.Get("ETag"), lastResult.Header.Get("Last-Modified"), lastResult.Header.Get("Content-Type"))
			}
			return lastResult
		}
		if lastResult.Outcome == ErrOther && lastResult.StatusCode == http.StatusNotFound {
			return lastResult
		}
		if attempt < c.maxRetries-1 {
			select {
			case <-time.After(backoff(attempt)):
			case <-ctx.Done():
				return &Result{Outcome: ErrNetwork, Err: ctx.Err()}
			}
		}
	}
	return lastResult
}

// doGet issues the GET, first with TLS verification, retrying once
// with verification disabled if the host is SSL-allowlisted.
func (c *Client) doGet(ctx context.Context, rawURL string, extraHeaders map[string]string, verify bool) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err == nil {
		return resp, nil
	}

	if isTLSError(err) {
		sslpolicy.RecordSSLError()
		if c.ssl != nil && c.ssl.ShouldDisableVerify(rawURL) {
			insecureClient := &http.Client{
				Timeout:   c.httpClient.Timeout,
				Transport: insecureTransport(),
			}
			retryReq, rerr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if rerr != nil {
				return nil, rerr
			}
			retryReq.Header = req.Header.Clone()
			resp, rerr := insecureClient.Do(retryReq)
			if rerr == nil {
				sslpolicy.RecordSSLFallback(hostOf(rawURL), rawURL)
			}
			return resp, rerr
		}
	}
	return nil, err
}

func (c *Client) toResult(resp *http.Response, err error, rawURL string, _ map[string]string) *Result {
	if err != nil {
		if isTLSError(err) {
			return &Result{Outcome: ErrSSL, Err: err}
		}
		return &Result{Outcome: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return &Result{Outcome: ErrNetwork, Err: readErr}
	}

	if resp.StatusCode == http.StatusOK {
		return &Result{Outcome: Ok, Body: body, StatusCode: resp.StatusCode, Header: resp.Header}
	}
	return &Result{Outcome: ErrOther, StatusCode: resp.StatusCode, Header: resp.Header}
}

func insecureTransport() *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	return transport
}

func backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * time.Second
}

func isTLSError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "x509") || strings.Contains(msg, "tls:") || strings.Contains(msg, "certificate")
}

func hostOf(rawURL string) string {
	idx := strings.Index(rawURL, "://")
	rest := rawURL
	if idx != -1 {
		rest = rawURL[idx+3:]
	}
	if slash := strings.Index(rest, "/"); slash != -1 {
		rest = rest[:slash]
	}
	if at := strings.Index(rest, ":"); at != -1 {
		rest = rest[:at]
	}
	return rest
}
