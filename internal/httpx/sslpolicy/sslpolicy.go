// Package sslpolicy implements the verify-then-allowlisted-fallback
// policy: certificate verification is disabled only for a named host,
// only after a prior TLS failure against it, never by default.
package sslpolicy

import (
	"net/url"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var defaultInsecureAllowlist = map[string]bool{
	"ssl.ratsinfo-online.net": true,
}

var (
	SSLErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ssl_errors_total",
		Help: "Count of TLS handshake failures encountered while fetching.",
	})
	SSLFallbackUsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ssl_fallback_used_total",
		Help: "Count of requests that disabled certificate verification for an allowlisted host.",
	})
	HTTPFallbackUsedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "http_fallback_used_total",
		Help: "Count of requests that fell back from HTTPS to HTTP for a RIS host.",
	})
)

func init() {
	prometheus.MustRegister(SSLErrorsTotal, SSLFallbackUsedTotal, HTTPFallbackUsedTotal)
}

// Policy holds the merged default + configured insecure-SSL allowlist
// and the HTTP-fallback switch.
type Policy struct {
	mu               sync.RWMutex
	insecureAllowed  map[string]bool
	allowHTTPFallback bool
}

// New builds a Policy from the allowlist and fallback switch in
// internal/config.SSLConfig.
func New(extraAllowlist []string, allowHTTPFallback bool) *Policy {
	allowed := make(map[string]bool, len(defaultInsecureAllowlist)+len(extraAllowlist))
	for host := range defaultInsecureAllowlist {
		allowed[host] = true
	}
	for _, host := range extraAllowlist {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			allowed[host] = true
		}
	}
	return &Policy{insecureAllowed: allowed, allowHTTPFallback: allowHTTPFallback}
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

// ShouldDisableVerify reports whether, after a TLS failure against
// rawURL, verification should be retried once with it disabled. This
// must only be consulted after an actual TLS error.
func (p *Policy) ShouldDisableVerify(rawURL string) bool {
	host := hostOf(rawURL)
	if host == "" {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.insecureAllowed[host]
}

// AllowHTTPFallback reports whether a RIS crawler may retry over
// plain HTTP after an HTTPS failure.
func (p *Policy) AllowHTTPFallback() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.allowHTTPFallback
}

// RecordSSLError increments the TLS-failure counter.
func RecordSSLError() {
	SSLErrorsTotal.Inc()
}

// RecordSSLFallback increments the insecure-fallback counter. Callers
// log the SSL_FALLBACK_VERIFY_FALSE condition themselves with the host
// and URL, since only they hold the request's logger.
func RecordSSLFallback(host, url string) {
	SSLFallbackUsedTotal.Inc()
}

// RecordHTTPFallback increments the HTTP-fallback counter.
func RecordHTTPFallback(originalURL, httpURL string) {
	HTTPFallbackUsedTotal.Inc()
}
