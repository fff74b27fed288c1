// Package ratelimit enforces a global concurrency ceiling plus a
// per-origin ceiling and minimum spacing across every crawler, so a
// burst against one municipal site never starves the rest of the run.
package ratelimit

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/semaphore"
)

// Mode controls whether Acquire adds a small jitter after acquiring
// both semaphores, to avoid lockstep bursts in fast/prefilter passes.
type Mode string

const (
	ModeFast Mode = "fast"
	ModeDeep Mode = "deep"
)

const (
	defaultGlobalConcurrency    = 100
	defaultPerDomainConcurrency = 2
)

var defaultJitter = [2]time.Duration{50 * time.Millisecond, 250 * time.Millisecond}

// Limiter bounds global and per-origin in-flight request counts.
type Limiter struct {
	globalConcurrency    int64
	perDomainConcurrency int64
	jitterMin, jitterMax time.Duration

	global *semaphore.Weighted

	mu      sync.Mutex
	perHost map[string]*semaphore.Weighted
	lastReq map[string]time.Time
	minGap  map[string]time.Duration

	logger logr.Logger
}

// New builds a Limiter with the given global and per-domain
// concurrency ceilings and fast-mode jitter window.
func New(globalConcurrency, perDomainConcurrency int, jitterMin, jitterMax time.Duration) *Limiter {
	if globalConcurrency <= 0 {
		globalConcurrency = defaultGlobalConcurrency
	}
	if perDomainConcurrency <= 0 {
		perDomainConcurrency = defaultPerDomainConcurrency
	}
	if jitterMin == 0 && jitterMax == 0 {
		jitterMin, jitterMax = defaultJitter[0], defaultJitter[1]
	}
	return &Limiter{
		globalConcurrency:    int64(globalConcurrency),
		perDomainConcurrency: int64(perDomainConcurrency),
		jitterMin:            jitterMin,
		jitterMax:            jitterMax,
		global:               semaphore.NewWeighted(int64(globalConcurrency)),
		perHost:              make(map[string]*semaphore.Weighted),
		lastReq:              make(map[string]time.Time),
		minGap:               make(map[string]time.Duration),
		logger:               logr.Discard(),
	}
}

// SetLogger attaches logger for diagnosing per-host spacing waits.
// Unset, a Limiter logs nothing.
func (l *Limiter) SetLogger(logger logr.Logger) {
	l.logger = logger
}

// SetMinSpacing fixes the minimum interval between requests to host,
// e.g. geobasis-bb.de's mandated 10s crawl delay.
func (l *Limiter) SetMinSpacing(host string, gap time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minGap[host] = gap
}

func (l *Limiter) hostSemaphore(host string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	sem, ok := l.perHost[host]
	if !ok {
		sem = semaphore.NewWeighted(l.perDomainConcurrency)
		l.perHost[host] = sem
	}
	return sem
}

// Release is returned by Acquire; call it once the request completes.
type Release func()

// Acquire blocks until the global and per-origin semaphores both have
// capacity, enforces any configured minimum per-host spacing, and, in
// fast mode, adds a small random jitter before returning.
func (l *Limiter) Acquire(ctx context.Context, rawURL string, mode Mode) (Release, error) {
	host := hostOf(rawURL)

	if err := l.global.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	hostSem := l.hostSemaphore(host)
	if err := hostSem.Acquire(ctx, 1); err != nil {
		l.global.Release(1)
		return nil, err
	}

	l.waitForSpacing(host)

	if mode == ModeFast {
		jitter := l.jitterMin + time.Duration(rand.Int63n(int64(l.jitterMax-l.jitterMin)+1))
		select {
		case <-time.After(jitter):
		case <-ctx.Done():
		}
	}

	return func() {
		hostSem.Release(1)
		l.global.Release(1)
	}, nil
}

func (l *Limiter) waitForSpacing(host string) {
	l.mu.Lock()
	gap, hasGap := l.minGap[host]
	last, hasLast := l.lastReq[host]
	l.mu.Unlock()

	if hasGap && hasLast {
		if wait := gap - time.Since(last); wait > 0 {
			l.logger.V(1).Info("waiting for minimum crawl spacing", "host", host, "wait_ms", wait.Milliseconds())
			time.Sleep(wait)
		}
	}

	l.mu.Lock()
	l.lastReq[host] = time.Now()
	l.mu.Unlock()
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Host
}
