// Command orchestrator runs the scheduling loop: on a fixed interval
// it asks the store which municipalities are due for a crawl and
// enqueues a discovery job per source (RIS, Amtsblatt, municipal
// website) for each one.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/witto13/bess-crawler/internal/clerrors"
	"github.com/witto13/bess-crawler/internal/config"
	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/obs/logging"
	"github.com/witto13/bess-crawler/internal/ports"
	"github.com/witto13/bess-crawler/internal/queue/redisqueue"
	"github.com/witto13/bess-crawler/internal/store/postgres"
	"github.com/witto13/bess-crawler/internal/text/normalize"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the crawler's YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "orchestrator: load config:", err)
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "orchestrator: build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorw("orchestrator exited with error", "error", err)
		os.Exit(1)
	}
}

// cycleLogger is the slice of *zap.SugaredLogger the orchestrator loop
// needs, narrowed so tests (and enqueueMunicipality) don't have to
// stand up a real zap logger.
type cycleLogger interface {
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
}

func run(ctx context.Context, cfg *config.Config, logger cycleLogger) error {
	store, err := postgres.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return clerrors.FailedTo("open postgres store", err)
	}

	queue, err := redisqueue.Open(cfg.Queue.RedisURL, cfg.Queue.Name)
	if err != nil {
		return clerrors.FailedTo("open redis queue", err)
	}

	interval := time.Duration(cfg.Orchestrator.CheckIntervalSeconds) * time.Second
	rescan := time.Duration(cfg.Orchestrator.RescanIntervalDays) * 24 * time.Hour

	logger.Infow("orchestrator starting",
		"check_interval_seconds", cfg.Orchestrator.CheckIntervalSeconds,
		"batch_size", cfg.Orchestrator.BatchSize,
		"rescan_interval_days", cfg.Orchestrator.RescanIntervalDays,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	cycle := 0
	totalEnqueued := 0
	for {
		cycle++
		due, err := store.MunicipalitiesDue(ctx, rescan, cfg.Orchestrator.BatchSize)
		if err != nil {
			logger.Warnw("failed to list due municipalities", "error", err, "cycle", cycle)
		} else {
			enqueued := 0
			for _, seed := range due {
				enqueued += enqueueMunicipality(ctx, queue, seed, logger)
			}
			totalEnqueued += enqueued
			logger.Infow("orchestrator cycle complete",
				"cycle", cycle, "municipalities", len(due), "jobs_enqueued", enqueued, "total_jobs_enqueued", totalEnqueued)
		}

		select {
		case <-ctx.Done():
			logger.Infow("orchestrator shutting down", "total_cycles", cycle, "total_jobs_enqueued", totalEnqueued)
			return nil
		case <-ticker.C:
		}
	}
}

// enqueueMunicipality pushes one discovery job per source for seed,
// matching the prototype's one-RIS, one-Amtsblatt, one-municipal-website
// fan-out per due municipality. Entrypoint is left blank for RIS and
// Amtsblatt so internal/discovery/sitelink resolves it at discovery
// time; the municipal website entrypoint is guessed here from the
// municipality's name since sitelink has nothing else to seed from.
func enqueueMunicipality(ctx context.Context, queue ports.Queue, seed domain.MunicipalitySeed, logger cycleLogger) int {
	runID := uuid.NewString()
	enqueued := 0

	sources := []struct {
		source     domain.DiscoverySource
		entrypoint string
	}{
		{domain.DiscoveryRIS, ""},
		{domain.DiscoveryAmtsblatt, ""},
	}
	if websiteURL := guessWebsiteURL(seed.Name); websiteURL != "" {
		sources = append(sources, struct {
			source     domain.DiscoverySource
			entrypoint string
		}{domain.DiscoveryWebsite, websiteURL})
	}

	for _, s := range sources {
		job := ports.Job{
			JobID:            uuid.NewString(),
			RunID:            runID,
			Type:             ports.JobDiscovery,
			MunicipalityKey:  seed.MunicipalityKey,
			MunicipalityName: seed.Name,
			Source:           s.source,
			Entrypoint:       s.entrypoint,
			Mode:             "fast",
		}
		if err := queue.Push(ctx, job); err != nil {
			logger.Warnw("failed to enqueue discovery job",
				"municipality_key", seed.MunicipalityKey, "source", s.source, "error", err)
			continue
		}
		enqueued++
	}
	return enqueued
}

var nonURLChars = regexp.MustCompile(`[^a-z0-9\-.]`)
var dashRun = regexp.MustCompile(`-+`)
var parenthesized = regexp.MustCompile(`\([^)]*\)`)

// guessWebsiteURL builds a municipality's likely official website from
// its name, the way the prototype's sanitize_municipality_name_for_url
// did: fold case and umlauts, drop parenthetical qualifiers (e.g.
// "Frankfurt (Oder)" -> "frankfurt"), collapse separators to a single
// dash, and try the "www.<name>.de" pattern.
func guessWebsiteURL(name string) string {
	sanitized := strings.ToLower(name)
	sanitized = parenthesized.ReplaceAllString(sanitized, "")
	sanitized = normalize.Umlauts(sanitized)
	sanitized = strings.NewReplacer("/", "-", "\\", "-").Replace(sanitized)
	sanitized = strings.Join(strings.Fields(sanitized), "-")
	sanitized = nonURLChars.ReplaceAllString(sanitized, "")
	sanitized = dashRun.ReplaceAllString(sanitized, "-")
	sanitized = strings.Trim(sanitized, "-.")
	if sanitized == "" {
		return ""
	}
	return "https://www." + sanitized + ".de"
}
