// Command worker drains the crawl queue and routes each job to the
// discovery or extraction pipeline, running a configurable number of
// pipeline goroutines concurrently.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/witto13/bess-crawler/internal/clerrors"
	"github.com/witto13/bess-crawler/internal/config"
	"github.com/witto13/bess-crawler/internal/httpx/cache"
	"github.com/witto13/bess-crawler/internal/httpx/client"
	"github.com/witto13/bess-crawler/internal/httpx/ratelimit"
	"github.com/witto13/bess-crawler/internal/httpx/robots"
	"github.com/witto13/bess-crawler/internal/httpx/sslpolicy"
	"github.com/witto13/bess-crawler/internal/obs/logging"
	"github.com/witto13/bess-crawler/internal/ports"
	"github.com/witto13/bess-crawler/internal/queue/redisqueue"
	"github.com/witto13/bess-crawler/internal/store/fsblob"
	"github.com/witto13/bess-crawler/internal/store/postgres"
	"github.com/witto13/bess-crawler/internal/worker/discovery"
	"github.com/witto13/bess-crawler/internal/worker/extraction"
)

const defaultWorkerCount = 4

// pageCacheTTL matches the crawl's rescan cadence: a page already
// fetched this week is assumed unchanged rather than re-fetched.
const pageCacheTTL = 7 * 24 * time.Hour

func main() {
	configPath := flag.String("config", "config.yaml", "path to the crawler's YAML config file")
	workerCount := flag.Int("workers", defaultWorkerCount, "number of concurrent job-processing goroutines")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "worker: load config:", err)
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "worker: build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger, *workerCount); err != nil {
		logger.Errorw("worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger, workerCount int) error {
	store, err := postgres.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return clerrors.FailedTo("open postgres store", err)
	}

	queue, err := redisqueue.Open(cfg.Queue.RedisURL, cfg.Queue.Name)
	if err != nil {
		return clerrors.FailedTo("open redis queue", err)
	}

	timeout := time.Duration(cfg.Crawl.TimeoutSeconds) * time.Second
	limiter := ratelimit.New(cfg.Concurrency.Global, cfg.Concurrency.PerDomain, 0, 0)
	limiter.SetLogger(logging.NewLogrLogger(logger))
	ssl := sslpolicy.New(cfg.SSL.InsecureAllowlist, cfg.SSL.AllowHTTPFallback)
	robotsChecker := robots.New(nil, "bess-crawler")
	httpClient := client.New(ssl, robotsChecker, limiter, timeout, cfg.Crawl.Retries)
	httpClient.SetCache(cache.New(cfg.Crawl.CacheBase), pageCacheTTL)
	blob := fsblob.New(cfg.Storage.BasePath)

	discoveryDeps := discovery.Deps{Store: store, Queue: queue, HTTPClient: httpClient, Logger: logger}
	extractionDeps := extraction.Deps{Store: store, Blob: blob, HTTPClient: httpClient, Logger: logger, PDFMaxSizeMB: cfg.Crawl.PDFMaxSizeMB}

	runID := uuid.NewString()
	logger.Infow("worker starting", "run_id", runID, "workers", workerCount, "queue", cfg.Queue.Name)

	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		workerID := i
		group.Go(func() error {
			return processLoop(groupCtx, workerID, queue, discoveryDeps, extractionDeps, logger)
		})
	}
	return group.Wait()
}

// processLoop pops jobs off the queue one at a time and routes each to
// its pipeline, until ctx is cancelled. A job that fails is logged and
// dropped rather than stopping the loop, so one bad municipality or
// candidate never stalls the rest of the fleet.
func processLoop(ctx context.Context, workerID int, queue ports.Queue, discoveryDeps discovery.Deps, extractionDeps extraction.Deps, logger *zap.SugaredLogger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		job, err := queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}

		switch job.Type {
		case ports.JobDiscovery:
			if err := discovery.Run(ctx, discoveryDeps, job); err != nil {
				logger.Errorw("discovery job failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
			}
		case ports.JobExtraction:
			if err := extraction.Run(ctx, extractionDeps, job); err != nil {
				logger.Errorw("extraction job failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
			}
		default:
			logger.Warnw("unknown job type", "worker_id", workerID, "job_id", job.JobID, "type", job.Type)
		}
	}
}

