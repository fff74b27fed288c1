// Command crawlerctl serves a small read-only operator API: a liveness
// check, Prometheus metrics, and per-municipality crawl stats. It never
// writes to the store or touches the queue.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/witto13/bess-crawler/internal/clerrors"
	"github.com/witto13/bess-crawler/internal/config"
	"github.com/witto13/bess-crawler/internal/obs/logging"
	"github.com/witto13/bess-crawler/internal/ports"
	"github.com/witto13/bess-crawler/internal/store/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the crawler's YAML config file")
	addr := flag.String("addr", ":8090", "address to serve the operator API on")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "crawlerctl: load config:", err)
		os.Exit(1)
	}

	logger, err := logging.NewZapLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, "crawlerctl: build logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, cfg, logger, *addr); err != nil {
		logger.Errorw("crawlerctl exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, cfg *config.Config, logger *zap.SugaredLogger, addr string) error {
	store, err := postgres.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		return clerrors.FailedTo("open postgres store", err)
	}

	var live atomic.Pointer[config.Config]
	live.Store(cfg)

	watcher, err := config.Watch(configPath, func(reloaded *config.Config, watchErr error) {
		if watchErr != nil {
			logger.Warnw("config watch error", "error", watchErr)
			return
		}
		live.Store(reloaded)
		logger.Infow("config reloaded", "rescan_interval_days", reloaded.Orchestrator.RescanIntervalDays)
	})
	if err != nil {
		return clerrors.FailedTo("watch config file", err)
	}
	defer watcher.Close()

	srv := &http.Server{
		Addr:    addr,
		Handler: newRouter(store, &live),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("crawlerctl listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		logger.Infow("crawlerctl shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return clerrors.FailedTo("serve operator API", err)
	}
}

func newRouter(store ports.Store, live *atomic.Pointer[config.Config]) chi.Router {
	router := chi.NewRouter()
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Handle("/metrics", promhttp.Handler())

	router.Get("/stats/{municipality}", statsHandler(store, live))

	return router
}

// statsHandler reports a municipality's crawl_stats rows since the
// currently-loaded config's rescan interval, so an operator widening
// rescan_interval_days in the live config file immediately widens the
// window this endpoint reports over, with no restart.
func statsHandler(store ports.Store, live *atomic.Pointer[config.Config]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		municipalityKey := chi.URLParam(r, "municipality")

		since := time.Now().Add(-time.Duration(live.Load().Orchestrator.RescanIntervalDays) * 24 * time.Hour)
		if raw := r.URL.Query().Get("since_hours"); raw != "" {
			hours, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid since_hours", http.StatusBadRequest)
				return
			}
			since = time.Now().Add(-time.Duration(hours) * time.Hour)
		}

		stats, err := store.MunicipalityStats(r.Context(), municipalityKey, since)
		if err != nil {
			http.Error(w, "failed to load stats", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(stats)
	}
}
