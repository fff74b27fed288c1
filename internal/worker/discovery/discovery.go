// Package discovery runs one discovery job for one municipality and
// source: crawl the source for candidate procedures, score each one
// with internal/extract/prefilter, persist it, and enqueue the ones
// worth running through extraction.
package discovery

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/witto13/bess-crawler/internal/clerrors"
	"github.com/witto13/bess-crawler/internal/crawl/gazette"
	"github.com/witto13/bess-crawler/internal/crawl/municipalsite"
	"github.com/witto13/bess-crawler/internal/crawl/ris"
	"github.com/witto13/bess-crawler/internal/discovery/sitelink"
	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/extract/prefilter"
	"github.com/witto13/bess-crawler/internal/httpx/client"
	"github.com/witto13/bess-crawler/internal/obs/metrics"
	"github.com/witto13/bess-crawler/internal/obs/trace"
	"github.com/witto13/bess-crawler/internal/ports"
	"github.com/witto13/bess-crawler/internal/worker/summary"

	"go.uber.org/zap"
)

// sessionWindow sets the cutoff handed to ris.NewSessionWalker: sessions
// dated before now minus this window count as old, and three consecutive
// old sessions stop the descent into a RIS committee.
const sessionWindow = 180 * 24 * time.Hour

// Deps are the adapters one discovery job run needs.
type Deps struct {
	Store      ports.Store
	Queue      ports.Queue
	HTTPClient *client.Client
	Logger     *zap.SugaredLogger
}

// Run crawls job.Source for job.MunicipalityKey, persists every
// candidate it finds, and enqueues an extraction job for the ones that
// clear the prefilter threshold. Crawl-time failures (SSL, network, an
// unreachable entrypoint) are captured in the recorded domain.CrawlStats
// rather than returned, so a bad municipality never stalls the worker
// loop; Run only returns an error when the municipality itself cannot
// be looked up or the stats record cannot be written.
func Run(ctx context.Context, deps Deps, job ports.Job) (runErr error) {
	start := time.Now()

	ctx, span := trace.StartJob(ctx, "discovery", job.MunicipalityKey, job.JobID)
	defer func() {
		trace.EndJob(span, runErr)
		span.End()
	}()

	mode := prefilter.Mode(job.Mode)
	if mode == "" {
		mode = prefilter.ModeFast
	}

	seed, err := deps.Store.MunicipalityByKey(ctx, job.MunicipalityKey)
	if err != nil {
		return clerrors.FailedToWithDetails("look up municipality", "worker/discovery", job.MunicipalityKey, err)
	}

	stats := domain.CrawlStats{
		RunID:           job.RunID,
		JobID:           job.JobID,
		MunicipalityKey: job.MunicipalityKey,
		SourceType:      job.Source,
		Counts:          map[string]interface{}{},
		Timings:         map[string]float64{},
		Status:          domain.StatusSuccess,
	}

	candidates, entrypoint := discoverCandidates(ctx, deps, job, seed, &stats)
	stats.Domain = hostOf(entrypoint)
	stats.Counts["candidates_found"] = len(candidates)

	enqueued, skipped := 0, 0
	for _, candidate := range candidates {
		candidate.PrefilterScore = prefilter.Score(candidate.Title, candidate.URL, "")

		candidateID, err := deps.Store.UpsertCrawlCandidate(ctx, candidate)
		if err != nil {
			stats.Status = domain.StatusErrorOther
			stats.ErrorMessage = err.Error()
			continue
		}
		metrics.CandidatesDiscoveredTotal.WithLabelValues(strings.ToLower(string(candidate.DiscoverySource))).Inc()

		if prefilter.ShouldExtract(candidate.PrefilterScore, mode, string(candidate.DiscoverySource)) {
			pushErr := deps.Queue.Push(ctx, ports.Job{
				JobID:           uuid.NewString(),
				RunID:           job.RunID,
				Type:            ports.JobExtraction,
				MunicipalityKey: job.MunicipalityKey,
				CandidateID:     candidateID,
				Mode:            string(mode),
			})
			if pushErr != nil {
				stats.Status = domain.StatusErrorOther
				stats.ErrorMessage = pushErr.Error()
				_ = deps.Store.UpdateCrawlCandidateStatus(ctx, candidateID, "ERROR")
				continue
			}
			enqueued++
			_ = deps.Store.UpdateCrawlCandidateStatus(ctx, candidateID, "ENQUEUED")
		} else {
			skipped++
			_ = deps.Store.UpdateCrawlCandidateStatus(ctx, candidateID, "SKIPPED")
		}
	}

	stats.Counts["procedures_enqueued"] = enqueued
	stats.Counts["procedures_skipped"] = skipped
	stats.Timings["total_ms"] = float64(time.Since(start).Milliseconds())

	metrics.JobDurationSeconds.WithLabelValues(string(ports.JobDiscovery)).Observe(time.Since(start).Seconds())
	if stats.Status != domain.StatusSuccess {
		metrics.JobFailuresTotal.WithLabelValues(string(ports.JobDiscovery)).Inc()
	}

	if err := deps.Store.RecordCrawlStats(ctx, stats); err != nil {
		return clerrors.FailedTo("record discovery crawl stats", err)
	}

	summary.Log(ctx, deps.Store, deps.Logger, job.MunicipalityKey, seed.Name, job.RunID)
	return nil
}

// discoverCandidates routes to the crawler matching job.Source and
// returns the candidates it found plus the entrypoint actually used,
// for stats.Domain.
func discoverCandidates(ctx context.Context, deps Deps, job ports.Job, seed domain.MunicipalitySeed, stats *domain.CrawlStats) ([]domain.CrawlCandidate, string) {
	switch job.Source {
	case domain.DiscoveryRIS:
		return discoverRIS(ctx, deps, job, seed, stats)
	case domain.DiscoveryAmtsblatt:
		return discoverGazette(ctx, deps, job, seed, stats)
	case domain.DiscoveryWebsite:
		return discoverMunicipalWebsite(ctx, deps, job, seed, stats)
	default:
		stats.Status = domain.StatusErrorOther
		stats.ErrorMessage = "unknown discovery source: " + string(job.Source)
		return nil, seed.OfficialWebsiteURL
	}
}

func discoverRIS(ctx context.Context, deps Deps, job ports.Job, seed domain.MunicipalitySeed, stats *domain.CrawlStats) ([]domain.CrawlCandidate, string) {
	risRoot := job.Entrypoint
	if risRoot == "" {
		found, diag := sitelink.DiscoverRIS(ctx, deps.HTTPClient, seed.Name, seed.OfficialWebsiteURL, seed.OfficialWebsiteURL)
		if found == "" {
			if diag.ReasonCode == sitelink.ReasonSSLBlocked {
				stats.Status = domain.StatusErrorSSL
			}
			return nil, seed.OfficialWebsiteURL
		}
		risRoot = found
	}

	var candidates []domain.CrawlCandidate
	cutoff := time.Now().Add(-sessionWindow)
	for _, committee := range ris.DiscoverCommittees(ctx, deps.HTTPClient, risRoot) {
		walker := ris.NewSessionWalker(cutoff)
		for _, session := range ris.CrawlCommitteeSessions(ctx, deps.HTTPClient, committee.URL) {
			if !walker.Accept(session) {
				break
			}
			for _, item := range ris.ExtractSessionItems(ctx, deps.HTTPClient, session.URL) {
				candidates = append(candidates, ris.ToDomainCandidate(item, job.MunicipalityKey, job.RunID))
			}
		}
	}
	return candidates, risRoot
}

func discoverGazette(ctx context.Context, deps Deps, job ports.Job, seed domain.MunicipalitySeed, stats *domain.CrawlStats) ([]domain.CrawlCandidate, string) {
	gazetteRoot := job.Entrypoint
	if gazetteRoot == "" {
		found, diag := sitelink.DiscoverAmtsblatt(ctx, deps.HTTPClient, seed.Name, seed.OfficialWebsiteURL, seed.OfficialWebsiteURL)
		if found == "" {
			if diag.ReasonCode == sitelink.ReasonSSLBlocked {
				stats.Status = domain.StatusErrorSSL
			}
			return nil, seed.OfficialWebsiteURL
		}
		gazetteRoot = found
	}

	var candidates []domain.CrawlCandidate
	for _, issue := range gazette.ListIssues(ctx, deps.HTTPClient, gazetteRoot) {
		for _, c := range gazette.ExtractIssueCandidates(ctx, deps.HTTPClient, issue.URL) {
			candidates = append(candidates, gazette.ToDomainCandidate(c, job.MunicipalityKey, job.RunID))
		}
	}
	return candidates, gazetteRoot
}

func discoverMunicipalWebsite(ctx context.Context, deps Deps, job ports.Job, seed domain.MunicipalitySeed, stats *domain.CrawlStats) ([]domain.CrawlCandidate, string) {
	entrypoint := job.Entrypoint
	if entrypoint == "" {
		entrypoint = seed.OfficialWebsiteURL
	}
	if entrypoint == "" {
		stats.Status = domain.StatusErrorOther
		stats.ErrorMessage = "municipality has no official website URL"
		return nil, ""
	}

	var candidates []domain.CrawlCandidate
	for _, section := range municipalsite.DiscoverSections(ctx, deps.HTTPClient, entrypoint) {
		for _, c := range municipalsite.CrawlSection(ctx, deps.HTTPClient, section) {
			candidates = append(candidates, municipalsite.ToDomainCandidate(c, job.MunicipalityKey, job.RunID))
		}
	}
	return candidates, entrypoint
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Hostname()
}
