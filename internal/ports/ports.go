// Package ports declares the storage, queue, blob and review
// interfaces the worker pipelines depend on, so that internal/worker
// and cmd/ wire concrete adapters without the pipeline packages ever
// importing a driver directly.
package ports

import (
	"context"
	"time"

	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/resolve"
)

// Store is the persistence surface the worker pipelines and operator
// API need. internal/store/postgres is the only adapter; it also
// structurally satisfies internal/resolve.MatchIndex.
type Store interface {
	resolve.MatchIndex

	MunicipalitiesDue(ctx context.Context, rescanInterval time.Duration, limit int) ([]domain.MunicipalitySeed, error)
	MunicipalityByKey(ctx context.Context, municipalityKey string) (domain.MunicipalitySeed, error)

	UpsertCrawlCandidate(ctx context.Context, candidate domain.CrawlCandidate) (string, error)
	CrawlCandidate(ctx context.Context, candidateID string) (domain.CrawlCandidate, error)
	UpdateCrawlCandidateStatus(ctx context.Context, candidateID, status string) error

	InsertProcedure(ctx context.Context, procedure domain.Procedure) error
	ProceduresByProjectID(ctx context.Context, projectID string) ([]domain.Procedure, error)

	CreateProject(ctx context.Context, project domain.ProjectEntity) (string, error)
	UpdateProject(ctx context.Context, project domain.ProjectEntity) error
	ProjectByID(ctx context.Context, projectID string) (domain.ProjectEntity, error)
	LinkProcedureToProject(ctx context.Context, projectID, procedureID string, confidence float64, reason domain.LinkReason) error

	RecordCrawlStats(ctx context.Context, stats domain.CrawlStats) error
	MunicipalityStats(ctx context.Context, municipalityKey string, since time.Time) ([]domain.CrawlStats, error)
}

// JobType names the kind of unit of work handed from the orchestrator to
// a worker through Queue.
type JobType string

const (
	JobDiscovery  JobType = "DISCOVERY"
	JobExtraction JobType = "EXTRACTION"
)

// Job is the payload pushed onto and popped off Queue. Source and
// Entrypoint are set for discovery jobs (one job per source per
// municipality, mirroring the prototype's per-source job payloads);
// CandidateID is set for extraction jobs.
type Job struct {
	JobID            string
	RunID            string
	Type             JobType
	MunicipalityKey  string
	MunicipalityName string
	Source           domain.DiscoverySource
	Entrypoint       string
	Mode             string
	CandidateID      string
}

// Queue is the work-distribution surface between the orchestrator and
// the worker pool. Push is fire-and-forget; Pop blocks until a job is
// available or ctx is cancelled.
type Queue interface {
	Push(ctx context.Context, job Job) error
	Pop(ctx context.Context) (Job, error)
	Len(ctx context.Context) (int, error)
}

// BlobStore persists the raw bytes of a fetched page or PDF, keyed by
// its cache key, separately from the structured Store records that
// reference it.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

// ReviewHook is the optional, off-by-default second opinion on
// low-confidence classifications. A nil ReviewHook (or one that is
// never enabled in config) means the worker relies solely on
// internal/extract/classifier's own confidence score.
type ReviewHook interface {
	Review(ctx context.Context, titleRaw, extractedText string, result domain.ClassifierResult) (confirmed bool, note string, err error)
}
