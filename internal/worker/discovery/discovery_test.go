package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/httpx/client"
	"github.com/witto13/bess-crawler/internal/httpx/ratelimit"
	"github.com/witto13/bess-crawler/internal/httpx/sslpolicy"
	"github.com/witto13/bess-crawler/internal/ports"
	"github.com/witto13/bess-crawler/internal/resolve"
)

type fakeStore struct {
	seed       domain.MunicipalitySeed
	candidates map[string]domain.CrawlCandidate
	statuses   map[string]string
	stats      []domain.CrawlStats
	nextID     int
}

func newFakeStore(seed domain.MunicipalitySeed) *fakeStore {
	return &fakeStore{
		seed:       seed,
		candidates: map[string]domain.CrawlCandidate{},
		statuses:   map[string]string{},
	}
}

func (s *fakeStore) FindProjectByParcelToken(ctx context.Context, municipalityKey, parcelToken string) (string, bool, error) {
	return "", false, nil
}
func (s *fakeStore) FindProjectByPlanToken(ctx context.Context, municipalityKey, planToken string) (string, bool, error) {
	return "", false, nil
}
func (s *fakeStore) DeveloperCandidates(ctx context.Context, municipalityKey string) ([]resolve.DeveloperCandidate, error) {
	return nil, nil
}
func (s *fakeStore) TitleSignatureCandidates(ctx context.Context, municipalityKey string) ([]resolve.TitleSignatureCandidate, error) {
	return nil, nil
}

func (s *fakeStore) MunicipalitiesDue(ctx context.Context, rescanInterval time.Duration, limit int) ([]domain.MunicipalitySeed, error) {
	return []domain.MunicipalitySeed{s.seed}, nil
}
func (s *fakeStore) MunicipalityByKey(ctx context.Context, municipalityKey string) (domain.MunicipalitySeed, error) {
	return s.seed, nil
}

func (s *fakeStore) UpsertCrawlCandidate(ctx context.Context, candidate domain.CrawlCandidate) (string, error) {
	s.nextID++
	id := candidate.URL
	candidate.CandidateID = id
	s.candidates[id] = candidate
	return id, nil
}
func (s *fakeStore) CrawlCandidate(ctx context.Context, candidateID string) (domain.CrawlCandidate, error) {
	return s.candidates[candidateID], nil
}
func (s *fakeStore) UpdateCrawlCandidateStatus(ctx context.Context, candidateID, status string) error {
	s.statuses[candidateID] = status
	return nil
}

func (s *fakeStore) InsertProcedure(ctx context.Context, procedure domain.Procedure) error { return nil }
func (s *fakeStore) ProceduresByProjectID(ctx context.Context, projectID string) ([]domain.Procedure, error) {
	return nil, nil
}

func (s *fakeStore) CreateProject(ctx context.Context, project domain.ProjectEntity) (string, error) {
	return "", nil
}
func (s *fakeStore) UpdateProject(ctx context.Context, project domain.ProjectEntity) error { return nil }
func (s *fakeStore) ProjectByID(ctx context.Context, projectID string) (domain.ProjectEntity, error) {
	return domain.ProjectEntity{}, nil
}
func (s *fakeStore) LinkProcedureToProject(ctx context.Context, projectID, procedureID string, confidence float64, reason domain.LinkReason) error {
	return nil
}

func (s *fakeStore) RecordCrawlStats(ctx context.Context, stats domain.CrawlStats) error {
	s.stats = append(s.stats, stats)
	return nil
}
func (s *fakeStore) MunicipalityStats(ctx context.Context, municipalityKey string, since time.Time) ([]domain.CrawlStats, error) {
	return s.stats, nil
}

type fakeQueue struct {
	pushed []ports.Job
}

func (q *fakeQueue) Push(ctx context.Context, job ports.Job) error {
	q.pushed = append(q.pushed, job)
	return nil
}
func (q *fakeQueue) Pop(ctx context.Context) (ports.Job, error) { return ports.Job{}, nil }
func (q *fakeQueue) Len(ctx context.Context) (int, error)       { return len(q.pushed), nil }

func newTestHTTPClient() *client.Client {
	return client.New(sslpolicy.New(nil, false), nil, ratelimit.New(10, 10, 0, time.Millisecond), time.Second, 2)
}

func TestRun_MunicipalWebsite_EnqueuesHighScoringCandidate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/bauleitplanung">Bauleitplanung</a>
		</body></html>`))
	})
	mux.HandleFunc("/bauleitplanung", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/verfahren/batteriespeicher-nord">Aufstellungsbeschluss Batteriespeicher Nord</a>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	seed := domain.MunicipalitySeed{
		MunicipalityKey:    "teltow",
		Name:               "Teltow",
		State:              "BB",
		OfficialWebsiteURL: srv.URL,
	}
	store := newFakeStore(seed)
	queue := &fakeQueue{}

	deps := Deps{Store: store, Queue: queue, HTTPClient: newTestHTTPClient()}
	job := ports.Job{
		JobID:           "job-1",
		RunID:           "run-1",
		Type:            ports.JobDiscovery,
		MunicipalityKey: "teltow",
		Source:          domain.DiscoveryWebsite,
		Mode:            "fast",
	}

	if err := Run(context.Background(), deps, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(queue.pushed) != 1 {
		t.Fatalf("expected 1 enqueued extraction job, got %d: %+v", len(queue.pushed), queue.pushed)
	}
	if queue.pushed[0].Type != ports.JobExtraction {
		t.Fatalf("expected extraction job, got %v", queue.pushed[0].Type)
	}

	if len(store.stats) != 1 {
		t.Fatalf("expected one crawl stats record, got %d", len(store.stats))
	}
	stats := store.stats[0]
	if stats.Status != domain.StatusSuccess {
		t.Fatalf("expected SUCCESS status, got %v (%s)", stats.Status, stats.ErrorMessage)
	}
	if stats.Counts["candidates_found"] != 1 {
		t.Fatalf("expected 1 candidate found, got %v", stats.Counts["candidates_found"])
	}
	if stats.Counts["procedures_enqueued"] != 1 {
		t.Fatalf("expected 1 procedure enqueued, got %v", stats.Counts["procedures_enqueued"])
	}
}

func TestRun_MunicipalWebsite_SkipsLowScoringCandidate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/verfahren">Verfahren</a>
		</body></html>`))
	})
	mux.HandleFunc("/verfahren", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="/verfahren/vereinsfest">Verfahren Vereinsfest Genehmigung</a>
		</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	seed := domain.MunicipalitySeed{
		MunicipalityKey:    "teltow",
		Name:               "Teltow",
		State:              "BB",
		OfficialWebsiteURL: srv.URL,
	}
	store := newFakeStore(seed)
	queue := &fakeQueue{}

	deps := Deps{Store: store, Queue: queue, HTTPClient: newTestHTTPClient()}
	job := ports.Job{
		JobID:           "job-2",
		RunID:           "run-2",
		Type:            ports.JobDiscovery,
		MunicipalityKey: "teltow",
		Source:          domain.DiscoveryWebsite,
		Mode:            "fast",
	}

	if err := Run(context.Background(), deps, job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(queue.pushed) != 0 {
		t.Fatalf("expected no enqueued extraction jobs, got %d", len(queue.pushed))
	}
	stats := store.stats[0]
	if stats.Counts["procedures_skipped"] != 1 {
		t.Fatalf("expected 1 procedure skipped, got %v", stats.Counts["procedures_skipped"])
	}
}
