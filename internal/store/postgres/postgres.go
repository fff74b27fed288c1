// Package postgres adapts internal/ports.Store onto a Postgres
// database reached through pgx's database/sql driver and sqlx's
// named-query convenience layer, matching the schema the prototype's
// apps/db DAOs target.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/witto13/bess-crawler/internal/clerrors"
	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/ports"
	"github.com/witto13/bess-crawler/internal/resolve"
)

// Store is a sqlx-backed internal/ports.Store adapter.
type Store struct {
	db *sqlx.DB
}

var _ ports.Store = (*Store)(nil)

// New wraps an already-opened sqlx.DB, letting tests inject a
// sqlmock-backed connection instead of dialing Postgres.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn using the pgx driver and wraps the resulting
// *sql.DB in sqlx for named-parameter queries.
func Open(ctx context.Context, dsn string) (*Store, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, clerrors.DatabaseError("open connection", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, clerrors.DatabaseError("ping", err)
	}
	return New(sqlx.NewDb(sqlDB, "pgx")), nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) MunicipalitiesDue(ctx context.Context, rescanInterval time.Duration, limit int) ([]domain.MunicipalitySeed, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT municipality_key, name, county, state, official_website_url
		FROM municipalities
		WHERE last_crawled_at IS NULL OR last_crawled_at < now() - $1::interval
		ORDER BY last_crawled_at NULLS FIRST
		LIMIT $2`,
		rescanInterval.String(), limit,
	)
	if err != nil {
		return nil, clerrors.DatabaseError("query municipalities due", err)
	}
	defer rows.Close()

	var seeds []domain.MunicipalitySeed
	for rows.Next() {
		var seed domain.MunicipalitySeed
		if err := rows.Scan(&seed.MunicipalityKey, &seed.Name, &seed.County, &seed.State, &seed.OfficialWebsiteURL); err != nil {
			return nil, clerrors.DatabaseError("scan municipality row", err)
		}
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

func (s *Store) MunicipalityByKey(ctx context.Context, municipalityKey string) (domain.MunicipalitySeed, error) {
	var seed domain.MunicipalitySeed
	row := s.db.QueryRowxContext(ctx, `
		SELECT municipality_key, name, county, state, official_website_url
		FROM municipalities WHERE municipality_key = $1`, municipalityKey)
	if err := row.Scan(&seed.MunicipalityKey, &seed.Name, &seed.County, &seed.State, &seed.OfficialWebsiteURL); err != nil {
		return seed, clerrors.DatabaseError("query municipality by key", err)
	}
	return seed, nil
}

func (s *Store) UpsertCrawlCandidate(ctx context.Context, candidate domain.CrawlCandidate) (string, error) {
	if candidate.CandidateID == "" {
		candidate.CandidateID = uuid.NewString()
	}
	if candidate.Status == "" {
		candidate.Status = "NEW"
	}

	docURLs, err := json.Marshal(candidate.DocURLs)
	if err != nil {
		return "", clerrors.FailedTo("marshal doc_urls", err)
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO crawl_candidates (
			candidate_id, run_id, municipality_key, discovery_source, discovery_path,
			title, date_hint, url, doc_urls, prefilter_score, status
		) VALUES (
			:candidate_id, :run_id, :municipality_key, :discovery_source, :discovery_path,
			:title, :date_hint, :url, :doc_urls, :prefilter_score, :status
		)
		ON CONFLICT (candidate_id) DO UPDATE SET
			prefilter_score = EXCLUDED.prefilter_score,
			status = EXCLUDED.status`,
		map[string]interface{}{
			"candidate_id":     candidate.CandidateID,
			"run_id":           candidate.RunID,
			"municipality_key": candidate.MunicipalityKey,
			"discovery_source": candidate.DiscoverySource,
			"discovery_path":   candidate.DiscoveryPath,
			"title":            candidate.Title,
			"date_hint":        candidate.DateHint,
			"url":              candidate.URL,
			"doc_urls":         docURLs,
			"prefilter_score":  candidate.PrefilterScore,
			"status":           candidate.Status,
		},
	)
	if err != nil {
		return "", clerrors.DatabaseError("upsert crawl candidate", err)
	}
	return candidate.CandidateID, nil
}

func (s *Store) CrawlCandidate(ctx context.Context, candidateID string) (domain.CrawlCandidate, error) {
	var candidate domain.CrawlCandidate
	var docURLs []byte
	row := s.db.QueryRowxContext(ctx, `
		SELECT candidate_id, run_id, municipality_key, discovery_source, discovery_path,
		       title, date_hint, url, doc_urls, prefilter_score, status
		FROM crawl_candidates WHERE candidate_id = $1`, candidateID)
	err := row.Scan(
		&candidate.CandidateID, &candidate.RunID, &candidate.MunicipalityKey,
		&candidate.DiscoverySource, &candidate.DiscoveryPath, &candidate.Title,
		&candidate.DateHint, &candidate.URL, &docURLs, &candidate.PrefilterScore,
		&candidate.Status,
	)
	if err != nil {
		return candidate, clerrors.DatabaseError("query crawl candidate", err)
	}
	if len(docURLs) > 0 {
		if err := json.Unmarshal(docURLs, &candidate.DocURLs); err != nil {
			return candidate, clerrors.FailedTo("unmarshal doc_urls", err)
		}
	}
	return candidate, nil
}

func (s *Store) UpdateCrawlCandidateStatus(ctx context.Context, candidateID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE crawl_candidates SET status = $1, updated_at = now() WHERE candidate_id = $2`,
		status, candidateID,
	)
	if err != nil {
		return clerrors.DatabaseError("update crawl candidate status", err)
	}
	return nil
}

func (s *Store) InsertProcedure(ctx context.Context, procedure domain.Procedure) error {
	if procedure.ProcedureID == "" {
		procedure.ProcedureID = uuid.NewString()
	}
	if procedure.CreatedAt.IsZero() {
		procedure.CreatedAt = time.Now()
	}

	evidence, err := json.Marshal(procedure.EvidenceSnippets)
	if err != nil {
		return clerrors.FailedTo("marshal evidence snippets", err)
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO procedures (
			procedure_id, title_raw, title_norm, state, municipality_key, source_system,
			discovery_source, discovery_path, procedure_type, legal_basis, project_components,
			capacity_mw, capacity_mwh, area_hectares, grid_score, decision_date,
			developer_company, site_location_raw, ambiguity_flag, review_recommended,
			confidence_score, evidence_snippets, created_at
		) VALUES (
			:procedure_id, :title_raw, :title_norm, :state, :municipality_key, :source_system,
			:discovery_source, :discovery_path, :procedure_type, :legal_basis, :project_components,
			:capacity_mw, :capacity_mwh, :area_hectares, :grid_score, :decision_date,
			:developer_company, :site_location_raw, :ambiguity_flag, :review_recommended,
			:confidence_score, :evidence_snippets, :created_at
		)
		ON CONFLICT (procedure_id) DO UPDATE SET
			title_raw = EXCLUDED.title_raw,
			confidence_score = EXCLUDED.confidence_score,
			review_recommended = EXCLUDED.review_recommended`,
		map[string]interface{}{
			"procedure_id":        procedure.ProcedureID,
			"title_raw":           procedure.TitleRaw,
			"title_norm":          procedure.TitleNorm,
			"state":               procedure.State,
			"municipality_key":    procedure.MunicipalityKey,
			"source_system":       procedure.SourceSystem,
			"discovery_source":    procedure.DiscoverySource,
			"discovery_path":      procedure.DiscoveryPath,
			"procedure_type":      procedure.ProcedureType,
			"legal_basis":         procedure.LegalBasis,
			"project_components":  procedure.ProjectComponents,
			"capacity_mw":         procedure.CapacityMW,
			"capacity_mwh":        procedure.CapacityMWh,
			"area_hectares":       procedure.AreaHectares,
			"grid_score":          procedure.GridScore,
			"decision_date":       procedure.DecisionDate,
			"developer_company":   procedure.DeveloperCompany,
			"site_location_raw":   procedure.SiteLocationRaw,
			"ambiguity_flag":      procedure.AmbiguityFlag,
			"review_recommended":  procedure.ReviewRecommended,
			"confidence_score":    procedure.ConfidenceScore,
			"evidence_snippets":   evidence,
			"created_at":          procedure.CreatedAt,
		},
	)
	if err != nil {
		return clerrors.DatabaseError("insert procedure", err)
	}
	return nil
}

func (s *Store) ProceduresByProjectID(ctx context.Context, projectID string) ([]domain.Procedure, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT p.procedure_id, p.title_raw, p.title_norm, p.state, p.municipality_key,
		       p.source_system, p.discovery_source, p.discovery_path, p.procedure_type,
		       p.legal_basis, p.project_components, p.capacity_mw, p.capacity_mwh,
		       p.area_hectares, p.grid_score, p.decision_date, p.developer_company,
		       p.site_location_raw, p.ambiguity_flag, p.review_recommended,
		       p.confidence_score, p.created_at
		FROM procedures p
		JOIN project_procedures pp ON pp.procedure_id = p.procedure_id
		WHERE pp.project_id = $1`, projectID)
	if err != nil {
		return nil, clerrors.DatabaseError("query procedures by project", err)
	}
	defer rows.Close()

	var procedures []domain.Procedure
	for rows.Next() {
		var p domain.Procedure
		if err := rows.Scan(
			&p.ProcedureID, &p.TitleRaw, &p.TitleNorm, &p.State, &p.MunicipalityKey,
			&p.SourceSystem, &p.DiscoverySource, &p.DiscoveryPath, &p.ProcedureType,
			&p.LegalBasis, &p.ProjectComponents, &p.CapacityMW, &p.CapacityMWh,
			&p.AreaHectares, &p.GridScore, &p.DecisionDate, &p.DeveloperCompany,
			&p.SiteLocationRaw, &p.AmbiguityFlag, &p.ReviewRecommended,
			&p.ConfidenceScore, &p.CreatedAt,
		); err != nil {
			return nil, clerrors.DatabaseError("scan procedure row", err)
		}
		procedures = append(procedures, p)
	}
	return procedures, rows.Err()
}

func (s *Store) CreateProject(ctx context.Context, project domain.ProjectEntity) (string, error) {
	if project.ProjectID == "" {
		project.ProjectID = uuid.NewString()
	}
	if err := s.upsertProject(ctx, project); err != nil {
		return "", err
	}
	return project.ProjectID, nil
}

func (s *Store) UpdateProject(ctx context.Context, project domain.ProjectEntity) error {
	return s.upsertProject(ctx, project)
}

func (s *Store) upsertProject(ctx context.Context, project domain.ProjectEntity) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO project_entities (
			project_id, state, municipality_key, municipality_name, county,
			canonical_project_name, site_location_best, developer_company_best,
			maturity_stage, legal_basis_best, project_components,
			capacity_mw_best, capacity_mwh_best, area_hectares_best,
			max_confidence, needs_review, first_seen_date, last_seen_date
		) VALUES (
			:project_id, :state, :municipality_key, :municipality_name, :county,
			:canonical_project_name, :site_location_best, :developer_company_best,
			:maturity_stage, :legal_basis_best, :project_components,
			:capacity_mw_best, :capacity_mwh_best, :area_hectares_best,
			:max_confidence, :needs_review, :first_seen_date, :last_seen_date
		)
		ON CONFLICT (project_id) DO UPDATE SET
			canonical_project_name = COALESCE(EXCLUDED.canonical_project_name, project_entities.canonical_project_name),
			site_location_best = COALESCE(EXCLUDED.site_location_best, project_entities.site_location_best),
			developer_company_best = COALESCE(EXCLUDED.developer_company_best, project_entities.developer_company_best),
			maturity_stage = EXCLUDED.maturity_stage,
			legal_basis_best = COALESCE(EXCLUDED.legal_basis_best, project_entities.legal_basis_best),
			project_components = COALESCE(EXCLUDED.project_components, project_entities.project_components),
			capacity_mw_best = GREATEST(COALESCE(EXCLUDED.capacity_mw_best, 0), COALESCE(project_entities.capacity_mw_best, 0)),
			capacity_mwh_best = GREATEST(COALESCE(EXCLUDED.capacity_mwh_best, 0), COALESCE(project_entities.capacity_mwh_best, 0)),
			area_hectares_best = GREATEST(COALESCE(EXCLUDED.area_hectares_best, 0), COALESCE(project_entities.area_hectares_best, 0)),
			max_confidence = GREATEST(COALESCE(EXCLUDED.max_confidence, 0), COALESCE(project_entities.max_confidence, 0)),
			needs_review = EXCLUDED.needs_review OR project_entities.needs_review,
			first_seen_date = LEAST(COALESCE(EXCLUDED.first_seen_date, project_entities.first_seen_date, now()), COALESCE(project_entities.first_seen_date, EXCLUDED.first_seen_date, now())),
			last_seen_date = GREATEST(COALESCE(EXCLUDED.last_seen_date, project_entities.last_seen_date, now()), COALESCE(project_entities.last_seen_date, EXCLUDED.last_seen_date, now())),
			updated_at = now()`,
		map[string]interface{}{
			"project_id":              project.ProjectID,
			"state":                   project.State,
			"municipality_key":        project.MunicipalityKey,
			"municipality_name":       project.MunicipalityName,
			"county":                  project.County,
			"canonical_project_name":  project.CanonicalName,
			"site_location_best":      project.SiteLocation,
			"developer_company_best":  project.DeveloperCompany,
			"maturity_stage":          project.MaturityStage,
			"legal_basis_best":        project.LegalBasisBest,
			"project_components":      project.ProjectComponents,
			"capacity_mw_best":        project.CapacityMWBest,
			"capacity_mwh_best":       project.CapacityMWhBest,
			"area_hectares_best":      project.AreaHectaresBest,
			"max_confidence":          project.MaxConfidence,
			"needs_review":            project.NeedsReview,
			"first_seen_date":         project.FirstSeenDate,
			"last_seen_date":          project.LastSeenDate,
		},
	)
	if err != nil {
		return clerrors.DatabaseError("upsert project entity", err)
	}
	return nil
}

// LinkProcedureToProject records (or re-records, on conflict) which
// project a procedure resolved to and how confidently, so
// ProceduresByProjectID can later join back through project_procedures.
func (s *Store) LinkProcedureToProject(ctx context.Context, projectID, procedureID string, confidence float64, reason domain.LinkReason) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO project_procedures (project_id, procedure_id, link_confidence, link_reason)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, procedure_id) DO UPDATE SET
			link_confidence = EXCLUDED.link_confidence,
			link_reason = EXCLUDED.link_reason`,
		projectID, procedureID, confidence, reason,
	)
	if err != nil {
		return clerrors.DatabaseError("link procedure to project", err)
	}
	return nil
}

func (s *Store) ProjectByID(ctx context.Context, projectID string) (domain.ProjectEntity, error) {
	var p domain.ProjectEntity
	row := s.db.QueryRowxContext(ctx, `
		SELECT project_id, state, municipality_key, municipality_name, county,
		       canonical_project_name, site_location_best, developer_company_best,
		       maturity_stage, legal_basis_best, project_components,
		       capacity_mw_best, capacity_mwh_best, area_hectares_best,
		       max_confidence, needs_review, first_seen_date, last_seen_date
		FROM project_entities WHERE project_id = $1`, projectID)
	err := row.Scan(
		&p.ProjectID, &p.State, &p.MunicipalityKey, &p.MunicipalityName, &p.County,
		&p.CanonicalName, &p.SiteLocation, &p.DeveloperCompany,
		&p.MaturityStage, &p.LegalBasisBest, &p.ProjectComponents,
		&p.CapacityMWBest, &p.CapacityMWhBest, &p.AreaHectaresBest,
		&p.MaxConfidence, &p.NeedsReview, &p.FirstSeenDate, &p.LastSeenDate,
	)
	if err != nil {
		return p, clerrors.DatabaseError("query project by id", err)
	}
	return p, nil
}

// FindProjectByParcelToken matches entity_resolution.py's Level 1:
// a LIKE scan of site_location_best for the parcel token.
func (s *Store) FindProjectByParcelToken(ctx context.Context, municipalityKey, parcelToken string) (string, bool, error) {
	var projectID string
	row := s.db.QueryRowxContext(ctx, `
		SELECT project_id FROM project_entities
		WHERE municipality_key = $1 AND site_location_best LIKE '%' || $2 || '%'
		LIMIT 1`, municipalityKey, parcelToken)
	err := row.Scan(&projectID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, clerrors.DatabaseError("find project by parcel token", err)
	}
	return projectID, true, nil
}

// FindProjectByPlanToken matches Level 2: canonical_project_name LIKE
// or exact equality against the plan token.
func (s *Store) FindProjectByPlanToken(ctx context.Context, municipalityKey, planToken string) (string, bool, error) {
	var projectID string
	row := s.db.QueryRowxContext(ctx, `
		SELECT project_id FROM project_entities
		WHERE municipality_key = $1
		AND (canonical_project_name LIKE '%' || $2 || '%' OR canonical_project_name = $2)
		LIMIT 1`, municipalityKey, planToken)
	err := row.Scan(&projectID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, clerrors.DatabaseError("find project by plan token", err)
	}
	return projectID, true, nil
}

func (s *Store) DeveloperCandidates(ctx context.Context, municipalityKey string) ([]resolve.DeveloperCandidate, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT project_id, developer_company_best FROM project_entities
		WHERE municipality_key = $1 AND developer_company_best IS NOT NULL
		LIMIT 50`, municipalityKey)
	if err != nil {
		return nil, clerrors.DatabaseError("query developer candidates", err)
	}
	defer rows.Close()

	var candidates []resolve.DeveloperCandidate
	for rows.Next() {
		var c resolve.DeveloperCandidate
		if err := rows.Scan(&c.ProjectID, &c.DeveloperCompany); err != nil {
			return nil, clerrors.DatabaseError("scan developer candidate", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// TitleSignatureCandidates backs resolve's Level 4 Jaccard fallback, a
// supplement over the prototype which left title-signature storage as
// a TODO. It reads title_signature from project_entities; upsertProject
// does not write that column and nothing else in this module does, so
// only rows whose signature was set outside the crawler match.
func (s *Store) TitleSignatureCandidates(ctx context.Context, municipalityKey string) ([]resolve.TitleSignatureCandidate, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT project_id, title_signature FROM project_entities
		WHERE municipality_key = $1 AND title_signature IS NOT NULL
		LIMIT 50`, municipalityKey)
	if err != nil {
		return nil, clerrors.DatabaseError("query title signature candidates", err)
	}
	defer rows.Close()

	var candidates []resolve.TitleSignatureCandidate
	for rows.Next() {
		var c resolve.TitleSignatureCandidate
		if err := rows.Scan(&c.ProjectID, &c.TitleSignature); err != nil {
			return nil, clerrors.DatabaseError("scan title signature candidate", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *Store) RecordCrawlStats(ctx context.Context, stats domain.CrawlStats) error {
	counts, err := json.Marshal(stats.Counts)
	if err != nil {
		return clerrors.FailedTo("marshal crawl stats counts", err)
	}
	timings, err := json.Marshal(stats.Timings)
	if err != nil {
		return clerrors.FailedTo("marshal crawl stats timings", err)
	}
	if stats.CreatedAt.IsZero() {
		stats.CreatedAt = time.Now()
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO crawl_stats (
			run_id, job_id, municipality_key, source_type, domain,
			counts, timings, status, error_message, created_at
		) VALUES (
			:run_id, :job_id, :municipality_key, :source_type, :domain,
			:counts, :timings, :status, :error_message, :created_at
		)`,
		map[string]interface{}{
			"run_id":           stats.RunID,
			"job_id":           stats.JobID,
			"municipality_key": stats.MunicipalityKey,
			"source_type":      stats.SourceType,
			"domain":           stats.Domain,
			"counts":           counts,
			"timings":          timings,
			"status":           stats.Status,
			"error_message":    stats.ErrorMessage,
			"created_at":       stats.CreatedAt,
		},
	)
	if err != nil {
		return clerrors.DatabaseError("record crawl stats", err)
	}
	return nil
}

func (s *Store) MunicipalityStats(ctx context.Context, municipalityKey string, since time.Time) ([]domain.CrawlStats, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT run_id, job_id, municipality_key, source_type, domain,
		       counts, timings, status, error_message, created_at
		FROM crawl_stats
		WHERE municipality_key = $1 AND created_at >= $2
		ORDER BY created_at DESC`, municipalityKey, since)
	if err != nil {
		return nil, clerrors.DatabaseError("query municipality stats", err)
	}
	defer rows.Close()

	var results []domain.CrawlStats
	for rows.Next() {
		var stat domain.CrawlStats
		var counts, timings []byte
		if err := rows.Scan(
			&stat.RunID, &stat.JobID, &stat.MunicipalityKey, &stat.SourceType,
			&stat.Domain, &counts, &timings, &stat.Status, &stat.ErrorMessage,
			&stat.CreatedAt,
		); err != nil {
			return nil, clerrors.DatabaseError("scan crawl stats row", err)
		}
		if len(counts) > 0 {
			if err := json.Unmarshal(counts, &stat.Counts); err != nil {
				return nil, clerrors.FailedTo("unmarshal crawl stats counts", err)
			}
		}
		if len(timings) > 0 {
			if err := json.Unmarshal(timings, &stat.Timings); err != nil {
				return nil, clerrors.FailedTo("unmarshal crawl stats timings", err)
			}
		}
		results = append(results, stat)
	}
	return results, rows.Err()
}
