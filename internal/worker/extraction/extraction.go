// Package extraction runs one extraction job: fetch a crawl
// candidate's page and documents, classify the combined text,
// extract structured attributes, and persist (or skip) the resulting
// procedure, linking it to a project entity.
package extraction

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/witto13/bess-crawler/internal/clerrors"
	"github.com/witto13/bess-crawler/internal/crawl/ris"
	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/extract/attributes"
	"github.com/witto13/bess-crawler/internal/extract/classifier"
	"github.com/witto13/bess-crawler/internal/extract/container"
	"github.com/witto13/bess-crawler/internal/httpx/client"
	"github.com/witto13/bess-crawler/internal/httpx/ratelimit"
	"github.com/witto13/bess-crawler/internal/obs/logging"
	"github.com/witto13/bess-crawler/internal/obs/metrics"
	"github.com/witto13/bess-crawler/internal/obs/trace"
	"github.com/witto13/bess-crawler/internal/parser/pdftext"
	"github.com/witto13/bess-crawler/internal/ports"
	"github.com/witto13/bess-crawler/internal/resolve"
	"github.com/witto13/bess-crawler/internal/rollup"
)

const maxPDFsPerCandidate = 5

var privilegedAgendaTerms = []string{
	"einvernehmen", "bauantrag", "bauvorbescheid", "vorbescheid",
	"stellungnahme", "energie", "speicher", "photovoltaik", "umspannwerk",
}

// Deps collects the collaborators an extraction job needs. Logger and
// Blob are optional: a nil Logger drops log lines, a nil Blob skips
// persisting raw PDF bytes.
type Deps struct {
	Store        ports.Store
	Blob         ports.BlobStore
	HTTPClient   *client.Client
	Logger       *zap.SugaredLogger
	PDFMaxSizeMB int
}

func (d Deps) logw(msg string, fields logging.Fields) {
	if d.Logger == nil {
		return
	}
	d.Logger.Infow(msg, toArgs(fields)...)
}

func toArgs(f logging.Fields) []interface{} {
	args := make([]interface{}, 0, len(f)*2)
	for k, v := range f.ToLogrus() {
		args = append(args, k, v)
	}
	return args
}

// Run executes one extraction job end to end and always records a
// domain.CrawlStats entry, whether the candidate turned into a saved
// procedure, was skipped as not a real procedure, or failed outright.
func Run(ctx context.Context, deps Deps, job ports.Job) (runErr error) {
	start := time.Now()

	ctx, span := trace.StartJob(ctx, "extraction", job.MunicipalityKey, job.JobID)
	defer func() {
		trace.EndJob(span, runErr)
		span.End()
	}()

	candidate, err := deps.Store.CrawlCandidate(ctx, job.CandidateID)
	if err != nil {
		return clerrors.FailedToWithDetails("look up crawl candidate", "worker/extraction", job.CandidateID, err)
	}

	seed, err := deps.Store.MunicipalityByKey(ctx, candidate.MunicipalityKey)
	if err != nil {
		return clerrors.FailedToWithDetails("look up municipality", "worker/extraction", candidate.MunicipalityKey, err)
	}

	mode := job.Mode
	if mode == "" {
		mode = "fast"
	}
	rateMode := ratelimit.ModeDeep
	if mode == "fast" {
		rateMode = ratelimit.ModeFast
	}

	stats := domain.CrawlStats{
		RunID:           job.RunID,
		JobID:           uuid.NewString(),
		MunicipalityKey: candidate.MunicipalityKey,
		SourceType:      candidate.DiscoverySource,
		Domain:          hostOf(candidate.URL),
		Counts: map[string]interface{}{
			"pages_fetched":       0,
			"pdfs_downloaded":     0,
			"pdfs_skipped":        0,
			"procedures_saved":    0,
			"procedures_skipped": 0,
		},
		Timings: map[string]float64{},
		Status:  domain.StatusSuccess,
	}

	outcome, runErr := process(ctx, deps, candidate, seed, mode, rateMode, &stats)
	stats.Timings["total_ms"] = float64(time.Since(start).Milliseconds())
	metrics.JobDurationSeconds.WithLabelValues(string(ports.JobExtraction)).Observe(time.Since(start).Seconds())

	if runErr != nil {
		stats.Status = domain.StatusErrorOther
		stats.ErrorMessage = runErr.Error()
		_ = deps.Store.UpdateCrawlCandidateStatus(ctx, candidate.CandidateID, "ERROR")
		metrics.JobFailuresTotal.WithLabelValues(string(ports.JobExtraction)).Inc()
	}
	metrics.CandidatesExtractedTotal.WithLabelValues(outcome).Inc()

	if err := deps.Store.RecordCrawlStats(ctx, stats); err != nil {
		return clerrors.FailedTo("record extraction crawl stats", err)
	}
	return runErr
}

// process runs the fetch/classify/persist pipeline for one candidate,
// reporting a short outcome label for metrics and mutating stats as it
// goes.
func process(ctx context.Context, deps Deps, candidate domain.CrawlCandidate, seed domain.MunicipalitySeed, mode string, rateMode ratelimit.Mode, stats *domain.CrawlStats) (string, error) {
	htmlText := ""
	if result := deps.HTTPClient.Fetch(ctx, candidate.URL, rateMode, nil); result.Outcome == client.Ok {
		htmlText = extractHTMLText(result.Body)
		stats.Counts["pages_fetched"] = 1
	}

	docURLs := candidate.DocURLs
	if len(docURLs) == 0 && candidate.DiscoverySource == domain.DiscoveryRIS && containsAny(strings.ToLower(candidate.Title), privilegedAgendaTerms) {
		docURLs = ris.FetchAgendaAttachments(ctx, deps.HTTPClient, candidate.URL)
	}

	combinedText := candidate.Title + " " + htmlText
	initialPages := 5
	if mode == "fast" {
		initialPages = 3
	}

	if len(docURLs) > maxPDFsPerCandidate {
		docURLs = docURLs[:maxPDFsPerCandidate]
	}
	for _, docURL := range docURLs {
		result := deps.HTTPClient.Fetch(ctx, docURL, rateMode, nil)
		if result.Outcome != client.Ok {
			stats.Counts["pdfs_skipped"] = stats.Counts["pdfs_skipped"].(int) + 1
			continue
		}

		sizeMB := float64(len(result.Body)) / (1024 * 1024)
		if deps.PDFMaxSizeMB > 0 && sizeMB > float64(deps.PDFMaxSizeMB) && mode == "fast" && candidate.PrefilterScore < 0.8 {
			stats.Counts["pdfs_skipped"] = stats.Counts["pdfs_skipped"].(int) + 1
			continue
		}
		stats.Counts["pdfs_downloaded"] = stats.Counts["pdfs_downloaded"].(int) + 1

		pdfText, _, err := pdftext.ExtractProgressive(result.Body, initialPages)
		if err != nil {
			deps.logw("pdf extraction failed", logging.CrawlFields("extract_pdf", docURL).Error(err))
			continue
		}
		if pdfText != "" {
			combinedText += " " + pdfText
		}

		if deps.Blob != nil {
			sha := sha256Hex(result.Body)
			if err := deps.Blob.Put(ctx, sha, result.Body); err != nil {
				deps.logw("pdf storage failed", logging.CrawlFields("store_pdf", docURL).Error(err))
			}
		}
	}

	procDate := time.Now()
	if candidate.DateHint != nil {
		procDate = *candidate.DateHint
	}
	result := classifier.Classify(combinedText, candidate.Title, procDate)

	titleNorm := strings.ToLower(candidate.Title)
	valid, skipReason := container.IsValidProcedure(titleNorm, candidate.URL, combinedText, candidate.DiscoverySource, &result)
	if !valid {
		_ = deps.Store.UpdateCrawlCandidateStatus(ctx, candidate.CandidateID, "SKIPPED")
		stats.Counts["procedures_skipped"] = 1
		return "skipped:" + string(skipReason), nil
	}

	procedure := buildProcedure(candidate, seed, titleNorm, combinedText, mode, result)

	if err := deps.Store.InsertProcedure(ctx, procedure); err != nil {
		return "error", clerrors.FailedToWithDetails("insert procedure", "worker/extraction", procedure.ProcedureID, err)
	}

	if err := linkProcedureToProject(ctx, deps, procedure, seed); err != nil {
		deps.logw("project linking failed", logging.NewFields().Component("extraction").Operation("link_project").Error(err))
	}

	if err := deps.Store.UpdateCrawlCandidateStatus(ctx, candidate.CandidateID, "DONE"); err != nil {
		return "error", err
	}

	stats.Counts["procedures_saved"] = 1
	metrics.ProceduresPersistedTotal.Inc()
	if procedure.ReviewRecommended {
		metrics.ReviewRecommendedTotal.Inc()
	}
	return "saved", nil
}

func buildProcedure(candidate domain.CrawlCandidate, seed domain.MunicipalitySeed, titleNorm, combinedText, mode string, result domain.ClassifierResult) domain.Procedure {
	procedure := domain.Procedure{
		ProcedureID:     uuid.NewString(),
		TitleRaw:        candidate.Title,
		TitleNorm:       titleNorm,
		State:           seed.State,
		MunicipalityKey: candidate.MunicipalityKey,
		SourceSystem:    strings.ToLower(string(candidate.DiscoverySource)),
		DiscoverySource: candidate.DiscoverySource,
		DiscoveryPath:   candidate.DiscoveryPath,
		CreatedAt:       time.Now(),
	}

	procedure.CapacityMW = attributes.FindCapacityMW(combinedText)
	procedure.CapacityMWh = attributes.FindCapacityMWh(combinedText)
	procedure.AreaHectares = attributes.FindLargestArea(combinedText)
	procedure.DecisionDate = attributes.FindDecisionDate(combinedText)
	procedure.SiteLocationRaw = derefString(attributes.ExtractLocation(combinedText))
	if companies := attributes.FindCompanies(combinedText); len(companies) > 0 {
		n := len(companies)
		if n > 3 {
			n = 3
		}
		procedure.DeveloperCompany = strings.Join(companies[:n], ", ")
	}

	procedure.ProcedureType = result.ProcedureType
	if procedure.ProcedureType == "" || procedure.ProcedureType == domain.ProcedureUnknown {
		procedure.ProcedureType = domain.ProcedureUnknown
		procedure.ReviewRecommended = true
	} else {
		procedure.ReviewRecommended = result.ReviewRecommended
	}
	procedure.LegalBasis = result.LegalBasis
	procedure.ProjectComponents = result.ProjectComponents
	procedure.AmbiguityFlag = result.AmbiguityFlag
	procedure.ConfidenceScore = result.ConfidenceScore

	if len(result.EvidenceSnippets) > 0 && !(mode == "fast" && result.ConfidenceScore < 0.7) {
		procedure.EvidenceSnippets = result.EvidenceSnippets
	}

	return procedure
}

// linkProcedureToProject matches procedure against existing project
// entities and either links it to the best match or creates a new
// project. A §36 Einvernehmen procedure always gets a project, since
// it is itself evidence of an active siting decision.
func linkProcedureToProject(ctx context.Context, deps Deps, procedure domain.Procedure, seed domain.MunicipalitySeed) error {
	evidenceTexts := make([]string, 0, len(procedure.EvidenceSnippets))
	for _, s := range procedure.EvidenceSnippets {
		evidenceTexts = append(evidenceTexts, s.Text)
	}
	signature := resolve.ComputeProjectSignature(procedure.TitleRaw, procedure.SiteLocationRaw, procedure.DeveloperCompany, evidenceTexts)

	match, err := resolve.FindMatchingProject(ctx, deps.Store, signature, procedure.MunicipalityKey)
	if err != nil {
		return clerrors.FailedTo("find matching project", err)
	}

	if match != nil {
		if err := deps.Store.LinkProcedureToProject(ctx, match.ProjectID, procedure.ProcedureID, match.Confidence, match.Reason); err != nil {
			return err
		}
		return applyProjectRollup(ctx, deps, match.ProjectID, procedure)
	}

	best := rollup.ComputeBestFields([]domain.Procedure{procedure}, signature)
	first, last := rollup.ComputeProjectDates([]domain.Procedure{procedure})

	maturity := resolve.ComputeMaturityStage([]domain.ProcedureType{procedure.ProcedureType})
	legalBasis := procedure.LegalBasis
	linkConfidence := 1.0
	linkReason := domain.LinkNewProject
	if procedure.ProcedureType == domain.ProcedurePermit36 {
		maturity = domain.MaturityPermit36
		legalBasis = "§36"
		linkConfidence = 0.85
		linkReason = domain.LinkPermit36New
	}

	project := domain.ProjectEntity{
		State:             seed.State,
		MunicipalityKey:   seed.MunicipalityKey,
		MunicipalityName:  seed.Name,
		County:            seed.County,
		CanonicalName:     best.CanonicalProjectName,
		SiteLocation:      best.SiteLocationBest,
		DeveloperCompany:  best.DeveloperCompanyBest,
		MaturityStage:     maturity,
		LegalBasisBest:    legalBasis,
		ProjectComponents: procedure.ProjectComponents,
		CapacityMWBest:    best.CapacityMWBest,
		CapacityMWhBest:   best.CapacityMWhBest,
		AreaHectaresBest:  best.AreaHectaresBest,
		MaxConfidence:     procedure.ConfidenceScore,
		NeedsReview:       procedure.ReviewRecommended,
		FirstSeenDate:     first,
		LastSeenDate:      last,
	}

	projectID, err := deps.Store.CreateProject(ctx, project)
	if err != nil {
		return clerrors.FailedTo("create project entity", err)
	}
	return deps.Store.LinkProcedureToProject(ctx, projectID, procedure.ProcedureID, linkConfidence, linkReason)
}

// applyProjectRollup recomputes a project entity from every procedure
// linked to it after matched links one more. Maturity only ever
// advances along domain.MaturityPrecedence, and legal basis only ever
// strengthens toward §35, never downgrades.
func applyProjectRollup(ctx context.Context, deps Deps, projectID string, matched domain.Procedure) error {
	project, err := deps.Store.ProjectByID(ctx, projectID)
	if err != nil {
		return clerrors.FailedTo("load project for rollup", err)
	}

	procedures, err := deps.Store.ProceduresByProjectID(ctx, projectID)
	if err != nil {
		return clerrors.FailedTo("load project procedures for rollup", err)
	}
	if len(procedures) == 0 {
		procedures = []domain.Procedure{matched}
	}

	evidenceTexts := make([]string, 0, len(matched.EvidenceSnippets))
	for _, s := range matched.EvidenceSnippets {
		evidenceTexts = append(evidenceTexts, s.Text)
	}
	signature := resolve.ComputeProjectSignature(matched.TitleRaw, matched.SiteLocationRaw, matched.DeveloperCompany, evidenceTexts)

	best := rollup.ComputeBestFields(procedures, signature)
	first, last := rollup.ComputeProjectDates(procedures)

	procedureTypes := make([]domain.ProcedureType, 0, len(procedures))
	classifierResults := make([]domain.ClassifierResult, 0, len(procedures))
	for _, p := range procedures {
		procedureTypes = append(procedureTypes, p.ProcedureType)
		classifierResults = append(classifierResults, domain.ClassifierResult{ConfidenceScore: p.ConfidenceScore, ReviewRecommended: p.ReviewRecommended})
	}
	maxConfidence, needsReview := rollup.ComputeProjectConfidence(classifierResults)

	if maturity := resolve.ComputeMaturityStage(procedureTypes); maturityRank(maturity) > maturityRank(project.MaturityStage) {
		project.MaturityStage = maturity
	}

	project.LegalBasisBest = strongerLegalBasis(project.LegalBasisBest, best.LegalBasisBest)
	project.CanonicalName = coalesce(best.CanonicalProjectName, project.CanonicalName)
	project.SiteLocation = coalesce(best.SiteLocationBest, project.SiteLocation)
	project.DeveloperCompany = coalesce(best.DeveloperCompanyBest, project.DeveloperCompany)

	if best.CapacityMWBest != nil {
		project.CapacityMWBest = best.CapacityMWBest
	}
	if best.CapacityMWhBest != nil {
		project.CapacityMWhBest = best.CapacityMWhBest
	}
	if best.AreaHectaresBest != nil {
		project.AreaHectaresBest = best.AreaHectaresBest
	}
	if maxConfidence > project.MaxConfidence {
		project.MaxConfidence = maxConfidence
	}
	project.NeedsReview = project.NeedsReview || needsReview

	if first != nil && (project.FirstSeenDate == nil || first.Before(*project.FirstSeenDate)) {
		project.FirstSeenDate = first
	}
	if last != nil && (project.LastSeenDate == nil || last.After(*project.LastSeenDate)) {
		project.LastSeenDate = last
	}

	return deps.Store.UpdateProject(ctx, project)
}

func maturityRank(stage domain.MaturityStage) int {
	for i, s := range domain.MaturityPrecedence {
		if s == stage {
			return i
		}
	}
	return -1
}

var legalBasisRank = map[string]int{"§35": 3, "§34": 2, "§36": 1}

// strongerLegalBasis keeps the higher-priority basis of current and
// candidate, never downgrading toward "unknown" or empty.
func strongerLegalBasis(current, candidate string) string {
	if current == "" {
		return candidate
	}
	if candidate == "" {
		return current
	}
	if legalBasisRank[candidate] > legalBasisRank[current] {
		return candidate
	}
	return current
}

func coalesce(candidate, current string) string {
	if candidate != "" {
		return candidate
	}
	return current
}

func extractHTMLText(htmlBody []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(htmlBody)))
	if err != nil {
		return ""
	}
	return doc.Text()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func containsAny(haystack string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return parsed.Hostname()
}
