// Package domain holds the persistent record shapes shared across the
// crawler's discovery, extraction and rollup stages.
package domain

import "time"

// DiscoverySource identifies which crawler surfaced a candidate.
type DiscoverySource string

const (
	DiscoveryRIS       DiscoverySource = "RIS"
	DiscoveryAmtsblatt DiscoverySource = "AMTSBLATT"
	DiscoveryWebsite   DiscoverySource = "MUNICIPAL_WEBSITE"
)

// ProcedureType enumerates the permitting/planning procedure stages the
// classifier recognizes. Evaluation order (first match wins) is permits,
// then B-plan stages, else UNKNOWN.
type ProcedureType string

const (
	ProcedureUnknown            ProcedureType = "UNKNOWN"
	ProcedureBauvorbescheid     ProcedureType = "PERMIT_BAUVORBESCHEID"
	ProcedureBaugenehmigung     ProcedureType = "PERMIT_BAUGENEHMIGUNG"
	ProcedurePermit36           ProcedureType = "PERMIT_36_EINVERNEHMEN"
	ProcedurePermitOther        ProcedureType = "PERMIT_OTHER"
	ProcedureBPlanAufstellung   ProcedureType = "BPLAN_AUFSTELLUNG"
	ProcedureBPlanFruehzeitig31 ProcedureType = "BPLAN_FRUEHZEITIG_3_1"
	ProcedureBPlanAuslegung32   ProcedureType = "BPLAN_AUSLEGUNG_3_2"
	ProcedureBPlanSatzung       ProcedureType = "BPLAN_SATZUNG"
	ProcedureBPlanOther         ProcedureType = "BPLAN_OTHER"
)

// ProjectComponents describes which technology mix a project bundles.
type ProjectComponents string

const (
	ComponentsPVBESS      ProjectComponents = "PV_BESS"
	ComponentsWindBESS    ProjectComponents = "WIND_BESS"
	ComponentsBESSOnly    ProjectComponents = "BESS_ONLY"
	ComponentsOtherUnclear ProjectComponents = "OTHER_UNCLEAR"
)

// MaturityStage is the monotonic lifecycle ladder a project climbs as
// its constituent procedures mature. Index order in MaturityPrecedence
// is precedence order (higher index == more mature).
type MaturityStage string

const (
	MaturityDiscovered       MaturityStage = "DISCOVERED"
	MaturityBPlanAufstellung MaturityStage = "BPLAN_AUFSTELLUNG"
	MaturityBPlanAuslegung   MaturityStage = "BPLAN_AUSLEGUNG"
	MaturityBPlanSatzung     MaturityStage = "BPLAN_SATZUNG"
	MaturityPermit36         MaturityStage = "PERMIT_36"
	MaturityBauvorbescheid   MaturityStage = "BAUVORBESCHEID"
	MaturityBaugenehmigung   MaturityStage = "BAUGENEHMIGUNG"
)

// MaturityPrecedence ranks stages from least to most mature. A project's
// maturity only ever advances along this ladder.
var MaturityPrecedence = []MaturityStage{
	MaturityDiscovered,
	MaturityBPlanAufstellung,
	MaturityBPlanAuslegung,
	MaturityBPlanSatzung,
	MaturityPermit36,
	MaturityBauvorbescheid,
	MaturityBaugenehmigung,
}

// EvidenceSnippet is a short excerpt supporting a classification decision.
type EvidenceSnippet struct {
	Rule string `json:"rule"`
	Text string `json:"text"`
}

// ClassifierResult is the output of internal/extract/classifier.
type ClassifierResult struct {
	IsCandidate       bool
	IsRelevant        bool
	ProcedureType     ProcedureType
	LegalBasis        string
	ProjectComponents ProjectComponents
	ConfidenceScore   float64
	AmbiguityFlag     bool
	ReviewRecommended bool
	EvidenceSnippets  []EvidenceSnippet
}

// Procedure is a single normalized permitting/planning record extracted
// from one crawled document or page.
type Procedure struct {
	ProcedureID       string
	TitleRaw          string
	TitleNorm         string
	State             string
	MunicipalityKey   string
	SourceSystem      string
	DiscoverySource   DiscoverySource
	DiscoveryPath     string
	ProcedureType     ProcedureType
	LegalBasis        string
	ProjectComponents ProjectComponents
	CapacityMW        *float64
	CapacityMWh       *float64
	AreaHectares      *float64
	GridScore         int
	DecisionDate      *time.Time
	DeveloperCompany  string
	SiteLocationRaw   string
	AmbiguityFlag     bool
	ReviewRecommended bool
	ConfidenceScore   float64
	EvidenceSnippets  []EvidenceSnippet
	CreatedAt         time.Time
}

// ProjectEntity is the resolved, rolled-up project a set of Procedures
// are linked to.
type ProjectEntity struct {
	ProjectID         string
	State             string
	MunicipalityKey   string
	MunicipalityName  string
	County            string
	CanonicalName     string
	SiteLocation      string
	DeveloperCompany  string
	MaturityStage     MaturityStage
	LegalBasisBest    string
	ProjectComponents ProjectComponents
	CapacityMWBest    *float64
	CapacityMWhBest   *float64
	AreaHectaresBest  *float64
	MaxConfidence     float64
	NeedsReview       bool
	FirstSeenDate     *time.Time
	LastSeenDate      *time.Time
}

// LinkReason enumerates why a procedure was (or was not) linked to a
// project entity.
type LinkReason string

const (
	LinkParcelToken    LinkReason = "PARCEL_TOKEN_MATCH"
	LinkPlanToken      LinkReason = "PLAN_TOKEN_MATCH"
	LinkDeveloperTitle LinkReason = "DEVELOPER_TITLE_MATCH"
	LinkTitleSignature LinkReason = "TITLE_SIGNATURE_MATCH"
	LinkPermit36New    LinkReason = "PERMIT_36_NEW"
	LinkNewProject     LinkReason = "NEW_PROJECT"
)

// CrawlCandidate is a pre-extraction discovery result awaiting a
// prefilter-score decision on whether to run the extraction pipeline.
type CrawlCandidate struct {
	CandidateID     string
	RunID           string
	MunicipalityKey string
	DiscoverySource DiscoverySource
	DiscoveryPath   string
	Title           string
	DateHint        *time.Time
	URL             string
	DocURLs         []string
	PrefilterScore  float64
	Status          string
}

// SourceStatus captures the outcome of one discovery/extraction job run
// against one source for one municipality.
type SourceStatus string

const (
	StatusSuccess      SourceStatus = "SUCCESS"
	StatusErrorSSL     SourceStatus = "ERROR_SSL"
	StatusErrorNetwork SourceStatus = "ERROR_NETWORK"
	StatusErrorOther   SourceStatus = "ERROR_OTHER"
)

// CrawlStats is one job's timing/count summary, persisted for the
// orchestrator's rescan scheduling and the operator API.
type CrawlStats struct {
	RunID           string
	JobID           string
	MunicipalityKey string
	SourceType      DiscoverySource
	Domain          string
	Counts          map[string]interface{}
	Timings         map[string]float64
	Status          SourceStatus
	ErrorMessage    string
	CreatedAt       time.Time
}

// MunicipalitySeed is one Brandenburg municipality's crawl entrypoints.
type MunicipalitySeed struct {
	MunicipalityKey   string
	Name              string
	County            string
	State             string
	OfficialWebsiteURL string
}
