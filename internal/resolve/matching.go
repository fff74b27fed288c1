package resolve

import (
	"context"

	"github.com/witto13/bess-crawler/internal/domain"
)

// DeveloperCandidate is one existing project's developer-matching data,
// as returned by a MatchIndex for Level 3 matching.
type DeveloperCandidate struct {
	ProjectID        string
	DeveloperCompany string
}

// TitleSignatureCandidate is one existing project's stored title
// signature, used for the Level 4 Jaccard fallback match.
type TitleSignatureCandidate struct {
	ProjectID      string
	TitleSignature string
}

// MatchIndex is the read surface resolve needs from project storage.
// A Store implementation satisfies it structurally.
type MatchIndex interface {
	FindProjectByParcelToken(ctx context.Context, municipalityKey, parcelToken string) (string, bool, error)
	FindProjectByPlanToken(ctx context.Context, municipalityKey, planToken string) (string, bool, error)
	DeveloperCandidates(ctx context.Context, municipalityKey string) ([]DeveloperCandidate, error)
	TitleSignatureCandidates(ctx context.Context, municipalityKey string) ([]TitleSignatureCandidate, error)
}

// Match is the outcome of FindMatchingProject: which project a
// procedure should link to, at what confidence, and why.
type Match struct {
	ProjectID  string
	Confidence float64
	Reason     domain.LinkReason
}

const titleSignatureMatchThreshold = 0.5

// FindMatchingProject walks the four-level match ladder: exact parcel
// token, plan token, developer name plus title-signature presence, and
// finally a Jaccard title-signature comparison against the stored project
// title signatures that index.TitleSignatureCandidates returns for the
// municipality. Level 4 supplements the original
// matcher, which left title-only matching unimplemented.
func FindMatchingProject(ctx context.Context, index MatchIndex, signature Signature, municipalityKey string) (*Match, error) {
	if signature.ParcelToken != "" {
		if projectID, ok, err := index.FindProjectByParcelToken(ctx, municipalityKey, signature.ParcelToken); err != nil {
			return nil, err
		} else if ok {
			return &Match{ProjectID: projectID, Confidence: 0.95, Reason: domain.LinkParcelToken}, nil
		}
	}

	if signature.PlanToken != "" {
		if projectID, ok, err := index.FindProjectByPlanToken(ctx, municipalityKey, signature.PlanToken); err != nil {
			return nil, err
		} else if ok {
			return &Match{ProjectID: projectID, Confidence: 0.90, Reason: domain.LinkPlanToken}, nil
		}
	}

	if signature.DeveloperToken != "" && signature.TitleSignature != "" {
		candidates, err := index.DeveloperCandidates(ctx, municipalityKey)
		if err != nil {
			return nil, err
		}
		for _, candidate := range candidates {
			if NormalizeCompanyName(candidate.DeveloperCompany) == signature.DeveloperToken {
				return &Match{ProjectID: candidate.ProjectID, Confidence: 0.80, Reason: domain.LinkDeveloperTitle}, nil
			}
		}
	}

	if signature.TitleSignature != "" {
		candidates, err := index.TitleSignatureCandidates(ctx, municipalityKey)
		if err != nil {
			return nil, err
		}
		var best *TitleSignatureCandidate
		var bestScore float64
		for i := range candidates {
			score, meets := TitleSignatureSimilarity(signature.TitleSignature, candidates[i].TitleSignature, titleSignatureMatchThreshold)
			if meets && score > bestScore {
				bestScore = score
				best = &candidates[i]
			}
		}
		if best != nil {
			return &Match{ProjectID: best.ProjectID, Confidence: 0.70, Reason: domain.LinkTitleSignature}, nil
		}
	}

	return nil, nil
}

// procedureMaturity maps a procedure type to the single maturity stage
// it contributes. A procedure type absent from the map contributes
// nothing and is treated as still at the earliest stage.
var procedureMaturity = map[domain.ProcedureType]domain.MaturityStage{
	domain.ProcedureBPlanAufstellung:   domain.MaturityBPlanAufstellung,
	domain.ProcedureBPlanFruehzeitig31: domain.MaturityBPlanAufstellung,
	domain.ProcedureBPlanAuslegung32:   domain.MaturityBPlanAuslegung,
	domain.ProcedureBPlanSatzung:       domain.MaturityBPlanSatzung,
	domain.ProcedurePermit36:           domain.MaturityPermit36,
	domain.ProcedureBauvorbescheid:     domain.MaturityBauvorbescheid,
	domain.ProcedureBaugenehmigung:     domain.MaturityBaugenehmigung,
}

// ComputeMaturityStage folds every procedure type seen for a project
// down to the single most mature stage on domain.MaturityPrecedence's
// ladder. ProcedurePermitOther, ProcedureBPlanOther and ProcedureUnknown
// are absent from procedureMaturity and contribute nothing.
func ComputeMaturityStage(procedureTypes []domain.ProcedureType) domain.MaturityStage {
	seen := make(map[domain.MaturityStage]bool)
	for _, pt := range procedureTypes {
		if stage, ok := procedureMaturity[pt]; ok {
			seen[stage] = true
		}
	}

	best := domain.MaturityDiscovered
	for _, stage := range domain.MaturityPrecedence {
		if seen[stage] {
			best = stage
		}
	}
	return best
}
