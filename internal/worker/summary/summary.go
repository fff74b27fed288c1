// Package summary builds the one-line, per-municipality crawl status
// a run leaves behind; it is logged after every discovery job, with
// sources that have no stats yet shown as NOT_RUN.
package summary

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/witto13/bess-crawler/internal/clerrors"
	"github.com/witto13/bess-crawler/internal/domain"
	"github.com/witto13/bess-crawler/internal/ports"
)

var trackedSources = []domain.DiscoverySource{
	domain.DiscoveryRIS,
	domain.DiscoveryAmtsblatt,
	domain.DiscoveryWebsite,
}

// Line is one municipality's per-source status for a single run, with
// any source that recorded no stats defaulting to "NOT_RUN".
type Line struct {
	MunicipalityKey  string
	MunicipalityName string
	RunID            string
	SourceStatus     map[domain.DiscoverySource]string
	ProceduresSaved  int
}

// StatsSource is the slice of ports.Store that Build needs. Narrowing
// to this keeps summary's tests from having to stand up a full store.
type StatsSource interface {
	MunicipalityStats(ctx context.Context, municipalityKey string, since time.Time) ([]domain.CrawlStats, error)
}

var _ StatsSource = ports.Store(nil)

// Build folds a municipality's domain.CrawlStats rows for one run down
// to a Line, the way the prototype's aggregator queried crawl_stats for
// RIS/GAZETTE/MUNICIPAL_WEBSITE.
func Build(ctx context.Context, store StatsSource, municipalityKey, municipalityName, runID string) (Line, error) {
	stats, err := store.MunicipalityStats(ctx, municipalityKey, time.Time{})
	if err != nil {
		return Line{}, clerrors.FailedToWithDetails("load municipality stats", "worker/summary", municipalityKey, err)
	}

	line := Line{
		MunicipalityKey:  municipalityKey,
		MunicipalityName: municipalityName,
		RunID:            runID,
		SourceStatus:     make(map[domain.DiscoverySource]string, len(trackedSources)),
	}
	for _, source := range trackedSources {
		line.SourceStatus[source] = "NOT_RUN"
	}

	for _, s := range stats {
		if s.RunID != runID {
			continue
		}
		if _, tracked := line.SourceStatus[s.SourceType]; !tracked {
			continue
		}
		line.SourceStatus[s.SourceType] = string(s.Status)
		if saved, ok := s.Counts["procedures_saved"]; ok {
			line.ProceduresSaved += toInt(saved)
		}
	}
	return line, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

// String formats the line the way the prototype's aggregator logged it.
func (l Line) String() string {
	name := l.MunicipalityName
	if name == "" {
		name = l.MunicipalityKey
	}
	return fmt.Sprintf(
		"MUNICIPALITY_SUMMARY: %s (%s) | RIS=%s | Amtsblatt=%s | Municipal=%s | Procedures=%d",
		name, l.MunicipalityKey,
		l.SourceStatus[domain.DiscoveryRIS],
		l.SourceStatus[domain.DiscoveryAmtsblatt],
		l.SourceStatus[domain.DiscoveryWebsite],
		l.ProceduresSaved,
	)
}

// Log builds and logs a municipality's per-run summary, swallowing
// lookup failures rather than propagating them: a missing summary line
// is not worth failing a worker job over.
func Log(ctx context.Context, store StatsSource, logger *zap.SugaredLogger, municipalityKey, municipalityName, runID string) {
	line, err := Build(ctx, store, municipalityKey, municipalityName, runID)
	if err != nil {
		if logger != nil {
			logger.Debugw("failed to build municipality summary", "municipality_key", municipalityKey, "error", err)
		}
		return
	}
	if logger != nil {
		logger.Info(line.String())
	}
}
