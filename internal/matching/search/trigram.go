package search

import (
	"context"
	"sort"
	"sync/atomic"

	"complaint-workers/internal/common/config"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/metrics"
	"complaint-workers/internal/matching/similarity"
	"complaint-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

// TrigramMatcher scores entries with the similarity engine, once against the
// normalized query and once against the folded raw query.
type TrigramMatcher struct {
	cfg    config.MatchingConfig
	engine similarity.Engine
	logger logger.Logger
}

func NewTrigramMatcher(cfg config.MatchingConfig, engine similarity.Engine, log logger.Logger) *TrigramMatcher {
	return &TrigramMatcher{
		cfg:    cfg,
		engine: engine,
		logger: logger.Component(log, "trigram-matcher"),
	}
}

// TrigramResult reports how many similarity calls were made and how many failed.
type TrigramResult struct {
	Candidates []models.Candidate
	Calls      int
	Failures   int
}

// AllFailed reports whether no similarity call succeeded.
func (r TrigramResult) AllFailed() bool {
	return r.Calls > 0 && r.Failures == r.Calls
}

// Match scores every entry. A failed call is skipped; the other pair of the
// same entry can still produce a candidate. The error is non-nil only when ctx
// ends first.
func (m *TrigramMatcher) Match(ctx context.Context, normalizedQuery, rawQuery string, entries []*models.CatalogEntry) (TrigramResult, error) {
	scores := make([]float64, len(entries))
	var calls, failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	if m.cfg.TrigramConcurrency > 0 {
		g.SetLimit(m.cfg.TrigramConcurrency)
	}

	for i, e := range entries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			best := -1.0
			pairs := [2][2]string{
				{normalizedQuery, e.NormalizedSearchableText},
				{rawQuery, e.SearchableText},
			}
			for _, p := range pairs {
				if p[0] == "" || p[1] == "" {
					continue
				}
				calls.Add(1)
				s, err := m.engine.Similarity(gctx, p[0], p[1])
				if err != nil {
					failures.Add(1)
					m.logger.Debug("similarity call failed", map[string]interface{}{
						"entryId": e.ID,
						"error":   err,
					})
					continue
				}
				if s > best {
					best = s
				}
			}
			scores[i] = best
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return TrigramResult{}, err
	}

	res := TrigramResult{Calls: int(calls.Load()), Failures: int(failures.Load())}
	if res.Failures > 0 {
		metrics.Degradations.WithLabelValues(metrics.DegradationSimilarity).Add(float64(res.Failures))
		m.logger.Warn("similarity engine degraded", map[string]interface{}{
			"calls":    res.Calls,
			"failures": res.Failures,
		})
	}

	for i, e := range entries {
		if scores[i] <= m.cfg.TrigramThreshold {
			continue
		}
		res.Candidates = append(res.Candidates, models.Candidate{
			EntryID:    e.ID,
			Name:       e.Name,
			Confidence: clamp01(scores[i]),
			Source:     models.SourceTrigram,
		})
	}
	sort.SliceStable(res.Candidates, func(a, b int) bool {
		return res.Candidates[a].Confidence > res.Candidates[b].Confidence
	})
	return res, nil
}
