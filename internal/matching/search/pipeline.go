// Package search turns complaint text into a ranked list of catalog candidates.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"complaint-workers/internal/common/config"
	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/metrics"
	"complaint-workers/internal/common/observability"
	"complaint-workers/internal/matching/catalog"
	"complaint-workers/internal/matching/similarity"
	"complaint-workers/internal/matching/text"
	"complaint-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

type Status string

const (
	StatusMatched Status = "matched"
	StatusNoMatch Status = "no_match"
)

// Outcome is the result of one search. Candidates is empty for no_match.
type Outcome struct {
	SearchID       string             `json:"searchId"`
	Status         Status             `json:"status"`
	Candidates     []models.Candidate `json:"candidates"`
	Tokens         []models.Token     `json:"tokens"`
	CatalogVersion uint64             `json:"catalogVersion"`
	Degraded       []string           `json:"degraded,omitempty"`
}

// Top returns the best candidate of a matched outcome.
func (o *Outcome) Top() (models.Candidate, bool) {
	if o == nil || len(o.Candidates) == 0 {
		return models.Candidate{}, false
	}
	return o.Candidates[0], true
}

// CatalogReader is the part of catalog.Cache the pipeline needs.
type CatalogReader interface {
	Load(ctx context.Context) (*catalog.Snapshot, error)
}

// Pipeline runs normalization, noise filtering, both matchers, reranking and
// combination over the current catalog snapshot.
type Pipeline struct {
	normalizer *text.Normalizer
	filter     *text.NoiseFilter
	catalog    CatalogReader
	tags       *TagMatcher
	trigrams   *TrigramMatcher
	reranker   *Reranker
	combiner   *Combiner
	obs        *observability.Observability
	logger     logger.Logger
}

func NewPipeline(cfg config.MatchingConfig, cat CatalogReader, filter *text.NoiseFilter, engine similarity.Engine, obs *observability.Observability, log logger.Logger) *Pipeline {
	config.ApplyMatchingDefaults(&cfg)
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Pipeline{
		normalizer: text.NewNormalizer(cfg.MinTokenLength, cfg.MaxTokenLength),
		filter:     filter,
		catalog:    cat,
		tags:       NewTagMatcher(cfg),
		trigrams:   NewTrigramMatcher(cfg, engine, log),
		reranker:   NewReranker(cfg),
		combiner:   NewCombiner(cfg.TopN),
		obs:        obs,
		logger:     logger.Component(log, "search-pipeline"),
	}
}

// Search matches complaint text against the catalog. contextLabel selects
// context stop words and may be empty. A query with no usable tokens, or an
// empty catalog, is a no_match outcome. The error is SEARCH_FAILED and only
// occurs when no candidates could be produced at all.
func (p *Pipeline) Search(ctx context.Context, complaint, contextLabel string) (*Outcome, error) {
	start := time.Now()
	ctx, span := p.obs.StartSpan(ctx, "complaint.search", attribute.String("context", contextLabel))
	defer span.End()

	out, err := p.search(ctx, complaint, contextLabel)

	outcome := "error"
	if err == nil {
		outcome = string(out.Status)
		span.SetAttributes(
			attribute.String("search.id", out.SearchID),
			attribute.Int("search.candidates", len(out.Candidates)),
		)
		p.obs.RecordCandidates(ctx, len(out.Candidates), outcome)
	} else {
		span.RecordError(err)
	}
	metrics.SearchTotal.WithLabelValues(outcome).Inc()
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	return out, err
}

func (p *Pipeline) search(ctx context.Context, complaint, contextLabel string) (*Outcome, error) {
	snap, err := p.catalog.Load(ctx)
	if snap == nil {
		if err == nil {
			err = apperrors.NewCatalogUnavailableError(errors.New("no catalog snapshot"))
		}
		p.logger.Error("search failed, catalog unavailable", map[string]interface{}{"error": err})
		return nil, apperrors.NewSearchFailedError("catalog unavailable", err)
	}

	out := &Outcome{
		SearchID:       uuid.New().String(),
		Status:         StatusNoMatch,
		Candidates:     []models.Candidate{},
		CatalogVersion: snap.Version,
	}

	filtered := p.filter.Filter(ctx, p.normalizer.Normalize(complaint), contextLabel)
	out.Tokens = filtered.Tokens
	if filtered.MorphologyFailures > 0 {
		out.Degraded = append(out.Degraded, metrics.DegradationMorphology)
	}
	if len(out.Tokens) == 0 || snap.Len() == 0 {
		p.logger.Info("no match", map[string]interface{}{
			"searchId": out.SearchID,
			"tokens":   len(out.Tokens),
			"entries":  snap.Len(),
		})
		return out, nil
	}

	normalizedQuery := strings.Join(models.Lemmas(out.Tokens), " ")
	rawQuery := text.Fold(strings.TrimSpace(complaint))

	var (
		tagCandidates []models.Candidate
		trigram       TrigramResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tagCandidates = p.tags.Match(out.Tokens, snap.Entries)
		return nil
	})
	g.Go(func() error {
		var err error
		trigram, err = p.trigrams.Match(gctx, normalizedQuery, rawQuery, snap.Entries)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.NewSearchFailedError("search interrupted", err)
	}

	if trigram.Failures > 0 {
		out.Degraded = append(out.Degraded, metrics.DegradationSimilarity)
	}
	if trigram.AllFailed() && len(tagCandidates) == 0 {
		p.logger.Error("search failed, similarity engine unavailable and no tag candidates", map[string]interface{}{
			"searchId": out.SearchID,
			"calls":    trigram.Calls,
		})
		return nil, apperrors.NewSearchFailedError("similarity engine unavailable and no tag candidates", nil)
	}

	terms := QueryTerms(out.Tokens)
	ranked := p.combiner.Combine(
		p.reranker.Rerank(tagCandidates, terms, snap.Entry),
		p.reranker.Rerank(trigram.Candidates, terms, snap.Entry),
	)
	if len(ranked) > 0 {
		out.Status = StatusMatched
		out.Candidates = ranked
	}

	fields := map[string]interface{}{
		"searchId":          out.SearchID,
		"status":            out.Status,
		"tokens":            models.Raws(out.Tokens),
		"tagCandidates":     len(tagCandidates),
		"trigramCandidates": len(trigram.Candidates),
		"candidates":        len(out.Candidates),
	}
	if top, ok := out.Top(); ok {
		fields["topEntryId"] = top.EntryID
		fields["topConfidence"] = top.Confidence
	}
	p.logger.Info("search completed", fields)
	return out, nil
}
