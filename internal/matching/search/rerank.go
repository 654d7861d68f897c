package search

import (
	"math"

	"complaint-workers/internal/common/config"
	"complaint-workers/internal/models"
)

// Reranker boosts candidates by lemma overlap with the entry and drops those
// that stay below RerankMinConfidence.
type Reranker struct {
	boost float64
	floor float64
}

func NewReranker(cfg config.MatchingConfig) *Reranker {
	return &Reranker{boost: cfg.MorphologyBoost, floor: cfg.RerankMinConfidence}
}

// QueryTerms is the set of lemmas and raw forms of tokens.
func QueryTerms(tokens []models.Token) map[string]struct{} {
	terms := make(map[string]struct{}, 2*len(tokens))
	for _, t := range tokens {
		if t.Raw != "" {
			terms[t.Raw] = struct{}{}
		}
		if t.Lemma != "" {
			terms[t.Lemma] = struct{}{}
		}
	}
	return terms
}

// Rerank returns the surviving candidates in their input order.
func (r *Reranker) Rerank(candidates []models.Candidate, terms map[string]struct{}, lookup func(int64) (*models.CatalogEntry, bool)) []models.Candidate {
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		e, ok := lookup(c.EntryID)
		if !ok {
			continue
		}
		matches := 0
		for term := range terms {
			if e.HasLemma(term) {
				matches++
			}
		}
		ratio := float64(matches) / math.Max(float64(len(terms)), 1)

		c.MorphologyMatches = matches
		c.MorphologyRatio = ratio
		c.Confidence = math.Min(c.Confidence+ratio*r.boost, 1)
		if c.Confidence < r.floor {
			continue
		}
		out = append(out, c)
	}
	return out
}
