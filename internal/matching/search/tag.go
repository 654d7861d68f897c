package search

import (
	"strings"

	"complaint-workers/internal/common/config"
	"complaint-workers/internal/models"
)

// TagMatcher scores entries by substring hits of query tokens in the entry
// name, description and tags.
type TagMatcher struct {
	cfg config.MatchingConfig
}

func NewTagMatcher(cfg config.MatchingConfig) *TagMatcher {
	return &TagMatcher{cfg: cfg}
}

// Match returns a candidate for every entry scoring at least TagMinConfidence,
// in catalog order. Scores accumulate per token and are clamped to 1.
func (m *TagMatcher) Match(tokens []models.Token, entries []*models.CatalogEntry) []models.Candidate {
	if len(tokens) == 0 {
		return nil
	}
	pairs := adjacentPairs(tokens)

	var out []models.Candidate
	for _, e := range entries {
		score := m.score(tokens, pairs, e)
		if score < m.cfg.TagMinConfidence {
			continue
		}
		out = append(out, models.Candidate{
			EntryID:    e.ID,
			Name:       e.Name,
			Confidence: score,
			Source:     models.SourceTag,
		})
	}
	return out
}

// Score is the clamped tag score of one entry. The phrase weights apply once
// per field when two adjacent query tokens occur together in it.
func (m *TagMatcher) Score(tokens []models.Token, e *models.CatalogEntry) float64 {
	return m.score(tokens, adjacentPairs(tokens), e)
}

func (m *TagMatcher) score(tokens []models.Token, pairs []string, e *models.CatalogEntry) float64 {
	var score float64
	for _, t := range tokens {
		if hit(t, e.Name) {
			score += m.cfg.NameWeight
		}
		if hit(t, e.Description) {
			score += m.cfg.DescriptionWeight
		}
		if tagHit(t, e.Tags) {
			score += m.cfg.TagWeight
		}
	}
	if containsAny(e.Name, pairs) {
		score += m.cfg.PhraseNameWeight
	}
	if containsAny(e.Description, pairs) {
		score += m.cfg.PhraseDescriptionWeight
	}
	return clamp01(score)
}

// adjacentPairs joins each pair of neighbouring raw tokens. A single token
// has no pairs.
func adjacentPairs(tokens []models.Token) []string {
	var pairs []string
	for i := 1; i < len(tokens); i++ {
		a, b := tokens[i-1].Raw, tokens[i].Raw
		if a == "" || b == "" {
			continue
		}
		pairs = append(pairs, a+" "+b)
	}
	return pairs
}

func containsAny(field string, phrases []string) bool {
	if field == "" {
		return false
	}
	for _, p := range phrases {
		if strings.Contains(field, p) {
			return true
		}
	}
	return false
}

// hit reports whether the raw form, or failing that the lemma, occurs in field.
func hit(t models.Token, field string) bool {
	if field == "" {
		return false
	}
	if t.Raw != "" && strings.Contains(field, t.Raw) {
		return true
	}
	return t.Lemma != "" && t.Lemma != t.Raw && strings.Contains(field, t.Lemma)
}

func tagHit(t models.Token, tags []string) bool {
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		for _, form := range []string{t.Raw, t.Lemma} {
			if form == "" {
				continue
			}
			if strings.Contains(tag, form) || strings.Contains(form, tag) {
				return true
			}
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
