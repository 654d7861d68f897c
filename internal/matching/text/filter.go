package text

import (
	"context"

	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/metrics"
	"complaint-workers/internal/matching/morphology"
	"complaint-workers/internal/models"
)

// NoiseFilter removes tokens without topical signal and rewrites problem
// synonyms to canonical tokens.
type NoiseFilter struct {
	dict     *DictionaryStore
	analyzer morphology.Analyzer
	logger   logger.Logger
}

func NewNoiseFilter(dict *DictionaryStore, analyzer morphology.Analyzer, log logger.Logger) *NoiseFilter {
	return &NoiseFilter{
		dict:     dict,
		analyzer: analyzer,
		logger:   logger.Component(log, "noise-filter"),
	}
}

// FilterResult carries the filtered tokens and how many analyzer lookups failed.
type FilterResult struct {
	Tokens             []models.Token
	MorphologyFailures int
}

// Filter runs filter passes until the token sequence stops changing, so
// filtering its own output with the same context is a no-op. A pass:
//
//  1. collapses known multi-word phrases to canonical tokens
//  2. drops stop words (raw forms)
//  3. drops context stop words for contextLabel (raw forms)
//  4. drops function words by part of speech
//  5. rewrites synonyms to canonical tokens, keeping each canonical once
//
// A token whose analysis fails is kept as is with lemma = raw.
func (f *NoiseFilter) Filter(ctx context.Context, words []string, contextLabel string) FilterResult {
	dict := f.dict.Current()
	contextLabel = Fold(contextLabel)
	if contextLabel != "" && !dict.HasContext(contextLabel) {
		f.logger.Debug("unknown context label", map[string]interface{}{"context": contextLabel})
	}

	a := &memoAnalyzer{inner: f.analyzer, cache: make(map[string]morphology.Result), failed: make(map[string]bool)}

	current := words
	var tokens []models.Token
	for pass := 0; pass <= 2*len(words)+1; pass++ {
		tokens = f.pass(ctx, dict, a, current, contextLabel)
		next := models.Raws(tokens)
		if equal(next, current) {
			break
		}
		current = next
	}

	if len(a.failed) > 0 {
		metrics.Degradations.WithLabelValues(metrics.DegradationMorphology).Add(float64(len(a.failed)))
		f.logger.Warn("morphology lookups failed, raw tokens kept", map[string]interface{}{
			"failures": len(a.failed),
		})
	}
	return FilterResult{Tokens: tokens, MorphologyFailures: len(a.failed)}
}

func (f *NoiseFilter) pass(ctx context.Context, dict *Dictionary, a *memoAnalyzer, words []string, contextLabel string) []models.Token {
	words = dict.collapsePhrases(words)

	present := make(map[string]bool)
	for _, w := range words {
		if dict.IsCanonical(w) {
			present[w] = true
		}
	}

	out := make([]models.Token, 0, len(words))
	emitted := make(map[string]bool)
	for _, w := range words {
		if dict.IsStopWord(w) || dict.IsContextStopWord(contextLabel, w) {
			continue
		}

		if dict.IsCanonical(w) {
			if !emitted[w] {
				emitted[w] = true
				out = append(out, a.token(ctx, w))
			}
			continue
		}

		tok := a.token(ctx, w)
		if tok.POS.IsFunctional() {
			continue
		}

		canonical, ok := dict.Canonical(w)
		if !ok {
			canonical, ok = dict.Canonical(tok.Lemma)
		}
		if ok {
			if present[canonical] || emitted[canonical] {
				continue
			}
			emitted[canonical] = true
			out = append(out, a.token(ctx, canonical))
			continue
		}
		out = append(out, tok)
	}
	return out
}

// memoAnalyzer analyzes each distinct word once per Filter call.
type memoAnalyzer struct {
	inner  morphology.Analyzer
	cache  map[string]morphology.Result
	failed map[string]bool
}

func (m *memoAnalyzer) token(ctx context.Context, w string) models.Token {
	if res, ok := m.cache[w]; ok {
		return models.Token{Raw: w, Lemma: res.Lemma, POS: res.POS}
	}
	res, err := m.inner.Analyze(ctx, w)
	if err != nil || res.Lemma == "" {
		if err != nil {
			m.failed[w] = true
		}
		res = morphology.Result{Lemma: w, POS: models.POSUnknown}
	}
	m.cache[w] = res
	return models.Token{Raw: w, Lemma: res.Lemma, POS: res.POS}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
