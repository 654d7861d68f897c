package search

import (
	"context"
	"errors"
	"sort"
	"testing"

	"complaint-workers/internal/common/config"
	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/metrics"
	"complaint-workers/internal/matching/catalog"
	"complaint-workers/internal/matching/morphology"
	"complaint-workers/internal/matching/similarity"
	"complaint-workers/internal/matching/text"
	"complaint-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type engineFunc func(ctx context.Context, a, b string) (float64, error)

func (f engineFunc) Similarity(ctx context.Context, a, b string) (float64, error) {
	return f(ctx, a, b)
}

var failingEngine = engineFunc(func(context.Context, string, string) (float64, error) {
	return 0, apperrors.NewSimilarityUnavailableError(errors.New("connection refused"))
})

type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Fetch(context.Context) ([]models.CatalogRecord, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func analyzer(t *testing.T) morphology.Analyzer {
	t.Helper()
	a, err := morphology.NewSnowballAnalyzer("russian")
	require.NoError(t, err)
	return a
}

func entries(t *testing.T, records ...models.CatalogRecord) []*models.CatalogEntry {
	t.Helper()
	return catalog.BuildEntries(context.Background(), records, analyzer(t)).Entries
}

func newPipeline(t *testing.T, source catalog.Source, engine similarity.Engine) *Pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)
	a := analyzer(t)
	if engine == nil {
		engine = similarity.NewLocalEngine()
	}
	filter := text.NewNoiseFilter(text.NewDictionaryStore(text.DefaultDictionary(), ""), a, log)
	return NewPipeline(config.DefaultMatchingConfig(), catalog.NewCache(source, a, log), filter, engine, nil, log)
}

var (
	leakRecord  = models.CatalogRecord{ID: 1, Name: "Протечка крана", Tags: []string{"течь", "вода"}}
	drainRecord = models.CatalogRecord{ID: 2, Name: "Засор канализации", Description: "Не уходит вода в раковине"}
	liftRecord  = models.CatalogRecord{ID: 3, Name: "Лифт не работает", Description: "Остановился лифт в подъезде"}
)

var craneRecords = catalog.StaticSource{
	{ID: 1, Name: "Ремонт крана на кухне"},
	{ID: 2, Name: "Ремонт крана в ванной"},
	{ID: 3, Name: "Ремонт крана в подвале"},
	{ID: 4, Name: "Ремонт крана во дворе"},
	{ID: 5, Name: "Ремонт крана в прачечной"},
	{ID: 6, Name: "Ремонт крана в котельной"},
	{ID: 7, Name: "Ремонт крана на чердаке"},
}

func assertRanked(t *testing.T, candidates []models.Candidate, topN int) {
	t.Helper()
	assert.LessOrEqual(t, len(candidates), topN)
	seen := make(map[int64]bool)
	for i, c := range candidates {
		assert.False(t, seen[c.EntryID], "duplicate entry %d", c.EntryID)
		seen[c.EntryID] = true
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, c.Confidence, candidates[i-1].Confidence)
		}
	}
}

// ==========================
// Tag matcher
// ==========================

func TestTagMatcher_Score(t *testing.T) {
	m := NewTagMatcher(config.DefaultMatchingConfig())
	leak := entries(t, leakRecord)[0]
	drain := entries(t, drainRecord)[0]

	tests := []struct {
		name   string
		tokens []models.Token
		entry  *models.CatalogEntry
		want   float64
	}{
		{
			name:   "name hit only",
			tokens: []models.Token{{Raw: "протечка", Lemma: "протечк"}, {Raw: "труба", Lemma: "труб"}},
			entry:  leak,
			want:   0.4,
		},
		{
			name:   "single token earns no phrase weight",
			tokens: []models.Token{{Raw: "протечка", Lemma: "протечк"}},
			entry:  leak,
			want:   0.4,
		},
		{
			name:   "adjacent pair in name",
			tokens: []models.Token{{Raw: "протечка", Lemma: "протечк"}, {Raw: "крана", Lemma: "кран"}},
			entry:  leak,
			want:   1.0,
		},
		{
			name:   "lemma fallback",
			tokens: []models.Token{{Raw: "кранов", Lemma: "кран"}, {Raw: "лифт", Lemma: "лифт"}},
			entry:  leak,
			want:   0.4,
		},
		{
			name:   "tag substring in either direction",
			tokens: []models.Token{{Raw: "течью", Lemma: "течью"}, {Raw: "лифт", Lemma: "лифт"}},
			entry:  leak,
			want:   0.2,
		},
		{
			name:   "description hit",
			tokens: []models.Token{{Raw: "раковине", Lemma: "раковин"}},
			entry:  drain,
			want:   0.2,
		},
		{
			name:   "adjacent pair in description",
			tokens: []models.Token{{Raw: "уходит", Lemma: "уход"}, {Raw: "вода", Lemma: "вод"}},
			entry:  drain,
			want:   0.7,
		},
		{
			name: "accumulates and clamps",
			tokens: []models.Token{
				{Raw: "засор", Lemma: "засор"},
				{Raw: "канализации", Lemma: "канализац"},
				{Raw: "вода", Lemma: "вод"},
			},
			entry: drain,
			want:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.Score(tt.tokens, tt.entry), 1e-9)
		})
	}
}

func permutations(tokens []models.Token) [][]models.Token {
	if len(tokens) <= 1 {
		return [][]models.Token{append([]models.Token(nil), tokens...)}
	}
	var out [][]models.Token
	for i := range tokens {
		rest := make([]models.Token, 0, len(tokens)-1)
		rest = append(rest, tokens[:i]...)
		rest = append(rest, tokens[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]models.Token{tokens[i]}, p...))
		}
	}
	return out
}

func TestTagMatcher_Score_NonDecreasingAsTokensMatch(t *testing.T) {
	m := NewTagMatcher(config.DefaultMatchingConfig())
	faucet := entries(t, models.CatalogRecord{
		ID:          1,
		Name:        "Ремонт крана",
		Description: "замена смесителя",
		Tags:        []string{"кран", "смеситель"},
	})[0]
	matching := []models.Token{
		{Raw: "ремонт", Lemma: "ремонт"},
		{Raw: "крана", Lemma: "кран"},
		{Raw: "замена", Lemma: "замен"},
		{Raw: "смесителя", Lemma: "смесител"},
	}

	single := m.Score(matching[1:2], faucet)
	pair := m.Score([]models.Token{matching[1], matching[3]}, faucet)
	assert.GreaterOrEqual(t, pair, single)

	for _, order := range permutations(matching) {
		prev := 0.0
		for n := 1; n <= len(order); n++ {
			score := m.Score(order[:n], faucet)
			assert.GreaterOrEqual(t, score, prev, "tokens %v", models.Raws(order[:n]))
			assert.LessOrEqual(t, score, 1.0)
			prev = score
		}
	}
}

func TestTagMatcher_Match_DiscardsBelowFloor(t *testing.T) {
	m := NewTagMatcher(config.DefaultMatchingConfig())
	all := entries(t, leakRecord, drainRecord)

	got := m.Match([]models.Token{{Raw: "течью", Lemma: "течью"}, {Raw: "лифт", Lemma: "лифт"}}, all)
	assert.Empty(t, got)

	got = m.Match([]models.Token{{Raw: "засор", Lemma: "засор"}}, all)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].EntryID)
	assert.Equal(t, models.SourceTag, got[0].Source)
}

// ==========================
// Trigram matcher
// ==========================

func TestTrigramMatcher_Match(t *testing.T) {
	cfg := config.DefaultMatchingConfig()
	all := entries(t, leakRecord, drainRecord, liftRecord)

	scores := map[string]float64{
		all[0].SearchableText:           0.5,
		all[1].NormalizedSearchableText: 0.8,
		all[1].SearchableText:           0.2,
		all[2].SearchableText:           0.3,
	}
	engine := engineFunc(func(_ context.Context, _ string, b string) (float64, error) {
		return scores[b], nil
	})

	res, err := NewTrigramMatcher(cfg, engine, logger.NewNoOpLogger()).Match(context.Background(), "q", "q", all)
	require.NoError(t, err)

	require.Len(t, res.Candidates, 2)
	assert.Equal(t, int64(2), res.Candidates[0].EntryID)
	assert.InDelta(t, 0.8, res.Candidates[0].Confidence, 1e-9)
	assert.Equal(t, int64(1), res.Candidates[1].EntryID)
	assert.Equal(t, models.SourceTrigram, res.Candidates[1].Source)
	assert.Equal(t, 6, res.Calls)
	assert.Zero(t, res.Failures)
}

func TestTrigramMatcher_FailedPairIsSkipped(t *testing.T) {
	all := entries(t, leakRecord)
	engine := engineFunc(func(_ context.Context, _ string, b string) (float64, error) {
		if b == all[0].NormalizedSearchableText {
			return 0, errors.New("timeout")
		}
		return 0.6, nil
	})

	res, err := NewTrigramMatcher(config.DefaultMatchingConfig(), engine, logger.NewNoOpLogger()).
		Match(context.Background(), "q", "q", all)

	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.InDelta(t, 0.6, res.Candidates[0].Confidence, 1e-9)
	assert.Equal(t, 1, res.Failures)
	assert.False(t, res.AllFailed())
}

func TestTrigramMatcher_AllFailed(t *testing.T) {
	res, err := NewTrigramMatcher(config.DefaultMatchingConfig(), failingEngine, logger.NewNoOpLogger()).
		Match(context.Background(), "q", "q", entries(t, leakRecord, drainRecord))

	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.True(t, res.AllFailed())
}

func TestTrigramMatcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTrigramMatcher(config.DefaultMatchingConfig(), similarity.NewLocalEngine(), logger.NewNoOpLogger()).
		Match(ctx, "q", "q", entries(t, leakRecord))
	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// Reranker
// ==========================

func TestReranker_Rerank(t *testing.T) {
	all := entries(t, leakRecord, drainRecord)
	lookup := func(id int64) (*models.CatalogEntry, bool) {
		for _, e := range all {
			if e.ID == id {
				return e, true
			}
		}
		return nil, false
	}
	tokens := []models.Token{
		{Raw: "протечка", Lemma: "протечк"},
		{Raw: "труба", Lemma: "труб"},
		{Raw: "квартире", Lemma: "квартир"},
	}
	terms := QueryTerms(tokens)
	require.Len(t, terms, 6)

	got := NewReranker(config.DefaultMatchingConfig()).Rerank([]models.Candidate{
		{EntryID: 1, Confidence: 0.4, Source: models.SourceTag},
		{EntryID: 2, Confidence: 0.35, Source: models.SourceTrigram},
		{EntryID: 99, Confidence: 0.9, Source: models.SourceTag},
	}, terms, lookup)

	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].EntryID)
	assert.Equal(t, 1, got[0].MorphologyMatches)
	assert.InDelta(t, 1.0/6.0, got[0].MorphologyRatio, 1e-9)
	assert.InDelta(t, 0.45, got[0].Confidence, 1e-9)
}

func TestReranker_CapsAtOne(t *testing.T) {
	all := entries(t, leakRecord)
	lookup := func(int64) (*models.CatalogEntry, bool) { return all[0], true }

	got := NewReranker(config.DefaultMatchingConfig()).Rerank(
		[]models.Candidate{{EntryID: 1, Confidence: 0.9}},
		QueryTerms([]models.Token{{Raw: "кран", Lemma: "кран"}}),
		lookup,
	)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Confidence)
}

// ==========================
// Combiner
// ==========================

func TestCombiner_Combine(t *testing.T) {
	tag := []models.Candidate{
		{EntryID: 1, Confidence: 0.5, Source: models.SourceTag},
		{EntryID: 2, Confidence: 0.7, Source: models.SourceTag},
		{EntryID: 3, Confidence: 0.5, Source: models.SourceTag},
	}
	trigram := []models.Candidate{
		{EntryID: 1, Confidence: 0.6, Source: models.SourceTrigram},
		{EntryID: 2, Confidence: 0.4, Source: models.SourceTrigram},
		{EntryID: 4, Confidence: 0.5, Source: models.SourceTrigram},
	}

	got := NewCombiner(3).Combine(tag, trigram)

	require.Len(t, got, 3)
	assert.Equal(t, int64(2), got[0].EntryID)
	assert.Equal(t, models.SourceTag, got[0].Source)
	assert.Equal(t, int64(1), got[1].EntryID)
	assert.Equal(t, models.SourceTrigram, got[1].Source)
	assert.InDelta(t, 0.6, got[1].Confidence, 1e-9)
	assert.Equal(t, int64(3), got[2].EntryID)
}

func TestCombiner_Empty(t *testing.T) {
	assert.Empty(t, NewCombiner(5).Combine(nil, []models.Candidate{}))
}

// ==========================
// Pipeline
// ==========================

func TestPipeline_LeakComplaintMatchesLeakEntry(t *testing.T) {
	p := newPipeline(t, catalog.StaticSource{leakRecord, drainRecord, liftRecord}, nil)

	out, err := p.Search(context.Background(), "Течет труба в квартире", "")

	require.NoError(t, err)
	assert.Equal(t, StatusMatched, out.Status)
	assert.NotEmpty(t, out.SearchID)
	assert.Equal(t, []string{"протечка", "труба", "квартире"}, models.Raws(out.Tokens))

	top, ok := out.Top()
	require.True(t, ok)
	assert.Equal(t, int64(1), top.EntryID)
	assert.GreaterOrEqual(t, top.Confidence, 0.45-1e-9)
	assertRanked(t, out.Candidates, 5)
}

func TestPipeline_GreetingIsNoMatch(t *testing.T) {
	p := newPipeline(t, catalog.StaticSource{leakRecord, drainRecord}, nil)

	out, err := p.Search(context.Background(), "привет", "")

	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, out.Status)
	assert.Empty(t, out.Tokens)
	assert.Empty(t, out.Candidates)
}

func TestPipeline_EmptyCatalogIsNoMatch(t *testing.T) {
	p := newPipeline(t, catalog.StaticSource{}, nil)

	out, err := p.Search(context.Background(), "течет кран", "")

	require.NoError(t, err)
	assert.Equal(t, StatusNoMatch, out.Status)
	assert.Empty(t, out.Candidates)
}

func TestPipeline_CatalogUnavailable(t *testing.T) {
	p := newPipeline(t, failingSource{}, nil)

	out, err := p.Search(context.Background(), "течет кран", "")

	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchFailed))
}

func TestPipeline_SimilarityDownWithTagHit(t *testing.T) {
	p := newPipeline(t, catalog.StaticSource{leakRecord, drainRecord}, failingEngine)

	out, err := p.Search(context.Background(), "засор", "")

	require.NoError(t, err)
	assert.Equal(t, StatusMatched, out.Status)
	assert.Contains(t, out.Degraded, metrics.DegradationSimilarity)
	assert.Equal(t, int64(2), out.Candidates[0].EntryID)
}

func TestPipeline_SimilarityDownWithoutTagHit(t *testing.T) {
	p := newPipeline(t, catalog.StaticSource{leakRecord, drainRecord}, failingEngine)

	_, err := p.Search(context.Background(), "лифт", "")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchFailed))
}

func TestPipeline_TopNAndStableTies(t *testing.T) {
	p := newPipeline(t, craneRecords, nil)

	out, err := p.Search(context.Background(), "ремонт крана", "")

	require.NoError(t, err)
	assertRanked(t, out.Candidates, 5)
	ids := make([]int64, len(out.Candidates))
	for i, c := range out.Candidates {
		ids[i] = c.EntryID
		assert.Equal(t, 1.0, c.Confidence)
	}
	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
}

func TestPipeline_Deterministic(t *testing.T) {
	p := newPipeline(t, craneRecords, nil)
	queries := []string{"течет кран", "ремонт крана на кухне", "протечка крана в ванной"}

	for _, q := range queries {
		first, err := p.Search(context.Background(), q, "")
		require.NoError(t, err)
		second, err := p.Search(context.Background(), q, "")
		require.NoError(t, err)

		assert.Equal(t, first.Candidates, second.Candidates, q)
		assert.True(t, sort.SliceIsSorted(first.Candidates, func(a, b int) bool {
			return first.Candidates[a].Confidence > first.Candidates[b].Confidence
		}), q)
	}
}
