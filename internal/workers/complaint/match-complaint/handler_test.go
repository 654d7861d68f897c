// internal/workers/complaint/match-complaint/handler_test.go
package matchcomplaint

import (
	"context"
	"errors"
	"testing"

	"complaint-workers/internal/common/config"
	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/matching/catalog"
	"complaint-workers/internal/matching/morphology"
	"complaint-workers/internal/matching/search"
	"complaint-workers/internal/matching/similarity"
	"complaint-workers/internal/matching/text"
	"complaint-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubSearcher struct {
	outcome      *search.Outcome
	err          error
	gotComplaint string
	gotContext   string
}

func (s *stubSearcher) Search(_ context.Context, complaint, contextLabel string) (*search.Outcome, error) {
	s.gotComplaint = complaint
	s.gotContext = contextLabel
	return s.outcome, s.err
}

func newPipeline(t *testing.T, records ...models.CatalogRecord) *search.Pipeline {
	t.Helper()
	log := logger.NewTestLogger(t)
	analyzer, err := morphology.NewSnowballAnalyzer("russian")
	require.NoError(t, err)

	filter := text.NewNoiseFilter(text.NewDictionaryStore(text.DefaultDictionary(), ""), analyzer, log)
	cache := catalog.NewCache(catalog.StaticSource(records), analyzer, log)
	return search.NewPipeline(config.DefaultMatchingConfig(), cache, filter, similarity.NewLocalEngine(), nil, log)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Matched(t *testing.T) {
	p := newPipeline(t,
		models.CatalogRecord{ID: 1, Name: "Протечка крана", Tags: []string{"течь", "вода"}},
		models.CatalogRecord{ID: 2, Name: "Засор канализации"},
	)
	h := NewHandler(LoadConfig(), p, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{ComplaintText: "течет труба в квартире"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeMatched, output.Outcome)
	require.NotNil(t, output.TopCandidate)
	assert.Equal(t, int64(1), output.TopCandidate.EntryID)
	assert.GreaterOrEqual(t, output.TopCandidate.Confidence, 0.4)
	assert.NotEmpty(t, output.SearchID)
	assert.Equal(t, "течет труба в квартире", output.ComplaintText)
}

func TestHandler_Execute_NoMatch(t *testing.T) {
	p := newPipeline(t, models.CatalogRecord{ID: 1, Name: "Протечка крана"})
	h := NewHandler(LoadConfig(), p, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{ComplaintText: "привет"})

	require.NoError(t, err)
	assert.Equal(t, OutcomeNoMatch, output.Outcome)
	assert.Nil(t, output.TopCandidate)
	assert.Empty(t, output.Candidates)
}

func TestHandler_Execute_BuildsComplaintFromTurns(t *testing.T) {
	s := &stubSearcher{outcome: &search.Outcome{SearchID: "s-1", Status: search.StatusNoMatch}}
	cfg := LoadConfig()
	cfg.DefaultContext = "water"
	h := NewHandler(cfg, s, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{Turns: []string{"течет кран", "да", "на кухне"}})

	require.NoError(t, err)
	assert.Equal(t, "течет кран на кухне", s.gotComplaint)
	assert.Equal(t, "water", s.gotContext)
	assert.Equal(t, "течет кран на кухне", output.ComplaintText)
}

func TestHandler_Execute_ContextFromInput(t *testing.T) {
	s := &stubSearcher{outcome: &search.Outcome{Status: search.StatusNoMatch}}
	cfg := LoadConfig()
	cfg.DefaultContext = "water"
	h := NewHandler(cfg, s, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{ComplaintText: "нет света", ContextLabel: "electricity"})

	require.NoError(t, err)
	assert.Equal(t, "electricity", s.gotContext)
}

func TestHandler_Execute_SearchFailed(t *testing.T) {
	s := &stubSearcher{err: apperrors.NewSearchFailedError("catalog unavailable", errors.New("connection refused"))}
	h := NewHandler(LoadConfig(), s, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{ComplaintText: "течет кран"})

	assert.Nil(t, output)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeSearchFailed))
}
