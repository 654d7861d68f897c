// internal/workers/catalog/reload-catalog/handler_test.go
package reloadcatalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	apperrors "complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/matching/catalog"
	"complaint-workers/internal/matching/morphology"
	"complaint-workers/internal/matching/text"
	"complaint-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type switchSource struct {
	records []models.CatalogRecord
	fail    atomic.Bool
}

func (s *switchSource) Name() string { return "switch" }

func (s *switchSource) Fetch(context.Context) ([]models.CatalogRecord, error) {
	if s.fail.Load() {
		return nil, errors.New("connection refused")
	}
	return s.records, nil
}

func newCache(t *testing.T, src catalog.Source) *catalog.Cache {
	t.Helper()
	analyzer, err := morphology.NewSnowballAnalyzer("russian")
	require.NoError(t, err)
	return catalog.NewCache(src, analyzer, logger.NewTestLogger(t))
}

const dictionaryYAML = `
stop_words: [привет]
concepts:
  - key: water_leak
    canonical: протечка
    synonyms: [течет]
`

func writeDictionary(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ReloadsCatalog(t *testing.T) {
	src := &switchSource{records: []models.CatalogRecord{{ID: 1, Name: "Протечка крана"}}}
	cache := newCache(t, src)
	h := NewHandler(LoadConfig(), cache, nil, logger.NewTestLogger(t))

	first, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.CatalogVersion)
	assert.Equal(t, 1, first.CatalogEntries)
	assert.Equal(t, "switch", first.CatalogSource)
	assert.False(t, first.DictionaryReloaded)

	src.records = append(src.records, models.CatalogRecord{ID: 2, Name: "Засор канализации"})
	second, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), second.CatalogVersion)
	assert.Equal(t, 2, second.CatalogEntries)
}

func TestHandler_Execute_FailedReloadKeepsSnapshot(t *testing.T) {
	src := &switchSource{records: []models.CatalogRecord{{ID: 1, Name: "Протечка крана"}}}
	cache := newCache(t, src)
	h := NewHandler(LoadConfig(), cache, nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)

	src.fail.Store(true)
	output, err := h.Execute(context.Background(), &Input{})

	assert.Nil(t, output)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogLoadFailed))
	require.NotNil(t, cache.Snapshot())
	assert.Equal(t, uint64(1), cache.Snapshot().Version)
}

func TestHandler_Execute_NoSnapshotIsUnavailable(t *testing.T) {
	src := &switchSource{}
	src.fail.Store(true)
	h := NewHandler(LoadConfig(), newCache(t, src), nil, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogUnavailable))
}

func TestHandler_Execute_ReloadsDictionary(t *testing.T) {
	path := writeDictionary(t, dictionaryYAML)
	store := text.NewDictionaryStore(text.DefaultDictionary(), path)
	src := &switchSource{records: []models.CatalogRecord{{ID: 1, Name: "Протечка крана"}}}
	h := NewHandler(LoadConfig(), newCache(t, src), store, logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{ReloadDictionary: true})

	require.NoError(t, err)
	assert.True(t, output.DictionaryReloaded)
	assert.True(t, store.Current().IsStopWord("привет"))
	assert.False(t, store.Current().IsStopWord("спасибо"))
}

func TestHandler_Execute_BadDictionaryKeepsCurrent(t *testing.T) {
	path := writeDictionary(t, "concepts: [not, a, mapping")
	builtin := text.DefaultDictionary()
	store := text.NewDictionaryStore(builtin, path)
	src := &switchSource{records: []models.CatalogRecord{{ID: 1, Name: "Протечка крана"}}}
	h := NewHandler(LoadConfig(), newCache(t, src), store, logger.NewTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{ReloadDictionary: true})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDictionaryLoadFailed))
	assert.Same(t, builtin, store.Current())
}
