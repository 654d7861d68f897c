// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const localConfig = `
camunda:
  broker_address: localhost:26500
catalog:
  source: file
  file_path: configs/catalog.yaml
similarity:
  backend: local
workers:
  match-complaint:
    enabled: true
  notify-dispatcher:
    enabled: false
`

// ==========================
// LoadFromFile
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, localConfig))

	require.NoError(t, err)
	assert.Equal(t, "complaint-workers", cfg.App.Name)
	assert.Equal(t, 10, cfg.Camunda.MaxJobsActive)
	assert.Equal(t, MorphologySnowball, cfg.Morphology.Backend)
	assert.Equal(t, "russian", cfg.Morphology.Language)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 0.8, cfg.Notifications.SMS.MinConfidence)
	assert.Equal(t, DefaultMatchingConfig(), cfg.Matching)

	worker := cfg.Workers["match-complaint"]
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_CATALOG_PATH", "/srv/catalog.yaml")

	cfg, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: localhost:26500
catalog:
  source: file
  file_path: ${TEST_CATALOG_PATH}
similarity:
  backend: local
`))

	require.NoError(t, err)
	assert.Equal(t, "/srv/catalog.yaml", cfg.Catalog.FilePath)
}

func TestLoadFromFile_KeepsExplicitWeights(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, localConfig+`
matching:
  top_n: 3
  trigram_threshold: 0.45
`))

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Matching.TopN)
	assert.Equal(t, 0.45, cfg.Matching.TrigramThreshold)
	assert.Equal(t, 0.4, cfg.Matching.NameWeight)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// ==========================
// Validation
// ==========================

func TestLoadFromFile_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing broker",
			body: "catalog:\n  source: file\n  file_path: x.yaml\nsimilarity:\n  backend: local\n",
			want: "camunda.broker_address",
		},
		{
			name: "file source without path",
			body: "camunda:\n  broker_address: b:1\ncatalog:\n  source: file\nsimilarity:\n  backend: local\n",
			want: "catalog.file_path",
		},
		{
			name: "unknown catalog source",
			body: "camunda:\n  broker_address: b:1\ncatalog:\n  source: mongo\nsimilarity:\n  backend: local\n",
			want: "catalog.source",
		},
		{
			name: "postgres similarity without host",
			body: "camunda:\n  broker_address: b:1\ncatalog:\n  source: file\n  file_path: x.yaml\n",
			want: "database.postgres.host",
		},
		{
			name: "remote morphology without url",
			body: localConfig + "morphology:\n  backend: remote\n",
			want: "morphology.remote_url",
		},
		{
			name: "cache without redis",
			body: localConfig + "morphology:\n  cache_ttl: 60\n",
			want: "database.redis.address",
		},
		{
			name: "inverted token bounds",
			body: localConfig + "matching:\n  min_token_length: 30\n  max_token_length: 10\n",
			want: "min_token_length",
		},
		{
			name: "threshold out of range",
			body: localConfig + "matching:\n  rerank_min_confidence: 1.5\n",
			want: "rerank_min_confidence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MORPHOLOGY_URL", "")
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

// ==========================
// Worker Helpers
// ==========================

func TestWorkerHelpers(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, localConfig))
	require.NoError(t, err)

	assert.True(t, IsWorkerEnabled(cfg, "match-complaint"))
	assert.False(t, IsWorkerEnabled(cfg, "notify-dispatcher"))
	assert.True(t, IsWorkerEnabled(cfg, "unlisted"))

	fallback := GetWorkerConfig(cfg, "unlisted")
	assert.True(t, fallback.Enabled)
	assert.Equal(t, 5, fallback.MaxJobsActive)
}

func TestElasticsearchAddresses(t *testing.T) {
	es := ElasticsearchConfig{URL: "http://a:9200", Addresses: []string{"http://b:9200"}}
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, es.GetAddresses())

	es = ElasticsearchConfig{URL: "http://b:9200", Addresses: []string{"http://b:9200"}}
	assert.Equal(t, []string{"http://b:9200"}, es.GetAddresses())
}
