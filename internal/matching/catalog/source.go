// Package catalog loads the service catalog and serves immutable snapshots of it.
package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"complaint-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

// Source returns every active catalog record, in catalog order.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.CatalogRecord, error)
}

// ==========================
// Postgres
// ==========================

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// PostgresSource reads service types from a table with columns
// id, name, description, category, tags (text[]) and is_active.
type PostgresSource struct {
	db    *sql.DB
	query string
}

func NewPostgresSource(db *sql.DB, table string) (*PostgresSource, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid catalog table name %q", table)
	}
	return &PostgresSource{
		db: db,
		query: fmt.Sprintf(`SELECT id, name, COALESCE(description, ''), COALESCE(category, ''), COALESCE(tags, '{}')
			FROM %s WHERE is_active = TRUE ORDER BY id`, table),
	}, nil
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Fetch(ctx context.Context) ([]models.CatalogRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var records []models.CatalogRecord
	for rows.Next() {
		var rec models.CatalogRecord
		var tags pq.StringArray
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Category, &tags); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		rec.Tags = []string(tags)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}
	return records, nil
}

// ==========================
// Elasticsearch
// ==========================

const maxIndexedEntries = 1000

// ElasticsearchSource reads service types from an index whose documents
// carry the CatalogRecord fields plus an "active" flag.
type ElasticsearchSource struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticsearchSource(client *elasticsearch.Client, index string) *ElasticsearchSource {
	return &ElasticsearchSource{client: client, index: index}
}

func (s *ElasticsearchSource) Name() string { return "elasticsearch" }

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.CatalogRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchSource) Fetch(ctx context.Context) ([]models.CatalogRecord, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"active": true}},
				},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"id": map[string]interface{}{"order": "asc"}},
		},
	})

	size := maxIndexedEntries
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("search catalog index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search catalog index %s: %s", s.index, res.Status())
	}

	var parsed esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode catalog search response: %w", err)
	}

	records := make([]models.CatalogRecord, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		records = append(records, h.Source)
	}
	return records, nil
}

// ==========================
// YAML file
// ==========================

// FileSource reads a YAML catalog:
//
//	services:
//	  - id: 1
//	    name: Протечка крана
//	    tags: [течь, вода]
type FileSource struct {
	path string
}

type catalogFile struct {
	Services []struct {
		models.CatalogRecord `yaml:",inline"`
		Active               *bool `yaml:"active"`
	} `yaml:"services"`
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string { return "file" }

func (s *FileSource) Fetch(_ context.Context) ([]models.CatalogRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return ParseCatalogYAML(data)
}

// ParseCatalogYAML decodes the file catalog format. Entries with active: false are skipped.
func ParseCatalogYAML(data []byte) ([]models.CatalogRecord, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog file: %w", err)
	}
	records := make([]models.CatalogRecord, 0, len(f.Services))
	for _, svc := range f.Services {
		if svc.Active != nil && !*svc.Active {
			continue
		}
		records = append(records, svc.CatalogRecord)
	}
	return records, nil
}

// StaticSource serves a fixed record list.
type StaticSource []models.CatalogRecord

func (s StaticSource) Name() string { return "static" }

func (s StaticSource) Fetch(_ context.Context) ([]models.CatalogRecord, error) {
	return append([]models.CatalogRecord(nil), s...), nil
}
