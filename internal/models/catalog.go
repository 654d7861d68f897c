// internal/models/catalog.go
package models

import "strings"

// CatalogRecord is one active service type as returned by a catalog source.
type CatalogRecord struct {
	ID          int64    `json:"id" yaml:"id" db:"id"`
	Name        string   `json:"name" yaml:"name" db:"name"`
	Description string   `json:"description,omitempty" yaml:"description" db:"description"`
	Category    string   `json:"category,omitempty" yaml:"category" db:"category"`
	Tags        []string `json:"tags,omitempty" yaml:"tags" db:"tags"`
}

// CatalogEntry is the matching view of a CatalogRecord. Entries are built
// once per catalog load and never modified afterwards.
type CatalogEntry struct {
	ID                       int64
	Name                     string // lowercased
	Description              string // lowercased
	Category                 string
	Tags                     []string // lowercased, deduplicated
	SearchableText           string
	NormalizedSearchableText string

	lemmas map[string]struct{}
}

// NewCatalogEntry builds an entry. searchable must already be lowercased and
// lemmas are the analyzer lemmas of searchable, in order.
func NewCatalogEntry(rec CatalogRecord, name, description string, tags []string, searchable string, lemmas []string) *CatalogEntry {
	set := make(map[string]struct{}, len(lemmas))
	for _, l := range lemmas {
		set[l] = struct{}{}
	}
	return &CatalogEntry{
		ID:                       rec.ID,
		Name:                     name,
		Description:              description,
		Category:                 rec.Category,
		Tags:                     tags,
		SearchableText:           searchable,
		NormalizedSearchableText: strings.Join(lemmas, " "),
		lemmas:                   set,
	}
}

// HasLemma reports whether s is one of the entry's normalized tokens.
func (e *CatalogEntry) HasLemma(s string) bool {
	_, ok := e.lemmas[s]
	return ok
}

// LemmaCount is the size of the entry's normalized token set.
func (e *CatalogEntry) LemmaCount() int {
	return len(e.lemmas)
}
