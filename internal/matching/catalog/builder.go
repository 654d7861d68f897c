package catalog

import (
	"context"
	"strings"

	"complaint-workers/internal/matching/morphology"
	"complaint-workers/internal/matching/text"
	"complaint-workers/internal/models"
)

// BuildResult is the outcome of turning records into entries.
type BuildResult struct {
	Entries            []*models.CatalogEntry
	Skipped            int
	MorphologyFailures int
}

// BuildEntries converts records to matching entries. Records with a
// non-positive or repeated id, or without a name, are skipped. Words the
// analyzer cannot handle contribute their raw form as lemma.
func BuildEntries(ctx context.Context, records []models.CatalogRecord, analyzer morphology.Analyzer) BuildResult {
	var res BuildResult
	seen := make(map[int64]bool, len(records))
	lemmaCache := make(map[string]string)

	for _, rec := range records {
		name := strings.TrimSpace(text.Fold(rec.Name))
		if rec.ID <= 0 || name == "" || seen[rec.ID] {
			res.Skipped++
			continue
		}
		seen[rec.ID] = true

		description := strings.TrimSpace(text.Fold(rec.Description))
		tags := normalizeTags(rec.Tags)

		parts := []string{name}
		if description != "" {
			parts = append(parts, description)
		}
		parts = append(parts, tags...)
		searchable := strings.Join(parts, " ")

		words := text.Words(searchable)
		lemmas := make([]string, 0, len(words))
		for _, w := range words {
			lemma, ok := lemmaCache[w]
			if !ok {
				r, err := analyzer.Analyze(ctx, w)
				if err != nil || r.Lemma == "" {
					if err != nil {
						res.MorphologyFailures++
					}
					r.Lemma = w
				}
				lemma = r.Lemma
				lemmaCache[w] = lemma
			}
			lemmas = append(lemmas, lemma)
		}

		res.Entries = append(res.Entries, models.NewCatalogEntry(rec, name, description, tags, searchable, lemmas))
	}
	return res
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(text.Fold(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
