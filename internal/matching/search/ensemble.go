package search

import (
	"sort"

	"complaint-workers/internal/models"
)

// Combiner merges candidate lists into a ranked result.
type Combiner struct {
	topN int
}

func NewCombiner(topN int) *Combiner {
	return &Combiner{topN: topN}
}

// Combine keeps the highest-confidence candidate per entry, ranks by
// confidence with ties in discovery order, and truncates to topN.
func (c *Combiner) Combine(lists ...[]models.Candidate) []models.Candidate {
	index := make(map[int64]int)
	var merged []models.Candidate
	for _, list := range lists {
		for _, cand := range list {
			i, seen := index[cand.EntryID]
			if !seen {
				index[cand.EntryID] = len(merged)
				merged = append(merged, cand)
				continue
			}
			if cand.Confidence > merged[i].Confidence {
				merged[i] = cand
			}
		}
	}

	sort.SliceStable(merged, func(a, b int) bool {
		return merged[a].Confidence > merged[b].Confidence
	})
	if c.topN > 0 && len(merged) > c.topN {
		merged = merged[:c.topN]
	}
	return merged
}
