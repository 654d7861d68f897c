// Package similarity scores how alike two strings are on a 0..1 scale.
package similarity

import (
	"context"
	"database/sql"
	"math"
	"strings"
	"unicode"

	apperrors "complaint-workers/internal/common/errors"
)

// Engine may fail per pair; callers skip the pair.
type Engine interface {
	Similarity(ctx context.Context, a, b string) (float64, error)
}

// ==========================
// pg_trgm
// ==========================

// PostgresEngine delegates to the pg_trgm similarity() function.
type PostgresEngine struct {
	db *sql.DB
}

func NewPostgresEngine(db *sql.DB) *PostgresEngine {
	return &PostgresEngine{db: db}
}

func (e *PostgresEngine) Similarity(ctx context.Context, a, b string) (float64, error) {
	var score sql.NullFloat64
	if err := e.db.QueryRowContext(ctx, "SELECT similarity($1, $2)", a, b).Scan(&score); err != nil {
		return 0, apperrors.NewSimilarityUnavailableError(err)
	}
	if !score.Valid {
		return 0, nil
	}
	return clamp(score.Float64), nil
}

// ==========================
// In-process
// ==========================

// LocalEngine computes pg_trgm-compatible similarity without a database:
// each word is padded with two leading and one trailing space, and the
// score is the Jaccard index of the two trigram sets.
type LocalEngine struct{}

func NewLocalEngine() *LocalEngine {
	return &LocalEngine{}
}

func (LocalEngine) Similarity(_ context.Context, a, b string) (float64, error) {
	return Trigram(a, b), nil
}

// Trigram returns the pg_trgm similarity of a and b.
func Trigram(a, b string) float64 {
	left := trigramSet(a)
	right := trigramSet(b)
	if len(left) == 0 || len(right) == 0 {
		return 0
	}

	shared := 0
	for t := range left {
		if _, ok := right[t]; ok {
			shared++
		}
	}
	union := len(left) + len(right) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func trigramSet(s string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	set := make(map[string]struct{})
	for _, w := range words {
		runes := []rune("  " + w + " ")
		for i := 0; i+3 <= len(runes); i++ {
			set[string(runes[i:i+3])] = struct{}{}
		}
	}
	return set
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
