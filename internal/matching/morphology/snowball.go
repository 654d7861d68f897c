package morphology

import (
	"context"
	"fmt"
	"strings"

	"complaint-workers/internal/models"

	"github.com/kljensen/snowball"
)

// SnowballAnalyzer lemmatizes with the Snowball stemmer. The "lemma" is a
// stem, which is all the matcher needs: both query and catalog text go
// through the same analyzer.
type SnowballAnalyzer struct {
	language string
}

func NewSnowballAnalyzer(language string) (*SnowballAnalyzer, error) {
	if language == "" {
		language = "russian"
	}
	if _, err := snowball.Stem("тест", language, true); err != nil {
		return nil, fmt.Errorf("snowball: %w", err)
	}
	return &SnowballAnalyzer{language: language}, nil
}

func (a *SnowballAnalyzer) Analyze(_ context.Context, token string) (Result, error) {
	token = strings.ToLower(token)
	if token == "" {
		return Result{}, fmt.Errorf("empty token")
	}

	if pos, ok := ClosedClassPOS(token); ok {
		return Result{Lemma: token, POS: pos}, nil
	}

	stem, err := snowball.Stem(token, a.language, true)
	if err != nil {
		return Result{}, fmt.Errorf("stem %q: %w", token, err)
	}
	if stem == "" {
		stem = token
	}
	return Result{Lemma: stem, POS: guessPOS(token)}, nil
}

// guessPOS recognizes infinitives and leaves the rest unknown. Unknown is never filtered.
func guessPOS(token string) models.PartOfSpeech {
	for _, suffix := range []string{"ться", "тись", "ть", "ти", "чь"} {
		if strings.HasSuffix(token, suffix) && len([]rune(token)) > len([]rune(suffix))+1 {
			return models.POSInfinitive
		}
	}
	return models.POSUnknown
}
