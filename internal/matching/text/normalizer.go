// Package text turns raw complaint text into filtered query tokens.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Fold applies NFKC, lowercases and folds ё to е. Dictionary terms, catalog
// text and queries all go through Fold so they compare equal.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "ё", "е")
}

// Normalizer splits text into lowercase letter-only tokens within a length window.
type Normalizer struct {
	minLen int
	maxLen int
}

func NewNormalizer(minLen, maxLen int) *Normalizer {
	if minLen < 1 {
		minLen = 1
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	return &Normalizer{minLen: minLen, maxLen: maxLen}
}

// Normalize never fails; empty or letterless input yields an empty slice.
func (n *Normalizer) Normalize(raw string) []string {
	fields := strings.FieldsFunc(Fold(raw), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		l := utf8.RuneCountInString(f)
		if l < n.minLen || l > n.maxLen {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Words splits text without the length window. Used for catalog text.
func Words(raw string) []string {
	return strings.FieldsFunc(Fold(raw), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}
