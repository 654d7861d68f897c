// internal/models/token.go
package models

// PartOfSpeech uses the OpenCorpora grammeme names common to Russian analyzers.
type PartOfSpeech string

const (
	POSNoun         PartOfSpeech = "NOUN"
	POSVerb         PartOfSpeech = "VERB"
	POSInfinitive   PartOfSpeech = "INFN"
	POSAdjective    PartOfSpeech = "ADJF"
	POSAdverb       PartOfSpeech = "ADVB"
	POSNumeral      PartOfSpeech = "NUMR"
	POSPreposition  PartOfSpeech = "PREP"
	POSConjunction  PartOfSpeech = "CONJ"
	POSParticle     PartOfSpeech = "PRCL"
	POSInterjection PartOfSpeech = "INTJ"
	POSPronoun      PartOfSpeech = "NPRO"
	POSUnknown      PartOfSpeech = "UNKN"
)

// IsFunctional reports whether the part of speech carries no topical signal.
func (p PartOfSpeech) IsFunctional() bool {
	switch p {
	case POSPreposition, POSConjunction, POSParticle, POSInterjection, POSPronoun:
		return true
	}
	return false
}

// Token is a query word after noise filtering.
type Token struct {
	Raw   string       `json:"raw"`
	Lemma string       `json:"lemma"`
	POS   PartOfSpeech `json:"pos"`
}

// Raws returns the raw forms of tokens in order.
func Raws(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Raw
	}
	return out
}

// Lemmas returns the lemmas of tokens in order.
func Lemmas(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Lemma
	}
	return out
}
