// Package morphology maps query and catalog words to lemmas and parts of speech.
package morphology

import (
	"context"

	"complaint-workers/internal/models"
)

// Result is the analysis of a single token.
type Result struct {
	Lemma string              `json:"lemma"`
	POS   models.PartOfSpeech `json:"pos"`
}

// Analyzer may fail per token. Callers fall back to the raw token.
type Analyzer interface {
	Analyze(ctx context.Context, token string) (Result, error)
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(ctx context.Context, token string) (Result, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, token string) (Result, error) {
	return f(ctx, token)
}

// closedClass lists Russian function words by part of speech. A stemmer
// cannot tell these apart from content words, so they are looked up directly.
var closedClass = map[string]models.PartOfSpeech{}

func init() {
	register := func(pos models.PartOfSpeech, words ...string) {
		for _, w := range words {
			closedClass[w] = pos
		}
	}
	register(models.POSPreposition,
		"в", "во", "на", "с", "со", "к", "ко", "по", "о", "об", "обо", "от", "ото", "до", "из", "изо",
		"у", "за", "под", "подо", "над", "надо", "при", "про", "без", "для", "через", "между", "перед",
		"около", "вокруг", "после", "возле", "среди", "вдоль", "напротив", "сквозь", "из-за", "из-под")
	register(models.POSConjunction,
		"и", "а", "но", "или", "либо", "что", "чтобы", "если", "когда", "как", "потому", "поэтому",
		"хотя", "зато", "однако", "также", "тоже", "будто", "словно", "пока", "причем", "ибо")
	register(models.POSParticle,
		"не", "ни", "же", "ли", "бы", "вот", "вон", "даже", "уже", "еще", "только", "лишь", "разве",
		"неужели", "ведь", "пусть", "нет", "да", "ну", "именно", "прямо", "почти", "ещё")
	register(models.POSInterjection,
		"ой", "ах", "ох", "эх", "увы", "ага", "алло", "эй", "ау", "ого", "ура", "блин")
	register(models.POSPronoun,
		"я", "мы", "ты", "вы", "он", "она", "оно", "они", "меня", "мне", "мной", "мною", "нас", "нам",
		"нами", "тебя", "тебе", "тобой", "вас", "вам", "вами", "его", "него", "ему", "нему", "ее",
		"нее", "ей", "ней", "их", "них", "им", "ним", "ими", "ними", "себя", "себе", "собой", "кто",
		"кого", "кому", "чего", "чему", "чем", "ничего", "никто", "нечего", "что-то", "кто-то",
		"мой", "моя", "мое", "мои", "моей", "моем", "моих", "наш", "наша", "наше", "наши", "нашей",
		"нашем", "наших", "ваш", "ваша", "ваше", "ваши", "свой", "своя", "свое", "свои", "это", "этот",
		"эта", "эти", "этого", "этой", "этом", "тот", "та", "то", "те", "того", "той", "том")
}

// ClosedClassPOS returns the part of speech for a known function word.
func ClosedClassPOS(token string) (models.PartOfSpeech, bool) {
	pos, ok := closedClass[token]
	return pos, ok
}
