package text

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	apperrors "complaint-workers/internal/common/errors"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"
)

//go:embed default_dictionary.yaml
var defaultDictionaryYAML []byte

// DictionaryFile is the YAML layout of a noise filter dictionary.
type DictionaryFile struct {
	StopWords        []string            `yaml:"stop_words"`
	ContextStopWords map[string][]string `yaml:"context_stop_words"`
	Concepts         []Concept           `yaml:"concepts"`
}

// Concept is a problem the catalog knows about. Synonyms and phrases are
// rewritten to Canonical, which should be a word catalog entries use.
type Concept struct {
	Key       string   `yaml:"key"`
	Canonical string   `yaml:"canonical"`
	Synonyms  []string `yaml:"synonyms"`
	Phrases   []string `yaml:"phrases"`
}

type phrase struct {
	words     []string
	canonical string
}

// Dictionary is an immutable, validated DictionaryFile.
type Dictionary struct {
	stopWords        map[string]struct{}
	contextStopWords map[string]map[string]struct{}
	synonyms         map[string]string // synonym -> canonical
	canonicals       map[string]string // canonical -> concept key
	phrases          []phrase
	matcher          *ahocorasick.Matcher
}

// NewDictionary folds every term and checks that filtering with the result
// converges: canonical tokens may not be stop words or synonyms.
func NewDictionary(f DictionaryFile) (*Dictionary, error) {
	d := &Dictionary{
		stopWords:        toSet(f.StopWords),
		contextStopWords: make(map[string]map[string]struct{}, len(f.ContextStopWords)),
		synonyms:         make(map[string]string),
		canonicals:       make(map[string]string),
	}
	for label, words := range f.ContextStopWords {
		d.contextStopWords[Fold(strings.TrimSpace(label))] = toSet(words)
	}

	for _, c := range f.Concepts {
		canonical := Fold(strings.TrimSpace(c.Canonical))
		if canonical == "" || len(Words(canonical)) != 1 {
			return nil, fmt.Errorf("concept %q: canonical token must be a single word, got %q", c.Key, c.Canonical)
		}
		if prev, ok := d.canonicals[canonical]; ok && prev != c.Key {
			return nil, fmt.Errorf("concept %q: canonical %q already used by %q", c.Key, canonical, prev)
		}
		d.canonicals[canonical] = c.Key
	}

	for _, c := range f.Concepts {
		canonical := Fold(strings.TrimSpace(c.Canonical))
		for _, s := range c.Synonyms {
			syn := Fold(strings.TrimSpace(s))
			if syn == "" || syn == canonical {
				continue
			}
			if _, ok := d.canonicals[syn]; ok {
				return nil, fmt.Errorf("concept %q: synonym %q is a canonical token", c.Key, syn)
			}
			if prev, ok := d.synonyms[syn]; ok && prev != canonical {
				return nil, fmt.Errorf("concept %q: synonym %q already maps to %q", c.Key, syn, prev)
			}
			d.synonyms[syn] = canonical
		}
		for _, p := range c.Phrases {
			words := Words(p)
			if len(words) < 2 {
				return nil, fmt.Errorf("concept %q: phrase %q must have at least two words", c.Key, p)
			}
			d.phrases = append(d.phrases, phrase{words: words, canonical: canonical})
		}
	}

	for canonical, key := range d.canonicals {
		if _, ok := d.stopWords[canonical]; ok {
			return nil, fmt.Errorf("concept %q: canonical %q is a stop word", key, canonical)
		}
		for label, set := range d.contextStopWords {
			if _, ok := set[canonical]; ok {
				return nil, fmt.Errorf("concept %q: canonical %q is a %q context stop word", key, canonical, label)
			}
		}
	}

	// Longest phrases first so "нет горячей воды" wins over "нет воды".
	sort.SliceStable(d.phrases, func(i, j int) bool {
		return len(d.phrases[i].words) > len(d.phrases[j].words)
	})
	if len(d.phrases) > 0 {
		patterns := make([]string, len(d.phrases))
		for i, p := range d.phrases {
			patterns[i] = " " + strings.Join(p.words, " ") + " "
		}
		d.matcher = ahocorasick.NewStringMatcher(patterns)
	}
	return d, nil
}

// ParseDictionary decodes and validates YAML.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var f DictionaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	return NewDictionary(f)
}

// LoadDictionary reads a YAML dictionary. An empty path loads the built-in one.
func LoadDictionary(path string) (*Dictionary, error) {
	if path == "" {
		d, err := ParseDictionary(defaultDictionaryYAML)
		if err != nil {
			return nil, apperrors.NewDictionaryLoadFailedError("(builtin)", err)
		}
		return d, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewDictionaryLoadFailedError(path, err)
	}
	d, err := ParseDictionary(data)
	if err != nil {
		return nil, apperrors.NewDictionaryLoadFailedError(path, err)
	}
	return d, nil
}

// DefaultDictionary returns the built-in dictionary.
func DefaultDictionary() *Dictionary {
	d, err := LoadDictionary("")
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dictionary) IsStopWord(w string) bool {
	_, ok := d.stopWords[w]
	return ok
}

// IsContextStopWord reports whether w is noise for the given context label.
// Unknown labels have no context stop words.
func (d *Dictionary) IsContextStopWord(label, w string) bool {
	if label == "" {
		return false
	}
	set, ok := d.contextStopWords[label]
	if !ok {
		return false
	}
	_, ok = set[w]
	return ok
}

// HasContext reports whether label has a context stop list.
func (d *Dictionary) HasContext(label string) bool {
	_, ok := d.contextStopWords[label]
	return ok
}

// Canonical returns the canonical token for a synonym.
func (d *Dictionary) Canonical(w string) (string, bool) {
	c, ok := d.synonyms[w]
	return c, ok
}

// IsCanonical reports whether w is a concept's canonical token.
func (d *Dictionary) IsCanonical(w string) bool {
	_, ok := d.canonicals[w]
	return ok
}

// ConceptKey returns the concept a canonical token belongs to.
func (d *Dictionary) ConceptKey(canonical string) string {
	return d.canonicals[canonical]
}

// collapsePhrases replaces every known phrase in words by its canonical token.
func (d *Dictionary) collapsePhrases(words []string) []string {
	if d.matcher == nil || len(words) < 2 {
		return words
	}
	hits := d.matcher.MatchThreadSafe([]byte(" " + strings.Join(words, " ") + " "))
	if len(hits) == 0 {
		return words
	}
	sort.Ints(hits)

	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		matched := false
		for _, h := range hits {
			p := d.phrases[h]
			if hasPrefix(words[i:], p.words) {
				out = append(out, p.canonical)
				i += len(p.words)
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, words[i])
			i++
		}
	}
	return out
}

func hasPrefix(words, prefix []string) bool {
	if len(prefix) > len(words) {
		return false
	}
	for i := range prefix {
		if words[i] != prefix[i] {
			return false
		}
	}
	return true
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if w = Fold(strings.TrimSpace(w)); w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// DictionaryStore holds the active dictionary. Update swaps it atomically;
// filters running at that moment finish with the dictionary they started with.
type DictionaryStore struct {
	current atomic.Pointer[Dictionary]
	path    string
}

func NewDictionaryStore(d *Dictionary, path string) *DictionaryStore {
	s := &DictionaryStore{path: path}
	s.current.Store(d)
	return s
}

func (s *DictionaryStore) Current() *Dictionary {
	return s.current.Load()
}

func (s *DictionaryStore) Update(d *Dictionary) {
	if d != nil {
		s.current.Store(d)
	}
}

// Reload re-reads the store's file. On error the active dictionary is kept.
func (s *DictionaryStore) Reload() error {
	d, err := LoadDictionary(s.path)
	if err != nil {
		return err
	}
	s.Update(d)
	return nil
}
