package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Embedder turns text into a fixed-size vector. Implementations must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Name identifies the model and dimension, used as a cache namespace.
	Name() string
}

const DefaultEmbeddingDimensions = 768

var stopWords = map[string]struct{}{
	"a": {}, "about": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"been": {}, "but": {}, "by": {}, "can": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"he": {}, "her": {}, "his": {}, "i": {}, "in": {}, "into": {}, "is": {}, "it": {},
	"its": {}, "me": {}, "my": {}, "of": {}, "on": {}, "or": {}, "our": {}, "she": {},
	"so": {}, "that": {}, "the": {}, "their": {}, "them": {}, "they": {}, "this": {}, "to": {},
	"us": {}, "was": {}, "we": {}, "were": {}, "will": {}, "with": {}, "you": {}, "your": {},
}

// localEmbedder is a feature-hashing bag-of-words model. It needs no network and is
// deterministic, so the same text always maps to the same vector.
type localEmbedder struct {
	dimensions int
}

func NewLocalEmbedder(dimensions int) Embedder {
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &localEmbedder{dimensions: dimensions}
}

func (e *localEmbedder) Name() string {
	return fmt.Sprintf("local-hash:%d", e.dimensions)
}

func (e *localEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, &EmbeddingError{Op: "embed", Err: err}
	}

	features := localFeatures(NormalizeText(text))
	keys := make([]string, 0, len(features))
	for feature := range features {
		keys = append(keys, feature)
	}
	// Fixed summation order keeps vectors bit-identical across runs.
	sort.Strings(keys)

	vec := make([]float64, e.dimensions)
	for _, feature := range keys {
		weight := features[feature]
		h := fnv.New64a()
		_, _ = h.Write([]byte(feature))
		sum := h.Sum64()

		idx := int(sum % uint64(e.dimensions))
		if sum>>63 == 1 {
			weight = -weight
		}
		vec[idx] += weight
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}

	out := make([]float32, e.dimensions)
	if norm == 0 {
		return out, nil
	}

	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}

	return out, nil
}

const (
	bigramWeight   = 0.5
	charGramWeight = 0.3
	charGramSize   = 3
)

// localFeatures weights word unigrams, word bigrams and character trigrams of each word.
// Text made only of stop words or punctuation falls back to trigrams of the whole text,
// so any non-empty input gets a non-zero vector.
func localFeatures(text string) map[string]float64 {
	features := make(map[string]float64)
	grams := make(map[string]int)

	for term, tf := range termFrequencies(text) {
		weight := 1 + math.Log(float64(tf))
		if strings.Contains(term, " ") {
			features[term] += weight * bigramWeight
			continue
		}
		features[term] += weight
		for _, g := range charGrams(term) {
			grams[g] += tf
		}
	}

	if len(features) == 0 && strings.TrimSpace(text) != "" {
		for _, g := range charGrams(text) {
			grams[g]++
		}
	}

	for g, n := range grams {
		// The NUL prefix keeps character grams apart from short words.
		features["\x00"+g] += (1 + math.Log(float64(n))) * charGramWeight
	}

	return features
}

// charGrams returns the rune trigrams of s padded with a space on each side.
func charGrams(s string) []string {
	runes := []rune(" " + s + " ")
	grams := make([]string, 0, len(runes))
	for i := 0; i+charGramSize <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+charGramSize]))
	}
	return grams
}

// termFrequencies counts unigram and bigram tokens, skipping stop words.
func termFrequencies(text string) map[string]int {
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})

	terms := make(map[string]int, len(tokens)*2)
	prev := ""
	for _, tok := range tokens {
		if _, ok := stopWords[tok]; ok {
			prev = ""
			continue
		}

		terms[tok]++
		if prev != "" {
			terms[prev+" "+tok]++
		}
		prev = tok
	}

	return terms
}

// lazyEmbedder builds the underlying model on first use and shares it afterwards.
type lazyEmbedder struct {
	name string
	init func() (Embedder, error)

	once     sync.Once
	embedder Embedder
	err      error
}

func NewLazyEmbedder(name string, init func() (Embedder, error)) Embedder {
	return &lazyEmbedder{name: name, init: init}
}

func (l *lazyEmbedder) load() (Embedder, error) {
	l.once.Do(func() {
		l.embedder, l.err = l.init()
		if l.err == nil && l.embedder == nil {
			l.err = fmt.Errorf("embedder %s initialised to nil", l.name)
		}
	})
	return l.embedder, l.err
}

func (l *lazyEmbedder) Name() string {
	return l.name
}

func (l *lazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e, err := l.load()
	if err != nil {
		return nil, &EmbeddingError{Op: "init", Err: err}
	}
	return e.Embed(ctx, text)
}
