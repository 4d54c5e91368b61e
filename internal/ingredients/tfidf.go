package ingredients

import (
	"cmp"
	"math"
	"regexp"
	"slices"
	"strings"
)

const defaultMaxFeatures = 500

var tokenPattern = regexp.MustCompile(`\w+`)

// Vector is a sparse row keyed by vocabulary index.
type Vector map[int]float64

// Vectorizer turns documents into L2-normalised TF-IDF rows over unigrams
// and bigrams. The vocabulary keeps the most frequent terms of the corpus
// and is indexed alphabetically.
type Vectorizer struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// NewVectorizer returns an unfitted vectorizer.
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = defaultMaxFeatures
	}
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// terms returns the lowercased unigrams followed by adjacent-pair bigrams.
func terms(doc string) []string {
	tokens := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// Fit learns the vocabulary and inverse document frequencies of docs.
func (v *Vectorizer) Fit(docs []string) {
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, t := range terms(doc) {
			termFreq[t]++
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				docFreq[t]++
			}
		}
	}

	all := make([]string, 0, len(termFreq))
	for t := range termFreq {
		all = append(all, t)
	}
	slices.SortFunc(all, func(a, b string) int {
		if c := cmp.Compare(termFreq[b], termFreq[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(all) > v.MaxFeatures {
		all = all[:v.MaxFeatures]
	}
	slices.Sort(all)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(all))
	v.IDF = make([]float64, len(all))
	for i, t := range all {
		v.Vocabulary[t] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[t]))) + 1
	}
}

// Transform vectorises doc with the fitted vocabulary. Unknown terms are
// ignored; a document with no known terms yields an empty vector.
func (v *Vectorizer) Transform(doc string) Vector {
	counts := make(map[int]float64)
	for _, t := range terms(doc) {
		if idx, ok := v.Vocabulary[t]; ok {
			counts[idx]++
		}
	}
	var norm float64
	for idx, c := range counts {
		w := c * v.IDF[idx]
		counts[idx] = w
		norm += w * w
	}
	if norm == 0 {
		return Vector{}
	}
	norm = math.Sqrt(norm)
	for idx := range counts {
		counts[idx] /= norm
	}
	return Vector(counts)
}

// Cosine returns the cosine similarity of two L2-normalised vectors.
func Cosine(a, b Vector) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	var dot float64
	for idx, w := range a {
		dot += w * b[idx]
	}
	return dot
}
