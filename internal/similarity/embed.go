package similarity

import (
	"math"
	"strings"
	"unicode"
)

// EmbeddingDim is the dimension of the deterministic pseudo-embedding.
const EmbeddingDim = 100

// embedNorm scales raw token-hash accumulations into a stable range before
// vector normalization.
const embedNorm = 1000.0

// Embed produces a deterministic EmbeddingDim-dimensional pseudo-embedding
// of the given text.
//
// The text is lowercased and split on non-letter/digit boundaries; each
// token is hashed with a polynomial string hash and accumulated into the
// bucket selected by the hash. The result is a stand-in for a real model
// embedding: it carries no semantics beyond token overlap, but it is cheap,
// dependency-free, and — critically — reproducible, which the semantic
// index and the retrieval tests rely on.
func Embed(text string) []float64 {
	vec := make([]float64, EmbeddingDim)

	for _, token := range Tokenize(text) {
		h := polyHash(token)
		bucket := int(h % EmbeddingDim)
		vec[bucket] += float64(h%1000)/embedNorm + 0.1
	}

	return vec
}

// Normalize scales v to unit length in place and returns it.
// A zero vector is returned unchanged.
func Normalize(v []float64) []float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Tokenize lowercases text and splits it on any run of characters that are
// neither letters nor digits. Empty tokens are dropped.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// polyHash is a simple 31-base polynomial string hash.
func polyHash(s string) uint64 {
	var h uint64
	for _, r := range s {
		h = h*31 + uint64(r)
	}
	return h
}
