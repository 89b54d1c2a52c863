package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"both empty", "", "", 0},
		{"left empty", "", "abc", 3},
		{"right empty", "abc", "", 3},
		{"identical", "kitten", "kitten", 0},
		{"classic kitten sitting", "kitten", "sitting", 3},
		{"single substitution", "cat", "car", 1},
		{"single insertion", "cat", "cart", 1},
		{"unicode runes", "héllo", "hello", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EditDistance(tt.a, tt.b))
		})
	}
}

func TestStringSimilarity(t *testing.T) {
	// Both empty strings are defined as identical.
	assert.Equal(t, 1.0, StringSimilarity("", ""))

	// Identical strings score 1.0.
	assert.Equal(t, 1.0, StringSimilarity("hello", "hello"))

	// Completely different strings of equal length score 0.
	assert.Equal(t, 0.0, StringSimilarity("abc", "xyz"))

	// One char off in a 10-char string scores 0.9.
	assert.InDelta(t, 0.9, StringSimilarity("abcdefghij", "abcdefghiX"), 1e-9)

	// Result is always within [0,1].
	sim := StringSimilarity("short", "a much longer string entirely")
	assert.GreaterOrEqual(t, sim, 0.0)
	assert.LessOrEqual(t, sim, 1.0)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)

	// Zero norm yields 0 rather than NaN.
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}))

	// Dimension mismatch yields 0.
	assert.Equal(t, 0.0, Cosine([]float64{1}, []float64{1, 2}))
}

func TestEmbed_Deterministic(t *testing.T) {
	// Same input must produce the identical vector on repeated calls.
	a := Embed("generate a short story about autumn")
	b := Embed("generate a short story about autumn")
	require.Equal(t, a, b)

	require.Len(t, a, EmbeddingDim)

	// Non-empty input should produce a non-zero vector.
	var sum float64
	for _, x := range a {
		sum += x * x
	}
	assert.Greater(t, sum, 0.0)
}

func TestEmbed_DistinguishesInputs(t *testing.T) {
	a := Embed("the weather is sunny today")
	b := Embed("quarterly revenue projections for the board")
	assert.NotEqual(t, a, b)

	// Overlapping token sets should be more similar than disjoint ones.
	c := Embed("the weather is rainy today")
	overlap := Cosine(a, c)
	disjoint := Cosine(a, b)
	assert.Greater(t, overlap, disjoint)
}

func TestEmbed_EmptyInput(t *testing.T) {
	vec := Embed("")
	require.Len(t, vec, EmbeddingDim)
	for _, x := range vec {
		assert.Zero(t, x)
	}
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float64{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-9)
	assert.InDelta(t, 0.8, v[1], 1e-9)

	// Zero vector passes through untouched.
	z := Normalize([]float64{0, 0})
	assert.Equal(t, []float64{0, 0}, z)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "42"}, Tokenize("Hello, WORLD! 42"))
	assert.Empty(t, Tokenize("  ,.!  "))
}
