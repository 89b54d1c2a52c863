package similarity

import "math"

// EditDistance returns the Levenshtein distance between a and b with unit
// costs for insert, delete, and substitute. O(len(a)*len(b)) time.
func EditDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two-row DP over the classic edit distance matrix.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // delete
				curr[j-1]+1,    // insert
				prev[j-1]+cost, // substitute
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// StringSimilarity returns 1 - editDistance(a,b)/max(len(a),len(b)),
// a value in [0,1]. Two empty strings are identical (1.0).
func StringSimilarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	longer := la
	if lb > longer {
		longer = lb
	}
	if longer == 0 {
		return 1.0
	}
	return 1.0 - float64(EditDistance(a, b))/float64(longer)
}

// Cosine returns the cosine similarity between v1 and v2, in [-1,1].
// Returns 0 if either vector has zero norm or the dimensions differ.
func Cosine(v1, v2 []float64) float64 {
	if len(v1) != len(v2) || len(v1) == 0 {
		return 0
	}

	var dot, n1, n2 float64
	for i := range v1 {
		dot += v1[i] * v2[i]
		n1 += v1[i] * v1[i]
		n2 += v2[i] * v2[i]
	}
	if n1 == 0 || n2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(n1) * math.Sqrt(n2))
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
