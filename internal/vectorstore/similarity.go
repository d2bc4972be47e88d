package vectorstore

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity between two vectors. Mismatched or
// zero-magnitude vectors score zero.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank returns the indexes of the top k scores in descending order. Ties keep
// their original relative order.
func Rank(scores []float64, k int) []int {
	idxs := make([]int, len(scores))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(i, j int) bool {
		return scores[idxs[i]] > scores[idxs[j]]
	})
	if k < 0 {
		k = 0
	}
	if k > len(idxs) {
		k = len(idxs)
	}
	return idxs[:k]
}
