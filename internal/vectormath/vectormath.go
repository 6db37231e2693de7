// Package vectormath provides cosine similarity and top-K ranking over
// embedding vectors. All functions are pure.
package vectormath

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch reports an attempt to compare vectors of different
// dimensionality. This is a programming-contract violation, not a runtime
// condition to recover from.
var ErrDimensionMismatch = errors.New("vectormath: dimension mismatch")

// Cosine returns the cosine similarity of a and b. It returns 0 (not an
// error) when either magnitude is zero.
func Cosine(a, b []float32) (float32, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0, nil
	}
	return float32(dot / den), nil
}

// Scored references a candidate vector by its input position.
type Scored struct {
	Index int
	Score float32
}

// TopK scores every candidate against query and returns at most k results
// sorted by descending similarity. Ties keep input order; no secondary key
// is defined, and this stability is intentional.
func TopK(query []float32, candidates [][]float32, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, nil
	}
	scored := make([]Scored, 0, len(candidates))
	for i, c := range candidates {
		s, err := Cosine(query, c)
		if err != nil {
			return nil, err
		}
		scored = append(scored, Scored{Index: i, Score: s})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}
