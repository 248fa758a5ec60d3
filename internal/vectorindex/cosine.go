// Package vectorindex scores postings against a query vector and keeps the best.
package vectorindex

import (
	"errors"
	"fmt"
	"math"
)

var ErrEmptyVector = errors.New("empty vector")

// Cosine returns the cosine similarity of a and b, clamped to [-1, 1].
// A zero-norm vector has similarity 0 with everything.
func Cosine(a, b []float32) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyVector
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d != %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim)), nil
}
