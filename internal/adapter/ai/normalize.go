// Package ai provides AI client adapters and wrappers used by the application.
package ai

import "math"

// Normalize returns the L2-normalized copy of v. Zero and non-finite-norm
// vectors are returned unchanged; ranking discards them downstream.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// NormalizeAll normalizes every vector in place of the slice.
func NormalizeAll(vs [][]float32) [][]float32 {
	for i := range vs {
		vs[i] = Normalize(vs[i])
	}
	return vs
}
