// Package simdops provides the float64 vector primitives used by the
// filterbank hot path.
//
// Reductions and scaling delegate to github.com/tphakala/simd, which selects
// AVX2/SSE kernels at runtime and falls back to pure Go. The elementwise
// multiply-accumulate needed by the polyphase fold/unfold has no counterpart
// in that package, so it is implemented here as a plain loop; the compiler
// keeps it branch-free and bounds-check-eliminated when the slices are
// pre-sliced to equal length.
package simdops

import (
	"github.com/tphakala/simd/f64"
)

// Scale multiplies each element by scalar s: dst[i] = a[i] * s.
func Scale(dst, a []float64, s float64) {
	f64.Scale(dst, a, s)
}

// Sum returns the sum of all elements.
func Sum(a []float64) float64 {
	return f64.Sum(a)
}

// Dot computes the dot product of two equal-length slices.
// The slices must have equal length.
func Dot(a, b []float64) float64 {
	return f64.DotProductUnsafe(a, b)
}

// MulAddTo computes dst[i] += a[i]*b[i] for i in [0, len(dst)).
// a and b must be at least as long as dst.
func MulAddTo(dst, a, b []float64) {
	a = a[:len(dst)]
	b = b[:len(dst)]
	for i := range dst {
		dst[i] += a[i] * b[i]
	}
}

// Zero fills the slice with zeros.
func Zero(a []float64) {
	for i := range a {
		a[i] = 0
	}
}
