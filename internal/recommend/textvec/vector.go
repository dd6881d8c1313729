// Feedwise - Personalized News Feed Ranking
// Copyright 2026 Feedwise Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/feedwise/feedwise

package textvec

import "math"

// Vector is a sparse term-weight vector. Absent terms are zero.
type Vector map[string]float64

// Norm returns the Euclidean norm.
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Normalize scales the vector to unit length in place. A zero vector is
// left unchanged.
func (v Vector) Normalize() {
	norm := v.Norm()
	if norm == 0 {
		return
	}
	for t, w := range v {
		v[t] = w / norm
	}
}

// Dot returns the dot product with another vector.
func (v Vector) Dot(other Vector) float64 {
	// Iterate the smaller map.
	a, b := v, other
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for t, w := range a {
		if ow, ok := b[t]; ok {
			sum += w * ow
		}
	}
	return sum
}

// Clone returns a copy of the vector.
func (v Vector) Clone() Vector {
	out := make(Vector, len(v))
	for t, w := range v {
		out[t] = w
	}
	return out
}

// Cosine returns the cosine similarity of two vectors in [0, 1] for
// non-negative weights. Zero-norm vectors yield 0, never an error or NaN.
func Cosine(a, b Vector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0
	}
	sim := a.Dot(b) / (na * nb)
	// Guard against float drift outside [0, 1].
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
