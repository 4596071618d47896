// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package embed turns cleaned paper text into fixed-dimension dense
// vectors via an embedding service.
package embed

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrEmbeddingFailed reports that no usable vector could be produced,
// for example from empty text or a dimension mismatch.
var ErrEmbeddingFailed = errors.New("embedding failed")

// Generator produces a dense vector for a piece of cleaned text. The
// vector length is fixed per corpus; vectors are recomputed, never
// mutated, when a paper's text changes.
type Generator interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Normalize scales a vector to unit length so cosine similarity can be
// computed as a dot product. A zero vector is returned unchanged.
func Normalize(vec []float32) []float32 {
	var mag float64
	for _, v := range vec {
		mag += float64(v) * float64(v)
	}
	mag = math.Sqrt(mag)
	if mag == 0 {
		return vec
	}
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) / mag)
	}
	return out
}

// checkDimension wraps ErrEmbeddingFailed when the service returned a
// vector of the wrong length.
func checkDimension(vec []float32, want int) error {
	if len(vec) != want {
		return fmt.Errorf("%w: got %d dimensions, want %d", ErrEmbeddingFailed, len(vec), want)
	}
	return nil
}
