// Package embedder converts summary text into fixed-length vectors.
package embedder

import (
	"context"
	"log/slog"

	"github.com/dharnesh67/neurohub/internal/batch"
	"github.com/dharnesh67/neurohub/internal/port"
)

// Dimension is the fixed embedding dimensionality of this system.
const Dimension = 768

// Embedder wraps the AI provider with truncation, retry and a dimension
// check.
type Embedder struct {
	ai        port.AIProvider
	dimension int
	maxChars  int
	retry     batch.RetryConfig
}

// New creates an embedder. dimension and maxChars fall back to defaults when
// non-positive.
func New(ai port.AIProvider, dimension, maxChars int, retry batch.RetryConfig) *Embedder {
	if dimension <= 0 {
		dimension = Dimension
	}
	if maxChars <= 0 {
		maxChars = 5000
	}
	return &Embedder{ai: ai, dimension: dimension, maxChars: maxChars, retry: retry}
}

// Dimension returns the expected vector length.
func (e *Embedder) Dimension() int {
	return e.dimension
}

// Embed converts text into a vector of exactly the configured dimension.
// It fails softly: on any error, or on a vector of the wrong length, it logs
// and returns an empty slice so the caller can persist a null-vector record
// instead of losing the summary entirely.
//
// Input is truncated to the embedding model's input limit, which is
// independent of the chunker's window size.
func (e *Embedder) Embed(ctx context.Context, text string) []float32 {
	if text == "" {
		return nil
	}
	if runes := []rune(text); len(runes) > e.maxChars {
		text = string(runes[:e.maxChars])
	}

	vector, err := batch.Retry(ctx, e.retry, func(ctx context.Context) ([]float32, error) {
		return e.ai.Embed(ctx, text)
	})
	if err != nil {
		slog.Warn("embedding failed", "error", err)
		return nil
	}
	if len(vector) != e.dimension {
		slog.Warn("embedding dimension mismatch", "want", e.dimension, "got", len(vector))
		return nil
	}
	return vector
}
