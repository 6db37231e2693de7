// Package embeddings converts text into fixed-length numeric vectors via a
// configurable provider.
package embeddings

import (
	"context"
	"errors"
)

// ErrNotConfigured reports missing credentials or endpoint for the selected
// provider. It is surfaced at the point of first use and never retried.
var ErrNotConfigured = errors.New("embeddings: provider not configured")

// ErrNetworkUnavailable marks failures caused by the network being down or
// the endpoint unreachable, so callers can degrade silently instead of
// alarming the user.
var ErrNetworkUnavailable = errors.New("embeddings: network unavailable")

// Embedder converts text to embedding vectors.
//
// EmbedBatch is order-preserving and returns exactly one vector per input.
// Dimensions may return 0 until the provider has learned its dimensionality
// from a first response.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
	Dimensions() int
}
