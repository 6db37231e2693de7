package embeddingsfx

import (
	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/embeddings"
	"go.uber.org/fx"
)

// NewEmbedder creates the embedding provider selected by configuration
func NewEmbedder(cfg *config.Config) embeddings.Embedder {
	return embeddings.New(cfg.Embedding)
}

// Module provides embedding components
var Module = fx.Module("embeddings",
	fx.Provide(NewEmbedder),
)
