package indexfx

import (
	"log"

	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/embeddings"
	"github.com/0x5457/note-index/internal/index"
	"github.com/0x5457/note-index/internal/storage"
	"github.com/0x5457/note-index/internal/titles"
	"github.com/0x5457/note-index/internal/vault"
	"go.uber.org/fx"
)

// Params represents dependencies for the semantic index
type Params struct {
	fx.In

	Config   *config.Config
	Embedder embeddings.Embedder
	Vault    *vault.Vault
	Vector   storage.VectorStore `optional:"true"`
	Titles   storage.TitleStore  `optional:"true"`
	Logger   *log.Logger         `optional:"true"`
}

// NewIndex creates the semantic index over the vault
func NewIndex(params Params) *index.Index {
	return index.New(
		params.Config,
		params.Embedder,
		params.Vault,
		params.Vector,
		params.Titles,
		params.Logger,
	)
}

// NewTitleIndex creates the exact-title index over the vault
func NewTitleIndex(v *vault.Vault) *titles.Index {
	return titles.NewIndex(v)
}

// Module provides index components
var Module = fx.Module("index",
	fx.Provide(
		NewIndex,
		NewTitleIndex,
	),
)
