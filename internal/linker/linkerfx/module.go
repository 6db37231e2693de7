package linkerfx

import (
	"log"

	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/embeddings"
	"github.com/0x5457/note-index/internal/index"
	"github.com/0x5457/note-index/internal/linker"
	"github.com/0x5457/note-index/internal/titles"
	"go.uber.org/fx"
)

// Params represents dependencies for the context linker
type Params struct {
	fx.In

	Config   *config.Config
	Embedder embeddings.Embedder
	Index    *index.Index
	Titles   *titles.Index
	Logger   *log.Logger `optional:"true"`
}

// NewLinker creates the context linker over the semantic and title indexes
func NewLinker(params Params) *linker.Linker {
	return linker.New(
		params.Index,
		params.Embedder,
		params.Titles,
		params.Config.Linker,
		params.Logger,
	)
}

// Module provides linker components
var Module = fx.Module("linker",
	fx.Provide(NewLinker),
)
