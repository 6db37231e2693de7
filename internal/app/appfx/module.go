package appfx

import (
	"log"
	"os"

	"github.com/0x5457/note-index/cmd/cmdsfx"
	"github.com/0x5457/note-index/internal/config/configfx"
	"github.com/0x5457/note-index/internal/embeddings/embeddingsfx"
	"github.com/0x5457/note-index/internal/index/indexfx"
	"github.com/0x5457/note-index/internal/linker/linkerfx"
	"github.com/0x5457/note-index/internal/mcp/mcpfx"
	"github.com/0x5457/note-index/internal/storage/storagefx"
	"github.com/0x5457/note-index/internal/vault/vaultfx"
	"go.uber.org/fx"
)

// NewLogger creates the shared application logger
func NewLogger() *log.Logger {
	return log.New(os.Stderr, "note-index: ", log.LstdFlags)
}

// Module combines all application modules
var Module = fx.Options(
	fx.Provide(NewLogger),
	configfx.Module,
	embeddingsfx.Module,
	storagefx.Module,
	vaultfx.Module,
	indexfx.Module,
	linkerfx.Module,
	mcpfx.Module,
	cmdsfx.Module,
)

// NewAppWithConfig creates an Fx app with the given configuration values.
// The index is built on start and flushed on stop.
func NewAppWithConfig(configPath, vaultPath, cachePath, dbPath string) *fx.App {
	return fx.New(
		Module,
		fx.Supply(
			fx.Annotate(configPath, fx.ResultTags(`name:"configPath"`)),
			fx.Annotate(vaultPath, fx.ResultTags(`name:"vault"`)),
			fx.Annotate(cachePath, fx.ResultTags(`name:"cachePath"`)),
			fx.Annotate(dbPath, fx.ResultTags(`name:"dbPath"`)),
		),
		fx.Invoke(func(lc fx.Lifecycle, indexLifecycle *mcpfx.Lifecycle) {
			lc.Append(fx.Hook{
				OnStart: indexLifecycle.Start,
				OnStop:  indexLifecycle.Stop,
			})
		}),
	)
}

// NewApp creates an Fx app with default configuration
func NewApp() *fx.App {
	return fx.New(Module)
}
