package configfx

import (
	"context"
	"testing"

	"github.com/0x5457/note-index/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestConfigModule(t *testing.T) {
	var cfg *config.Config
	app := fx.New(
		Module,
		fx.Supply(
			fx.Annotate("", fx.ResultTags(`name:"configPath"`)),
			fx.Annotate("/tmp/vault", fx.ResultTags(`name:"vault"`)),
			fx.Annotate("/tmp/cache.json", fx.ResultTags(`name:"cachePath"`)),
			fx.Annotate("", fx.ResultTags(`name:"dbPath"`)),
		),
		fx.Populate(&cfg),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer func() {
		require.NoError(t, app.Stop(ctx))
	}()

	assert.NotNil(t, cfg)
	assert.Equal(t, "/tmp/vault", cfg.Vault)
	assert.Equal(t, "/tmp/cache.json", cfg.CachePath)
	assert.Equal(t, "", cfg.DBPath)
}

func TestConfigDefaults(t *testing.T) {
	var cfg *config.Config
	app := fx.New(
		Module,
		fx.Supply(
			fx.Annotate("", fx.ResultTags(`name:"configPath"`)),
			fx.Annotate("", fx.ResultTags(`name:"vault"`)),
			fx.Annotate("", fx.ResultTags(`name:"cachePath"`)),
			fx.Annotate("", fx.ResultTags(`name:"dbPath"`)),
		),
		fx.Populate(&cfg),
	)

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	defer func() {
		require.NoError(t, app.Stop(ctx))
	}()

	assert.NotNil(t, cfg)
	assert.Equal(t, 256, cfg.Indexing.ChunkSize)   // Default value
	assert.Equal(t, 32, cfg.Indexing.ChunkOverlap) // Default value
	assert.InDelta(t, 0.78, cfg.Linker.Threshold, 1e-6)
}
