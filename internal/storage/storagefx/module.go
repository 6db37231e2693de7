package storagefx

import (
	"context"

	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/storage"
	"github.com/0x5457/note-index/internal/storage/sqlvec"
	"github.com/0x5457/note-index/internal/storage/titledb"
	"go.uber.org/fx"
)

// Result bundles the optional persistent stores. Both are nil when no
// database path is configured; the in-memory snapshot then stands alone.
type Result struct {
	fx.Out

	Vector storage.VectorStore
	Titles storage.TitleStore
}

// NewStores opens the sqlite-backed stores when a database path is set
func NewStores(lc fx.Lifecycle, cfg *config.Config) (Result, error) {
	if cfg.DBPath == "" {
		return Result{}, nil
	}

	vec, err := sqlvec.New(cfg.DBPath, 0)
	if err != nil {
		return Result{}, err
	}
	ttl, err := titledb.New(cfg.DBPath)
	if err != nil {
		_ = vec.Close()
		return Result{}, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			err := vec.Close()
			if terr := ttl.Close(); err == nil {
				err = terr
			}
			return err
		},
	})

	return Result{Vector: vec, Titles: ttl}, nil
}

// Module provides storage components
var Module = fx.Module("storage",
	fx.Provide(NewStores),
)
