package commands

import (
	"context"
	"fmt"

	"github.com/0x5457/note-index/internal/app/appfx"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// globalFlags holds flags shared by every subcommand
type globalFlags struct {
	configPath string
	vaultPath  string
	cachePath  string
	dbPath     string
}

func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "note-index",
		Short: "Semantic index and context linker for a notes vault",
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Config file path")
	root.PersistentFlags().StringVar(&flags.vaultPath, "vault", "", "Vault root directory")
	root.PersistentFlags().StringVar(&flags.cachePath, "cache", "", "Index cache file path")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "Optional SQLite database path")

	root.AddCommand(
		NewBuildCommand(flags),
		NewSearchCommand(flags),
		NewLinkCommand(flags),
		NewWatchCommand(flags),
		NewStatsCommand(flags),
		NewClearCommand(flags),
		NewMCPServeCommand(flags),
	)
	return root
}

// runWithApp assembles the Fx app with the flag overrides, runs the invoke
// function and tears the app back down.
func (g *globalFlags) runWithApp(ctx context.Context, invoke interface{}) error {
	app := fx.New(
		appfx.Module,
		fx.Supply(
			fx.Annotate(g.configPath, fx.ResultTags(`name:"configPath"`)),
			fx.Annotate(g.vaultPath, fx.ResultTags(`name:"vault"`)),
			fx.Annotate(g.cachePath, fx.ResultTags(`name:"cachePath"`)),
			fx.Annotate(g.dbPath, fx.ResultTags(`name:"dbPath"`)),
		),
		fx.NopLogger,
		fx.Invoke(invoke),
	)

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		return fmt.Errorf("failed to stop application: %w", err)
	}
	return nil
}
