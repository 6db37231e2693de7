package commands

import (
	"github.com/0x5457/note-index/cmd/cmdsfx"
	"github.com/spf13/cobra"
)

func NewStatsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.runWithApp(cmd.Context(), func(runner *cmdsfx.CommandRunner) error {
				return runner.RunStats(cmd.Context())
			})
		},
	}
}
