package commands

import (
	"github.com/0x5457/note-index/cmd/cmdsfx"
	"github.com/spf13/cobra"
)

func NewClearCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop the index and delete its persisted cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.runWithApp(cmd.Context(), func(runner *cmdsfx.CommandRunner) error {
				return runner.RunClear(cmd.Context())
			})
		},
	}
}
