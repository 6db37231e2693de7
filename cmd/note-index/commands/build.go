package commands

import (
	"github.com/0x5457/note-index/cmd/cmdsfx"
	"github.com/spf13/cobra"
)

func NewBuildCommand(flags *globalFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the semantic index over the vault",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.runWithApp(cmd.Context(), func(runner *cmdsfx.CommandRunner) error {
				return runner.RunBuild(cmd.Context(), force)
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Rebuild even when a valid cache exists")
	return cmd
}
