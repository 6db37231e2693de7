package commands

import (
	"github.com/0x5457/note-index/cmd/cmdsfx"
	"github.com/spf13/cobra"
)

func NewLinkCommand(flags *globalFlags) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "link [file|-]",
		Short: "Insert [[wiki-link]] markup into a note (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.runWithApp(cmd.Context(), func(runner *cmdsfx.CommandRunner) error {
				return runner.RunLink(cmd.Context(), args[0], write)
			})
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Rewrite the note in place")
	return cmd
}
