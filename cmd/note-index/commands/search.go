package commands

import (
	"github.com/0x5457/note-index/cmd/cmdsfx"
	"github.com/spf13/cobra"
)

func NewSearchCommand(flags *globalFlags) *cobra.Command {
	var (
		topK  int
		title bool
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search notes: semantic (default) or exact title",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			return flags.runWithApp(cmd.Context(), func(runner *cmdsfx.CommandRunner) error {
				if title {
					return runner.RunTitleSearch(cmd.Context(), query)
				}
				return runner.RunSearch(cmd.Context(), query, topK)
			})
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 5, "Top K results")
	cmd.Flags().BoolVar(&title, "title", false, "Use exact title lookup")
	return cmd
}
