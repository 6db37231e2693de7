package commands

import (
	"github.com/0x5457/note-index/cmd/cmdsfx"
	"github.com/spf13/cobra"
)

// NewMCPServeCommand starts an MCP server that exposes retrieval and
// linking tools.
func NewMCPServeCommand(flags *globalFlags) *cobra.Command {
	var (
		transport string
		address   string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run MCP server",
		Long:  "Run MCP server, provide context retrieval and linking tools.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return flags.runWithApp(cmd.Context(), func(runner *cmdsfx.CommandRunner) error {
				return runner.RunMCPServer(cmd.Context(), transport, address)
			})
		},
	}

	cmd.Flags().
		StringVarP(&transport, "transport", "t", "stdio", "transport (stdio, http, sse)")
	cmd.Flags().StringVarP(&address, "address", "a", "", "server address (http modes), e.g. :8080")

	return cmd
}
