package mcpfx

import (
	"context"
	"fmt"

	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/index"
	"github.com/0x5457/note-index/internal/linker"
	appmcp "github.com/0x5457/note-index/internal/mcp"
	"github.com/0x5457/note-index/internal/titles"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
)

// Params represents dependencies for MCP server
type Params struct {
	fx.In

	Index  *index.Index
	Linker *linker.Linker
	Titles *titles.Index
}

// NewMCPServer creates a new MCP server instance
func NewMCPServer(params Params) *server.MCPServer {
	return appmcp.New(params.Index, params.Linker, params.Titles)
}

// Lifecycle manages index lifecycle around the application
type Lifecycle struct {
	index  *index.Index
	config *config.Config
}

// NewLifecycle creates a new lifecycle manager
func NewLifecycle(idx *index.Index, cfg *config.Config) *Lifecycle {
	return &Lifecycle{index: idx, config: cfg}
}

// Start builds the index up front when a vault is configured
func (m *Lifecycle) Start(ctx context.Context) error {
	if m.config.Vault == "" || m.config.Indexing.Disabled {
		return nil
	}
	if err := m.index.Build(ctx, false); err != nil {
		return fmt.Errorf("build index failed: %w", err)
	}
	return nil
}

// Stop flushes any pending debounced save
func (m *Lifecycle) Stop(ctx context.Context) error {
	return m.index.Flush()
}

// Module provides MCP server components
var Module = fx.Module("mcp",
	fx.Provide(
		NewMCPServer,
		NewLifecycle,
	),
)
