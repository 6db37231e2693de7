// Package mcp exposes the note index over the Model Context Protocol so
// editor agents can retrieve context and link notes without a local build.
package mcp

import (
	"context"
	"fmt"

	"github.com/0x5457/note-index/internal/index"
	"github.com/0x5457/note-index/internal/linker"
	"github.com/0x5457/note-index/internal/titles"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wires the indexing core behind MCP tools.
type Server struct {
	server *server.MCPServer
	index  *index.Index
	linker *linker.Linker
	titles *titles.Index
}

// New returns an MCP server exposing retrieval, linking, title search and
// stats tools over the given components.
func New(idx *index.Index, lnk *linker.Linker, ttl *titles.Index) *server.MCPServer {
	srv := &Server{
		server: server.NewMCPServer(
			"note-index/mcp",
			"0.1.0",
			server.WithToolCapabilities(true),
		),
		index:  idx,
		linker: lnk,
		titles: ttl,
	}

	srv.server.AddTool(newRetrieveContextTool(), srv.handleRetrieveContext)
	srv.server.AddTool(newApplyLinksTool(), srv.handleApplyLinks)
	srv.server.AddTool(newTitleSearchTool(), srv.handleTitleSearch)
	srv.server.AddTool(newIndexStatsTool(), srv.handleIndexStats)

	return srv.server
}

// Tool definitions
func newRetrieveContextTool() mcp.Tool {
	return mcp.NewTool(
		"retrieve_context",
		mcp.WithDescription("Retrieve note passages semantically related to the given text"),
		mcp.WithString("text", mcp.Description("Text to find related passages for"), mcp.Required()),
	)
}

func newApplyLinksTool() mcp.Tool {
	return mcp.NewTool(
		"apply_links",
		mcp.WithDescription("Insert [[wiki-link]] markup for related and exactly-titled notes"),
		mcp.WithString("text", mcp.Description("Note text to link"), mcp.Required()),
	)
}

func newTitleSearchTool() mcp.Tool {
	return mcp.NewTool(
		"title_search",
		mcp.WithDescription("Exact note title lookup, punctuation and case insensitive"),
		mcp.WithString("title", mcp.Description("Title to look up"), mcp.Required()),
	)
}

func newIndexStatsTool() mcp.Tool {
	return mcp.NewTool(
		"index_stats",
		mcp.WithDescription("Report indexed document and chunk counts"),
	)
}

// Handlers
func (srv *Server) handleRetrieveContext(
	ctx context.Context,
	req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if srv.index == nil {
		return mcp.NewToolResultError("index not initialized"), nil
	}
	passages := srv.index.RetrieveContext(ctx, text)
	return mcp.NewToolResultStructuredOnly(map[string]any{"passages": passages}), nil
}

func (srv *Server) handleApplyLinks(
	ctx context.Context,
	req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if srv.linker == nil {
		return mcp.NewToolResultError("linker not initialized"), nil
	}
	res := srv.linker.Apply(ctx, text)
	return mcp.NewToolResultStructuredOnly(res), nil
}

func (srv *Server) handleTitleSearch(
	ctx context.Context,
	req mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if srv.titles == nil {
		return mcp.NewToolResultError("title index not initialized"), nil
	}
	entries, err := srv.titles.Entries(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("title index unavailable: %v", err)), nil
	}
	want := titles.Normalize(title)
	var docs []string
	for _, e := range entries {
		if e.Normalized == want {
			docs = append(docs, e.Doc)
		}
	}
	return mcp.NewToolResultStructuredOnly(map[string]any{"documents": docs}), nil
}

func (srv *Server) handleIndexStats(
	_ context.Context,
	_ mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	if srv.index == nil {
		return mcp.NewToolResultError("index not initialized"), nil
	}
	return mcp.NewToolResultStructuredOnly(srv.index.Stats()), nil
}
