package cmdsfx

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/0x5457/note-index/internal/config"
	"github.com/0x5457/note-index/internal/index"
	"github.com/0x5457/note-index/internal/linker"
	"github.com/0x5457/note-index/internal/models"
	"github.com/0x5457/note-index/internal/titles"
	"github.com/0x5457/note-index/internal/vault"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/fx"
)

// CommandRunner provides methods to run different application commands
type CommandRunner struct {
	config    *config.Config
	index     *index.Index
	linker    *linker.Linker
	titles    *titles.Index
	vault     *vault.Vault
	mcpServer *server.MCPServer
}

// Params represents dependencies for command runner
type Params struct {
	fx.In

	Config    *config.Config
	Index     *index.Index      `optional:"true"`
	Linker    *linker.Linker    `optional:"true"`
	Titles    *titles.Index     `optional:"true"`
	Vault     *vault.Vault      `optional:"true"`
	MCPServer *server.MCPServer `optional:"true"`
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(params Params) *CommandRunner {
	return &CommandRunner{
		config:    params.Config,
		index:     params.Index,
		linker:    params.Linker,
		titles:    params.Titles,
		vault:     params.Vault,
		mcpServer: params.MCPServer,
	}
}

func (r *CommandRunner) ensureBuilt(ctx context.Context) error {
	if r.index == nil {
		return fmt.Errorf("index not available")
	}
	if r.index.IsBuilt() {
		return nil
	}
	return r.index.Build(ctx, false)
}

// RunBuild executes the build command
func (r *CommandRunner) RunBuild(ctx context.Context, force bool) error {
	if r.index == nil {
		return fmt.Errorf("index not available")
	}
	if err := r.index.Build(ctx, force); err != nil {
		return err
	}
	stats := r.index.Stats()
	fmt.Printf("indexed %d documents (%d chunks) with %s\n",
		stats.TotalDocuments, stats.TotalChunks, stats.Provider)
	return nil
}

// RunSearch executes semantic search
func (r *CommandRunner) RunSearch(ctx context.Context, query string, topK int) error {
	if err := r.ensureBuilt(ctx); err != nil {
		return err
	}

	hits, err := r.index.Search(ctx, query, topK)
	if err != nil {
		return err
	}

	for i, hit := range hits {
		fmt.Printf("Result %d (score: %.4f):\n", i+1, hit.Score)
		fmt.Printf("Note: %s\n", hit.Chunk.Doc)
		fmt.Printf("Content: %s\n\n", hit.Chunk.Text)
	}

	return nil
}

// RunTitleSearch executes exact title lookup
func (r *CommandRunner) RunTitleSearch(ctx context.Context, title string) error {
	if r.titles == nil {
		return fmt.Errorf("title index not available")
	}

	entries, err := r.titles.Entries(ctx)
	if err != nil {
		return err
	}
	want := titles.Normalize(title)
	found := 0
	for _, e := range entries {
		if e.Normalized == want {
			fmt.Printf("%s (%s)\n", e.Title, e.Doc)
			found++
		}
	}
	if found == 0 {
		fmt.Println("no matching note")
	}
	return nil
}

// RunLink inserts link markup into the note at path. With write set the
// note is rewritten in place, otherwise the result goes to stdout.
func (r *CommandRunner) RunLink(ctx context.Context, path string, write bool) error {
	if r.linker == nil {
		return fmt.Errorf("linker not available")
	}
	if err := r.ensureBuilt(ctx); err != nil {
		return err
	}

	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
		write = false
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	res := r.linker.Apply(ctx, string(data))
	if !write {
		fmt.Print(res.Text)
		if res.MatchCount > 0 {
			fmt.Fprintf(os.Stderr, "%d links inserted\n", res.MatchCount)
		}
		return nil
	}
	if res.MatchCount == 0 {
		fmt.Println("no links inserted")
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(res.Text), info.Mode()); err != nil {
		return err
	}
	fmt.Printf("%d links inserted into %s\n", res.MatchCount, path)
	return nil
}

// RunWatch builds the index and keeps it current as the vault changes
func (r *CommandRunner) RunWatch(ctx context.Context) error {
	if r.vault == nil {
		return fmt.Errorf("vault not available")
	}
	if err := r.ensureBuilt(ctx); err != nil {
		return err
	}

	w := vault.NewWatcher(r.vault,
		func(doc models.Document) {
			if err := r.index.UpdateFile(ctx, doc.ID, doc.Content, doc.ModTime); err != nil {
				fmt.Fprintf(os.Stderr, "update %s: %v\n", doc.ID, err)
			}
			if r.titles != nil {
				r.titles.MarkDirty()
			}
		},
		func(docID string) {
			if err := r.index.RemoveFile(docID); err != nil {
				fmt.Fprintf(os.Stderr, "remove %s: %v\n", docID, err)
			}
			if r.titles != nil {
				r.titles.MarkDirty()
			}
		},
		nil,
	)
	fmt.Printf("watching %s\n", r.vault.Root())
	err := w.Run(ctx)
	if ferr := r.index.Flush(); ferr != nil {
		fmt.Fprintf(os.Stderr, "flush: %v\n", ferr)
	}
	return err
}

// RunStats prints index statistics
func (r *CommandRunner) RunStats(ctx context.Context) error {
	if r.index == nil {
		return fmt.Errorf("index not available")
	}
	stats := r.index.Stats()
	fmt.Printf("built:     %v\n", stats.IsBuilt)
	fmt.Printf("documents: %d\n", stats.TotalDocuments)
	fmt.Printf("chunks:    %d\n", stats.TotalChunks)
	fmt.Printf("provider:  %s\n", stats.Provider)
	return nil
}

// RunClear removes the index snapshot and its persisted cache
func (r *CommandRunner) RunClear(ctx context.Context) error {
	if r.index == nil {
		return fmt.Errorf("index not available")
	}
	if err := r.index.Clear(); err != nil {
		return err
	}
	fmt.Println("index cleared")
	return nil
}

// RunMCPServer executes the MCP server
func (r *CommandRunner) RunMCPServer(ctx context.Context, transport, address string) error {
	if r.mcpServer == nil {
		return fmt.Errorf("MCP server not available")
	}
	if r.config.Vault != "" && !r.config.Indexing.Disabled {
		if err := r.ensureBuilt(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "initial build failed, serving degraded: %v\n", err)
		}
	}

	switch transport {
	case "stdio":
		return server.ServeStdio(r.mcpServer)
	case "http":
		// Streamable HTTP server on address, default ":8080" if empty
		addr := address
		if addr == "" {
			addr = ":8080"
		}
		httpSrv := server.NewStreamableHTTPServer(r.mcpServer)
		return httpSrv.Start(addr)
	case "sse":
		// SSE server exposes two endpoints; default base path "/mcp"
		addr := address
		if addr == "" {
			addr = ":8080"
		}
		sseSrv := server.NewSSEServer(r.mcpServer,
			server.WithBaseURL(""),
			server.WithStaticBasePath("/mcp"),
		)
		return sseSrv.Start(addr)
	default:
		return fmt.Errorf(
			"unsupported transport: %s (supported: stdio, http, sse)",
			transport,
		)
	}
}

// Module provides command runner
var Module = fx.Module("commands",
	fx.Provide(NewCommandRunner),
)
