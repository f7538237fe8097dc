package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mdsplit/mdsplit-mcp/internal/indexer"
	"github.com/mdsplit/mdsplit-mcp/internal/splitter"
	"github.com/mdsplit/mdsplit-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "mdsplit-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the database
	DefaultDBPath = "~/.mdsplit/indices"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	splitter *splitter.Splitter
	storage  storage.Storage
	indexer  *indexer.Indexer
}

// NewServer creates a new MCP server instance
func NewServer(dbPath string) (*Server, error) {
	// Expand home directory if needed
	if dbPath == "" || dbPath == DefaultDBPath {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".mdsplit", "indices")
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dbFile := filepath.Join(dbPath, "mdsplit.db")

	// Initialize storage
	store, err := storage.NewSQLiteStorage(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// One splitter instance is shared across all requests. Splitting is
	// stateless, so this is a convenience, not a correctness requirement.
	split := splitter.New()

	// Create indexer
	idx := indexer.New(split, store)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		splitter: split,
		storage:  store,
		indexer:  idx,
	}

	// Register tools
	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	// Register split_text tool
	s.mcp.AddTool(splitTextTool(), s.handleSplitText)

	// Register split_file tool
	s.mcp.AddTool(splitFileTool(), s.handleSplitFile)

	// Register index_library tool
	s.mcp.AddTool(indexLibraryTool(), s.handleIndexLibrary)

	// Register search_sections tool
	s.mcp.AddTool(searchSectionsTool(), s.handleSearchSections)

	// Register get_status tool
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)

	return nil
}
