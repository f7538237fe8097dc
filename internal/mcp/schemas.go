package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// splitTextTool returns the tool definition for split_text
func splitTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "split_text",
		Description: "Split markdown text into hierarchical sections with parent and sibling metadata",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "The markdown text to process. Headings are lines starting with '#' characters (e.g. \"# Header 1\", \"## Header 2\")",
				},
			},
			Required: []string{"text"},
		},
	}
}

// splitFileTool returns the tool definition for split_file
func splitFileTool() mcp.Tool {
	return mcp.Tool{
		Name:        "split_file",
		Description: "Read a markdown file from disk and split it into hierarchical sections",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a markdown file (.md or .markdown)",
				},
			},
			Required: []string{"path"},
		},
	}
}

// indexLibraryTool returns the tool definition for index_library
func indexLibraryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_library",
		Description: "Split every markdown file under a directory and store the sections for search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the library root (must contain markdown files)",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-split all files ignoring content hashes (full rebuild)",
					"default":     false,
				},
				"include_hidden": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, descend into dot-directories",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// searchSectionsTool returns the tool definition for search_sections
func searchSectionsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_sections",
		Description: "Full-text search over the headers and content of indexed sections",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to an indexed library root",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (FTS5 match expression or plain keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"path", "query"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Query indexing status and statistics for a markdown library",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a library root",
				},
			},
			Required: []string{"path"},
		},
	}
}
