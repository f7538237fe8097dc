// Package mcp implements the Model Context Protocol (MCP) server for mdsplit.
//
// The MCP server exposes five tools to AI assistants:
//   - split_text: Split markdown text into hierarchical sections
//   - split_file: Split a markdown file from disk
//   - index_library: Index a directory of markdown files for search
//   - search_sections: Full-text search over indexed sections
//   - get_status: Check indexing status and statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output,
// making it simple to integrate with any MCP-compatible client.
//
// # Tool: split_text
//
// Split raw markdown into sections:
//
//	Request:
//	{
//	  "name": "split_text",
//	  "arguments": {
//	    "text": "# Title\nIntro\n\n## Details\nBody"
//	  }
//	}
//
//	Response (array of sections):
//	[
//	  {
//	    "section_header": "Title",
//	    "section_text": "Intro",
//	    "header_level": 1,
//	    "metadata": {"parents": {}, "siblings": []}
//	  },
//	  {
//	    "section_header": "Details",
//	    "section_text": "Body",
//	    "header_level": 2,
//	    "metadata": {"parents": {"h1": "Title"}, "siblings": []}
//	  }
//	]
//
// A document with no headings yields an empty array. Hash marks inside
// fenced code blocks are never treated as headings.
//
// # Tool: split_file
//
// Same output shape as split_text, reading the input from an absolute
// path to a .md or .markdown file.
//
// # Tool: index_library
//
// Split every markdown file under a directory and persist the sections:
//
//	Request:
//	{
//	  "name": "index_library",
//	  "arguments": {
//	    "path": "/path/to/docs",
//	    "force_reindex": false,
//	    "include_hidden": false
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "files_indexed": 42,
//	  "files_skipped": 7,
//	  "files_failed": 0,
//	  "sections_created": 315,
//	  "duration_ms": 180
//	}
//
// # Tool: search_sections
//
// Full-text search over indexed section headers and content:
//
//	Request:
//	{
//	  "name": "search_sections",
//	  "arguments": {
//	    "path": "/path/to/docs",
//	    "query": "installation steps",
//	    "limit": 10
//	  }
//	}
//
// # Tool: get_status
//
// Check indexing status and statistics for a library root. Returns
// {"indexed": false, ...} rather than an error when the library has
// never been indexed.
//
// # Error Handling
//
// The server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "invalid path",
//	    "data": {"param": "path", "reason": "path does not exist"}
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (split fault, database, filesystem)
//   - -32001: Library not indexed
//   - -32002: Indexing in progress
//   - -32003: Empty query
//
// # Logging
//
// The server logs to stderr; stdout is reserved for the MCP protocol.
package mcp
