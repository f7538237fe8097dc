// Package types defines the public data model for markdown splitting.
//
// A Section is the unit of split output: one ATX heading, the content span
// that follows it, and hierarchy metadata (parent chain and siblings). The
// JSON field names (section_header, section_text, header_level, metadata)
// form the wire format returned by the MCP tools.
//
// # Basic Usage
//
//	s := types.NewSection("## Getting Started", 2, "First steps here.")
//	s.Header    // "Getting Started"
//	s.Level     // 2
//	s.Metadata.Parents   // map[string]string{}
//	s.Metadata.Siblings  // []string{}
//
// Headers are normalized on construction: the leading '#' run and
// surrounding whitespace are stripped. CleanHeader is idempotent, so
// already-clean headers pass through unchanged.
//
// # Round-tripping
//
// ToMarkdown renders a section back to markdown text:
//
//	s.ToMarkdown() // "## Getting Started\n\nFirst steps here."
//
// This is used by tests to verify that splitting preserves content; it is
// not needed at runtime.
package types
