// Package splitter divides markdown text into hierarchical sections keyed by
// ATX heading level.
//
// Splitting runs in two explicit passes. The first pass classifies lines and
// groups them into (header, level, content) sections: a stateful scan that
// tracks whether the cursor is inside a fenced code block, so '#' lines
// inside fences are never treated as headings. The second pass is a pure
// computation over the finished section list: it assigns each section its
// parent chain (nearest preceding ancestor per level) and its sibling list
// (other sections at the same level under the same parent chain).
//
// # Basic Usage
//
//	s := splitter.New()
//	sections, err := s.Split(text)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, sec := range sections {
//	    fmt.Printf("%s (h%d): %d parents, %d siblings\n",
//	        sec.Header, sec.Level,
//	        len(sec.Metadata.Parents), len(sec.Metadata.Siblings))
//	}
//
// # Splitting Rules
//
//   - A heading is a '#' run at column zero followed by whitespace or end of
//     line. Indented '#' lines are content.
//   - Level = length of the '#' run; header text is the remainder, trimmed.
//   - Section content is the verbatim text up to the next heading, with
//     leading and trailing blank lines stripped.
//   - Text before the first heading produces no section.
//   - Fences open on three or more backticks or tildes (optionally with a
//     language tag) and close only on the same fence character. An
//     unterminated fence swallows the rest of the document.
//
// # Error Handling
//
// Malformed input is not an error: no headings, unterminated fences, or an
// empty string all yield a valid (possibly empty) result. Split only returns
// an error on an internal scan fault, so callers can distinguish "zero
// sections" from "processing failed".
package splitter
