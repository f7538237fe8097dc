package types

import (
	"fmt"
	"regexp"
	"strings"
)

// headerMarker matches the leading '#' run (and surrounding whitespace) of an
// ATX heading. Used to normalize captured header text.
var headerMarker = regexp.MustCompile(`^\s*#+\s*`)

// Content is a raw markdown section capture: a header and the text that
// follows it, before any metadata has been attached.
type Content struct {
	Header string `json:"section_header"`
	Text   string `json:"section_text"`
}

// Metadata carries the hierarchy and provenance information for a section.
//
// Parents maps level labels ("h1", "h2", ...) to the nearest preceding
// ancestor header at that level. Levels with no tracked ancestor are omitted,
// never present with an empty value. Siblings lists the headers of every
// other section with the same level and the same parent chain, in document
// order.
type Metadata struct {
	TokenCount      *int              `json:"token_count,omitempty"`
	ModelVersion    string            `json:"model_version,omitempty"`
	Normalized      bool              `json:"normalized"`
	Error           string            `json:"error,omitempty"`
	OriginalContent *Content          `json:"original_content,omitempty"`
	Parents         map[string]string `json:"parents"`
	Siblings        []string          `json:"siblings"`
}

// Section is one unit of split output: a heading, its content span, and its
// position in the document hierarchy.
type Section struct {
	Header   string   `json:"section_header"`
	Text     string   `json:"section_text"`
	Level    int      `json:"header_level"`
	Metadata Metadata `json:"metadata"`
}

// NewSection builds a Section with a normalized header and initialized
// metadata defaults (empty parents map, empty siblings list).
func NewSection(header string, level int, text string) Section {
	return Section{
		Header:   CleanHeader(header),
		Text:     text,
		Level:    level,
		Metadata: NewMetadata(),
	}
}

// NewMetadata returns metadata with defaults populated so that serialization
// always produces an object for parents and an array for siblings.
func NewMetadata() Metadata {
	return Metadata{
		Parents:  make(map[string]string),
		Siblings: make([]string, 0),
	}
}

// CleanHeader strips a leading '#' run and surrounding whitespace from a
// heading capture. Idempotent: applying it to an already-clean header is a
// no-op.
func CleanHeader(header string) string {
	return strings.TrimSpace(headerMarker.ReplaceAllString(header, ""))
}

// LevelLabel returns the parents-map key for a heading level ("h1", "h2", ...).
func LevelLabel(level int) string {
	return fmt.Sprintf("h%d", level)
}

// Validate checks the structural invariants of a section.
func (s *Section) Validate() error {
	if s.Level < 1 {
		return ErrInvalidLevel
	}
	if s.Metadata.Parents == nil || s.Metadata.Siblings == nil {
		return ErrMetadataNotInitialized
	}
	return nil
}

// ToMarkdown renders the section back to markdown text: the '#' run, the
// header, a blank line, then the content. Used for round-trip testing.
func (s *Section) ToMarkdown() string {
	return fmt.Sprintf("%s %s\n\n%s", strings.Repeat("#", s.Level), s.Header, s.Text)
}

// EstimateTokens estimates the token count of a text span.
// Uses the chars/4 heuristic; good enough for section sizing metadata.
func EstimateTokens(text string) int {
	return len(text) / 4
}
