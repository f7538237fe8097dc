package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mdsplit/mdsplit-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying split markdown
type Storage interface {
	// Library operations
	CreateLibrary(ctx context.Context, library *Library) error
	GetLibrary(ctx context.Context, rootPath string) (*Library, error)
	UpdateLibrary(ctx context.Context, library *Library) error

	// Document operations
	UpsertDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, libraryID int64, filePath string) (*Document, error)
	ListDocuments(ctx context.Context, libraryID int64) ([]*Document, error)
	DeleteDocument(ctx context.Context, documentID int64) error

	// Section operations
	ReplaceSections(ctx context.Context, documentID int64, sections []types.Section) error
	ListSectionsByDocument(ctx context.Context, documentID int64) ([]*Section, error)

	// Search operations
	SearchSections(ctx context.Context, libraryID int64, query string, limit int) ([]SearchResult, error)

	// Status operations
	GetStatus(ctx context.Context, libraryID int64) (*LibraryStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Library represents an indexed tree of markdown documents
type Library struct {
	ID             int64
	RootPath       string
	TotalDocuments int
	TotalSections  int
	IndexVersion   string
	LastIndexedAt  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Document represents a tracked markdown file
type Document struct {
	ID            int64
	LibraryID     int64
	FilePath      string // Relative to library root
	ContentHash   [32]byte
	ModTime       time.Time
	SizeBytes     int64
	SplitError    *string // Nullable
	SectionCount  int
	LastIndexedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Section is the stored form of a split section. Parents and Siblings are
// kept as JSON text so the stored shape matches the wire shape exactly.
type Section struct {
	ID         int64
	DocumentID int64
	Position   int // 0-based document order
	Header     string
	Level      int
	Content    string
	Parents    string // JSON object
	Siblings   string // JSON array
	TokenCount int
	CreatedAt  time.Time
}

// SearchResult represents a full-text search hit over indexed sections
type SearchResult struct {
	SectionID  int64
	DocumentID int64
	FilePath   string
	Header     string
	Level      int
	Content    string
	Rank       int // Position in result set (1-based)
}

// LibraryStatus contains statistics about an indexed library
type LibraryStatus struct {
	Library        *Library
	DocumentsCount int
	SectionsCount  int
	IndexSizeMB    float64
	LastIndexedAt  time.Time
	Health         HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexBuilt      bool
}

// FromTypesSection converts a split result to its stored form
func FromTypesSection(sec types.Section, documentID int64, position int) (*Section, error) {
	parents, err := json.Marshal(sec.Metadata.Parents)
	if err != nil {
		return nil, err
	}
	siblings, err := json.Marshal(sec.Metadata.Siblings)
	if err != nil {
		return nil, err
	}

	tokens := types.EstimateTokens(sec.Text)
	return &Section{
		DocumentID: documentID,
		Position:   position,
		Header:     sec.Header,
		Level:      sec.Level,
		Content:    sec.Text,
		Parents:    string(parents),
		Siblings:   string(siblings),
		TokenCount: tokens,
	}, nil
}

// ToTypesSection converts a stored section back to the wire model
func (s *Section) ToTypesSection() (types.Section, error) {
	sec := types.NewSection(s.Header, s.Level, s.Content)
	if s.Parents != "" {
		if err := json.Unmarshal([]byte(s.Parents), &sec.Metadata.Parents); err != nil {
			return types.Section{}, err
		}
	}
	if s.Siblings != "" {
		if err := json.Unmarshal([]byte(s.Siblings), &sec.Metadata.Siblings); err != nil {
			return types.Section{}, err
		}
	}
	tokens := s.TokenCount
	sec.Metadata.TokenCount = &tokens
	return sec, nil
}
