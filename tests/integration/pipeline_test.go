package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mdsplit/mdsplit-mcp/internal/indexer"
	"github.com/mdsplit/mdsplit-mcp/internal/splitter"
	"github.com/mdsplit/mdsplit-mcp/internal/storage"
)

// PipelineTestSuite exercises the full split -> index -> search pipeline
// against the markdown fixture library.
type PipelineTestSuite struct {
	suite.Suite
	storage     storage.Storage
	indexer     *indexer.Indexer
	fixturesDir string
	ctx         context.Context
}

// SetupSuite runs once before all tests
func (s *PipelineTestSuite) SetupSuite() {
	s.ctx = context.Background()

	// Get fixtures directory
	wd, err := os.Getwd()
	s.Require().NoError(err)
	s.fixturesDir = filepath.Join(filepath.Dir(wd), "testdata", "fixtures")

	// Verify fixtures exist
	_, err = os.Stat(s.fixturesDir)
	s.Require().NoError(err, "fixtures directory should exist")
}

// SetupTest runs before each test
func (s *PipelineTestSuite) SetupTest() {
	dbPath := filepath.Join(s.T().TempDir(), "pipeline.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	s.Require().NoError(err)
	s.storage = store

	s.indexer = indexer.New(splitter.New(), s.storage)
}

// TearDownTest runs after each test
func (s *PipelineTestSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

// TestFullIndexing indexes the fixture library and checks stored documents
func (s *PipelineTestSuite) TestFullIndexing() {
	stats, err := s.indexer.IndexLibrary(s.ctx, s.fixturesDir, &indexer.Config{
		Workers:   2,
		BatchSize: 10,
	})
	s.Require().NoError(err, "indexing should succeed")
	s.NotNil(stats)

	// readme.md, guide/install.md, guide/troubleshooting.md
	s.Equal(3, stats.FilesIndexed)
	s.Equal(0, stats.FilesFailed)
	s.Equal(10, stats.SectionsCreated)
	s.Empty(stats.ErrorMessages)

	lib, err := s.storage.GetLibrary(s.ctx, s.fixturesDir)
	s.Require().NoError(err)
	s.Equal(3, lib.TotalDocuments)
	s.Equal(10, lib.TotalSections)

	docs, err := s.storage.ListDocuments(s.ctx, lib.ID)
	s.Require().NoError(err)
	s.Len(docs, 3)

	doc, err := s.storage.GetDocument(s.ctx, lib.ID, filepath.Join("guide", "install.md"))
	s.Require().NoError(err)
	s.Equal(4, doc.SectionCount)
}

// TestHierarchyPersistence verifies parent and sibling metadata survive
// the storage round trip
func (s *PipelineTestSuite) TestHierarchyPersistence() {
	_, err := s.indexer.IndexLibrary(s.ctx, s.fixturesDir, nil)
	s.Require().NoError(err)

	lib, err := s.storage.GetLibrary(s.ctx, s.fixturesDir)
	s.Require().NoError(err)

	doc, err := s.storage.GetDocument(s.ctx, lib.ID, filepath.Join("guide", "install.md"))
	s.Require().NoError(err)

	stored, err := s.storage.ListSectionsByDocument(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(stored, 4)

	steps, err := stored[2].ToTypesSection()
	s.Require().NoError(err)
	s.Equal("Steps", steps.Header)
	s.Equal(2, steps.Level)
	s.Equal(map[string]string{"h1": "Installation Guide"}, steps.Metadata.Parents)
	s.ElementsMatch([]string{"Prerequisites", "Verification"}, steps.Metadata.Siblings)

	// Hash marks inside the fenced block stay in the section text
	s.Contains(steps.Text, "# this hash mark is a shell comment")
}

// TestSearchAfterIndexing verifies FTS results come back scoped to the library
func (s *PipelineTestSuite) TestSearchAfterIndexing() {
	_, err := s.indexer.IndexLibrary(s.ctx, s.fixturesDir, nil)
	s.Require().NoError(err)

	lib, err := s.storage.GetLibrary(s.ctx, s.fixturesDir)
	s.Require().NoError(err)

	results, err := s.storage.SearchSections(s.ctx, lib.ID, "installer", 10)
	s.Require().NoError(err)
	s.Require().NotEmpty(results)
	s.Equal("Steps", results[0].Header)
	s.Equal(filepath.Join("guide", "install.md"), results[0].FilePath)

	results, err = s.storage.SearchSections(s.ctx, lib.ID, "locked", 10)
	s.Require().NoError(err)
	s.Require().NotEmpty(results)
	s.Equal("Database locked", results[0].Header)

	results, err = s.storage.SearchSections(s.ctx, lib.ID, "nonexistentterm", 10)
	s.Require().NoError(err)
	s.Empty(results)
}

// TestIncrementalReindex verifies unchanged fixtures are skipped on a second run
func (s *PipelineTestSuite) TestIncrementalReindex() {
	stats, err := s.indexer.IndexLibrary(s.ctx, s.fixturesDir, nil)
	s.Require().NoError(err)
	s.Equal(3, stats.FilesIndexed)

	stats, err = s.indexer.IndexLibrary(s.ctx, s.fixturesDir, nil)
	s.Require().NoError(err)
	s.Equal(0, stats.FilesIndexed)
	s.Equal(3, stats.FilesSkipped)

	stats, err = s.indexer.IndexLibrary(s.ctx, s.fixturesDir, &indexer.Config{ForceReindex: true})
	s.Require().NoError(err)
	s.Equal(3, stats.FilesIndexed)

	lib, err := s.storage.GetLibrary(s.ctx, s.fixturesDir)
	s.Require().NoError(err)
	s.Equal(10, lib.TotalSections, "force reindex must not duplicate sections")
}

// TestStatusReporting verifies GetStatus aggregates after indexing
func (s *PipelineTestSuite) TestStatusReporting() {
	_, err := s.indexer.IndexLibrary(s.ctx, s.fixturesDir, nil)
	s.Require().NoError(err)

	lib, err := s.storage.GetLibrary(s.ctx, s.fixturesDir)
	s.Require().NoError(err)

	status, err := s.storage.GetStatus(s.ctx, lib.ID)
	s.Require().NoError(err)
	s.Equal(3, status.DocumentsCount)
	s.Equal(10, status.SectionsCount)
	s.True(status.Health.DatabaseAccessible)
	s.True(status.Health.FTSIndexBuilt)
}

func TestPipelineTestSuite(t *testing.T) {
	suite.Run(t, new(PipelineTestSuite))
}
