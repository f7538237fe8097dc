package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdsplit/mdsplit-mcp/internal/splitter"
	"github.com/mdsplit/mdsplit-mcp/internal/storage"
)

func newTestIndexer(t *testing.T) (*Indexer, *storage.SQLiteStorage) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "indexer.db")
	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(splitter.New(), store), store
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIndexLibrary_Basic(t *testing.T) {
	idx, store := newTestIndexer(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "guide.md", "# Guide\nintro\n\n## Setup\nsetup steps\n")
	writeFile(t, root, "notes/api.md", "# API\nendpoints\n")
	writeFile(t, root, "ignore.txt", "# not markdown\n")

	stats, err := idx.IndexLibrary(ctx, root, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesSkipped)
	assert.Equal(t, 0, stats.FilesFailed)
	assert.Equal(t, 3, stats.SectionsCreated)
	assert.Empty(t, stats.ErrorMessages)

	lib, err := store.GetLibrary(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 2, lib.TotalDocuments)
	assert.Equal(t, 3, lib.TotalSections)
	assert.False(t, lib.LastIndexedAt.IsZero())

	doc, err := store.GetDocument(ctx, lib.ID, "guide.md")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.SectionCount)

	sections, err := store.ListSectionsByDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	assert.Equal(t, "Guide", sections[0].Header)
	assert.Equal(t, "Setup", sections[1].Header)
}

func TestIndexLibrary_SkipsUnchanged(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "guide.md", "# Guide\ncontent\n")

	stats, err := idx.IndexLibrary(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)

	// Second run with identical content skips the file
	stats, err = idx.IndexLibrary(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.FilesIndexed)
	assert.Equal(t, 1, stats.FilesSkipped)
}

func TestIndexLibrary_ForceReindex(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "guide.md", "# Guide\ncontent\n")

	_, err := idx.IndexLibrary(ctx, root, nil)
	require.NoError(t, err)

	stats, err := idx.IndexLibrary(ctx, root, &Config{ForceReindex: true})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 0, stats.FilesSkipped)
}

func TestIndexLibrary_ReindexChangedFile(t *testing.T) {
	idx, store := newTestIndexer(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "guide.md", "# Guide\ncontent\n")
	_, err := idx.IndexLibrary(ctx, root, nil)
	require.NoError(t, err)

	writeFile(t, root, "guide.md", "# Guide\ncontent\n\n## New Section\nmore\n")
	stats, err := idx.IndexLibrary(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)

	lib, err := store.GetLibrary(ctx, root)
	require.NoError(t, err)
	doc, err := store.GetDocument(ctx, lib.ID, "guide.md")
	require.NoError(t, err)
	assert.Equal(t, 2, doc.SectionCount)
}

func TestIndexLibrary_NoHeadingFiles(t *testing.T) {
	idx, store := newTestIndexer(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "plain.md", "no headings here, just prose\n")

	stats, err := idx.IndexLibrary(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)
	assert.Equal(t, 0, stats.SectionsCreated)

	lib, err := store.GetLibrary(ctx, root)
	require.NoError(t, err)
	doc, err := store.GetDocument(ctx, lib.ID, "plain.md")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.SectionCount)
	assert.Nil(t, doc.SplitError)
}

func TestIndexLibrary_SkipsHiddenDirs(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()
	root := t.TempDir()

	writeFile(t, root, "visible.md", "# Visible\n")
	writeFile(t, root, ".git/hidden.md", "# Hidden\n")

	stats, err := idx.IndexLibrary(ctx, root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.FilesIndexed)

	stats, err = idx.IndexLibrary(ctx, root, &Config{ForceReindex: true, IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FilesIndexed)
}

func TestIndexLibrary_ManyFilesAcrossBatches(t *testing.T) {
	idx, _ := newTestIndexer(t)
	ctx := context.Background()
	root := t.TempDir()

	for i := 0; i < 45; i++ {
		writeFile(t, root, filepath.Join("docs", fmt.Sprintf("doc%02d.md", i)), "# Doc\nbody\n")
	}

	stats, err := idx.IndexLibrary(ctx, root, &Config{Workers: 4, BatchSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 45, stats.FilesIndexed)
	assert.Equal(t, 45, stats.SectionsCreated)
}

func TestIsMarkdownFile(t *testing.T) {
	tests := []struct {
		path     string
		expected bool
	}{
		{"README.md", true},
		{"guide.markdown", true},
		{"GUIDE.MD", true},
		{"main.go", false},
		{"notes.txt", false},
		{"md", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, isMarkdownFile(tt.path))
		})
	}
}
