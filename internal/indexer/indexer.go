package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mdsplit/mdsplit-mcp/internal/splitter"
	"github.com/mdsplit/mdsplit-mcp/internal/storage"
)

// ErrIndexingInProgress is returned when another indexing run holds the lock
var ErrIndexingInProgress = errors.New("indexing already in progress")

// Indexer coordinates the indexing pipeline: discover -> split -> store
type Indexer struct {
	splitter *splitter.Splitter
	storage  storage.Storage
	lock     IndexLock

	// Worker pool configuration
	workers int
}

// Config contains configuration for the indexer
type Config struct {
	Workers       int  // Number of concurrent workers (default: runtime.NumCPU())
	BatchSize     int  // Number of files to commit per transaction (default: 20)
	ForceReindex  bool // Re-split all files ignoring content hashes
	IncludeHidden bool // Whether to descend into dot-directories (default: false)
}

// Statistics contains statistics about an indexing operation
type Statistics struct {
	FilesIndexed    int
	FilesSkipped    int
	FilesFailed     int
	SectionsCreated int
	Duration        time.Duration
	ErrorMessages   []string
}

// New creates a new Indexer instance
func New(split *splitter.Splitter, store storage.Storage) *Indexer {
	return &Indexer{
		splitter: split,
		storage:  store,
		workers:  runtime.NumCPU(),
	}
}

// IndexLibrary splits every markdown file under rootPath and stores the
// resulting documents and sections. Files whose content hash is unchanged
// are skipped unless ForceReindex is set.
func (idx *Indexer) IndexLibrary(ctx context.Context, rootPath string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexingInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = &Config{}
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	idx.workers = config.Workers

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	library, err := idx.getOrCreateLibrary(ctx, rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create library: %w", err)
	}

	files, err := idx.discoverFiles(rootPath, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover files: %w", err)
	}

	if err := idx.indexFiles(ctx, library, files, config, stats); err != nil {
		return nil, fmt.Errorf("failed to index files: %w", err)
	}

	if err := idx.updateLibraryStats(ctx, library); err != nil {
		return nil, fmt.Errorf("failed to update library stats: %w", err)
	}

	stats.Duration = time.Since(startTime)
	return stats, nil
}

// getOrCreateLibrary retrieves an existing library or creates a new one
func (idx *Indexer) getOrCreateLibrary(ctx context.Context, rootPath string) (*storage.Library, error) {
	library, err := idx.storage.GetLibrary(ctx, rootPath)
	if err == nil {
		return library, nil
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	library = &storage.Library{
		RootPath:     rootPath,
		IndexVersion: storage.CurrentSchemaVersion,
	}
	if err := idx.storage.CreateLibrary(ctx, library); err != nil {
		return nil, err
	}
	return library, nil
}

// discoverFiles finds all markdown files in the library tree
func (idx *Indexer) discoverFiles(rootPath string, config *Config) ([]string, error) {
	var files []string

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			// Skip hidden directories unless explicitly included
			if !config.IncludeHidden && path != rootPath && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if isMarkdownFile(path) {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

// isMarkdownFile checks if a path is a markdown file
func isMarkdownFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	default:
		return false
	}
}

// indexFiles splits and stores a set of files concurrently
func (idx *Indexer) indexFiles(ctx context.Context, library *storage.Library, files []string, config *Config, stats *Statistics) error {
	semaphore := make(chan struct{}, idx.workers)

	// Track progress with atomic counters
	var (
		indexed  int32
		skipped  int32
		failed   int32
		sections int32
	)

	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	// Use errgroup for concurrent processing with error propagation
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex // Protect stats.ErrorMessages

	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[i:end]

		g.Go(func() error {
			return idx.indexBatch(gctx, library, batch, config, semaphore, &indexed, &skipped, &failed, &sections, &mu, stats)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats.FilesIndexed = int(indexed)
	stats.FilesSkipped = int(skipped)
	stats.FilesFailed = int(failed)
	stats.SectionsCreated = int(sections)

	return nil
}

// indexBatch splits and stores a batch of files within a transaction
func (idx *Indexer) indexBatch(ctx context.Context, library *storage.Library, files []string, config *Config,
	semaphore chan struct{}, indexed, skipped, failed, sections *int32,
	mu *sync.Mutex, stats *Statistics) error {

	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, filePath := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case semaphore <- struct{}{}:
			// Acquire semaphore
		}

		err := idx.indexFile(ctx, tx, library, filePath, config, indexed, skipped, sections)
		<-semaphore // Release semaphore

		if err != nil {
			atomic.AddInt32(failed, 1)
			mu.Lock()
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", filePath, err))
			mu.Unlock()
			// Continue with other files
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// indexFile splits and stores a single markdown file
func (idx *Indexer) indexFile(ctx context.Context, store storage.Storage, library *storage.Library,
	filePath string, config *Config, indexed, skipped, sections *int32) error {

	relPath, err := filepath.Rel(library.RootPath, filePath)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return err
	}

	hash := sha256.Sum256(content)

	// Skip unchanged files unless a full rebuild was requested
	if !config.ForceReindex {
		if existing, err := store.GetDocument(ctx, library.ID, relPath); err == nil && existing.ContentHash == hash {
			atomic.AddInt32(skipped, 1)
			return nil
		}
	}

	doc := &storage.Document{
		LibraryID:   library.ID,
		FilePath:    relPath,
		ContentHash: hash,
		ModTime:     info.ModTime(),
		SizeBytes:   info.Size(),
	}

	secs, splitErr := idx.splitter.Split(string(content))
	if splitErr != nil {
		// A split fault is recorded on the document, not fatal to the batch
		msg := splitErr.Error()
		doc.SplitError = &msg
		if err := store.UpsertDocument(ctx, doc); err != nil {
			return err
		}
		return splitErr
	}

	doc.SectionCount = len(secs)
	if err := store.UpsertDocument(ctx, doc); err != nil {
		return err
	}
	if err := store.ReplaceSections(ctx, doc.ID, secs); err != nil {
		return err
	}

	atomic.AddInt32(indexed, 1)
	atomic.AddInt32(sections, int32(len(secs)))
	return nil
}

// updateLibraryStats refreshes the library's document and section totals
func (idx *Indexer) updateLibraryStats(ctx context.Context, library *storage.Library) error {
	status, err := idx.storage.GetStatus(ctx, library.ID)
	if err != nil {
		return err
	}

	library.TotalDocuments = status.DocumentsCount
	library.TotalSections = status.SectionsCount
	library.LastIndexedAt = time.Now()
	return idx.storage.UpdateLibrary(ctx, library)
}
