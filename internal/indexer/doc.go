// Package indexer coordinates bulk splitting of markdown libraries.
//
// The pipeline is discover -> split -> store: walk a directory tree for
// .md/.markdown files, run each through the splitter, and persist documents
// and sections in transactional batches. Batches run concurrently under an
// errgroup with a semaphore bounding worker parallelism; per-file failures
// are collected in the statistics rather than aborting the run.
//
// Unchanged files (same SHA-256 content hash as the stored document) are
// skipped unless ForceReindex is set, making re-indexing incremental.
//
// A non-blocking IndexLock guards the pipeline: a second IndexLibrary call
// while one is running returns ErrIndexingInProgress immediately.
package indexer
