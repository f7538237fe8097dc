// Package storage persists split markdown sections in SQLite.
//
// The store tracks three entities: a Library (one indexed directory tree of
// markdown files), its Documents (one row per file, with a content hash for
// change detection), and their Sections (the splitter's output, one row per
// section in document order). Parents and siblings are stored as JSON text
// so rows deserialize to exactly the wire shape the MCP tools return.
//
// # Drivers
//
// Two SQLite drivers are supported via build tags:
//
//   - default: modernc.org/sqlite (pure Go, CGO-free cross compilation)
//   - -tags cgo_sqlite: github.com/mattn/go-sqlite3 (C driver)
//
// Both ship FTS5, which backs the sections_fts full-text index used by
// SearchSections.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("/path/to/mdsplit.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	lib := &storage.Library{RootPath: "/docs", IndexVersion: storage.CurrentSchemaVersion}
//	err = store.CreateLibrary(ctx, lib)
//
//	err = store.ReplaceSections(ctx, docID, sections)
//	hits, err := store.SearchSections(ctx, lib.ID, "getting started", 10)
//
// # Transactions
//
// BeginTx returns a Tx that implements the full Storage interface, so a
// batch of document updates and their sections commit atomically:
//
//	tx, err := store.BeginTx(ctx)
//	defer tx.Rollback()
//	// ... UpsertDocument / ReplaceSections ...
//	err = tx.Commit()
//
// # Migrations
//
// The schema is versioned with semver and applied on open. ApplyMigrations
// is idempotent; reopening an up-to-date database is a no-op.
package storage
