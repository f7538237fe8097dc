package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mdsplit/mdsplit-mcp/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// Library operations

func (s *SQLiteStorage) createLibraryWithQuerier(ctx context.Context, q querier, library *Library) error {
	query := `
		INSERT INTO libraries (root_path, index_version, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query, library.RootPath, library.IndexVersion, now, now)
	if err != nil {
		return fmt.Errorf("failed to create library: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	library.ID = id
	library.CreatedAt = now
	library.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateLibrary(ctx context.Context, library *Library) error {
	return s.createLibraryWithQuerier(ctx, s.db, library)
}

func (t *sqliteTx) CreateLibrary(ctx context.Context, library *Library) error {
	return t.storage.createLibraryWithQuerier(ctx, t.tx, library)
}

func (s *SQLiteStorage) getLibraryWithQuerier(ctx context.Context, q querier, rootPath string) (*Library, error) {
	query := `
		SELECT id, root_path, total_documents, total_sections, index_version,
		       last_indexed_at, created_at, updated_at
		FROM libraries
		WHERE root_path = ?
	`
	var library Library
	var lastIndexedAt sql.NullTime
	err := q.QueryRowContext(ctx, query, rootPath).Scan(
		&library.ID, &library.RootPath, &library.TotalDocuments, &library.TotalSections,
		&library.IndexVersion, &lastIndexedAt, &library.CreatedAt, &library.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		library.LastIndexedAt = lastIndexedAt.Time
	}
	return &library, nil
}

func (s *SQLiteStorage) GetLibrary(ctx context.Context, rootPath string) (*Library, error) {
	return s.getLibraryWithQuerier(ctx, s.db, rootPath)
}

func (t *sqliteTx) GetLibrary(ctx context.Context, rootPath string) (*Library, error) {
	return t.storage.getLibraryWithQuerier(ctx, t.tx, rootPath)
}

func (s *SQLiteStorage) updateLibraryWithQuerier(ctx context.Context, q querier, library *Library) error {
	query := `
		UPDATE libraries
		SET total_documents = ?, total_sections = ?, last_indexed_at = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		library.TotalDocuments, library.TotalSections, library.LastIndexedAt, now, library.ID)
	if err != nil {
		return fmt.Errorf("failed to update library: %w", err)
	}
	library.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateLibrary(ctx context.Context, library *Library) error {
	return s.updateLibraryWithQuerier(ctx, s.db, library)
}

func (t *sqliteTx) UpdateLibrary(ctx context.Context, library *Library) error {
	return t.storage.updateLibraryWithQuerier(ctx, t.tx, library)
}

// Document operations

func (s *SQLiteStorage) upsertDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	query := `
		INSERT INTO documents (library_id, file_path, content_hash, mod_time, size_bytes, split_error, section_count, last_indexed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(library_id, file_path) DO UPDATE SET
			content_hash = excluded.content_hash,
			mod_time = excluded.mod_time,
			size_bytes = excluded.size_bytes,
			split_error = excluded.split_error,
			section_count = excluded.section_count,
			last_indexed_at = excluded.last_indexed_at,
			updated_at = excluded.updated_at
		RETURNING id
	`
	now := time.Now()
	err := q.QueryRowContext(ctx, query,
		doc.LibraryID, doc.FilePath, doc.ContentHash[:], doc.ModTime, doc.SizeBytes,
		doc.SplitError, doc.SectionCount, now, now, now).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	doc.LastIndexedAt = now
	doc.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertDocument(ctx context.Context, doc *Document) error {
	return s.upsertDocumentWithQuerier(ctx, s.db, doc)
}

func (t *sqliteTx) UpsertDocument(ctx context.Context, doc *Document) error {
	return t.storage.upsertDocumentWithQuerier(ctx, t.tx, doc)
}

func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, libraryID int64, filePath string) (*Document, error) {
	query := `
		SELECT id, library_id, file_path, content_hash, mod_time, size_bytes,
		       split_error, section_count, last_indexed_at, created_at, updated_at
		FROM documents
		WHERE library_id = ? AND file_path = ?
	`
	var doc Document
	var hash []byte
	var splitError sql.NullString
	err := q.QueryRowContext(ctx, query, libraryID, filePath).Scan(
		&doc.ID, &doc.LibraryID, &doc.FilePath, &hash, &doc.ModTime, &doc.SizeBytes,
		&splitError, &doc.SectionCount, &doc.LastIndexedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	copy(doc.ContentHash[:], hash)
	if splitError.Valid {
		doc.SplitError = &splitError.String
	}
	return &doc, nil
}

func (s *SQLiteStorage) GetDocument(ctx context.Context, libraryID int64, filePath string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.db, libraryID, filePath)
}

func (t *sqliteTx) GetDocument(ctx context.Context, libraryID int64, filePath string) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.tx, libraryID, filePath)
}

func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier, libraryID int64) ([]*Document, error) {
	query := `
		SELECT id, library_id, file_path, content_hash, mod_time, size_bytes,
		       split_error, section_count, last_indexed_at, created_at, updated_at
		FROM documents
		WHERE library_id = ?
		ORDER BY file_path
	`
	rows, err := q.QueryContext(ctx, query, libraryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		var doc Document
		var hash []byte
		var splitError sql.NullString
		if err := rows.Scan(
			&doc.ID, &doc.LibraryID, &doc.FilePath, &hash, &doc.ModTime, &doc.SizeBytes,
			&splitError, &doc.SectionCount, &doc.LastIndexedAt, &doc.CreatedAt, &doc.UpdatedAt,
		); err != nil {
			return nil, err
		}
		copy(doc.ContentHash[:], hash)
		if splitError.Valid {
			doc.SplitError = &splitError.String
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStorage) ListDocuments(ctx context.Context, libraryID int64) ([]*Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.db, libraryID)
}

func (t *sqliteTx) ListDocuments(ctx context.Context, libraryID int64) ([]*Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.tx, libraryID)
}

func (s *SQLiteStorage) deleteDocumentWithQuerier(ctx context.Context, q querier, documentID int64) error {
	_, err := q.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteDocument(ctx context.Context, documentID int64) error {
	return s.deleteDocumentWithQuerier(ctx, s.db, documentID)
}

func (t *sqliteTx) DeleteDocument(ctx context.Context, documentID int64) error {
	return t.storage.deleteDocumentWithQuerier(ctx, t.tx, documentID)
}

// Section operations

func (s *SQLiteStorage) replaceSectionsWithQuerier(ctx context.Context, q querier, documentID int64, sections []types.Section) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM sections WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("failed to clear sections: %w", err)
	}

	query := `
		INSERT INTO sections (document_id, position, header, level, content, parents, siblings, token_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	for i, sec := range sections {
		record, err := FromTypesSection(sec, documentID, i)
		if err != nil {
			return fmt.Errorf("failed to encode section %d: %w", i, err)
		}
		_, err = q.ExecContext(ctx, query,
			record.DocumentID, record.Position, record.Header, record.Level,
			record.Content, record.Parents, record.Siblings, record.TokenCount, now)
		if err != nil {
			return fmt.Errorf("failed to insert section %d: %w", i, err)
		}
	}
	return nil
}

func (s *SQLiteStorage) ReplaceSections(ctx context.Context, documentID int64, sections []types.Section) error {
	return s.replaceSectionsWithQuerier(ctx, s.db, documentID, sections)
}

func (t *sqliteTx) ReplaceSections(ctx context.Context, documentID int64, sections []types.Section) error {
	return t.storage.replaceSectionsWithQuerier(ctx, t.tx, documentID, sections)
}

func (s *SQLiteStorage) listSectionsWithQuerier(ctx context.Context, q querier, documentID int64) ([]*Section, error) {
	query := `
		SELECT id, document_id, position, header, level, content, parents, siblings, token_count, created_at
		FROM sections
		WHERE document_id = ?
		ORDER BY position
	`
	rows, err := q.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sections []*Section
	for rows.Next() {
		var sec Section
		var content sql.NullString
		var tokenCount sql.NullInt64
		if err := rows.Scan(
			&sec.ID, &sec.DocumentID, &sec.Position, &sec.Header, &sec.Level,
			&content, &sec.Parents, &sec.Siblings, &tokenCount, &sec.CreatedAt,
		); err != nil {
			return nil, err
		}
		sec.Content = content.String
		sec.TokenCount = int(tokenCount.Int64)
		sections = append(sections, &sec)
	}
	return sections, rows.Err()
}

func (s *SQLiteStorage) ListSectionsByDocument(ctx context.Context, documentID int64) ([]*Section, error) {
	return s.listSectionsWithQuerier(ctx, s.db, documentID)
}

func (t *sqliteTx) ListSectionsByDocument(ctx context.Context, documentID int64) ([]*Section, error) {
	return t.storage.listSectionsWithQuerier(ctx, t.tx, documentID)
}

// Search operations

func (s *SQLiteStorage) searchSectionsWithQuerier(ctx context.Context, q querier, libraryID int64, match string, limit int) ([]SearchResult, error) {
	query := `
		SELECT s.id, s.document_id, d.file_path, s.header, s.level, s.content
		FROM sections_fts f
		JOIN sections s ON s.id = f.rowid
		JOIN documents d ON d.id = s.document_id
		WHERE d.library_id = ? AND sections_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`
	rows, err := q.QueryContext(ctx, query, libraryID, match, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search sections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	rank := 0
	for rows.Next() {
		var r SearchResult
		var content sql.NullString
		if err := rows.Scan(&r.SectionID, &r.DocumentID, &r.FilePath, &r.Header, &r.Level, &content); err != nil {
			return nil, err
		}
		r.Content = content.String
		rank++
		r.Rank = rank
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *SQLiteStorage) SearchSections(ctx context.Context, libraryID int64, query string, limit int) ([]SearchResult, error) {
	return s.searchSectionsWithQuerier(ctx, s.db, libraryID, query, limit)
}

func (t *sqliteTx) SearchSections(ctx context.Context, libraryID int64, query string, limit int) ([]SearchResult, error) {
	return t.storage.searchSectionsWithQuerier(ctx, t.tx, libraryID, query, limit)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, libraryID int64) (*LibraryStatus, error) {
	libQuery := `
		SELECT id, root_path, total_documents, total_sections, index_version,
		       last_indexed_at, created_at, updated_at
		FROM libraries
		WHERE id = ?
	`
	var library Library
	var lastIndexedAt sql.NullTime
	err := q.QueryRowContext(ctx, libQuery, libraryID).Scan(
		&library.ID, &library.RootPath, &library.TotalDocuments, &library.TotalSections,
		&library.IndexVersion, &lastIndexedAt, &library.CreatedAt, &library.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lastIndexedAt.Valid {
		library.LastIndexedAt = lastIndexedAt.Time
	}

	status := &LibraryStatus{
		Library: &library,
		Health: HealthStatus{
			DatabaseAccessible: true,
		},
	}

	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE library_id = ?", libraryID).Scan(&status.DocumentsCount); err != nil {
		return nil, err
	}

	countQuery := `
		SELECT COUNT(*)
		FROM sections s
		JOIN documents d ON d.id = s.document_id
		WHERE d.library_id = ?
	`
	if err := q.QueryRowContext(ctx, countQuery, libraryID).Scan(&status.SectionsCount); err != nil {
		return nil, err
	}

	var ftsTable string
	err = q.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='sections_fts'").Scan(&ftsTable)
	status.Health.FTSIndexBuilt = err == nil

	if info, err := os.Stat(s.dbPath); err == nil {
		status.IndexSizeMB = float64(info.Size()) / (1024 * 1024)
	}

	status.LastIndexedAt = library.LastIndexedAt
	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context, libraryID int64) (*LibraryStatus, error) {
	return s.getStatusWithQuerier(ctx, s.db, libraryID)
}

func (t *sqliteTx) GetStatus(ctx context.Context, libraryID int64) (*LibraryStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.tx, libraryID)
}

// Close is a no-op on a transaction; the underlying connection stays open.
func (t *sqliteTx) Close() error {
	return nil
}

// BeginTx on a transaction is not supported; nested transactions are not used.
func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions are not supported")
}
