package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentRecord tracks one indexed markdown file.
type DocumentRecord struct {
	Path       string
	Title      string
	Hash       string
	ChunkTotal int
	IndexedAt  time.Time
}

// ChunkRecord tracks one stored chunk. Seq is the global chunk sequence
// number across all documents; ChunkIndex is the position within its file.
type ChunkRecord struct {
	ID           string
	DocumentPath string
	Seq          int
	ChunkIndex   int
	Section      string
}

// DocumentRegistry defines the interface for the ingestion bookkeeping store.
type DocumentRegistry interface {
	// GetDocument gets a document by path.
	// Returns nil and ErrNotFound if not found.
	GetDocument(ctx context.Context, path string) (*DocumentRecord, error)
	// UpsertDocument inserts or replaces a document record.
	UpsertDocument(ctx context.Context, doc *DocumentRecord) error
	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, path string) error
	// ListChunkIDsByDocument returns the chunk ids stored for a document.
	ListChunkIDsByDocument(ctx context.Context, path string) ([]string, error)
	// InsertChunk records a stored chunk.
	InsertChunk(ctx context.Context, chunk *ChunkRecord) error
	// NextChunkSeq returns the next unused global chunk sequence number.
	NextChunkSeq(ctx context.Context) (int, error)
}

// Registry provides SQLite-backed ingestion bookkeeping.
// It implements the DocumentRegistry interface.
type Registry struct {
	db *sql.DB
}

// NewRegistry creates a new Registry.
func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db}
}

// GetDocument gets a document by path.
// Returns nil and ErrNotFound if not found.
func (r *Registry) GetDocument(ctx context.Context, path string) (*DocumentRecord, error) {
	var doc DocumentRecord
	var indexedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT path, title, hash, chunk_total, indexed_at FROM documents WHERE path = ?",
		path,
	).Scan(&doc.Path, &doc.Title, &doc.Hash, &doc.ChunkTotal, &indexedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	// Parse indexed_at DATETIME string
	doc.IndexedAt, err = time.Parse("2006-01-02 15:04:05", indexedAtStr)
	if err != nil {
		// Try alternative format (SQLite might use different format)
		doc.IndexedAt, err = time.Parse(time.RFC3339, indexedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse indexed_at timestamp: %w", err)
		}
	}

	return &doc, nil
}

// UpsertDocument inserts or replaces a document record.
func (r *Registry) UpsertDocument(ctx context.Context, doc *DocumentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (path, title, hash, chunk_total, indexed_at)
		 VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			hash = excluded.hash,
			chunk_total = excluded.chunk_total,
			indexed_at = CURRENT_TIMESTAMP`,
		doc.Path, doc.Title, doc.Hash, doc.ChunkTotal,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

// DeleteDocument removes a document. Its chunks are removed by the
// ON DELETE CASCADE constraint.
func (r *Registry) DeleteDocument(ctx context.Context, path string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// ListChunkIDsByDocument returns the chunk ids stored for a document,
// ordered by position within the file.
func (r *Registry) ListChunkIDsByDocument(ctx context.Context, path string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id FROM chunks WHERE document_path = ? ORDER BY chunk_index",
		path,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chunk id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunks: %w", err)
	}

	return ids, nil
}

// InsertChunk records a stored chunk.
func (r *Registry) InsertChunk(ctx context.Context, chunk *ChunkRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO chunks (id, document_path, seq, chunk_index, section) VALUES (?, ?, ?, ?, ?)",
		chunk.ID, chunk.DocumentPath, chunk.Seq, chunk.ChunkIndex, chunk.Section,
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// NextChunkSeq returns the next unused global chunk sequence number.
// Sequence numbers continue across ingestion runs so ids stay unique.
func (r *Registry) NextChunkSeq(ctx context.Context) (int, error) {
	var next int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq) + 1, 0) FROM chunks",
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to query next chunk seq: %w", err)
	}
	return next, nil
}
