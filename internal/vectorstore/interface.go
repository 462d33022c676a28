// Package vectorstore wraps the external vector database behind a
// document-oriented contract: callers add and query plain text, and the store
// invokes the embedding client internally.
package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks kbqa/internal/vectorstore Store

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned when a query targets a collection that
// has not been created yet (e.g. a query issued before any ingestion).
var ErrCollectionNotFound = errors.New("collection not found")

// Document is one chunk of text submitted for storage, with its provenance
// metadata and a caller-assigned unique id.
type Document struct {
	ID   string
	Text string
	Meta map[string]any
}

// Result is one ranked hit from a similarity query. Distance is
// 1 - cosine similarity; lower is a better match.
type Result struct {
	ID       string
	Text     string
	Distance float64
	Meta     map[string]any
}

// Store defines the vector store collaborator contract.
type Store interface {
	// EnsureCollection creates the collection if it does not exist and
	// validates its vector size if it does.
	EnsureCollection(ctx context.Context, collection string) error

	// CollectionExists reports whether the collection exists.
	CollectionExists(ctx context.Context, collection string) (bool, error)

	// Add embeds and stores documents as one batch.
	Add(ctx context.Context, collection string, docs []Document) error

	// Query embeds text and returns up to topK nearest documents ordered by
	// ascending distance. Returns ErrCollectionNotFound if the collection
	// does not exist.
	Query(ctx context.Context, collection string, text string, topK int) ([]Result, error)

	// Delete removes documents by their ids.
	Delete(ctx context.Context, collection string, ids []string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context, collection string) (int, error)
}

// Embedder maps texts to fixed-dimension vectors. The llm embeddings client
// satisfies this.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
