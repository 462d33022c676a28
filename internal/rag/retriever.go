package rag

import (
	"context"
	"errors"
	"fmt"

	"kbqa/internal/contextutil"
	"kbqa/internal/vectorstore"
)

// Retriever fetches the most relevant chunks for a query from the vector
// store.
type Retriever struct {
	store      vectorstore.Store
	collection string
}

// NewRetriever creates a new Retriever.
func NewRetriever(store vectorstore.Store, collection string) *Retriever {
	return &Retriever{store: store, collection: collection}
}

// Retrieve returns up to topK chunks ordered by ascending distance.
// It returns vectorstore.ErrCollectionNotFound unwrapped so callers can
// detect an empty knowledge base.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]RetrievedChunk, error) {
	logger := contextutil.LoggerFromContext(ctx)

	results, err := r.store.Query(ctx, r.collection, query, topK)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	chunks := make([]RetrievedChunk, 0, len(results))
	for _, result := range results {
		chunks = append(chunks, RetrievedChunk{
			Text:     result.Text,
			Metadata: result.Meta,
			Distance: result.Distance,
		})
	}

	logger.DebugContext(ctx, "retrieved context chunks", "collection", r.collection, "top_k", topK, "count", len(chunks))
	return chunks, nil
}
