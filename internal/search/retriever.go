package search

import (
	"context"

	"go.uber.org/zap"

	"github.com/printkb/backend/pkg/logger"
)

// Retriever issues the embedding plus the filtered vector-store query.
type Retriever struct {
	embedder Embedder
	store    VectorStore
}

func NewRetriever(embedder Embedder, store VectorStore) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Retrieve returns candidates ordered by raw similarity descending. A store
// failure is treated as "no matches", not as an error: an empty knowledge
// base is a valid state. Embedding failures do propagate, because without a
// query vector there is nothing meaningful to return or degrade to.
func (r *Retriever) Retrieve(ctx context.Context, q Query, limit int) ([]Result, error) {
	vector, err := r.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, err
	}

	results, err := r.store.Query(ctx, vector, q.Filters, limit)
	if err != nil {
		logger.Warn("Vector store query failed, returning empty results",
			zap.String("query", q.Text),
			zap.Error(err),
		)
		return nil, nil
	}

	return results, nil
}
