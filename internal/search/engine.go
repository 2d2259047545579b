package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/printkb/backend/internal/metrics"
	"github.com/printkb/backend/pkg/logger"
)

// Defaults fill in unset query parameters.
type Defaults struct {
	K           int
	RerankTopK  int
	MinScore    float64
	FilterBoost float64
}

// Engine composes the retrieval pipeline. Two entry points with a preserved
// asymmetry: Search applies the minimum-score threshold and no boosting,
// HybridSearch applies filter boosting and no threshold. Unifying them would
// change observable ranking behavior.
type Engine struct {
	retriever *Retriever
	reranker  *Reranker
	defaults  Defaults
}

func NewEngine(retriever *Retriever, reranker *Reranker, defaults Defaults) *Engine {
	return &Engine{
		retriever: retriever,
		reranker:  reranker,
		defaults:  defaults,
	}
}

// Search is the plain entry point: retrieve, drop results below the score
// threshold, deduplicate, optionally rerank, truncate to k.
func (e *Engine) Search(ctx context.Context, q Query) ([]Result, error) {
	q = e.applyDefaults(q)
	start := time.Now()

	results, err := e.retriever.Retrieve(ctx, q, e.retrieveLimit(q))
	if err != nil {
		return nil, err
	}

	filtered := results[:0:0]
	for _, r := range results {
		if r.Score >= e.defaults.MinScore {
			filtered = append(filtered, r)
		}
	}

	filtered = Deduplicate(filtered)
	final := e.finish(ctx, q, filtered)

	metrics.SearchDuration.WithLabelValues("plain").Observe(time.Since(start).Seconds())
	logger.Debug("Search completed",
		zap.String("query", q.Text),
		zap.Int("raw", len(results)),
		zap.Int("returned", len(final)),
	)

	return final, nil
}

// HybridSearch is the filter-boosted entry point: retrieve, deduplicate,
// boost scores by matching filter dimensions, deduplicate again (boosting
// reorders scores but cannot introduce duplicates; the second pass is a
// safety net if the stages are ever fused), optionally rerank, truncate.
func (e *Engine) HybridSearch(ctx context.Context, q Query) ([]Result, error) {
	q = e.applyDefaults(q)
	start := time.Now()

	results, err := e.retriever.Retrieve(ctx, q, e.retrieveLimit(q))
	if err != nil {
		return nil, err
	}

	results = Deduplicate(results)
	results = BoostByFilters(results, q.Filters, e.defaults.FilterBoost)
	results = Deduplicate(results)
	final := e.finish(ctx, q, results)

	metrics.SearchDuration.WithLabelValues("hybrid").Observe(time.Since(start).Seconds())
	logger.Debug("Hybrid search completed",
		zap.String("query", q.Text),
		zap.Int("returned", len(final)),
	)

	return final, nil
}

func (e *Engine) finish(ctx context.Context, q Query, results []Result) []Result {
	if q.UseReranking && e.reranker != nil {
		if len(results) > q.RerankTopK {
			results = results[:q.RerankTopK]
		}
		return e.reranker.Rerank(ctx, q.Text, results, q.K)
	}
	return topK(results, q.K)
}

// retrieveLimit widens the fetch when reranking is requested so the
// cross-encoder sees a full candidate set even after dedup and threshold
// filtering.
func (e *Engine) retrieveLimit(q Query) int {
	if q.UseReranking {
		return q.RerankTopK * 2
	}
	return q.K
}

func (e *Engine) applyDefaults(q Query) Query {
	if q.K <= 0 {
		q.K = e.defaults.K
	}
	if q.RerankTopK <= 0 {
		q.RerankTopK = e.defaults.RerankTopK
	}
	return q
}
