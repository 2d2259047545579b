package search

import (
	"context"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/printkb/backend/internal/metrics"
	"github.com/printkb/backend/pkg/logger"
)

const (
	// Weighting of the combined score after cross-encoder rescoring.
	originalWeight = 0.4
	rerankWeight   = 0.6

	// Passage budget handed to the cross-encoder per candidate.
	passageContentLen = 500
)

// Reranker rescoring stage. Given candidates already deduplicated and
// boosted, it obtains a cross-encoder logit per (query, passage) pair,
// normalizes it into [0,1], blends it with the original score and re-sorts.
type Reranker struct {
	encoder CrossEncoder
}

func NewReranker(encoder CrossEncoder) *Reranker {
	return &Reranker{encoder: encoder}
}

// Rerank rescoring rules:
//   - skipped entirely when no encoder is available or candidates <= 1;
//     the top-k of the already-scored set is returned unchanged
//   - fail-soft: on any scoring error the pre-rerank top-k is returned
//   - combined = 0.4*original + 0.6*normalized, overwriting Score, with
//     RerankScore and OriginalScore recorded separately
func (r *Reranker) Rerank(ctx context.Context, queryText string, candidates []Result, k int) []Result {
	if r.encoder == nil || !r.encoder.Available() || len(candidates) <= 1 {
		metrics.RerankRequests.WithLabelValues("skipped").Inc()
		return topK(candidates, k)
	}

	reranked := make([]Result, len(candidates))
	for i, c := range candidates {
		passage := c.Payload.Title + " " + truncate(c.Payload.Content, passageContentLen)

		logit, err := r.encoder.Score(ctx, queryText, passage)
		if err != nil {
			logger.Warn("Cross-encoder scoring failed, keeping pre-rerank order",
				zap.Int("candidate", i),
				zap.Error(err),
			)
			metrics.RerankRequests.WithLabelValues("failed").Inc()
			return topK(candidates, k)
		}

		original := c.Score
		normalized := Logistic(logit)
		combined := originalWeight*original + rerankWeight*normalized

		c.OriginalScore = &original
		c.RerankScore = &normalized
		c.Score = combined
		reranked[i] = c
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	metrics.RerankRequests.WithLabelValues("completed").Inc()
	return topK(reranked, k)
}

// Logistic normalizes a raw logit into [0,1] via 1/(1+e^-x).
func Logistic(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// LinearNormalize is the approximation clamp((x+5)/10, 0, 1), kept for
// hosts without a usable exp implementation in the scoring path.
func LinearNormalize(x float64) float64 {
	v := (x + 5) / 10
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func topK(results []Result, k int) []Result {
	if k <= 0 || len(results) <= k {
		return results
	}
	return results[:k]
}

// truncate caps s at n characters, not bytes, so Cyrillic passages keep
// their full budget and never end mid-rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
