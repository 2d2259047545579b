package search

import "context"

// Filters are exact-match metadata predicates ANDed together at the vector
// store, and reused by the booster for score adjustment.
type Filters struct {
	ProblemType   string   `json:"problem_type,omitempty"`
	PrinterModels []string `json:"printer_models,omitempty"`
	Materials     []string `json:"materials,omitempty"`
}

func (f Filters) IsEmpty() bool {
	return f.ProblemType == "" && len(f.PrinterModels) == 0 && len(f.Materials) == 0
}

// Query describes one retrieval request.
type Query struct {
	Text         string  `json:"text"`
	Filters      Filters `json:"filters"`
	K            int     `json:"k"`
	RerankTopK   int     `json:"rerank_top_k"`
	UseReranking bool    `json:"use_reranking"`
}

// Payload is the stored per-article metadata returned with every hit.
type Payload struct {
	ArticleID     string   `json:"article_id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Abstract      string   `json:"abstract"`
	URL           string   `json:"url"`
	ProblemType   string   `json:"problem_type"`
	PrinterModels []string `json:"printer_models"`
	Materials     []string `json:"materials"`
}

// Result is one scored search hit. Score is always in [0,1]; OriginalScore
// and RerankScore are populated by the reranking stage, BoostApplied by the
// filter booster.
type Result struct {
	Payload       Payload  `json:"payload"`
	Score         float64  `json:"score"`
	OriginalScore *float64 `json:"original_score,omitempty"`
	RerankScore   *float64 `json:"rerank_score,omitempty"`
	BoostApplied  float64  `json:"boost_applied,omitempty"`
}

// IdentityKey recognizes two results as the same underlying document:
// article id when present, else URL. Results with neither are never
// considered duplicates of each other.
func (r Result) IdentityKey() string {
	if r.Payload.ArticleID != "" {
		return r.Payload.ArticleID
	}
	return r.Payload.URL
}

// VectorStore is the persistent index collaborator. Implementations must
// return hits ordered by similarity descending with scores in [0,1].
type VectorStore interface {
	Upsert(ctx context.Context, id string, vector []float32, payload Payload) error
	Query(ctx context.Context, vector []float32, filters Filters, limit int) ([]Result, error)
}

// Embedder turns query text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CrossEncoder scores a (query, passage) pair, returning a raw logit.
// Absence is a supported configuration: Available reports whether scoring
// can be attempted at all.
type CrossEncoder interface {
	Score(ctx context.Context, query, passage string) (float64, error)
	Available() bool
}
