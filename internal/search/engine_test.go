package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vector []float32
	err    error
}

func (e *stubEmbedder) Embed(context.Context, string) ([]float32, error) {
	return e.vector, e.err
}

type stubStore struct {
	results []Result
	err     error
	limits  []int
	filters []Filters
}

func (s *stubStore) Upsert(context.Context, string, []float32, Payload) error {
	return nil
}

func (s *stubStore) Query(_ context.Context, _ []float32, filters Filters, limit int) ([]Result, error) {
	s.limits = append(s.limits, limit)
	s.filters = append(s.filters, filters)
	return s.results, s.err
}

func newTestEngine(store *stubStore) *Engine {
	retriever := NewRetriever(&stubEmbedder{vector: []float32{0.1, 0.2}}, store)
	reranker := NewReranker(&stubEncoder{available: false})
	return NewEngine(retriever, reranker, Defaults{K: 5, RerankTopK: 20, MinScore: 0.3})
}

func TestSearchAppliesScoreThreshold(t *testing.T) {
	store := &stubStore{results: []Result{
		byID("a", 0.9), byID("b", 0.31), byID("c", 0.29), byID("d", 0.1),
	}}
	e := newTestEngine(store)

	out, err := e.Search(context.Background(), Query{Text: "stringing"})

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Payload.ArticleID)
	assert.Equal(t, "b", out[1].Payload.ArticleID)
}

func TestHybridSearchSkipsThresholdAndBoosts(t *testing.T) {
	// The boosted entry point keeps sub-threshold hits; a matching filter
	// dimension raises them instead.
	store := &stubStore{results: []Result{
		{Payload: Payload{ArticleID: "low", ProblemType: "stringing"}, Score: 0.2},
	}}
	e := newTestEngine(store)

	out, err := e.HybridSearch(context.Background(), Query{
		Text:    "stringing",
		Filters: Filters{ProblemType: "stringing"},
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.3, out[0].Score, 1e-9)
	assert.InDelta(t, 0.1, out[0].BoostApplied, 1e-9)
}

func TestHybridSearchUsesConfiguredFilterBoost(t *testing.T) {
	store := &stubStore{results: []Result{
		{Payload: Payload{ArticleID: "low", ProblemType: "stringing"}, Score: 0.2},
	}}
	retriever := NewRetriever(&stubEmbedder{vector: []float32{0.1}}, store)
	e := NewEngine(retriever, nil, Defaults{K: 5, RerankTopK: 20, MinScore: 0.3, FilterBoost: 0.25})

	out, err := e.HybridSearch(context.Background(), Query{
		Text:    "stringing",
		Filters: Filters{ProblemType: "stringing"},
	})

	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, 0.45, out[0].Score, 1e-9)
	assert.InDelta(t, 0.25, out[0].BoostApplied, 1e-9)
}

func TestSearchDeduplicates(t *testing.T) {
	store := &stubStore{results: []Result{
		byID("a", 0.9), byID("a", 0.8), byID("b", 0.7),
	}}
	e := newTestEngine(store)

	out, err := e.Search(context.Background(), Query{Text: "q"})

	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, 0.9, out[0].Score)
}

func TestSearchRetrieveLimitWidensForReranking(t *testing.T) {
	store := &stubStore{}
	e := newTestEngine(store)

	_, err := e.Search(context.Background(), Query{Text: "q", UseReranking: true})
	require.NoError(t, err)

	_, err = e.Search(context.Background(), Query{Text: "q", K: 3})
	require.NoError(t, err)

	require.Len(t, store.limits, 2)
	assert.Equal(t, 40, store.limits[0])
	assert.Equal(t, 3, store.limits[1])
}

func TestSearchAppliesDefaults(t *testing.T) {
	results := make([]Result, 0, 10)
	for i := 0; i < 10; i++ {
		results = append(results, byID(string(rune('a'+i)), 0.9-float64(i)*0.01))
	}
	store := &stubStore{results: results}
	e := newTestEngine(store)

	out, err := e.Search(context.Background(), Query{Text: "q"})

	require.NoError(t, err)
	assert.Len(t, out, 5)
}

func TestSearchStoreErrorYieldsEmptyResults(t *testing.T) {
	store := &stubStore{err: errors.New("store down")}
	e := newTestEngine(store)

	out, err := e.Search(context.Background(), Query{Text: "q"})

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSearchEmbedErrorPropagates(t *testing.T) {
	retriever := NewRetriever(&stubEmbedder{err: errors.New("no provider")}, &stubStore{})
	e := NewEngine(retriever, nil, Defaults{K: 5, RerankTopK: 20, MinScore: 0.3})

	_, err := e.Search(context.Background(), Query{Text: "q"})

	assert.Error(t, err)
}

func TestHybridSearchPassesFiltersToStore(t *testing.T) {
	store := &stubStore{}
	e := newTestEngine(store)

	filters := Filters{ProblemType: "warping", Materials: []string{"ABS"}}
	_, err := e.HybridSearch(context.Background(), Query{Text: "q", Filters: filters})

	require.NoError(t, err)
	require.Len(t, store.filters, 1)
	assert.Equal(t, filters, store.filters[0])
}

func TestFinishTruncatesToRerankTopKBeforeReranking(t *testing.T) {
	enc := &stubEncoder{available: true, logits: map[string]float64{}}
	results := make([]Result, 0, 30)
	for i := 0; i < 30; i++ {
		results = append(results, Result{
			Payload: Payload{ArticleID: string(rune('a' + i))},
			Score:   1.0 - float64(i)*0.01,
		})
	}
	store := &stubStore{results: results}
	retriever := NewRetriever(&stubEmbedder{vector: []float32{0.1}}, store)
	e := NewEngine(retriever, NewReranker(enc), Defaults{K: 5, RerankTopK: 10, MinScore: 0.0})

	out, err := e.Search(context.Background(), Query{Text: "q", UseReranking: true})

	require.NoError(t, err)
	assert.Len(t, out, 5)
	// Only the rerank_top_k window is scored, not the full widened fetch.
	assert.Equal(t, 10, enc.calls)
}
