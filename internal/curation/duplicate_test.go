package curation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printkb/backend/internal/search"
)

type stubSearcher struct {
	results []search.Result
	err     error
	queries []search.Query
}

func (s *stubSearcher) Search(_ context.Context, q search.Query) ([]search.Result, error) {
	s.queries = append(s.queries, q)
	return s.results, s.err
}

func hit(title string, score float64) search.Result {
	return search.Result{
		Payload: search.Payload{ArticleID: title, Title: title},
		Score:   score,
	}
}

func TestDetectNoHitsIsNotDuplicate(t *testing.T) {
	gen := &stubGenerator{}
	searcher := &stubSearcher{}
	d := NewDetector(gen, searcher, 5)

	got := d.Detect(context.Background(), "New stringing fix", StructuredSummary{})

	assert.False(t, got.IsDuplicate)
	// No candidates means no LLM call at all.
	assert.Empty(t, gen.prompts)
}

func TestDetectQueryCombinesTitleProblemModels(t *testing.T) {
	gen := &stubGenerator{response: `{"is_duplicate": false}`}
	searcher := &stubSearcher{}
	d := NewDetector(gen, searcher, 7)

	summary := StructuredSummary{
		ContentType: TypeArticle,
		Article: &ArticleSummary{
			Problem:       "stringing between towers",
			PrinterModels: []string{"Ender 3", "Prusa MK4"},
		},
	}
	d.Detect(context.Background(), "Stringing fix", summary)

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "Stringing fix stringing between towers Ender 3 Prusa MK4", searcher.queries[0].Text)
	assert.Equal(t, 7, searcher.queries[0].K)
}

func TestDetectUsesTopThreeHits(t *testing.T) {
	gen := &stubGenerator{response: `{"is_duplicate": true, "duplicate_reason": "same fix"}`}
	searcher := &stubSearcher{results: []search.Result{
		hit("a", 0.95), hit("b", 0.90), hit("c", 0.85), hit("d", 0.80), hit("e", 0.75),
	}}
	d := NewDetector(gen, searcher, 5)

	got := d.Detect(context.Background(), "title", StructuredSummary{})

	assert.True(t, got.IsDuplicate)
	assert.Equal(t, "same fix", got.DuplicateReason)
	assert.Equal(t, []string{"a", "b", "c"}, got.SimilarDocs)
	assert.Equal(t, []float64{0.95, 0.90, 0.85}, got.SimilarityScores)
}

func TestDetectFailOpenOnSearchError(t *testing.T) {
	gen := &stubGenerator{}
	searcher := &stubSearcher{err: errors.New("vector store down")}
	d := NewDetector(gen, searcher, 5)

	got := d.Detect(context.Background(), "title", StructuredSummary{})

	assert.False(t, got.IsDuplicate)
	assert.Empty(t, gen.prompts)
}

func TestDetectFailOpenOnGenerateError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider timeout")}
	searcher := &stubSearcher{results: []search.Result{hit("existing", 0.9)}}
	d := NewDetector(gen, searcher, 5)

	got := d.Detect(context.Background(), "title", StructuredSummary{})

	assert.False(t, got.IsDuplicate)
	assert.Equal(t, []string{"existing"}, got.SimilarDocs)
	assert.Equal(t, []float64{0.9}, got.SimilarityScores)
}

func TestDetectFailOpenOnUnparsableVerdict(t *testing.T) {
	gen := &stubGenerator{response: "probably a duplicate, hard to say"}
	searcher := &stubSearcher{results: []search.Result{hit("existing", 0.9)}}
	d := NewDetector(gen, searcher, 5)

	got := d.Detect(context.Background(), "title", StructuredSummary{})

	assert.False(t, got.IsDuplicate)
	assert.Equal(t, []string{"existing"}, got.SimilarDocs)
}

func TestNewDetectorDefaultsSearchK(t *testing.T) {
	searcher := &stubSearcher{}
	d := NewDetector(&stubGenerator{}, searcher, 0)

	d.Detect(context.Background(), "title", StructuredSummary{})

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, 5, searcher.queries[0].K)
}
