package curation

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printkb/backend/internal/llm"
	"github.com/printkb/backend/internal/search"
)

// routingGenerator answers each pipeline stage differently, keyed on prompt
// content. Safe for the concurrent middle stages.
type routingGenerator struct {
	mu        sync.Mutex
	summary   string
	relevance string
	duplicate string
	abstract  string
	filtered  string
	calls     int
}

func (g *routingGenerator) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()

	switch {
	case strings.Contains(req.Prompt, "Summarize"):
		return g.summary, nil
	case strings.Contains(req.Prompt, "Assess"):
		return g.relevance, nil
	case strings.Contains(req.Prompt, "duplicate"):
		return g.duplicate, nil
	case strings.Contains(req.Prompt, "abstract"):
		return g.abstract, nil
	default:
		return g.filtered, nil
	}
}

func TestCurateApprovesGoodArticle(t *testing.T) {
	gen := &routingGenerator{
		summary:   `{"problem": "stringing", "printer_models": ["Ender 3"], "key_points": ["retraction"]}`,
		relevance: `{"score": 0.9, "quality_score": 0.85, "is_relevant": true, "has_valuable_info": true}`,
		duplicate: `{"is_duplicate": false, "uniqueness": "new retraction settings"}`,
		abstract:  "Tuning retraction fixes stringing.",
		filtered:  "Cleaned content.",
	}
	searcher := &stubSearcher{results: []search.Result{hit("existing guide", 0.6)}}
	c := NewCurator(gen, searcher, 5, DefaultThresholds())

	var stages []Stage
	var mu sync.Mutex
	result := c.CurateWithProgress(context.Background(), CandidateDocument{
		Title: "Stringing fix",
		Body:  "Enable retraction and lower temperature.",
	}, func(s Stage) {
		mu.Lock()
		stages = append(stages, s)
		mu.Unlock()
	})

	assert.Equal(t, OutcomeApprove, result.Decision.Outcome)
	assert.Equal(t, "Tuning retraction fixes stringing.", result.Abstract)
	assert.Equal(t, "Cleaned content.", result.FilteredContent)
	require.NotNil(t, result.Summary.Article)
	assert.Equal(t, "stringing", result.Summary.Article.Problem)

	// Every stage reports once, summary first and decision last.
	require.Len(t, stages, 5)
	assert.Equal(t, StageSummary, stages[0])
	assert.Equal(t, StageDecision, stages[4])
}

func TestCurateQuestionListShortCircuits(t *testing.T) {
	gen := &routingGenerator{}
	searcher := &stubSearcher{}
	c := NewCurator(gen, searcher, 5, DefaultThresholds())

	var stages []Stage
	result := c.CurateWithProgress(context.Background(), CandidateDocument{
		Title:        "FAQ index",
		Body:         "Q1? Q2? Q3?",
		QuestionList: true,
	}, func(s Stage) { stages = append(stages, s) })

	assert.Equal(t, OutcomeReject, result.Decision.Outcome)
	assert.Equal(t, []Stage{StageDecision}, stages)
	assert.Zero(t, gen.calls)
	assert.Empty(t, searcher.queries)
}

func TestCurateRejectsDuplicate(t *testing.T) {
	gen := &routingGenerator{
		summary:   `{"problem": "warping", "key_points": ["heated bed"]}`,
		relevance: `{"score": 0.9, "quality_score": 0.9, "is_relevant": true, "has_valuable_info": true}`,
		duplicate: `{"is_duplicate": true, "duplicate_reason": "same content as existing warping guide"}`,
		abstract:  "Abstract.",
		filtered:  "Filtered.",
	}
	searcher := &stubSearcher{results: []search.Result{hit("warping guide", 0.95)}}
	c := NewCurator(gen, searcher, 5, DefaultThresholds())

	result := c.Curate(context.Background(), CandidateDocument{Title: "Warping", Body: "body"})

	assert.Equal(t, OutcomeReject, result.Decision.Outcome)
	assert.Contains(t, result.Decision.Reason, "same content as existing warping guide")
}

func TestCurateTerminatesWhenModelIsDown(t *testing.T) {
	// Every Generate call failing still yields a decision: heuristic summary,
	// neutral relevance (0.5/0.5), fail-open duplicate, fallback abstract.
	// The neutral scores sit below the relevance threshold, so the outcome
	// is a reject the caller can retry, never a hang or a panic.
	gen := &failingGenerator{}
	searcher := &stubSearcher{}
	c := NewCurator(gen, searcher, 5, DefaultThresholds())

	result := c.Curate(context.Background(), CandidateDocument{
		Title: "Corners lifting",
		Body:  "Prints keep warping at the corners.",
	})

	assert.Equal(t, OutcomeReject, result.Decision.Outcome)
	assert.False(t, result.Duplicate.IsDuplicate)
	assert.Equal(t, 0.5, result.Relevance.Score)
	assert.NotEmpty(t, result.Abstract)
	assert.NotEmpty(t, result.FilteredContent)
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, llm.GenerateRequest) (string, error) {
	return "", &llm.GenerationError{Op: "generate", Err: context.DeadlineExceeded}
}
