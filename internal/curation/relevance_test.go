package curation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printkb/backend/internal/llm"
)

type stubGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *stubGenerator) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	g.prompts = append(g.prompts, req.Prompt)
	return g.response, g.err
}

func TestAssessParsesResponse(t *testing.T) {
	gen := &stubGenerator{
		response: `Here is my assessment:
{"score": 0.82, "quality_score": 0.74, "is_relevant": true, "has_valuable_info": true, "issues": [], "strengths": ["actionable fixes"]}`,
	}
	a := NewAssessor(gen)

	got := a.Assess(context.Background(), "Fixing stringing", "Lower temperature and enable retraction.", StructuredSummary{ContentType: TypeArticle})

	assert.InDelta(t, 0.82, got.Score, 1e-9)
	assert.InDelta(t, 0.74, got.QualityScore, 1e-9)
	assert.True(t, got.IsRelevant)
	assert.True(t, got.HasValuableInfo)
	assert.Equal(t, []string{"actionable fixes"}, got.Strengths)
}

func TestAssessNeutralOnGenerateError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("provider timeout")}
	a := NewAssessor(gen)

	got := a.Assess(context.Background(), "title", "content", StructuredSummary{})

	assert.Equal(t, 0.5, got.Score)
	assert.Equal(t, 0.5, got.QualityScore)
	assert.True(t, got.IsRelevant)
	assert.True(t, got.HasValuableInfo)
}

func TestAssessNeutralOnUnparsableResponse(t *testing.T) {
	gen := &stubGenerator{response: "I cannot assess this content."}
	a := NewAssessor(gen)

	got := a.Assess(context.Background(), "title", "content", StructuredSummary{})

	assert.Equal(t, neutralAssessment(), got)
}

func TestAssessTruncatesContentInPrompt(t *testing.T) {
	gen := &stubGenerator{
		response: `{"score": 0.5, "quality_score": 0.5, "is_relevant": true, "has_valuable_info": true}`,
	}
	a := NewAssessor(gen)

	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	a.Assess(context.Background(), "title", string(long), StructuredSummary{})

	require.Len(t, gen.prompts, 1)
	// 2000-char content cap keeps the prompt bounded; the full 5000 chars
	// must not appear.
	assert.Less(t, len(gen.prompts[0]), 3000)
}
