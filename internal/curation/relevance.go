package curation

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/printkb/backend/internal/llm"
	"github.com/printkb/backend/pkg/logger"
)

const relevanceSystemPrompt = `You are a strict reviewer for a 3D-printing ` +
	`troubleshooting knowledge base. Score content for topical relevance and ` +
	`informational quality. Return ONLY a single JSON object.`

// Assessor scores topical relevance and informational quality of a
// (title, content, summary) triple.
type Assessor struct {
	gen Generator
}

func NewAssessor(gen Generator) *Assessor {
	return &Assessor{gen: gen}
}

// neutralAssessment is the default applied on any failure. The 0.5 scores
// still land below the reject threshold, but the assessment carries no
// issues, so the reject reason makes the transient nature visible and the
// document can simply be resubmitted.
func neutralAssessment() RelevanceAssessment {
	return RelevanceAssessment{
		Score:           0.5,
		QualityScore:    0.5,
		IsRelevant:      true,
		HasValuableInfo: true,
		Issues:          []string{},
		Strengths:       []string{},
	}
}

func (a *Assessor) Assess(ctx context.Context, title, content string, summary StructuredSummary) RelevanceAssessment {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		summaryJSON = []byte("{}")
	}

	prompt := fmt.Sprintf(`Assess this candidate article for a 3D-printing troubleshooting knowledge base.

Title: %s

Content (excerpt):
%s

Structured summary (excerpt):
%s

Score topical relevance to 3D-printing troubleshooting (score, 0.0-1.0) and
informational quality (quality_score, 0.0-1.0). Return JSON:
{"score": 0.0, "quality_score": 0.0, "is_relevant": true, "has_valuable_info": true, "issues": [...], "strengths": [...]}`,
		title, truncate(content, 2000), truncate(string(summaryJSON), 1000))

	raw, err := a.gen.Generate(ctx, llm.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: relevanceSystemPrompt,
	})
	if err != nil {
		logger.Warn("Relevance assessment failed, using neutral fallback",
			zap.String("title", title),
			zap.Error(err),
		)
		return neutralAssessment()
	}

	var assessment RelevanceAssessment
	if err := llm.ExtractJSON(raw, &assessment); err != nil {
		logger.Warn("Relevance assessment unparsable, using neutral fallback",
			zap.String("title", title),
			zap.Error(err),
		)
		return neutralAssessment()
	}

	return assessment
}
