package curation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/printkb/backend/internal/llm"
	"github.com/printkb/backend/pkg/logger"
)

const (
	maxAbstractLen        = 500
	maxFilteredContentLen = 5000
	fallbackContentLen    = 2000
)

// Abstractor compresses a document into a short abstract and a noise-filtered
// content body. Both calls are best-effort with safe fallbacks.
type Abstractor struct {
	gen Generator
}

func NewAbstractor(gen Generator) *Abstractor {
	return &Abstractor{gen: gen}
}

// Abstract asks for 2-3 sentences of pure fact. Fallback: title plus the
// problem statement (or first key point) truncated to 200 characters.
func (a *Abstractor) Abstract(ctx context.Context, doc CandidateDocument, summary StructuredSummary) string {
	keyPoints := summary.KeyPoints
	if len(keyPoints) > 5 {
		keyPoints = keyPoints[:5]
	}

	prompt := fmt.Sprintf(`Write a 2-3 sentence abstract of this %s for a troubleshooting knowledge base.
State only facts. No marketing language, no filler.

Title: %s

Key points:
- %s`,
		summary.ContentType, doc.Title, strings.Join(keyPoints, "\n- "))

	raw, err := a.gen.Generate(ctx, llm.GenerateRequest{Prompt: prompt})
	if err != nil {
		logger.Warn("Abstract generation failed, using fallback",
			zap.String("title", doc.Title),
			zap.Error(err),
		)
		return fallbackAbstract(doc, summary)
	}

	abstract := strings.Trim(strings.TrimSpace(raw), `"'`)
	if abstract == "" {
		return fallbackAbstract(doc, summary)
	}

	return truncate(abstract, maxAbstractLen)
}

func fallbackAbstract(doc CandidateDocument, summary StructuredSummary) string {
	detail := summary.Problem()
	if detail == "" && len(summary.KeyPoints) > 0 {
		detail = summary.KeyPoints[0]
	}
	if detail == "" {
		detail = doc.Body
	}
	return fmt.Sprintf("%s. %s...", doc.Title, truncate(detail, 200))
}

// FilterContent strips filler, ads and off-topic material, keeping facts,
// parameters, solutions and technical detail. Fallback: first 2000 raw
// characters plus an ellipsis.
func (a *Abstractor) FilterContent(ctx context.Context, doc CandidateDocument) string {
	prompt := fmt.Sprintf(`Clean up this article content for storage in a troubleshooting knowledge base.
Remove filler, advertising, navigation text and off-topic material. Keep all
facts, numeric parameters, solution steps and technical detail. Return only
the cleaned text.

Content:
%s`, truncate(doc.Body, 8000))

	raw, err := a.gen.Generate(ctx, llm.GenerateRequest{Prompt: prompt})
	if err != nil {
		logger.Warn("Content filtering failed, using raw prefix",
			zap.String("title", doc.Title),
			zap.Error(err),
		)
		return truncate(doc.Body, fallbackContentLen) + "..."
	}

	filtered := strings.TrimSpace(raw)
	if filtered == "" {
		return truncate(doc.Body, fallbackContentLen) + "..."
	}

	return truncate(filtered, maxFilteredContentLen)
}
