package curation

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/printkb/backend/internal/llm"
	"github.com/printkb/backend/internal/search"
	"github.com/printkb/backend/pkg/logger"
)

const duplicateSystemPrompt = `You judge whether a candidate article duplicates ` +
	`existing knowledge base entries or contains unique information. ` +
	`Return ONLY a single JSON object.`

// Detector checks a candidate against the existing knowledge base. It is
// fail-open: any infrastructure or model failure yields is_duplicate=false,
// because a possible duplicate slipping through is preferable to blocking
// ingestion.
type Detector struct {
	gen      Generator
	searcher Searcher
	searchK  int
}

func NewDetector(gen Generator, searcher Searcher, searchK int) *Detector {
	if searchK <= 0 {
		searchK = 5
	}
	return &Detector{gen: gen, searcher: searcher, searchK: searchK}
}

func (d *Detector) Detect(ctx context.Context, title string, summary StructuredSummary) DuplicateAssessment {
	queryText := buildDuplicateQuery(title, summary)

	hits, err := d.searcher.Search(ctx, search.Query{
		Text: queryText,
		K:    d.searchK,
	})
	if err != nil {
		logger.Warn("Duplicate search failed, treating as unique",
			zap.String("title", title),
			zap.Error(err),
		)
		return DuplicateAssessment{IsDuplicate: false}
	}

	if len(hits) == 0 {
		return DuplicateAssessment{IsDuplicate: false}
	}

	if len(hits) > 3 {
		hits = hits[:3]
	}

	titles := make([]string, len(hits))
	scores := make([]float64, len(hits))
	var candidates strings.Builder
	for i, hit := range hits {
		titles[i] = hit.Payload.Title
		scores[i] = hit.Score
		fmt.Fprintf(&candidates, "%d. %q (similarity %.2f)\n", i+1, hit.Payload.Title, hit.Score)
	}

	prompt := fmt.Sprintf(`A new article is being added to the knowledge base.

New article title: %s
New article problem: %s

Closest existing articles:
%s
Does the new article duplicate one of the existing ones, or does it contain
unique information? Return JSON:
{"is_duplicate": false, "duplicate_reason": "...", "uniqueness": "..."}`,
		title, summary.Problem(), candidates.String())

	raw, err := d.gen.Generate(ctx, llm.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: duplicateSystemPrompt,
	})
	if err != nil {
		logger.Warn("Duplicate judgment failed, treating as unique",
			zap.String("title", title),
			zap.Error(err),
		)
		return DuplicateAssessment{IsDuplicate: false, SimilarDocs: titles, SimilarityScores: scores}
	}

	var verdict struct {
		IsDuplicate     bool   `json:"is_duplicate"`
		DuplicateReason string `json:"duplicate_reason"`
		Uniqueness      string `json:"uniqueness"`
	}
	if err := llm.ExtractJSON(raw, &verdict); err != nil {
		logger.Warn("Duplicate judgment unparsable, treating as unique",
			zap.String("title", title),
			zap.Error(err),
		)
		return DuplicateAssessment{IsDuplicate: false, SimilarDocs: titles, SimilarityScores: scores}
	}

	return DuplicateAssessment{
		IsDuplicate:      verdict.IsDuplicate,
		DuplicateReason:  verdict.DuplicateReason,
		Uniqueness:       verdict.Uniqueness,
		SimilarDocs:      titles,
		SimilarityScores: scores,
	}
}

// buildDuplicateQuery combines title, problem and printer models into the
// search string used to find near-duplicate entries.
func buildDuplicateQuery(title string, summary StructuredSummary) string {
	parts := []string{title}
	if p := summary.Problem(); p != "" {
		parts = append(parts, p)
	}
	if models := summary.PrinterModels(); len(models) > 0 {
		parts = append(parts, strings.Join(models, " "))
	}
	return strings.Join(parts, " ")
}
