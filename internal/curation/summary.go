package curation

import (
	"context"
	"fmt"
	"strings"

	prose "github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/printkb/backend/internal/llm"
	"github.com/printkb/backend/pkg/logger"
)

// problemKeywords maps a canonical problem type to the localized phrases
// that betray it in raw content. Used only by the heuristic fallback when
// the model produced no usable JSON.
var problemKeywords = map[string][]string{
	"stringing": {
		"stringing", "strings", "oozing", "wisps", "hairs",
		"сопли", "паутина", "ниточки", "волоски",
	},
	"warping": {
		"warping", "warp", "curling", "lifting corners", "bed adhesion",
		"деформация", "отлипает", "загибаются углы", "отрыв от стола",
	},
	"layer_separation": {
		"layer separation", "delamination", "layer splitting", "cracking between layers",
		"расслоение", "трещины между слоями", "отслоение слоёв",
	},
}

const summarySystemPrompt = `You are a 3D-printing knowledge base curator. ` +
	`You read troubleshooting content and return structured JSON summaries. ` +
	`Return ONLY a single JSON object, no commentary.`

// Extractor produces a structured summary for a candidate document via one
// content-type-specific LLM call. It is a pure function of its inputs plus
// that call: failures never propagate, they degrade to a heuristic summary.
type Extractor struct {
	gen Generator
}

func NewExtractor(gen Generator) *Extractor {
	return &Extractor{gen: gen}
}

func (e *Extractor) Extract(ctx context.Context, doc CandidateDocument, ct ContentType) StructuredSummary {
	prompt := buildSummaryPrompt(doc, ct)

	raw, err := e.gen.Generate(ctx, llm.GenerateRequest{
		Prompt:       prompt,
		SystemPrompt: summarySystemPrompt,
	})
	if err != nil {
		logger.Warn("Summary generation failed, using heuristic summary",
			zap.String("title", doc.Title),
			zap.Error(err),
		)
		return heuristicSummary(doc, ct)
	}

	summary, err := parseSummary(raw, ct)
	if err != nil {
		logger.Warn("Summary parse failed, using heuristic summary",
			zap.String("title", doc.Title),
			zap.Error(err),
		)
		return heuristicSummary(doc, ct)
	}

	return summary
}

func buildSummaryPrompt(doc CandidateDocument, ct ContentType) string {
	body := truncate(doc.Body, 6000)

	switch ct {
	case TypeDocumentation:
		return fmt.Sprintf(`Summarize this equipment documentation.

Title: %s

Content:
%s

Return JSON with fields:
{"documentation_type": "...", "equipment_models": [...], "key_specifications": {"name": "value"}, "important_settings": [...], "key_points": [...]}`,
			doc.Title, body)

	case TypeComparison:
		return fmt.Sprintf(`Summarize this comparison article.

Title: %s

Content:
%s

Return JSON with fields:
{"comparison_type": "...", "compared_items": [...], "comparison_criteria": [...], "key_differences": {"item": ["difference"]}, "recommendations": [...], "key_points": [...]}`,
			doc.Title, body)

	case TypeTechnical:
		return fmt.Sprintf(`Summarize this technical overview.

Title: %s

Content:
%s

Return JSON with fields:
{"topic": "...", "key_characteristics": {"name": "value"}, "important_parameters": [...], "applications": [...], "key_points": [...]}`,
			doc.Title, body)

	default:
		return fmt.Sprintf(`Summarize this 3D-printing troubleshooting article.

Title: %s

Content:
%s

Return JSON with fields:
{"problem": "...", "symptoms": [...], "solutions": [{"description": "...", "parameters": {"name": "value"}}], "printer_models": [...], "materials": [...], "key_points": [...]}`,
			doc.Title, body)
	}
}

// parseSummary decodes the variant matching ct. Each variant has its own
// wire shape so the four parsing contracts stay independently testable.
func parseSummary(raw string, ct ContentType) (StructuredSummary, error) {
	switch ct {
	case TypeDocumentation:
		var v struct {
			DocumentationSummary
			KeyPoints []string `json:"key_points"`
		}
		if err := llm.ExtractJSON(raw, &v); err != nil {
			return StructuredSummary{}, err
		}
		return StructuredSummary{
			ContentType:   ct,
			KeyPoints:     v.KeyPoints,
			Documentation: &v.DocumentationSummary,
		}, nil

	case TypeComparison:
		var v struct {
			ComparisonSummary
			KeyPoints []string `json:"key_points"`
		}
		if err := llm.ExtractJSON(raw, &v); err != nil {
			return StructuredSummary{}, err
		}
		return StructuredSummary{
			ContentType: ct,
			KeyPoints:   v.KeyPoints,
			Comparison:  &v.ComparisonSummary,
		}, nil

	case TypeTechnical:
		var v struct {
			TechnicalSummary
			KeyPoints []string `json:"key_points"`
		}
		if err := llm.ExtractJSON(raw, &v); err != nil {
			return StructuredSummary{}, err
		}
		return StructuredSummary{
			ContentType: ct,
			KeyPoints:   v.KeyPoints,
			Technical:   &v.TechnicalSummary,
		}, nil

	default:
		var v struct {
			ArticleSummary
			KeyPoints []string `json:"key_points"`
		}
		if err := llm.ExtractJSON(raw, &v); err != nil {
			return StructuredSummary{}, err
		}
		return StructuredSummary{
			ContentType: TypeArticle,
			KeyPoints:   v.KeyPoints,
			Article:     &v.ArticleSummary,
		}, nil
	}
}

// heuristicSummary builds a minimal summary from keyword matching on the
// content body. It carries enough signal for the duplicate check and the
// decision reason even when the model is completely down.
func heuristicSummary(doc CandidateDocument, ct ContentType) StructuredSummary {
	summary := StructuredSummary{
		ContentType: ct,
		KeyPoints:   leadingSentences(doc.Body, 3),
	}

	switch ct {
	case TypeDocumentation:
		summary.Documentation = &DocumentationSummary{DocumentationType: "manual"}
	case TypeComparison:
		summary.Comparison = &ComparisonSummary{ComparisonType: "general"}
	case TypeTechnical:
		summary.Technical = &TechnicalSummary{Topic: doc.Title}
	default:
		summary.Article = &ArticleSummary{
			Problem: DetectProblemType(doc.Title + " " + doc.Body),
		}
	}

	return summary
}

// DetectProblemType canonicalizes free text into one of the known problem
// types, or "" when nothing matches.
func DetectProblemType(text string) string {
	lower := strings.ToLower(text)
	for _, problem := range []string{"stringing", "warping", "layer_separation"} {
		for _, kw := range problemKeywords[problem] {
			if strings.Contains(lower, kw) {
				return problem
			}
		}
	}
	return ""
}

// leadingSentences segments the body and returns the first n sentences as
// key points. Falls back to a raw prefix if segmentation fails.
func leadingSentences(body string, n int) []string {
	text := truncate(strings.TrimSpace(body), 2000)
	if text == "" {
		return nil
	}

	pdoc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return []string{truncate(text, 200)}
	}

	sentences := pdoc.Sentences()
	points := make([]string, 0, n)
	for _, s := range sentences {
		trimmed := strings.TrimSpace(s.Text)
		if trimmed == "" {
			continue
		}
		points = append(points, trimmed)
		if len(points) == n {
			break
		}
	}

	if len(points) == 0 {
		return []string{truncate(text, 200)}
	}
	return points
}
