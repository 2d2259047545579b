package curation

import (
	"context"
	"strings"

	"github.com/printkb/backend/internal/llm"
	"github.com/printkb/backend/internal/search"
)

// ContentType classifies a candidate document, driving which summary shape
// and prompt template apply.
type ContentType string

const (
	TypeArticle       ContentType = "article"
	TypeDocumentation ContentType = "documentation"
	TypeComparison    ContentType = "comparison"
	TypeTechnical     ContentType = "technical"
)

// CandidateDocument is the immutable input to curation, produced by the
// extraction layer.
type CandidateDocument struct {
	Title        string      `json:"title"`
	Body         string      `json:"body"`
	Images       []string    `json:"images,omitempty"`
	URL          string      `json:"url,omitempty"`
	DeclaredType ContentType `json:"declared_type,omitempty"`
	// QuestionList marks pages that are an index of questions rather than a
	// single article; curation rejects these without running the pipeline.
	QuestionList bool `json:"question_list,omitempty"`
}

type Solution struct {
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters,omitempty"`
}

type ArticleSummary struct {
	Problem       string     `json:"problem"`
	Symptoms      []string   `json:"symptoms,omitempty"`
	Solutions     []Solution `json:"solutions,omitempty"`
	PrinterModels []string   `json:"printer_models,omitempty"`
	Materials     []string   `json:"materials,omitempty"`
}

type DocumentationSummary struct {
	DocumentationType string            `json:"documentation_type"`
	EquipmentModels   []string          `json:"equipment_models,omitempty"`
	KeySpecifications map[string]string `json:"key_specifications,omitempty"`
	ImportantSettings []string          `json:"important_settings,omitempty"`
}

type ComparisonSummary struct {
	ComparisonType     string              `json:"comparison_type"`
	ComparedItems      []string            `json:"compared_items,omitempty"`
	ComparisonCriteria []string            `json:"comparison_criteria,omitempty"`
	KeyDifferences     map[string][]string `json:"key_differences,omitempty"`
	Recommendations    []string            `json:"recommendations,omitempty"`
}

type TechnicalSummary struct {
	Topic               string            `json:"topic"`
	KeyCharacteristics  map[string]string `json:"key_characteristics,omitempty"`
	ImportantParameters []string          `json:"important_parameters,omitempty"`
	Applications        []string          `json:"applications,omitempty"`
}

// StructuredSummary is a tagged union: exactly the variant matching
// ContentType is non-nil. KeyPoints is present for every variant.
type StructuredSummary struct {
	ContentType   ContentType           `json:"content_type"`
	KeyPoints     []string              `json:"key_points"`
	Article       *ArticleSummary       `json:"article,omitempty"`
	Documentation *DocumentationSummary `json:"documentation,omitempty"`
	Comparison    *ComparisonSummary    `json:"comparison,omitempty"`
	Technical     *TechnicalSummary     `json:"technical,omitempty"`
}

// Problem returns the summary's problem statement where the variant has one.
func (s StructuredSummary) Problem() string {
	switch {
	case s.Article != nil:
		return s.Article.Problem
	case s.Technical != nil:
		return s.Technical.Topic
	default:
		return ""
	}
}

// PrinterModels returns the equipment identifiers carried by the variant.
func (s StructuredSummary) PrinterModels() []string {
	switch {
	case s.Article != nil:
		return s.Article.PrinterModels
	case s.Documentation != nil:
		return s.Documentation.EquipmentModels
	default:
		return nil
	}
}

type RelevanceAssessment struct {
	Score           float64  `json:"score"`
	QualityScore    float64  `json:"quality_score"`
	IsRelevant      bool     `json:"is_relevant"`
	HasValuableInfo bool     `json:"has_valuable_info"`
	Issues          []string `json:"issues,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
}

type DuplicateAssessment struct {
	IsDuplicate      bool      `json:"is_duplicate"`
	DuplicateReason  string    `json:"duplicate_reason,omitempty"`
	Uniqueness       string    `json:"uniqueness,omitempty"`
	SimilarDocs      []string  `json:"similar_docs,omitempty"`
	SimilarityScores []float64 `json:"similarity_scores,omitempty"`
}

type Outcome string

const (
	OutcomeApprove     Outcome = "approve"
	OutcomeReject      Outcome = "reject"
	OutcomeNeedsReview Outcome = "needs_review"
)

// Decision is the terminal output of curation; never mutated afterward.
type Decision struct {
	Outcome         Outcome  `json:"decision"`
	Reason          string   `json:"reason"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Result bundles everything curate() hands back to the API layer.
type Result struct {
	Decision        Decision            `json:"decision"`
	Summary         StructuredSummary   `json:"summary"`
	Abstract        string              `json:"abstract"`
	FilteredContent string              `json:"filtered_content"`
	Duplicate       DuplicateAssessment `json:"duplicate"`
	Relevance       RelevanceAssessment `json:"relevance"`
}

// Generator is the LLM collaborator, substitutable in tests.
type Generator interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (string, error)
}

// Searcher runs the retrieval pipeline; the duplicate detector issues
// reduced-K queries through it.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
}

var contentTypeKeywords = map[ContentType][]string{
	TypeDocumentation: {"specification", "manual", "datasheet", "инструкция", "спецификация", "руководство"},
	TypeComparison:    {" vs ", "versus", "comparison", "compared", "сравнение", "или что лучше"},
	TypeTechnical:     {"material properties", "технология", "принцип работы", "how it works", "overview of"},
}

// DetectContentType resolves the content type once per document: the
// declared type wins, otherwise keyword heuristics over the title and the
// first 500 characters of the body, defaulting to article.
func DetectContentType(doc CandidateDocument) ContentType {
	switch doc.DeclaredType {
	case TypeArticle, TypeDocumentation, TypeComparison, TypeTechnical:
		return doc.DeclaredType
	}

	probe := strings.ToLower(doc.Title + " " + truncate(doc.Body, 500))

	for _, ct := range []ContentType{TypeComparison, TypeDocumentation, TypeTechnical} {
		for _, kw := range contentTypeKeywords[ct] {
			if strings.Contains(probe, kw) {
				return ct
			}
		}
	}

	return TypeArticle
}

// truncate caps s at n characters, not bytes. Much of the corpus is
// Cyrillic, so a byte slice would halve every budget and could cut a rune
// in half.
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
