package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/printkb/backend/internal/curation"
	"github.com/printkb/backend/internal/metrics"
	"github.com/printkb/backend/internal/search"
	"github.com/printkb/backend/internal/storage/models"
	"github.com/printkb/backend/internal/storage/sqlite"
	"github.com/printkb/backend/pkg/logger"
	"github.com/printkb/backend/pkg/utils"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// SearchCache is invalidated whenever the index changes. Optional.
type SearchCache interface {
	InvalidateSearchCache(ctx context.Context) error
}

// Processor runs a candidate through curation and, on approval, indexes it
// into the vector store and the article store. Every reviewed document is
// recorded in the curation audit log regardless of outcome.
type Processor struct {
	curator  *curation.Curator
	embedder search.Embedder
	store    search.VectorStore
	db       *sqlite.Client
	cache    SearchCache
}

func NewProcessor(curator *curation.Curator, embedder search.Embedder, store search.VectorStore, db *sqlite.Client, cache SearchCache) *Processor {
	return &Processor{
		curator:  curator,
		embedder: embedder,
		store:    store,
		db:       db,
		cache:    cache,
	}
}

// ProcessHTML is thin extraction glue in front of Process: it cleans raw
// HTML into a candidate document. Real parsing lives in the extraction
// layer; this handles the direct-upload path only.
func (p *Processor) ProcessHTML(ctx context.Context, url, htmlContent string, progress curation.ProgressFunc) (*curation.Result, error) {
	body := cleanHTML(htmlContent)
	if body == "" {
		return nil, fmt.Errorf("no content extracted from HTML")
	}

	doc := curation.CandidateDocument{
		Title: extractTitle(htmlContent),
		Body:  body,
		URL:   url,
	}

	return p.Process(ctx, doc, progress)
}

func (p *Processor) Process(ctx context.Context, doc curation.CandidateDocument, progress curation.ProgressFunc) (*curation.Result, error) {
	start := time.Now()
	logger.Info("Processing candidate document", zap.String("title", doc.Title), zap.String("url", doc.URL))

	result := p.curator.CurateWithProgress(ctx, doc, progress)

	metrics.CurationDecisions.WithLabelValues(string(result.Decision.Outcome)).Inc()
	metrics.CurationDuration.Observe(time.Since(start).Seconds())

	articleID := ""
	if result.Decision.Outcome == curation.OutcomeApprove {
		id, err := p.index(ctx, doc, result)
		if err != nil {
			return nil, fmt.Errorf("failed to index approved document: %w", err)
		}
		articleID = id
	}

	record := &models.CurationRecord{
		ArticleID:       articleID,
		Title:           doc.Title,
		URL:             doc.URL,
		Outcome:         string(result.Decision.Outcome),
		Reason:          result.Decision.Reason,
		RelevanceScore:  result.Relevance.Score,
		QualityScore:    result.Relevance.QualityScore,
		IsDuplicate:     result.Duplicate.IsDuplicate,
		DuplicateReason: result.Duplicate.DuplicateReason,
	}
	if err := p.db.InsertCurationRecord(record); err != nil {
		logger.Warn("Failed to record curation decision", zap.Error(err))
	}

	return result, nil
}

// index embeds the curated representation and writes it to both stores. The
// abstract plus filtered content is what gets embedded: curation already
// stripped the noise that would pollute the vector.
func (p *Processor) index(ctx context.Context, doc curation.CandidateDocument, result *curation.Result) (string, error) {
	articleID := articleIDFor(doc)

	payload := search.Payload{
		ArticleID:     articleID,
		Title:         doc.Title,
		Content:       result.FilteredContent,
		Abstract:      result.Abstract,
		URL:           doc.URL,
		ProblemType:   problemType(result.Summary),
		PrinterModels: result.Summary.PrinterModels(),
	}
	if result.Summary.Article != nil {
		payload.Materials = result.Summary.Article.Materials
	}

	embedText := doc.Title + "\n" + result.Abstract + "\n" + result.FilteredContent
	vector, err := p.embedder.Embed(ctx, embedText)
	if err != nil {
		return "", fmt.Errorf("failed to embed article: %w", err)
	}

	if err := p.store.Upsert(ctx, articleID, vector, payload); err != nil {
		return "", err
	}

	now := time.Now()
	article := &models.Article{
		ID:              articleID,
		Title:           doc.Title,
		URL:             doc.URL,
		ContentType:     string(result.Summary.ContentType),
		ProblemType:     payload.ProblemType,
		PrinterModels:   payload.PrinterModels,
		Materials:       payload.Materials,
		Abstract:        result.Abstract,
		FilteredContent: result.FilteredContent,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := p.db.UpsertArticle(article); err != nil {
		return "", err
	}

	if p.cache != nil {
		if err := p.cache.InvalidateSearchCache(ctx); err != nil {
			logger.Warn("Failed to invalidate search cache", zap.Error(err))
		}
	}

	metrics.DocumentsIndexed.Inc()
	logger.Info("Article indexed",
		zap.String("article_id", articleID),
		zap.String("title", doc.Title),
	)

	return articleID, nil
}

func articleIDFor(doc curation.CandidateDocument) string {
	if doc.URL != "" {
		return utils.HashString(doc.URL)
	}
	return utils.HashString(doc.Title + doc.Body)
}

// problemType canonicalizes the summary's problem statement so filter
// matching at search time works on a closed vocabulary.
func problemType(summary curation.StructuredSummary) string {
	if summary.Article == nil {
		return ""
	}
	if canonical := curation.DetectProblemType(summary.Article.Problem); canonical != "" {
		return canonical
	}
	return summary.Article.Problem
}

func cleanHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, nav, footer, header, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := doc.Find("body").Text()
	text = whitespaceRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

func extractTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "Untitled"
	}

	title := doc.Find("title").First().Text()
	if title == "" {
		title = doc.Find("h1").First().Text()
	}
	if title == "" {
		title = "Untitled"
	}

	return strings.TrimSpace(title)
}
