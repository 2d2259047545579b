package curation

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/printkb/backend/pkg/logger"
)

// Stage identifies a curation step for progress reporting.
type Stage string

const (
	StageSummary   Stage = "summary"
	StageRelevance Stage = "relevance"
	StageDuplicate Stage = "duplicate"
	StageAbstract  Stage = "abstract"
	StageDecision  Stage = "decision"
)

// ProgressFunc receives stage-completion events. May be nil.
type ProgressFunc func(stage Stage)

// Curator runs the full review pipeline:
// summary, then relevance/duplicate/abstract concurrently, then the decision.
// Every sub-step degrades to a documented fallback, so Curate always
// terminates with a decision even under total LLM unavailability.
type Curator struct {
	extractor  *Extractor
	assessor   *Assessor
	detector   *Detector
	abstractor *Abstractor
	thresholds Thresholds
}

func NewCurator(gen Generator, searcher Searcher, duplicateSearchK int, th Thresholds) *Curator {
	return &Curator{
		extractor:  NewExtractor(gen),
		assessor:   NewAssessor(gen),
		detector:   NewDetector(gen, searcher, duplicateSearchK),
		abstractor: NewAbstractor(gen),
		thresholds: th,
	}
}

func (c *Curator) Curate(ctx context.Context, doc CandidateDocument) *Result {
	return c.CurateWithProgress(ctx, doc, nil)
}

func (c *Curator) CurateWithProgress(ctx context.Context, doc CandidateDocument, progress ProgressFunc) *Result {
	report := func(stage Stage) {
		if progress != nil {
			progress(stage)
		}
	}

	// Question-list pages skip the pipeline entirely; the fixed reject is
	// checked before any assessment runs.
	if doc.QuestionList {
		decision := Decide(RelevanceAssessment{}, DuplicateAssessment{}, StructuredSummary{}, true, c.thresholds)
		report(StageDecision)
		logger.Info("Curation short-circuited for question list",
			zap.String("title", doc.Title),
		)
		return &Result{Decision: decision}
	}

	contentType := DetectContentType(doc)

	summary := c.extractor.Extract(ctx, doc, contentType)
	report(StageSummary)

	// The three middle stages are independent and each is fail-safe, so they
	// run concurrently. No shared mutable state beyond their own result slot.
	var (
		wg              sync.WaitGroup
		relevance       RelevanceAssessment
		duplicate       DuplicateAssessment
		abstract        string
		filteredContent string
	)

	wg.Add(3)

	go func() {
		defer wg.Done()
		relevance = c.assessor.Assess(ctx, doc.Title, doc.Body, summary)
		report(StageRelevance)
	}()

	go func() {
		defer wg.Done()
		duplicate = c.detector.Detect(ctx, doc.Title, summary)
		report(StageDuplicate)
	}()

	go func() {
		defer wg.Done()
		abstract = c.abstractor.Abstract(ctx, doc, summary)
		filteredContent = c.abstractor.FilterContent(ctx, doc)
		report(StageAbstract)
	}()

	wg.Wait()

	decision := Decide(relevance, duplicate, summary, false, c.thresholds)
	report(StageDecision)

	logger.Info("Curation completed",
		zap.String("title", doc.Title),
		zap.String("content_type", string(contentType)),
		zap.String("decision", string(decision.Outcome)),
		zap.Float64("relevance", relevance.Score),
		zap.Float64("quality", relevance.QualityScore),
		zap.Bool("duplicate", duplicate.IsDuplicate),
	)

	return &Result{
		Decision:        decision,
		Summary:         summary,
		Abstract:        abstract,
		FilteredContent: filteredContent,
		Duplicate:       duplicate,
		Relevance:       relevance,
	}
}
