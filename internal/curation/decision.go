package curation

import (
	"fmt"
	"strings"
)

// Thresholds hold the gating scores for the decision rules.
type Thresholds struct {
	Relevance float64 // reject below this relevance score
	Quality   float64 // reject below this quality score
	Approve   float64 // approve at or above this on both scores
}

func DefaultThresholds() Thresholds {
	return Thresholds{Relevance: 0.6, Quality: 0.6, Approve: 0.7}
}

const questionListReason = "Document is an index of questions, not a single article; not eligible for the knowledge base."

const reviewInstruction = "Verify topical relevance and check for duplication manually"

// Decide is a pure function of the relevance and duplicate assessments. The
// summary feeds only the reason string, never the gating thresholds.
//
// The rules run in a fixed order and the first match wins:
//
//  0. question-list pages are rejected outright, before anything else
//  1. duplicates are rejected
//  2. not relevant, or relevance score below threshold: reject
//  3. no valuable info, or quality score below threshold: reject
//  4. both scores at or above the approve threshold: approve
//  5. otherwise: needs_review
//
// Rule 4 intentionally does not re-test is_relevant: rule 2 has already
// filtered is_relevant=false out, and reordering the checks would change
// observable behavior. Keep the ordering exactly as written.
func Decide(rel RelevanceAssessment, dup DuplicateAssessment, summary StructuredSummary, questionList bool, th Thresholds) Decision {
	if questionList {
		return Decision{
			Outcome: OutcomeReject,
			Reason:  questionListReason,
		}
	}

	if dup.IsDuplicate {
		reason := "Duplicate of existing knowledge base content"
		if dup.DuplicateReason != "" {
			reason = fmt.Sprintf("Duplicate: %s", dup.DuplicateReason)
		}
		return Decision{Outcome: OutcomeReject, Reason: reason}
	}

	if !rel.IsRelevant || rel.Score < th.Relevance {
		return Decision{
			Outcome: OutcomeReject,
			Reason:  fmt.Sprintf("Insufficient relevance (score %.2f)%s", rel.Score, issuesSuffix(rel.Issues)),
		}
	}

	if !rel.HasValuableInfo || rel.QualityScore < th.Quality {
		return Decision{
			Outcome: OutcomeReject,
			Reason:  fmt.Sprintf("Insufficient quality (score %.2f)%s", rel.QualityScore, issuesSuffix(rel.Issues)),
		}
	}

	if rel.Score >= th.Approve && rel.QualityScore >= th.Approve {
		reason := fmt.Sprintf("Relevant (%.2f) and high quality (%.2f) %s content",
			rel.Score, rel.QualityScore, summary.ContentType)
		if len(rel.Strengths) > 0 {
			reason += ": " + strings.Join(rel.Strengths, "; ")
		}
		return Decision{Outcome: OutcomeApprove, Reason: reason}
	}

	recommendations := append([]string{}, rel.Issues...)
	recommendations = append(recommendations, reviewInstruction)

	// The reason carries the outstanding issues and the review instruction
	// so a reviewer sees them without reading the recommendations field.
	return Decision{
		Outcome: OutcomeNeedsReview,
		Reason: fmt.Sprintf("Borderline scores (relevance %.2f, quality %.2f)%s; %s",
			rel.Score, rel.QualityScore, issuesSuffix(rel.Issues), reviewInstruction),
		Recommendations: recommendations,
	}
}

func issuesSuffix(issues []string) string {
	if len(issues) == 0 {
		return ""
	}
	return ": " + strings.Join(issues, "; ")
}
