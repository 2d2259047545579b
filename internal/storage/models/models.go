package models

import "time"

// Article is an approved knowledge base entry as persisted in SQLite. The
// vector store holds the embedding; this row is the durable system of
// record for content and curation provenance.
type Article struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	URL             string    `json:"url,omitempty"`
	ContentType     string    `json:"content_type"`
	ProblemType     string    `json:"problem_type,omitempty"`
	PrinterModels   []string  `json:"printer_models,omitempty"`
	Materials       []string  `json:"materials,omitempty"`
	Abstract        string    `json:"abstract"`
	FilteredContent string    `json:"filtered_content"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CurationRecord is one entry in the curation audit log: every reviewed
// document lands here regardless of outcome.
type CurationRecord struct {
	ID              int64     `json:"id"`
	ArticleID       string    `json:"article_id,omitempty"`
	Title           string    `json:"title"`
	URL             string    `json:"url,omitempty"`
	Outcome         string    `json:"outcome"`
	Reason          string    `json:"reason"`
	RelevanceScore  float64   `json:"relevance_score"`
	QualityScore    float64   `json:"quality_score"`
	IsDuplicate     bool      `json:"is_duplicate"`
	DuplicateReason string    `json:"duplicate_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
