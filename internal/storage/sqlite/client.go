package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/printkb/backend/internal/storage/models"
	"github.com/printkb/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err = db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping() error {
	return c.db.Ping()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		url TEXT,
		content_type TEXT,
		problem_type TEXT,
		printer_models TEXT,
		materials TEXT,
		abstract TEXT,
		filtered_content TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_articles_problem ON articles(problem_type);
	CREATE INDEX IF NOT EXISTS idx_articles_type ON articles(content_type);
	CREATE INDEX IF NOT EXISTS idx_articles_updated ON articles(updated_at);

	CREATE TABLE IF NOT EXISTS curation_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		article_id TEXT,
		title TEXT NOT NULL,
		url TEXT,
		outcome TEXT NOT NULL,
		reason TEXT,
		relevance_score REAL,
		quality_score REAL,
		is_duplicate INTEGER DEFAULT 0,
		duplicate_reason TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_curation_outcome ON curation_log(outcome);
	CREATE INDEX IF NOT EXISTS idx_curation_created ON curation_log(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) UpsertArticle(article *models.Article) error {
	printerModels, _ := json.Marshal(article.PrinterModels)
	materials, _ := json.Marshal(article.Materials)

	query := `
		INSERT INTO articles (id, title, url, content_type, problem_type, printer_models,
			materials, abstract, filtered_content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			abstract = excluded.abstract,
			filtered_content = excluded.filtered_content,
			problem_type = excluded.problem_type,
			printer_models = excluded.printer_models,
			materials = excluded.materials,
			updated_at = excluded.updated_at
	`

	_, err := c.db.Exec(
		query,
		article.ID,
		article.Title,
		article.URL,
		article.ContentType,
		article.ProblemType,
		string(printerModels),
		string(materials),
		article.Abstract,
		article.FilteredContent,
		article.CreatedAt.Unix(),
		article.UpdatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to upsert article: %w", err)
	}

	logger.Debug("Article stored", zap.String("article_id", article.ID), zap.String("title", article.Title))
	return nil
}

func (c *Client) GetArticle(id string) (*models.Article, error) {
	query := `SELECT id, title, url, content_type, problem_type, printer_models, materials,
		abstract, filtered_content, created_at, updated_at FROM articles WHERE id = ?`

	var (
		article                  models.Article
		printerModels, materials string
		createdAt, updatedAt     int64
	)

	err := c.db.QueryRow(query, id).Scan(
		&article.ID,
		&article.Title,
		&article.URL,
		&article.ContentType,
		&article.ProblemType,
		&printerModels,
		&materials,
		&article.Abstract,
		&article.FilteredContent,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}

	json.Unmarshal([]byte(printerModels), &article.PrinterModels)
	json.Unmarshal([]byte(materials), &article.Materials)
	article.CreatedAt = time.Unix(createdAt, 0)
	article.UpdatedAt = time.Unix(updatedAt, 0)

	return &article, nil
}

func (c *Client) InsertCurationRecord(record *models.CurationRecord) error {
	query := `
		INSERT INTO curation_log (article_id, title, url, outcome, reason,
			relevance_score, quality_score, is_duplicate, duplicate_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	isDuplicate := 0
	if record.IsDuplicate {
		isDuplicate = 1
	}

	_, err := c.db.Exec(
		query,
		record.ArticleID,
		record.Title,
		record.URL,
		record.Outcome,
		record.Reason,
		record.RelevanceScore,
		record.QualityScore,
		isDuplicate,
		record.DuplicateReason,
		time.Now().Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert curation record: %w", err)
	}

	logger.Info("Curation decision recorded",
		zap.String("title", record.Title),
		zap.String("outcome", record.Outcome),
	)

	return nil
}

func (c *Client) ListCurationHistory(limit int) ([]models.CurationRecord, error) {
	query := `
		SELECT id, article_id, title, url, outcome, reason, relevance_score,
			quality_score, is_duplicate, duplicate_reason, created_at
		FROM curation_log
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list curation history: %w", err)
	}
	defer rows.Close()

	var records []models.CurationRecord
	for rows.Next() {
		var (
			r           models.CurationRecord
			isDuplicate int
			createdAt   int64
		)

		err := rows.Scan(&r.ID, &r.ArticleID, &r.Title, &r.URL, &r.Outcome, &r.Reason,
			&r.RelevanceScore, &r.QualityScore, &isDuplicate, &r.DuplicateReason, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.IsDuplicate = isDuplicate == 1
		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}
