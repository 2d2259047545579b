package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.uber.org/zap"

	"github.com/printkb/backend/internal/search"
	"github.com/printkb/backend/pkg/logger"
)

// StoreError wraps vector store failures. Retrieval treats it as "zero
// results": an empty knowledge base is a valid state, not a hard failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

type Client struct {
	client         client.Client
	collectionName string
	vectorDim      int
}

func NewClient(endpoint, apiKey, collectionName string, vectorDim int) (*Client, error) {
	c, err := client.NewGrpcClient(
		context.Background(),
		endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create milvus client: %w", err)
	}

	logger.Info("Milvus client initialized",
		zap.String("endpoint", endpoint),
		zap.String("collection", collectionName),
	)

	return &Client{
		client:         c,
		collectionName: collectionName,
		vectorDim:      vectorDim,
	}, nil
}

func (m *Client) Close() error {
	return m.client.Close()
}

// Ping verifies the store is reachable.
func (m *Client) Ping(ctx context.Context) error {
	_, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return &StoreError{Op: "ping", Err: err}
	}
	return nil
}

func (m *Client) EnsureCollection(ctx context.Context) error {
	has, err := m.client.HasCollection(ctx, m.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if has {
		logger.Info("Collection already exists", zap.String("collection", m.collectionName))
		return nil
	}

	schema := &entity.Schema{
		CollectionName: m.collectionName,
		Description:    "Curated troubleshooting article embeddings",
		Fields: []*entity.Field{
			{
				Name:       "article_id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "embedding",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": fmt.Sprintf("%d", m.vectorDim),
				},
			},
			{
				Name:     "title",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "8192",
				},
			},
			{
				Name:     "abstract",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
			{
				Name:     "url",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "problem_type",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "printer_models",
				DataType: entity.FieldTypeJSON,
			},
			{
				Name:     "materials",
				DataType: entity.FieldTypeJSON,
			},
			{
				Name:     "timestamp",
				DataType: entity.FieldTypeInt64,
			},
		},
	}

	err = m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	idx, err := entity.NewIndexIvfFlat(entity.COSINE, 1024)
	if err != nil {
		return fmt.Errorf("failed to build index definition: %w", err)
	}
	err = m.client.CreateIndex(ctx, m.collectionName, "embedding", idx, false)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	err = m.client.LoadCollection(ctx, m.collectionName, false)
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}

	logger.Info("Collection created and loaded", zap.String("collection", m.collectionName))

	return nil
}

// Upsert writes one article's vector and payload. Concurrent upserts to the
// same id are last-write-wins at the store's discretion.
func (m *Client) Upsert(ctx context.Context, id string, vector []float32, payload search.Payload) error {
	models, err := json.Marshal(payload.PrinterModels)
	if err != nil {
		return &StoreError{Op: "upsert", Err: err}
	}
	materials, err := json.Marshal(payload.Materials)
	if err != nil {
		return &StoreError{Op: "upsert", Err: err}
	}

	_, err = m.client.Upsert(
		ctx,
		m.collectionName,
		"",
		entity.NewColumnVarChar("article_id", []string{id}),
		entity.NewColumnFloatVector("embedding", m.vectorDim, [][]float32{vector}),
		entity.NewColumnVarChar("title", []string{payload.Title}),
		entity.NewColumnVarChar("content", []string{payload.Content}),
		entity.NewColumnVarChar("abstract", []string{payload.Abstract}),
		entity.NewColumnVarChar("url", []string{payload.URL}),
		entity.NewColumnVarChar("problem_type", []string{payload.ProblemType}),
		entity.NewColumnJSONBytes("printer_models", [][]byte{models}),
		entity.NewColumnJSONBytes("materials", [][]byte{materials}),
		entity.NewColumnInt64("timestamp", []int64{time.Now().Unix()}),
	)
	if err != nil {
		return &StoreError{Op: "upsert", Err: err}
	}

	logger.Debug("Article upserted into vector store", zap.String("article_id", id))

	return nil
}

// Query runs a filtered ANN search, returning hits ordered by cosine
// similarity descending, clamped into [0,1].
func (m *Client) Query(ctx context.Context, vector []float32, filters search.Filters, limit int) ([]search.Result, error) {
	expr := buildFilterExpr(filters)

	sp, _ := entity.NewIndexIvfFlatSearchParam(16)

	searchResult, err := m.client.Search(
		ctx,
		m.collectionName,
		[]string{},
		expr,
		[]string{"article_id", "title", "content", "abstract", "url", "problem_type", "printer_models", "materials"},
		[]entity.Vector{entity.FloatVector(vector)},
		"embedding",
		entity.COSINE,
		limit,
		sp,
	)
	if err != nil {
		return nil, &StoreError{Op: "query", Err: err}
	}

	results := make([]search.Result, 0)
	for _, sr := range searchResult {
		for i := 0; i < sr.ResultCount; i++ {
			payload := search.Payload{
				ArticleID:     varcharAt(sr.Fields.GetColumn("article_id"), i),
				Title:         varcharAt(sr.Fields.GetColumn("title"), i),
				Content:       varcharAt(sr.Fields.GetColumn("content"), i),
				Abstract:      varcharAt(sr.Fields.GetColumn("abstract"), i),
				URL:           varcharAt(sr.Fields.GetColumn("url"), i),
				ProblemType:   varcharAt(sr.Fields.GetColumn("problem_type"), i),
				PrinterModels: stringsAt(sr.Fields.GetColumn("printer_models"), i),
				Materials:     stringsAt(sr.Fields.GetColumn("materials"), i),
			}

			results = append(results, search.Result{
				Payload: payload,
				Score:   clampScore(float64(sr.Scores[i])),
			})
		}
	}

	logger.Debug("Vector search completed",
		zap.Int("limit", limit),
		zap.Int("results", len(results)),
		zap.String("filters", expr),
	)

	return results, nil
}

// buildFilterExpr turns query filters into an exact-match predicate: equality
// for problem_type, containment for the array dimensions, OR within a
// dimension, AND across dimensions.
func buildFilterExpr(filters search.Filters) string {
	var clauses []string

	if filters.ProblemType != "" {
		clauses = append(clauses, fmt.Sprintf(`problem_type == "%s"`, escape(filters.ProblemType)))
	}
	if len(filters.PrinterModels) > 0 {
		clauses = append(clauses, containsAny("printer_models", filters.PrinterModels))
	}
	if len(filters.Materials) > 0 {
		clauses = append(clauses, containsAny("materials", filters.Materials))
	}

	return strings.Join(clauses, " && ")
}

func containsAny(field string, values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, fmt.Sprintf(`json_contains(%s, "%s")`, field, escape(v)))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " || ") + ")"
}

func escape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`)
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func varcharAt(col entity.Column, i int) string {
	if col == nil {
		return ""
	}
	v, err := col.Get(i)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func stringsAt(col entity.Column, i int) []string {
	if col == nil {
		return nil
	}
	v, err := col.Get(i)
	if err != nil {
		return nil
	}

	var raw []byte
	switch b := v.(type) {
	case []byte:
		raw = b
	case string:
		raw = []byte(b)
	default:
		return nil
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
