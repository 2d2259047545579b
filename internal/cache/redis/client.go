package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/printkb/backend/internal/metrics"
	"github.com/printkb/backend/internal/search"
	"github.com/printkb/backend/pkg/logger"
	"github.com/printkb/backend/pkg/utils"
)

type Client struct {
	client       *redis.Client
	embeddingTTL time.Duration
	searchTTL    time.Duration
}

func NewClient(host string, port int, password string, db int, embeddingTTL, searchTTL time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{
		client:       client,
		embeddingTTL: embeddingTTL,
		searchTTL:    searchTTL,
	}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) GetEmbedding(ctx context.Context, textHash string) ([]float32, bool) {
	data, err := c.client.Get(ctx, "embedding:"+textHash).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Embedding cache read failed", zap.Error(err))
		}
		metrics.CacheMisses.WithLabelValues("embedding").Inc()
		return nil, false
	}

	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		metrics.CacheMisses.WithLabelValues("embedding").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("embedding").Inc()
	return embedding, true
}

func (c *Client) SetEmbedding(ctx context.Context, textHash string, embedding []float32) {
	data, err := json.Marshal(embedding)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, "embedding:"+textHash, data, c.embeddingTTL).Err(); err != nil {
		logger.Warn("Embedding cache write failed", zap.Error(err))
	}
}

func (c *Client) GetSearchResults(ctx context.Context, queryHash string) ([]search.Result, bool) {
	data, err := c.client.Get(ctx, "search:"+queryHash).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Search cache read failed", zap.Error(err))
		}
		metrics.CacheMisses.WithLabelValues("search").Inc()
		return nil, false
	}

	var results []search.Result
	if err := json.Unmarshal(data, &results); err != nil {
		metrics.CacheMisses.WithLabelValues("search").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("search").Inc()
	return results, true
}

func (c *Client) SetSearchResults(ctx context.Context, queryHash string, results []search.Result) {
	data, err := json.Marshal(results)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, "search:"+queryHash, data, c.searchTTL).Err(); err != nil {
		logger.Warn("Search cache write failed", zap.Error(err))
	}
}

// InvalidateSearchCache drops cached responses after the index changes.
func (c *Client) InvalidateSearchCache(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "search:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Search cache invalidated")
	return nil
}

// CachedEmbedder decorates an embedder with a read-through redis cache.
// Cache failures fall through to the wrapped embedder silently.
type CachedEmbedder struct {
	inner search.Embedder
	cache *Client
}

func NewCachedEmbedder(inner search.Embedder, cache *Client) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache}
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := utils.HashString(text)

	if embedding, ok := e.cache.GetEmbedding(ctx, key); ok {
		return embedding, nil
	}

	embedding, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	e.cache.SetEmbedding(ctx, key, embedding)
	return embedding, nil
}
