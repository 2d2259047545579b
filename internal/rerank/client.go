package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/printkb/backend/pkg/logger"
)

// ErrUnavailable reports that no cross-encoder is configured or reachable.
// Absence is a supported configuration: retrieval silently skips reranking
// for the remainder of the process lifetime.
var ErrUnavailable = errors.New("cross-encoder service unavailable")

// Client talks to the cross-encoder sidecar. The model is loaded once by the
// sidecar process and reused across requests; this client is stateless and
// safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	available  bool
}

type scoreRequest struct {
	Query   string `json:"query"`
	Passage string `json:"passage"`
}

type scoreResponse struct {
	Score float64 `json:"score"`
}

// NewClient probes the sidecar once at startup. A failed probe does not
// error: it marks the reranker unavailable so search degrades to
// similarity-only ranking.
func NewClient(enabled bool, endpoint string, timeoutSec int) *Client {
	c := &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}

	if !enabled || endpoint == "" {
		logger.Info("Cross-encoder reranking disabled by configuration")
		return c
	}

	c.available = c.probe()
	if c.available {
		logger.Info("Cross-encoder service ready", zap.String("endpoint", endpoint))
	} else {
		logger.Warn("Cross-encoder service unreachable, reranking disabled",
			zap.String("endpoint", endpoint),
		)
	}

	return c
}

func (c *Client) probe() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func (c *Client) Available() bool {
	return c.available
}

// Score returns the raw cross-encoder logit for a (query, passage) pair.
func (c *Client) Score(ctx context.Context, query, passage string) (float64, error) {
	if !c.available {
		return 0, ErrUnavailable
	}

	body, err := json.Marshal(scoreRequest{Query: query, Passage: passage})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/rerank-score", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("cross-encoder call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("cross-encoder returned status %d", resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode score response: %w", err)
	}

	return out.Score, nil
}
