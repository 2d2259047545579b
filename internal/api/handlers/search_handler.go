package handlers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	rediscache "github.com/printkb/backend/internal/cache/redis"
	"github.com/printkb/backend/internal/metrics"
	"github.com/printkb/backend/internal/middleware/requestid"
	"github.com/printkb/backend/internal/search"
	"github.com/printkb/backend/pkg/logger"
	"github.com/printkb/backend/pkg/utils"
)

type SearchHandler struct {
	engine *search.Engine
	cache  *rediscache.Client

	// Configured defaults, overridable per request.
	useReranking bool
	boostFilters bool
}

func NewSearchHandler(engine *search.Engine, cache *rediscache.Client, useReranking, boostFilters bool) *SearchHandler {
	return &SearchHandler{
		engine:       engine,
		cache:        cache,
		useReranking: useReranking,
		boostFilters: boostFilters,
	}
}

type searchRequest struct {
	Query         string   `json:"query"`
	ProblemType   string   `json:"problem_type"`
	PrinterModels []string `json:"printer_models"`
	Materials     []string `json:"materials"`
	K             int      `json:"k"`
	RerankTopK    int      `json:"rerank_top_k"`
	UseReranking  *bool    `json:"use_reranking"`
	BoostFilters  *bool    `json:"boost_filters"`
}

func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req searchRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse search request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query is required",
		})
	}

	useReranking := h.useReranking
	if req.UseReranking != nil {
		useReranking = *req.UseReranking
	}
	boostFilters := h.boostFilters
	if req.BoostFilters != nil {
		boostFilters = *req.BoostFilters
	}

	q := search.Query{
		Text: req.Query,
		Filters: search.Filters{
			ProblemType:   req.ProblemType,
			PrinterModels: req.PrinterModels,
			Materials:     req.Materials,
		},
		K:            req.K,
		RerankTopK:   req.RerankTopK,
		UseReranking: useReranking,
	}

	cacheKey := h.cacheKey(req)
	if h.cache != nil {
		if results, ok := h.cache.GetSearchResults(c.Context(), cacheKey); ok {
			return c.JSON(fiber.Map{"results": results, "cached": true})
		}
	}

	var (
		results []search.Result
		err     error
	)
	if boostFilters && !q.Filters.IsEmpty() {
		results, err = h.engine.HybridSearch(c.Context(), q)
	} else {
		results, err = h.engine.Search(c.Context(), q)
	}

	if err != nil {
		logger.Error("Search failed",
			zap.String("query", req.Query),
			zap.String("request_id", requestid.FromCtx(c)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to execute search",
		})
	}

	metrics.SearchResultsCount.Observe(float64(len(results)))

	if h.cache != nil {
		h.cache.SetSearchResults(c.Context(), cacheKey, results)
	}

	return c.JSON(fiber.Map{"results": results})
}

func (h *SearchHandler) cacheKey(req searchRequest) string {
	raw, _ := json.Marshal(req)
	return utils.HashString(string(raw))
}
