package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/printkb/backend/internal/storage/sqlite"
	"github.com/printkb/backend/pkg/logger"
)

type ArticleHandler struct {
	db *sqlite.Client
}

func NewArticleHandler(db *sqlite.Client) *ArticleHandler {
	return &ArticleHandler{db: db}
}

func (h *ArticleHandler) GetArticle(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "article id is required",
		})
	}

	article, err := h.db.GetArticle(id)
	if err != nil {
		logger.Warn("Article not found", zap.String("article_id", id), zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Article not found",
		})
	}

	return c.JSON(article)
}

func (h *ArticleHandler) GetCurationHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	records, err := h.db.ListCurationHistory(limit)
	if err != nil {
		logger.Error("Failed to list curation history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list curation history",
		})
	}

	return c.JSON(fiber.Map{"history": records})
}
