package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/printkb/backend/internal/curation"
	"github.com/printkb/backend/internal/ingestion"
	"github.com/printkb/backend/pkg/logger"
)

type CurateHandler struct {
	processor *ingestion.Processor
}

func NewCurateHandler(processor *ingestion.Processor) *CurateHandler {
	return &CurateHandler{processor: processor}
}

type curateRequest struct {
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	URL          string   `json:"url"`
	Images       []string `json:"images"`
	DeclaredType string   `json:"declared_type"`
	QuestionList bool     `json:"question_list"`
	// HTMLContent, when set, takes precedence: title and body are
	// extracted from the markup instead.
	HTMLContent string `json:"html_content"`
}

func (h *CurateHandler) HandleCurate(c *fiber.Ctx) error {
	var req curateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse curate request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var (
		result *curation.Result
		err    error
	)

	if req.HTMLContent != "" {
		if req.URL == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "url is required with html_content",
			})
		}
		result, err = h.processor.ProcessHTML(c.Context(), req.URL, req.HTMLContent, nil)
	} else {
		if req.Title == "" || req.Body == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "title and body are required",
			})
		}
		doc := curation.CandidateDocument{
			Title:        req.Title,
			Body:         req.Body,
			URL:          req.URL,
			Images:       req.Images,
			DeclaredType: curation.ContentType(req.DeclaredType),
			QuestionList: req.QuestionList,
		}
		result, err = h.processor.Process(c.Context(), doc, nil)
	}

	if err != nil {
		logger.Error("Failed to curate document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to curate document",
		})
	}

	return c.JSON(fiber.Map{
		"decision":         result.Decision,
		"summary":          result.Summary,
		"abstract":         result.Abstract,
		"filtered_content": result.FilteredContent,
		"duplicate":        result.Duplicate,
		"relevance":        result.Relevance,
	})
}
