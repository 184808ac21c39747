package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/svtr-ai/ragcore/internal/query"
	"github.com/svtr-ai/ragcore/internal/storage/models"
	"github.com/svtr-ai/ragcore/internal/storage/sqlite"
	"github.com/svtr-ai/ragcore/pkg/logger"
)

type QueryHandler struct {
	engine  *query.Engine
	history *sqlite.Client
}

func NewQueryHandler(engine *query.Engine, history *sqlite.Client) *QueryHandler {
	return &QueryHandler{
		engine:  engine,
		history: history,
	}
}

func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var req struct {
		Query      string  `json:"query"`
		TopK       int     `json:"topK"`
		Threshold  float64 `json:"threshold"`
		DisableWeb bool    `json:"disableWebSearch"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// The validation middleware stores a sanitized copy of the body;
	// prefer its query text over the raw one.
	if sanitized, ok := c.Locals("sanitized_body").(map[string]interface{}); ok {
		if q, ok := sanitized["query"].(string); ok {
			req.Query = q
		}
	}

	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query is required",
		})
	}

	bundle := h.engine.Answer(c.Context(), req.Query, query.Options{
		TopK:               req.TopK,
		Threshold:          req.Threshold,
		DisableWebFallback: req.DisableWeb,
	})

	return c.JSON(bundle)
}

func (h *QueryHandler) GetQueryHistory(c *fiber.Ctx) error {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be an integer between 1 and 100",
			})
		}
		limit = parsed
	}

	records, err := h.history.RecentQueries(limit)
	if err != nil {
		logger.Error("Failed to load query history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load query history",
		})
	}
	if records == nil {
		records = []models.QueryRecord{}
	}

	return c.JSON(fiber.Map{
		"history": records,
	})
}

func (h *QueryHandler) GetQuerySources(c *fiber.Ctx) error {
	queryID := c.Params("id")
	if queryID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "query id is required",
		})
	}

	sources, err := h.history.SourcesFor(queryID)
	if err != nil {
		logger.Error("Failed to load query sources",
			zap.String("queryId", queryID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load query sources",
		})
	}
	if sources == nil {
		sources = []models.QuerySource{}
	}

	return c.JSON(fiber.Map{
		"queryId": queryID,
		"sources": sources,
	})
}

func (h *QueryHandler) GetSuggestions(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "q is required",
		})
	}

	suggestions := h.engine.Suggestions(q)
	if suggestions == nil {
		suggestions = []string{}
	}

	return c.JSON(fiber.Map{
		"query":       q,
		"suggestions": suggestions,
	})
}

func (h *QueryHandler) GetCacheStats(c *fiber.Ctx) error {
	return c.JSON(h.engine.CacheStats())
}
