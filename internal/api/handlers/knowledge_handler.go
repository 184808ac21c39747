package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/svtr-ai/ragcore/internal/indexer"
	"github.com/svtr-ai/ragcore/pkg/logger"
)

type KnowledgeHandler struct {
	indexer *indexer.Indexer
}

func NewKnowledgeHandler(ix *indexer.Indexer) *KnowledgeHandler {
	return &KnowledgeHandler{indexer: ix}
}

// UploadKnowledge indexes a batch of documents into the vector
// collection and drops cached bundles that may now be stale.
func (h *KnowledgeHandler) UploadKnowledge(c *fiber.Ctx) error {
	var req struct {
		Documents []indexer.Document `json:"documents"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse knowledge upload", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Documents) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "documents is required",
		})
	}

	indexed, err := h.indexer.Sync(c.Context(), req.Documents)
	if err != nil {
		logger.Error("Knowledge sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to index documents",
		})
	}

	return c.JSON(fiber.Map{
		"indexed": indexed,
	})
}
