package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lalith-99/cipherroom/internal/middleware"
	"github.com/lalith-99/cipherroom/internal/service"
	"go.uber.org/zap"
)

type ReceiptHandler struct {
	delivery *service.DeliveryService
	logger   *zap.Logger
}

func NewReceiptHandler(delivery *service.DeliveryService, logger *zap.Logger) *ReceiptHandler {
	return &ReceiptHandler{delivery: delivery, logger: logger}
}

// MarkDelivered handles POST /v1/messages/:id/delivered
func (h *ReceiptHandler) MarkDelivered(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := middleware.GetUserID(c)

	receipt, err := h.delivery.MarkDelivered(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// MarkRead handles POST /v1/messages/:id/read
func (h *ReceiptHandler) MarkRead(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := middleware.GetUserID(c)

	receipt, err := h.delivery.MarkRead(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

// ListReceipts handles GET /v1/messages/:id/receipts — the sender's view
// of who has received and read their message.
func (h *ReceiptHandler) ListReceipts(c *gin.Context) {
	messageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := middleware.GetUserID(c)

	receipts, err := h.delivery.ListReceipts(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, receipts)
}
