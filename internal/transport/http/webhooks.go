package rest

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// maxWebhookBody — предел тела webhook-а.
const maxWebhookBody = 1 << 20

// webhookOrders — заказ (объект или список из одного элемента) ставится в очередь как есть.
func (h *Handler) webhookOrders(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read body"})
		return
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	jobID, err := h.Jobs.AcceptOrder(ctx, raw)
	if err != nil {
		h.fail(c, "webhook orders", err)
		return
	}
	accepted(c, jobID)
}

type statusWebhook struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// webhookStatus — {order_id, status}; применение статуса асинхронное.
func (h *Handler) webhookStatus(c *gin.Context) {
	var body statusWebhook
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	jobID, err := h.Jobs.AcceptStatus(ctx, body.OrderID, body.Status)
	if err != nil {
		h.fail(c, "webhook status", err)
		return
	}
	accepted(c, jobID)
}

func (h *Handler) webhookTest(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "webhook endpoint is reachable",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
