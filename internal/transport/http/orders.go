package rest

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/pkg/httpx"
)

func (h *Handler) getOrder(c *gin.Context) {
	id := c.Param("external_id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty id"})
		return
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	order, err := h.Orders.GetOrder(ctx, id)
	if err != nil {
		h.fail(c, "get order", err)
		return
	}
	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) listOrders(c *gin.Context) {
	limit, offset := httpx.ParseLimitOffset(c, 20, 100)

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	orders, err := h.Orders.ListOrders(ctx, limit, offset)
	if err != nil {
		h.fail(c, "list orders", err)
		return
	}
	if orders == nil {
		orders = []*domain.LedgerOrder{}
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) cancelDiagnostics(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	reasons, err := h.Actions.CancelDiagnostics(ctx, c.Param("external_id"))
	if err != nil {
		h.fail(c, "cancel diagnostics", err)
		return
	}
	if reasons == nil {
		reasons = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"can_cancel": len(reasons) == 0, "reasons": reasons})
}

func (h *Handler) confirmOrder(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	if err := h.Actions.Confirm(ctx, c.Param("external_id")); err != nil {
		h.fail(c, "confirm order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) assignOrder(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	warnings, err := h.Actions.Assign(ctx, c.Param("external_id"))
	if err != nil {
		h.fail(c, "assign order", err)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "warnings": warnings})
}

func (h *Handler) deliverOrder(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	if err := h.Actions.Deliver(ctx, c.Param("external_id")); err != nil {
		h.fail(c, "deliver order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type cancelRequest struct {
	Reason domain.CancellationReason `json:"reason"`
}

// cancelOrder — тело необязательно; без причины используется причина заказа или по умолчанию.
func (h *Handler) cancelOrder(c *gin.Context) {
	var body cancelRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	if err := h.Actions.Cancel(ctx, c.Param("external_id"), body.Reason); err != nil {
		h.fail(c, "cancel order", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) pushOrder(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	jobID, err := h.Jobs.RequestPush(ctx, c.Param("external_id"))
	if err != nil {
		h.fail(c, "push order", err)
		return
	}
	accepted(c, jobID)
}
