package rest

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type pullRequest struct {
	From *time.Time `json:"from"`
	To   *time.Time `json:"to"`
}

type productSyncRequest struct {
	ProductIDs []int64 `json:"product_ids"`
}

// syncPull — выгрузка заказов; без тела — окно по умолчанию.
func (h *Handler) syncPull(c *gin.Context) {
	var body pullRequest
	if !bindOptionalJSON(c, &body) {
		return
	}
	if body.From != nil && body.To != nil && body.To.Before(*body.From) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	jobID, err := h.Jobs.RequestPull(ctx, body.From, body.To)
	if err != nil {
		h.fail(c, "sync pull", err)
		return
	}
	accepted(c, jobID)
}

func (h *Handler) syncProducts(c *gin.Context) { h.productSync(c, false) }

func (h *Handler) syncStock(c *gin.Context) { h.productSync(c, true) }

func (h *Handler) productSync(c *gin.Context, stock bool) {
	var body productSyncRequest
	if !bindOptionalJSON(c, &body) {
		return
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	jobID, err := h.Jobs.RequestProductSync(ctx, stock, body.ProductIDs)
	if err != nil {
		h.fail(c, "sync products", err)
		return
	}
	accepted(c, jobID)
}

// bindOptionalJSON — пустое тело допустимо; битый JSON → 400.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	return true
}
