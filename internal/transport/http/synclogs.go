package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/pkg/httpx"
)

func (h *Handler) listSyncLogs(c *gin.Context) {
	configID, err := httpx.PositiveQuery(c, "config_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, offset := httpx.ParseLimitOffset(c, 50, 500)
	f := domain.SyncLogFilter{
		ConfigID:  configID,
		Operation: domain.OperationType(c.Query("operation")),
		Status:    domain.LogStatus(c.Query("status")),
		Limit:     limit,
		Offset:    offset,
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	entries, err := h.Journal.List(ctx, f)
	if err != nil {
		h.fail(c, "list sync logs", err)
		return
	}
	if entries == nil {
		entries = []*domain.SyncLogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// syncLogSummary — ?config_id=N (по умолчанию по всем конфигурациям).
func (h *Handler) syncLogSummary(c *gin.Context) {
	configID, err := httpx.PositiveQuery(c, "config_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	sum, err := h.Journal.Summary(ctx, configID)
	if err != nil {
		h.fail(c, "sync log summary", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// pruneSyncLogs — ?days=N (по умолчанию срок хранения сервиса).
func (h *Handler) pruneSyncLogs(c *gin.Context) {
	days, err := httpx.PositiveQuery(c, "days")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	n, err := h.Journal.Prune(ctx, int(days))
	if err != nil {
		h.fail(c, "prune sync logs", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
