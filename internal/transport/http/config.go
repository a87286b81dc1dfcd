package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/mpsync/internal/domain"
	"github.com/Gunvolt24/mpsync/internal/usecase"
)

// configRequest — тело создания; токен принимается, но никогда не отдаётся.
type configRequest struct {
	Name           string `json:"name"`
	BaseURL        string `json:"base_url"`
	AuthToken      string `json:"auth_token"`
	AuthHeader     string `json:"auth_header"`
	BatchSize      int    `json:"batch_size"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	RetryAttempts  *int   `json:"retry_attempts"`
	Active         *bool  `json:"active"`
}

// configPatchRequest — частичное изменение; timeout задаётся в секундах.
type configPatchRequest struct {
	usecase.ConfigPatch
	TimeoutSeconds *int `json:"timeout_seconds"`
}

func (h *Handler) getConfig(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	cfg, err := h.Configs.Current(ctx)
	if errors.Is(err, domain.ErrConfigNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.UserMessage(err)})
		return
	}
	if err != nil {
		h.fail(c, "get config", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) createConfig(c *gin.Context) {
	var body configRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.AuthToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auth_token is required"})
		return
	}

	cfg := &domain.MarketplaceConfig{
		Name:          body.Name,
		BaseURL:       body.BaseURL,
		AuthToken:     body.AuthToken,
		AuthHeader:    body.AuthHeader,
		BatchSize:     body.BatchSize,
		Timeout:       time.Duration(body.TimeoutSeconds) * time.Second,
		RetryAttempts: domain.DefaultRetryAttempts,
		Active:        true,
	}
	if body.RetryAttempts != nil {
		cfg.RetryAttempts = *body.RetryAttempts
	}
	if body.Active != nil {
		cfg.Active = *body.Active
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	if err := h.Configs.Create(ctx, cfg); err != nil {
		h.fail(c, "create config", err)
		return
	}
	c.JSON(http.StatusCreated, cfg)
}

func (h *Handler) updateConfig(c *gin.Context) {
	var body configPatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	patch := body.ConfigPatch
	if body.TimeoutSeconds != nil {
		d := time.Duration(*body.TimeoutSeconds) * time.Second
		patch.Timeout = &d
	}

	ctx, cancel := h.reqCtx(c)
	defer cancel()

	cfg, err := h.Configs.Update(ctx, patch)
	if errors.Is(err, domain.ErrConfigNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.UserMessage(err)})
		return
	}
	if err != nil {
		h.fail(c, "update config", err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *Handler) testConnection(c *gin.Context) {
	ctx, cancel := h.reqCtx(c)
	defer cancel()

	res, err := h.Configs.TestConnection(ctx)
	if err != nil {
		h.fail(c, "test connection", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
