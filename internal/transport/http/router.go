package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/Gunvolt24/mpsync/pkg/httpx"
)

// NewRouter — маршруты webhook-ов маркетплейса и API оператора.
// otelServiceName пустой → без трейсинга.
func NewRouter(h *Handler, otelServiceName string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if otelServiceName != "" {
		r.Use(otelgin.Middleware(otelServiceName))
	}
	r.Use(httpx.RequestIDMiddleware())
	r.Use(httpx.RequestLogger(h.log))

	r.GET("/ping", func(c *gin.Context) { c.String(200, "pong") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	webhook := r.Group("/webhook")
	{
		webhook.POST("/orders", h.webhookOrders)
		webhook.POST("/status", h.webhookStatus)
		webhook.GET("/test", h.webhookTest)
		webhook.POST("/test", h.webhookTest)
	}

	orders := r.Group("/orders")
	{
		orders.GET("", h.listOrders)
		orders.GET("/:external_id", h.getOrder)
		orders.GET("/:external_id/cancel-diagnostics", h.cancelDiagnostics)
		orders.POST("/:external_id/confirm", h.confirmOrder)
		orders.POST("/:external_id/assign", h.assignOrder)
		orders.POST("/:external_id/deliver", h.deliverOrder)
		orders.POST("/:external_id/cancel", h.cancelOrder)
		orders.POST("/:external_id/push", h.pushOrder)
	}

	sync := r.Group("/sync")
	{
		sync.POST("/pull", h.syncPull)
		sync.POST("/products", h.syncProducts)
		sync.POST("/stock", h.syncStock)
	}

	cfg := r.Group("/config")
	{
		cfg.GET("", h.getConfig)
		cfg.POST("", h.createConfig)
		cfg.PUT("", h.updateConfig)
		cfg.POST("/test-connection", h.testConnection)
	}

	logs := r.Group("/sync-logs")
	{
		logs.GET("", h.listSyncLogs)
		logs.GET("/summary", h.syncLogSummary)
		logs.DELETE("", h.pruneSyncLogs)
	}

	return r
}
