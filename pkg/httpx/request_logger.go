package httpx

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/mpsync/internal/ports"
	"github.com/Gunvolt24/mpsync/pkg/ctxmeta"
)

// KeyJobID — ключ gin.Context, под которым обработчик оставляет id поставленной задачи.
const KeyJobID = "job_id"

// RequestLogger — журнал HTTP-запросов; уровень по коду ответа (5xx — error, 4xx — warn).
// /metrics и /ping не логируются.
func RequestLogger(log ports.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		switch path {
		case "/metrics", "/ping":
			return
		case "":
			path = c.Request.URL.Path
		}

		ctx := c.Request.Context()
		rid, _ := ctxmeta.RequestIDFromContext(ctx)
		sp, _ := ctxmeta.SpanIDFromContext(ctx)
		job := c.GetString(KeyJobID)
		status := c.Writer.Status()

		logf := log.Infof
		switch {
		case status >= http.StatusInternalServerError:
			logf = log.Errorf
		case status >= http.StatusBadRequest:
			logf = log.Warnf
		}
		logf(ctx,
			"request id=%s span=%s method=%s path=%s status=%d job=%s ip=%s duration=%s size=%d",
			rid, sp, c.Request.Method, path, status, job,
			c.ClientIP(), time.Since(start), c.Writer.Size(),
		)
	}
}
