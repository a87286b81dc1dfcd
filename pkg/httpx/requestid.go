package httpx

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Gunvolt24/mpsync/pkg/ctxmeta"
)

// HeaderRequestID — заголовок корреляции запроса.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLen — более длинный X-Request-ID от клиента заменяется новым.
const maxRequestIDLen = 128

// RequestIDMiddleware — request_id из заголовка (если он разумный) или новый UUID;
// кладётся в контекст и возвращается в ответе. Задачи очереди, поставленные
// запросом, логируются с тем же request_id.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = uuid.NewString()
		}
		c.Header(HeaderRequestID, requestID)
		c.Request = c.Request.WithContext(ctxmeta.WithRequestID(c.Request.Context(), requestID))

		c.Next()
	}
}

// validRequestID — непустой, ограниченной длины, только печатные ASCII.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
