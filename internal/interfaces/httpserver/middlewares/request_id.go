package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderXRequestID is the header carrying the per-request correlation id.
const HeaderXRequestID = "X-Request-Id"

// RequestID ensures every request carries a correlation id. A client-supplied
// X-Request-Id is kept as-is; otherwise a fresh UUID is generated. The id is
// echoed on the response and stored in the gin context for log enrichment.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
			c.Request.Header.Set(HeaderXRequestID, id)
		}
		c.Writer.Header().Set(HeaderXRequestID, id)
		c.Set(HeaderXRequestID, id)
		c.Next()
	}
}

// RequestIDFromContext returns the correlation id set by RequestID, or "".
func RequestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(HeaderXRequestID); ok {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}
