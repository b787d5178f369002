package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/citypages/billing/pkg/tool"
)

// TraceMiddleware tags every request with a trace id, honoring an incoming
// X-Request-ID so processor retries correlate across deliveries. The id is
// stored under "traceID" in both gin.Context and the request context.
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader("X-Request-ID")
		if traceID == "" {
			traceID = tool.GenerateUUIDV7()
		}

		c.Set("traceID", traceID)
		ctx := context.WithValue(c.Request.Context(), "traceID", traceID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
