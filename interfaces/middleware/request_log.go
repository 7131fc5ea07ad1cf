package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"youtube-uploader/infrastructure/logger"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// RequestLogger tags every request with a short id, stores it on the request
// context for logger.FromContext, and logs arrival and completion.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id := ctx.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()[:8]
		}
		ctx.Header(RequestIDHeader, id)
		ctx.Request = ctx.Request.WithContext(logger.WithRequestID(ctx.Request.Context(), id))

		log := logger.FromContext(ctx.Request.Context()).WithField("method", ctx.Request.Method).WithField("path", ctx.Request.URL.Path)
		log.Info("Request received")
		start := time.Now()

		ctx.Next()

		log.WithField("status", ctx.Writer.Status()).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Info("Request done")
	}
}
