package middleware

import (
	"go-backoffice/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ContextLogger stores a logger tagged with the request id and the
// authenticated user in the request context. It must run after RequestID
// and, on protected groups, after ExtractUserID.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		meta := contextutil.ExtractMetadata(ctx)

		reqLogger := logger.With(
			zap.String("request_id", meta.RequestID),
			zap.String("user_id", meta.UserID),
			zap.String("route", c.FullPath()),
		)

		c.Request = c.Request.WithContext(contextutil.WithLogger(ctx, reqLogger))
		c.Next()
	}
}
