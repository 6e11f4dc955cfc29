package middleware

import (
	"go-backoffice/internal/shared/apperror"
	"go-backoffice/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
)

// ExtractUserID copies the authenticated user id into gin and the request
// context for the middlewares and services that run after it.
func ExtractUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextUserID)
		if userID == "" {
			abortWith(c, apperror.ErrUnauthorized)
			return
		}

		c.Set("user_id_validated", userID)
		c.Request = c.Request.WithContext(contextutil.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
