package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/devtrackhq/statusboard/internal/constants"
	apierrors "github.com/devtrackhq/statusboard/internal/errors"
)

// RequireAuth checks if the developer is authenticated via session
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		developerID := session.Get(constants.ContextKeyDeveloperID)

		if developerID == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		// Store developer ID in context for easy access in handlers
		c.Set(constants.ContextKeyDeveloperID, developerID)
		c.Next()
	}
}

// GetDeveloperID retrieves the current developer ID from context
func GetDeveloperID(c *gin.Context) (uint64, bool) {
	developerID, exists := c.Get(constants.ContextKeyDeveloperID)
	if !exists {
		return 0, false
	}

	switch v := developerID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
