package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"news-miniapp-gateway/internal/common/errors"
)

// RequireClaim rejects requests that reached it without a Telegram identity.
func RequireClaim(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetClaim(c); !ok {
			AbortWithError(c, errors.NewUnauthorizedError("session or Telegram init data required"), logger)
			return
		}
		c.Next()
	}
}
