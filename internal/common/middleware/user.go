package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/platform/newsapi"
)

const profileKey = "profile"

// ProfileSource reports whether a Telegram user is registered.
type ProfileSource interface {
	UserInfo(ctx context.Context, tgID int64) (*newsapi.UserInfo, error)
}

// RequireProfile loads the caller's registered profile. Unregistered users get
// NEEDS_ONBOARDING so the shell can route them back to category selection.
func RequireProfile(profiles ProfileSource, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claim, ok := GetClaim(c)
		if !ok {
			AbortWithError(c, errors.NewUnauthorizedError("session or Telegram init data required"), logger)
			return
		}

		info, err := profiles.UserInfo(c.Request.Context(), claim.ID)
		if err != nil {
			AbortWithError(c, err, logger)
			return
		}
		if info == nil || !info.Exists || info.User == nil {
			AbortWithError(c, errors.New(errors.ErrCodeNeedsOnboarding, "User is not registered").
				WithUserID(claim.ID), logger)
			return
		}

		c.Set(profileKey, info.User)
		c.Next()
	}
}

// GetProfile returns the profile loaded by RequireProfile.
func GetProfile(c *gin.Context) (*newsapi.UserProfile, bool) {
	value, exists := c.Get(profileKey)
	if !exists {
		return nil, false
	}
	profile, ok := value.(*newsapi.UserProfile)
	return profile, ok && profile != nil
}
