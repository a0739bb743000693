package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/features/identity"
)

const (
	SessionIDHeader = "X-Session-ID"
	InitDataHeader  = "X-Telegram-Init-Data"

	claimKey = "claim"
)

// ClaimSource returns the claim stored for an open session.
type ClaimSource interface {
	Claim(ctx context.Context, sessionID string) (*identity.Claim, error)
}

// InitDataConfig controls how the init data header is trusted. An empty BotToken
// accepts unsigned init data, which is only meant for local development.
type InitDataConfig struct {
	BotToken string
	TTL      time.Duration
}

// TelegramIdentity puts the caller's claim into the context. The session header wins;
// the init data header is the fallback. Requests carrying neither pass through
// without a claim and are rejected by RequireClaim where one is needed.
func TelegramIdentity(sessions ClaimSource, cfg InitDataConfig, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := strings.TrimSpace(c.GetHeader(SessionIDHeader))
		initData := strings.TrimSpace(c.GetHeader(InitDataHeader))

		if sessionID != "" {
			claim, err := sessions.Claim(c.Request.Context(), sessionID)
			if err == nil {
				SetClaim(c, claim)
				c.Next()
				return
			}
			if initData == "" {
				AbortWithError(c, err, logger)
				return
			}
			logger.Debug().
				Err(err).
				Str("request_id", getRequestID(c)).
				Msg("Session lookup failed, trying init data")
		}

		if initData == "" {
			c.Next()
			return
		}

		claim, err := claimFromInitData(initData, cfg)
		if err != nil {
			AbortWithError(c, err, logger)
			return
		}
		if cfg.BotToken == "" {
			logger.Debug().
				Int64("tg_id", claim.ID).
				Msg("Accepted unsigned init data")
		}

		SetClaim(c, claim)
		c.Next()
	}
}

func claimFromInitData(raw string, cfg InitDataConfig) (*identity.Claim, error) {
	if cfg.BotToken != "" {
		return identity.Verify(raw, cfg.BotToken, cfg.TTL)
	}
	claim, err := identity.ParseInitData(identity.ChannelRawInitData, raw)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, errors.NewIdentityUnavailableError()
	}
	return claim, nil
}

// SetClaim stores the caller's claim in the request context.
func SetClaim(c *gin.Context, claim *identity.Claim) {
	c.Set(claimKey, claim)
}

// GetClaim returns the claim set by TelegramIdentity.
func GetClaim(c *gin.Context) (*identity.Claim, bool) {
	value, exists := c.Get(claimKey)
	if !exists {
		return nil, false
	}
	claim, ok := value.(*identity.Claim)
	return claim, ok && claim != nil
}
