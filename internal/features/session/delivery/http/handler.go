package http

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	apperrors "news-miniapp-gateway/internal/common/errors"
	"news-miniapp-gateway/internal/common/middleware"
	"news-miniapp-gateway/internal/common/validation"
	"news-miniapp-gateway/internal/features/identity"
	"news-miniapp-gateway/internal/features/session/models"
	"news-miniapp-gateway/internal/features/session/service"
)

type SessionHandler struct {
	service service.SessionService
	logger  zerolog.Logger
}

func NewSessionHandler(service service.SessionService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		logger:  logger,
	}
}

func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	wrap := middleware.HandleErrorWrapper(h.logger)
	sessions := router.Group("/session")
	{
		sessions.POST("/bootstrap", wrap(h.bootstrap))
		sessions.POST("/recheck", wrap(h.recheck))
	}
}

// bootstrap resolves the launching user from the posted host snapshot and opens a session.
//
// @Summary Bootstrap session
// @Description Resolve the launching Telegram user, decide between onboarding and home, and open a session. With a bot token configured the session opens only for signed init data.
// @Tags session
// @Accept json
// @Produce json
// @Security TelegramInitData
// @Param request body models.BootstrapRequest false "Host snapshot"
// @Success 200 {object} models.BootstrapResponse "Resolution"
// @Failure 400 {object} middleware.ErrorResponse "Malformed payload"
// @Failure 401 {object} middleware.ErrorResponse "Signed init data belongs to another user"
// @Failure 502 {object} middleware.ErrorResponse "News backend unavailable"
// @Router /session/bootstrap [post]
func (h *SessionHandler) bootstrap(c *gin.Context) {
	var req models.BootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(validation.BindError(err, "Invalid bootstrap payload"))
		return
	}

	snapshot := identity.Snapshot{
		User:     toInitDataUser(req.InitDataUnsafe.User),
		InitData: req.InitData,
	}
	if snapshot.InitData == "" {
		snapshot.InitData = c.GetHeader(middleware.InitDataHeader)
	}

	var page *url.URL
	if raw := strings.TrimSpace(req.URL); raw != "" {
		parsed, err := url.Parse(raw)
		if err != nil {
			h.logger.Warn().
				Err(err).
				Str("error_code", string(apperrors.ErrCodeMalformedPayload)).
				Msg("Ignoring unparsable page url")
		} else {
			page = parsed
		}
	}

	resp, err := h.service.Bootstrap(c.Request.Context(), snapshot, page)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Recheck session
// @Description Re-run the registration check for an open session, e.g. after onboarding.
// @Tags session
// @Accept json
// @Produce json
// @Security SessionID
// @Param request body models.RecheckRequest false "Session id, falls back to the X-Session-ID header"
// @Success 200 {object} models.BootstrapResponse "Resolution"
// @Failure 401 {object} middleware.ErrorResponse "Unknown or expired session"
// @Failure 502 {object} middleware.ErrorResponse "News backend unavailable"
// @Router /session/recheck [post]
func (h *SessionHandler) recheck(c *gin.Context) {
	var req models.RecheckRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		_ = c.Error(validation.BindError(err, "Invalid recheck payload"))
		return
	}
	if req.SessionID == "" {
		req.SessionID = c.GetHeader(middleware.SessionIDHeader)
	}

	resp, err := h.service.Recheck(c.Request.Context(), req.SessionID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func toInitDataUser(u *models.HostUser) *initdata.User {
	if u == nil {
		return nil
	}
	return &initdata.User{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Username:     u.Username,
		LanguageCode: u.LanguageCode,
		IsPremium:    u.IsPremium,
		PhotoURL:     u.PhotoURL,
	}
}
