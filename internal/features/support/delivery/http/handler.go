package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"news-miniapp-gateway/internal/common/middleware"
	"news-miniapp-gateway/internal/common/validation"
	"news-miniapp-gateway/internal/features/support/models"
	"news-miniapp-gateway/internal/features/support/service"
)

type SupportHandler struct {
	service service.SupportService
	logger  zerolog.Logger
}

func NewSupportHandler(service service.SupportService, logger zerolog.Logger) *SupportHandler {
	return &SupportHandler{
		service: service,
		logger:  logger,
	}
}

func (h *SupportHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/support", middleware.RequireClaim(h.logger), middleware.HandleErrorWrapper(h.logger)(h.send))
}

// @Summary Contact support
// @Description Forward a message from the current user to the support desk
// @Tags support
// @Accept json
// @Produce json
// @Security SessionID
// @Security TelegramInitData
// @Param request body models.SupportRequest true "Message"
// @Success 201 {object} models.SupportResponse "Message accepted"
// @Failure 400 {object} middleware.ErrorResponse "Validation error"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 502 {object} middleware.ErrorResponse "News backend unavailable"
// @Router /support [post]
func (h *SupportHandler) send(c *gin.Context) {
	var req models.SupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.BindError(err, "Invalid support payload"))
		return
	}

	claim, _ := middleware.GetClaim(c)
	resp, err := h.service.Send(c.Request.Context(), claim, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
