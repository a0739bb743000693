package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"news-miniapp-gateway/internal/common/middleware"
	"news-miniapp-gateway/internal/common/validation"
	"news-miniapp-gateway/internal/features/catalog"
	catalogHTTP "news-miniapp-gateway/internal/features/catalog/delivery/http"
	"news-miniapp-gateway/internal/features/profile/models"
	"news-miniapp-gateway/internal/features/profile/service"
)

type ProfileHandler struct {
	service  service.ProfileService
	profiles middleware.ProfileSource
	catalog  *catalog.Catalog
	logger   zerolog.Logger
}

func NewProfileHandler(service service.ProfileService, profiles middleware.ProfileSource, cat *catalog.Catalog, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service:  service,
		profiles: profiles,
		catalog:  cat,
		logger:   logger,
	}
}

// RegisterRoutes expects TelegramIdentity to run before the group.
func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	wrap := middleware.HandleErrorWrapper(h.logger)
	requireClaim := middleware.RequireClaim(h.logger)
	requireProfile := middleware.RequireProfile(h.profiles, h.logger)

	router.POST("/onboarding", requireClaim, wrap(h.onboarding))
	router.GET("/home", requireProfile, wrap(h.home))

	settings := router.Group("/settings")
	settings.Use(requireProfile)
	{
		settings.GET("", wrap(h.getSettings))
		settings.PUT("", wrap(h.updateSettings))
	}
}

// @Summary Complete onboarding
// @Description Register the current user with the picked categories. Repeated submits share one registration.
// @Tags profile
// @Accept json
// @Produce json
// @Security SessionID
// @Security TelegramInitData
// @Param request body models.OnboardingRequest true "Picked categories and contacts"
// @Success 201 {object} models.OnboardingResponse "User registered"
// @Success 200 {object} models.OnboardingResponse "User already registered"
// @Failure 400 {object} middleware.ErrorResponse "Validation error"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 409 {object} middleware.ErrorResponse "Registration already in progress"
// @Failure 502 {object} middleware.ErrorResponse "News backend unavailable"
// @Router /onboarding [post]
func (h *ProfileHandler) onboarding(c *gin.Context) {
	var req models.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.BindError(err, "Invalid onboarding payload"))
		return
	}

	claim, _ := middleware.GetClaim(c)
	resp, err := h.service.Register(c.Request.Context(), claim, req, catalogHTTP.ResolveLanguage(c, h.catalog))
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

// @Summary Home view
// @Tags profile
// @Produce json
// @Security SessionID
// @Security TelegramInitData
// @Param lang query string false "Language override (ru, en)"
// @Success 200 {object} models.HomeView "Greeting and categories"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Onboarding required"
// @Router /home [get]
func (h *ProfileHandler) home(c *gin.Context) {
	claim, _ := middleware.GetClaim(c)
	profile, _ := middleware.GetProfile(c)
	c.JSON(http.StatusOK, h.service.Home(claim, profile, catalogHTTP.ResolveLanguage(c, h.catalog)))
}

// @Summary Get settings
// @Tags profile
// @Produce json
// @Security SessionID
// @Security TelegramInitData
// @Success 200 {object} models.SettingsView "Current profile"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Onboarding required"
// @Router /settings [get]
func (h *ProfileHandler) getSettings(c *gin.Context) {
	profile, _ := middleware.GetProfile(c)
	c.JSON(http.StatusOK, h.service.Settings(profile, catalogHTTP.ResolveLanguage(c, h.catalog)))
}

// @Summary Update settings
// @Description Partial update. An empty string clears full name or email.
// @Tags profile
// @Accept json
// @Produce json
// @Security SessionID
// @Security TelegramInitData
// @Param request body models.SettingsUpdate true "Changed fields"
// @Success 200 {object} models.SettingsUpdateResponse "Updated profile"
// @Failure 400 {object} middleware.ErrorResponse "Validation error"
// @Failure 401 {object} middleware.ErrorResponse "Unauthorized"
// @Failure 403 {object} middleware.ErrorResponse "Onboarding required"
// @Failure 502 {object} middleware.ErrorResponse "News backend unavailable"
// @Router /settings [put]
func (h *ProfileHandler) updateSettings(c *gin.Context) {
	var req models.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(validation.BindError(err, "Invalid settings payload"))
		return
	}

	claim, _ := middleware.GetClaim(c)
	resp, err := h.service.UpdateSettings(c.Request.Context(), claim, req, catalogHTTP.ResolveLanguage(c, h.catalog))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
